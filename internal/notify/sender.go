package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender é a capacidade mínima de um provedor de canal:
// send(recipient, content) → providerMessageID | erro.
type Sender interface {
	Send(ctx context.Context, recipient, content string) (providerMessageID string, err error)
}

// SenderRegistry resolve o Sender de cada canal. Canal sem sender
// registrado é falha de configuração (sem retry).
type SenderRegistry struct {
	senders map[Channel]Sender
}

func NewSenderRegistry() *SenderRegistry {
	return &SenderRegistry{senders: map[Channel]Sender{}}
}

func (r *SenderRegistry) Register(ch Channel, s Sender) {
	r.senders[ch] = s
}

func (r *SenderRegistry) Get(ch Channel) (Sender, bool) {
	s, ok := r.senders[ch]
	return s, ok
}

// ======================================================
// WEBHOOK (WhatsApp / SMS gateways)
// ======================================================

// WebhookSender cobre gateways HTTP genéricos de WhatsApp/SMS.
type WebhookSender struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) Send(ctx context.Context, recipient, content string) (string, error) {
	if s.url == "" {
		return "", ErrChannelNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"to":   recipient,
		"body": content,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.MessageID == "" {
		// gateway sem corpo útil: gera um id local para o histórico
		return uuid.NewString(), nil
	}
	return out.MessageID, nil
}

// ======================================================
// SMTP (email)
// ======================================================

type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", strings.TrimSpace(host), strings.TrimSpace(port)),
		from: strings.TrimSpace(from),
	}
}

func (s *SMTPSender) Send(ctx context.Context, recipient, content string) (string, error) {
	if strings.HasPrefix(s.addr, ":") {
		return "", ErrChannelNotConfigured
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, recipient, "Agendamento", content,
	)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{recipient}, []byte(msg)); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}
