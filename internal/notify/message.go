package notify

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

// Tipo explícito da notificação, carregado desde a criação.
// Nada de inferir tipo a partir do texto renderizado.
type Type string

const (
	TypeConfirmation Type = "confirmation"
	TypeReminder     Type = "reminder"
	TypeCancellation Type = "cancellation"
	TypeReschedule   Type = "reschedule"
)

// Message é a unidade de trabalho da fila. Criada no enqueue, mutada
// (RetryCount, ScheduledAt, LastError) a cada falha, removida no
// sucesso ou movida para dead-letter ao estourar MaxRetries.
type Message struct {
	ID        string   `json:"id"`
	Recipient string   `json:"recipient"`
	Channel   Channel  `json:"channel"`
	Priority  Priority `json:"priority"`
	Type      Type     `json:"type"`

	TemplateKey string            `json:"template_key,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	Body        string            `json:"body,omitempty"`

	AppointmentID *uint `json:"appointment_id,omitempty"`

	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// normalize preenche defaults no enqueue.
func (m *Message) normalize(now time.Time, defaultMaxRetries int) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Priority == "" {
		m.Priority = PriorityNormal
	}
	if m.MaxRetries <= 0 {
		m.MaxRetries = defaultMaxRetries
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

// NextRetryDelay aplica o backoff exponencial: 2^retryCount minutos.
func (m *Message) NextRetryDelay() time.Duration {
	return time.Duration(1<<uint(m.RetryCount)) * time.Minute
}
