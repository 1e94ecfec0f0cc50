package notify

import (
	"fmt"
	"strings"
)

// TemplateRenderer transforma chave de template + variáveis no texto
// final. A escrita dos templates em si fica fora deste núcleo.
type TemplateRenderer interface {
	Render(templateKey string, variables map[string]string) (string, error)
}

// DefaultRenderer substitui {placeholders} nos textos padrão.
type DefaultRenderer struct {
	templates map[string]string
}

func NewDefaultRenderer() *DefaultRenderer {
	return &DefaultRenderer{
		templates: map[string]string{
			"confirmation": "Olá {customer_name}! Seu agendamento de {service} foi confirmado para {date} às {time}.",
			"reminder":     "Lembrete: {service} amanhã, {date} às {time}. Até lá, {customer_name}!",
			"cancellation": "Olá {customer_name}, seu agendamento de {service} em {date} às {time} foi cancelado.",
			"reschedule":   "Olá {customer_name}, seu agendamento de {service} foi remarcado para {date} às {time}.",
		},
	}
}

func (r *DefaultRenderer) Render(templateKey string, variables map[string]string) (string, error) {
	tpl, ok := r.templates[templateKey]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateKey)
	}

	out := tpl
	for k, v := range variables {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out, nil
}
