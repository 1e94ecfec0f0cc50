package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
)

// Notificação é best-effort: falha aqui nunca desfaz nem bloqueia a
// operação de agendamento que a originou.

func notificationChannel(customer *models.Customer) (notify.Channel, string) {
	if customer.Phone != "" {
		return notify.ChannelWhatsApp, customer.Phone
	}
	if customer.Email != "" {
		return notify.ChannelEmail, customer.Email
	}
	return "", ""
}

func notificationVariables(customer *models.Customer, service *models.Service, date, clock string) map[string]string {
	return map[string]string{
		"customer_name": customer.Name,
		"service":       service.Name,
		"date":          date,
		"time":          clock,
	}
}

func enqueueNotification(ctx context.Context, queue notify.Queue, logger *zap.Logger, m *notify.Message) {
	if m.Recipient == "" {
		return
	}
	if _, err := queue.Enqueue(ctx, m); err != nil {
		logger.Warn("booking: notification enqueue failed",
			zap.String("type", string(m.Type)),
			zap.Error(err),
		)
	}
}
