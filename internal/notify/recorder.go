package notify

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-scheduler/internal/models"
)

// Status de entrega registrados no histórico.
const (
	DeliveryDelivered = "delivered"
	DeliveryRetrying  = "retrying"
	DeliveryFailed    = "failed"
)

// DeliveryRecorder registra o desfecho de cada tentativa contra o
// agendamento de origem. Falha aqui nunca interrompe o worker.
type DeliveryRecorder interface {
	Record(ctx context.Context, m *Message, status, providerMessageID, errText string)
}

type GormDeliveryRecorder struct {
	db *gorm.DB
}

func NewGormDeliveryRecorder(db *gorm.DB) *GormDeliveryRecorder {
	return &GormDeliveryRecorder{db: db}
}

func (r *GormDeliveryRecorder) Record(ctx context.Context, m *Message, status, providerMessageID, errText string) {
	entry := models.DeliveryLog{
		AppointmentID:     m.AppointmentID,
		MessageID:         m.ID,
		Channel:           string(m.Channel),
		Recipient:         m.Recipient,
		NotificationType:  string(m.Type),
		Status:            status,
		ProviderMessageID: providerMessageID,
		Error:             errText,
		Attempt:           m.RetryCount,
	}

	// best effort: histórico não pode derrubar a entrega
	_ = r.db.WithContext(ctx).Create(&entry).Error
}

var _ DeliveryRecorder = (*GormDeliveryRecorder)(nil)
