package models

import "time"

// Histórico de entrega de notificações, por tentativa.
type DeliveryLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID *uint  `gorm:"index" json:"appointment_id"`
	MessageID     string `gorm:"size:40;index" json:"message_id"`

	Channel          string `gorm:"size:20" json:"channel"`
	Recipient        string `gorm:"size:100" json:"recipient"`
	NotificationType string `gorm:"size:30" json:"notification_type"`

	Status            string `gorm:"size:20" json:"status"`
	ProviderMessageID string `gorm:"size:100" json:"provider_message_id"`
	Error             string `gorm:"size:255" json:"error"`
	Attempt           int    `json:"attempt"`

	CreatedAt time.Time `json:"created_at"`
}
