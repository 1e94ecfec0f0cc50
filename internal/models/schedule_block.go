package models

import "time"

// Bloqueio de agenda: férias, feriado, manutenção etc.
// ProfessionalID nulo = bloqueio da empresa inteira.
// StartTime/EndTime vazios = dia inteiro.
type ScheduleBlock struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CompanyID uint `gorm:"index" json:"company_id"`

	ProfessionalID *uint `gorm:"index" json:"professional_id"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	StartTime string `gorm:"size:5" json:"start_time"`
	EndTime   string `gorm:"size:5" json:"end_time"`

	BlockType string `gorm:"size:30;default:'other'" json:"block_type"`
	Reason    string `gorm:"size:255" json:"reason"`
	Active    bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
