package models

import "time"

type WorkingHours struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CompanyID uint `gorm:"index:idx_company_weekday,unique" json:"company_id"`

	Weekday int `gorm:"index:idx_company_weekday,unique" json:"weekday"`

	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
	Active     bool   `json:"active"`

	SlotGranularityMin int  `gorm:"default:30" json:"slot_granularity_min"`
	AdvanceMaxDays     int  `gorm:"default:30" json:"advance_max_days"`
	SameDayAllowed     bool `gorm:"default:true" json:"same_day_allowed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
