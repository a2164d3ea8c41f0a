package model

import "time"

// ApplicationPeriod registration window (table application_periods)
type ApplicationPeriod struct {
	PeriodID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	Name          string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate     time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null"                             json:"end_date"`
	PromotionYear int       `gorm:"not null"                                       json:"promotion_year"`
	IsActive      bool      `gorm:"not null;index"                                 json:"is_active"`
	Description   string    `gorm:"type:text"                                      json:"description"`
	BaseModel
}

// TableName table name
func (ApplicationPeriod) TableName() string { return "application_periods" }

// Window position of day relative to the period, compared by calendar date.
// Returns -1 before start, 0 inside (bounds included), 1 after end.
func (p *ApplicationPeriod) Window(day time.Time) int {
	d := day.Format(time.DateOnly)
	switch {
	case d < p.StartDate.Format(time.DateOnly):
		return -1
	case d > p.EndDate.Format(time.DateOnly):
		return 1
	default:
		return 0
	}
}
