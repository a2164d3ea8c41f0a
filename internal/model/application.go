package model

import "time"

// Application review status
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application one per candidate (table applications)
type Application struct {
	ApplicationID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	CandidateID     string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"candidate_id"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	PromotionYear   *int       `gorm:"index"                                          json:"promotion_year,omitempty"`
	ApplicationDate time.Time  `gorm:"not null"                                       json:"application_date"`
	SubmittedAt     *time.Time `                                                      json:"submitted_at,omitempty"`
	ReviewDate      *time.Time `                                                      json:"review_date,omitempty"`
	ReviewedBy      *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	Notes           string     `gorm:"type:text"                                      json:"notes"`
	BaseModel
}

// TableName table name
func (Application) TableName() string { return "applications" }

// IsReviewable finalized by the candidate and not yet decided.
func (a *Application) IsReviewable() bool {
	return a.SubmittedAt != nil && a.Status == ApplicationPending
}
