package model

import "strings"

// Guardian legal guardian of a candidate (table guardians)
type Guardian struct {
	GuardianID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"guardian_id"`
	CandidateID  string  `gorm:"type:uuid;not null;index"                       json:"candidate_id"`
	UserID       *string `gorm:"type:uuid;index"                                json:"user_id,omitempty"`
	FirstName    string  `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName     string  `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Relationship string  `gorm:"type:varchar(50)"                               json:"relationship"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone        string  `gorm:"type:varchar(20)"                               json:"phone"`
	Address      string  `gorm:"type:varchar(255)"                              json:"address"`
	City         string  `gorm:"type:varchar(100)"                              json:"city"`
	PostalCode   string  `gorm:"type:varchar(20)"                               json:"postal_code"`
	BaseModel
}

// TableName table name
func (Guardian) TableName() string { return "guardians" }

// FullName "First Last"
func (g *Guardian) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
