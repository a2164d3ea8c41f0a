package model

import (
	"strings"
	"time"
)

// Candidate application_status values. The wizard steps come first, in order.
const (
	StatusStep1    = "step1"
	StatusStep2    = "step2"
	StatusStep3    = "step3"
	StatusStep4    = "step4"
	StatusStep5    = "step5"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Candidate applicant (table candidates)
type Candidate struct {
	CandidateID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"candidate_id"`
	UserID               *string   `gorm:"type:uuid;index"                                json:"user_id,omitempty"`
	FirstName            string    `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName             string    `gorm:"type:varchar(100);not null"                     json:"last_name"`
	DateOfBirth          time.Time `gorm:"type:date;not null"                             json:"date_of_birth"`
	Nationality          string    `gorm:"type:varchar(100)"                              json:"nationality"`
	BirthPlace           string    `gorm:"type:varchar(100)"                              json:"birth_place"`
	BirthPlacePostalCode string    `gorm:"type:varchar(20)"                               json:"birth_place_postal_code"`
	BirthPlaceCity       string    `gorm:"type:varchar(100)"                              json:"birth_place_city"`
	Address              string    `gorm:"type:varchar(255)"                              json:"address"`
	City                 string    `gorm:"type:varchar(100)"                              json:"city"`
	PostalCode           string    `gorm:"type:varchar(20)"                               json:"postal_code"`
	Phone                string    `gorm:"type:varchar(20)"                               json:"phone"`
	MobilePhone          string    `gorm:"type:varchar(20)"                               json:"mobile_phone"`
	Email                string    `gorm:"type:varchar(255);not null"                     json:"email"`
	School               string    `gorm:"type:varchar(255)"                              json:"school"`
	Grade                string    `gorm:"type:varchar(50)"                               json:"grade"`

	EmergencyContactFirstName string `gorm:"type:varchar(100)" json:"emergency_contact_first_name"`
	EmergencyContactLastName  string `gorm:"type:varchar(100)" json:"emergency_contact_last_name"`
	EmergencyContactName      string `gorm:"type:varchar(200)" json:"emergency_contact_name"`
	EmergencyContactPhone     string `gorm:"type:varchar(20)"  json:"emergency_contact_phone"`

	FirstAidCertified bool   `gorm:"not null" json:"first_aid_certified"`
	ImageRights       bool   `gorm:"not null" json:"image_rights"`
	AdditionalInfo    string `gorm:"type:text" json:"additional_info"`

	// identity uploads, stored as file names under the identity directory
	MotivationLetter     string `gorm:"type:varchar(255)" json:"motivation_letter"`
	VitalCardCopy        string `gorm:"type:varchar(255)" json:"vital_card_copy"`
	IDCardCopy           string `gorm:"type:varchar(255);column:id_card_copy" json:"id_card_copy"`
	InsuranceCertificate string `gorm:"type:varchar(255)" json:"insurance_certificate"`
	RecentPhoto          string `gorm:"type:varchar(255)" json:"recent_photo"`
	MutualCardCopy       string `gorm:"type:varchar(255)" json:"mutual_card_copy"`

	ApplicationStatus string `gorm:"type:varchar(20);not null;default:'step1'" json:"application_status"`
	BaseModel
}

// TableName table name
func (Candidate) TableName() string { return "candidates" }

// FullName "First Last"
func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CurrentStep wizard step the candidate is on, 1..5.
// Submitted and reviewed candidates report 5.
func (c *Candidate) CurrentStep() int {
	switch c.ApplicationStatus {
	case StatusStep1, "":
		return 1
	case StatusStep2:
		return 2
	case StatusStep3:
		return 3
	case StatusStep4:
		return 4
	default:
		return 5
	}
}

// IsSubmitted the wizard was finalized; steps are read-only from here on.
func (c *Candidate) IsSubmitted() bool {
	switch c.ApplicationStatus {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// StepStatus application_status value for a wizard step.
func StepStatus(step int) string {
	switch step {
	case 1:
		return StatusStep1
	case 2:
		return StatusStep2
	case 3:
		return StatusStep3
	case 4:
		return StatusStep4
	default:
		return StatusStep5
	}
}

// IdentityFile returns the stored file name for an identity upload kind.
func (c *Candidate) IdentityFile(kind IdentityFileKind) string {
	switch kind {
	case IdentityMotivationLetter:
		return c.MotivationLetter
	case IdentityVitalCard:
		return c.VitalCardCopy
	case IdentityIDCard:
		return c.IDCardCopy
	case IdentityInsurance:
		return c.InsuranceCertificate
	case IdentityPhoto:
		return c.RecentPhoto
	case IdentityMutualCard:
		return c.MutualCardCopy
	}
	return ""
}

// SetIdentityFile records the stored file name for an identity upload kind.
func (c *Candidate) SetIdentityFile(kind IdentityFileKind, filename string) {
	switch kind {
	case IdentityMotivationLetter:
		c.MotivationLetter = filename
	case IdentityVitalCard:
		c.VitalCardCopy = filename
	case IdentityIDCard:
		c.IDCardCopy = filename
	case IdentityInsurance:
		c.InsuranceCertificate = filename
	case IdentityPhoto:
		c.RecentPhoto = filename
	case IdentityMutualCard:
		c.MutualCardCopy = filename
	}
}
