package model

import "time"

// MedicalInformation medical questionnaire (table medical_information)
type MedicalInformation struct {
	MedicalInfoID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"medical_info_id"`
	CandidateID             string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"candidate_id"`
	MedicalCertificateDate  *time.Time `gorm:"type:date"                                      json:"medical_certificate_date,omitempty"`
	DoctorName              string     `gorm:"type:varchar(100)"                              json:"doctor_name"`
	SportAllowed            bool       `gorm:"not null" json:"sport_allowed"`
	SportCompetitionAllowed bool       `gorm:"not null" json:"sport_competition_allowed"`
	CollectiveLivingAllowed bool       `gorm:"not null" json:"collective_living_allowed"`
	VaccinationsUpToDate    bool       `gorm:"not null" json:"vaccinations_up_to_date"`
	FlightAllowed           bool       `gorm:"not null" json:"flight_allowed"`
	FamilyCardiacDeath      bool       `gorm:"not null" json:"family_cardiac_death"`
	ChestPain               bool       `gorm:"not null" json:"chest_pain"`
	Asthma                  bool       `gorm:"not null" json:"asthma"`
	Fainting                bool       `gorm:"not null" json:"fainting"`
	StoppedSportForHealth   bool       `gorm:"not null" json:"stopped_sport_for_health"`
	LongTermTreatment       bool       `gorm:"not null" json:"long_term_treatment"`
	PainAfterInjury         bool       `gorm:"not null" json:"pain_after_injury"`
	SportInterruptedHealth  bool       `gorm:"not null" json:"sport_interrupted_health"`
	MedicalAdviceNeeded     bool       `gorm:"not null" json:"medical_advice_needed"`
	AdditionalMedicalInfo   string     `gorm:"type:text" json:"additional_medical_info"`
	BaseModel
}

// TableName table name
func (MedicalInformation) TableName() string { return "medical_information" }
