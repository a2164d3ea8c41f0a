package dto

import (
	"io"
	"time"
)

// ── Registration wizard ──

// FileUpload one uploaded file; Open is called at most once
type FileUpload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Step1Request personal information. Password is mandatory for a new candidate.
type Step1Request struct {
	FirstName            string `json:"first_name"              form:"first_name"              validate:"required,max=100"`
	LastName             string `json:"last_name"               form:"last_name"               validate:"required,max=100"`
	DateOfBirth          string `json:"date_of_birth"           form:"date_of_birth"           validate:"required,datetime=2006-01-02"`
	Nationality          string `json:"nationality"             form:"nationality"             validate:"max=100"`
	BirthPlace           string `json:"birth_place"             form:"birth_place"             validate:"max=100"`
	BirthPlacePostalCode string `json:"birth_place_postal_code" form:"birth_place_postal_code" validate:"max=20"`
	BirthPlaceCity       string `json:"birth_place_city"        form:"birth_place_city"        validate:"max=100"`
	Address              string `json:"address"                 form:"address"                 validate:"max=255"`
	City                 string `json:"city"                    form:"city"                    validate:"max=100"`
	PostalCode           string `json:"postal_code"             form:"postal_code"             validate:"max=20"`
	Phone                string `json:"phone"                   form:"phone"                   validate:"max=20"`
	MobilePhone          string `json:"mobile_phone"            form:"mobile_phone"            validate:"max=20"`
	Email                string `json:"email"                   form:"email"                   validate:"required,email,max=255"`
	School               string `json:"school"                  form:"school"                  validate:"max=255"`
	Grade                string `json:"grade"                   form:"grade"                   validate:"max=50"`
	FirstAidCertified    bool   `json:"first_aid_certified"     form:"first_aid_certified"`
	ImageRights          bool   `json:"image_rights"            form:"image_rights"`
	AdditionalInfo       string `json:"additional_info"         form:"additional_info"         validate:"max=5000"`
	Password             string `json:"password"                form:"password"                validate:"omitempty,min=8,max=64"`
	PasswordConfirm      string `json:"password_confirm"        form:"password_confirm"`

	// Uploads optional identity files keyed by form field name
	Uploads map[string]FileUpload `json:"-" form:"-"`
}

// Step2Request uniform sizes and the optional medical questionnaire
type Step2Request struct {
	Height     *int `json:"height"      form:"height"      validate:"omitempty,gte=0,lte=300"`
	Weight     *int `json:"weight"      form:"weight"      validate:"omitempty,gte=0,lte=300"`
	HeadSize   *int `json:"head_size"   form:"head_size"   validate:"omitempty,gte=0,lte=100"`
	NeckSize   *int `json:"neck_size"   form:"neck_size"   validate:"omitempty,gte=0,lte=100"`
	ChestSize  *int `json:"chest_size"  form:"chest_size"  validate:"omitempty,gte=0,lte=300"`
	WaistSize  *int `json:"waist_size"  form:"waist_size"  validate:"omitempty,gte=0,lte=300"`
	BustHeight *int `json:"bust_height" form:"bust_height" validate:"omitempty,gte=0,lte=300"`
	Inseam     *int `json:"inseam"      form:"inseam"      validate:"omitempty,gte=0,lte=200"`
	ShoeSize   *int `json:"shoe_size"   form:"shoe_size"   validate:"omitempty,gte=0,lte=60"`

	HasMedicalInfo bool `json:"has_medical_info" form:"has_medical_info"`
	MedicalFields
}

// MedicalFields medical questionnaire answers
type MedicalFields struct {
	MedicalCertificateDate  string `json:"medical_certificate_date"  form:"medical_certificate_date"  validate:"omitempty,datetime=2006-01-02"`
	DoctorName              string `json:"doctor_name"               form:"doctor_name"               validate:"max=100"`
	SportAllowed            bool   `json:"sport_allowed"             form:"sport_allowed"`
	SportCompetitionAllowed bool   `json:"sport_competition_allowed" form:"sport_competition_allowed"`
	CollectiveLivingAllowed bool   `json:"collective_living_allowed" form:"collective_living_allowed"`
	VaccinationsUpToDate    bool   `json:"vaccinations_up_to_date"   form:"vaccinations_up_to_date"`
	FlightAllowed           bool   `json:"flight_allowed"            form:"flight_allowed"`
	FamilyCardiacDeath      bool   `json:"family_cardiac_death"      form:"family_cardiac_death"`
	ChestPain               bool   `json:"chest_pain"                form:"chest_pain"`
	Asthma                  bool   `json:"asthma"                    form:"asthma"`
	Fainting                bool   `json:"fainting"                  form:"fainting"`
	StoppedSportForHealth   bool   `json:"stopped_sport_for_health"  form:"stopped_sport_for_health"`
	LongTermTreatment       bool   `json:"long_term_treatment"       form:"long_term_treatment"`
	PainAfterInjury         bool   `json:"pain_after_injury"         form:"pain_after_injury"`
	SportInterruptedHealth  bool   `json:"sport_interrupted_health"  form:"sport_interrupted_health"`
	MedicalAdviceNeeded     bool   `json:"medical_advice_needed"     form:"medical_advice_needed"`
	AdditionalMedicalInfo   string `json:"additional_medical_info"   form:"additional_medical_info"   validate:"max=5000"`
}

// Step3Request legal guardians and emergency contact. The second guardian
// fields are only read when HasSecondGuardian is set.
type Step3Request struct {
	Guardian1FirstName    string `json:"guardian1_first_name"   form:"guardian1_first_name"   validate:"required,max=100"`
	Guardian1LastName     string `json:"guardian1_last_name"    form:"guardian1_last_name"    validate:"required,max=100"`
	Guardian1Relationship string `json:"guardian1_relationship" form:"guardian1_relationship" validate:"max=50"`
	Guardian1Email        string `json:"guardian1_email"        form:"guardian1_email"        validate:"required,email,max=255"`
	Guardian1Phone        string `json:"guardian1_phone"        form:"guardian1_phone"        validate:"max=20"`
	Guardian1Address      string `json:"guardian1_address"      form:"guardian1_address"      validate:"max=255"`
	Guardian1City         string `json:"guardian1_city"         form:"guardian1_city"         validate:"max=100"`
	Guardian1PostalCode   string `json:"guardian1_postal_code"  form:"guardian1_postal_code"  validate:"max=20"`

	HasSecondGuardian     bool   `json:"has_second_guardian"    form:"has_second_guardian"`
	Guardian2FirstName    string `json:"guardian2_first_name"   form:"guardian2_first_name"   validate:"max=100"`
	Guardian2LastName     string `json:"guardian2_last_name"    form:"guardian2_last_name"    validate:"max=100"`
	Guardian2Relationship string `json:"guardian2_relationship" form:"guardian2_relationship" validate:"max=50"`
	Guardian2Email        string `json:"guardian2_email"        form:"guardian2_email"        validate:"omitempty,email,max=255"`
	Guardian2Phone        string `json:"guardian2_phone"        form:"guardian2_phone"        validate:"max=20"`
	Guardian2Address      string `json:"guardian2_address"      form:"guardian2_address"      validate:"max=255"`
	Guardian2City         string `json:"guardian2_city"         form:"guardian2_city"         validate:"max=100"`
	Guardian2PostalCode   string `json:"guardian2_postal_code"  form:"guardian2_postal_code"  validate:"max=20"`

	EmergencyContactFirstName string `json:"emergency_contact_first_name" form:"emergency_contact_first_name" validate:"max=100"`
	EmergencyContactLastName  string `json:"emergency_contact_last_name"  form:"emergency_contact_last_name"  validate:"max=100"`
	EmergencyContactPhone     string `json:"emergency_contact_phone"      form:"emergency_contact_phone"      validate:"max=20"`
}

// Step4Request identity uploads; document signatures go through the signing endpoints
type Step4Request struct {
	Uploads map[string]FileUpload `json:"-" form:"-"`
}

// Step5Request finalization
type Step5Request struct {
	TermsAgreement bool `json:"terms_agreement" form:"terms_agreement"`
}

// LegacyRegisterRequest single-form registration
type LegacyRegisterRequest struct {
	Step1Request
	Step2Request
	Step3Request
}

// ── Responses ──

// SigningState signature columns of a document
type SigningState struct {
	CandidateSigned     bool       `json:"candidate_signed"`
	CandidateSignedAt   *time.Time `json:"candidate_signed_at,omitempty"`
	CandidateSignerName string     `json:"candidate_signer_name,omitempty"`
	GuardianSigned      bool       `json:"guardian_signed"`
	GuardianSignedAt    *time.Time `json:"guardian_signed_at,omitempty"`
	GuardianSignerName  string     `json:"guardian_signer_name,omitempty"`
	ExpiryDate          time.Time  `json:"expiry_date"`
}

// DocumentView document with its signing state
type DocumentView struct {
	ID               string        `json:"id"`
	Type             string        `json:"type"`
	Title            string        `json:"title"`
	Filename         string        `json:"filename"`
	OriginalFilename string        `json:"original_filename"`
	Status           string        `json:"status"`
	Signing          *SigningState `json:"signing,omitempty"`
}

// GuardianView guardian as shown in the wizard and the review screens
type GuardianView struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Relationship string `json:"relationship"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	HasAccount   bool   `json:"has_account"`
}

// StepView persisted state of the wizard for one step
type StepView struct {
	Step         int             `json:"step"`
	CurrentStep  int             `json:"current_step"`
	Status       string          `json:"status"`
	Submitted    bool            `json:"submitted"`
	Candidate    any             `json:"candidate,omitempty"`
	Measurements any             `json:"measurements,omitempty"`
	Medical      any             `json:"medical,omitempty"`
	Guardians    []GuardianView  `json:"guardians,omitempty"`
	Documents    []DocumentView  `json:"documents,omitempty"`
	MissingItems []string        `json:"missing_items,omitempty"`
	Period       *PeriodResponse `json:"period,omitempty"`
}

// StepResult outcome of a submitted step
type StepResult struct {
	CandidateID string `json:"candidate_id"`
	Step        int    `json:"step"`
	NextStep    int    `json:"next_step"`
	Status      string `json:"status"`
	// Tokens issued when step 1 creates the candidate account
	Tokens *TokenResponse `json:"tokens,omitempty"`
}

// LegacyRegisterResult outcome of the single-form registration
type LegacyRegisterResult struct {
	CandidateID   string         `json:"candidate_id"`
	ApplicationID string         `json:"application_id"`
	Document      DocumentView   `json:"document"`
	Tokens        *TokenResponse `json:"tokens,omitempty"`
}
