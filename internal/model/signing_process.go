package model

import "time"

// Signer roles
const (
	SignerCandidate = "candidate"
	SignerGuardian  = "guardian"
)

// SigningProcess signing state of one document (table signing_processes)
type SigningProcess struct {
	SigningProcessID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"signing_process_id"`
	DocumentID          string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"document_id"`
	CandidateSigned     bool       `gorm:"not null"                                       json:"candidate_signed"`
	CandidateSignedAt   *time.Time `                                                      json:"candidate_signed_at,omitempty"`
	CandidateSignerName string     `gorm:"type:varchar(200)"                              json:"candidate_signer_name"`
	GuardianSigned      bool       `gorm:"not null"                                       json:"guardian_signed"`
	GuardianSignedAt    *time.Time `                                                      json:"guardian_signed_at,omitempty"`
	GuardianSignerName  string     `gorm:"type:varchar(200)"                              json:"guardian_signer_name"`
	SigningToken        string     `gorm:"type:varchar(64);not null;uniqueIndex"          json:"-"`
	ExpiryDate          time.Time  `gorm:"not null"                                       json:"expiry_date"`
	BaseModel
}

// TableName table name
func (SigningProcess) TableName() string { return "signing_processes" }

// IsExpired the link is usable while expiry_date >= now.
func (p *SigningProcess) IsExpired(now time.Time) bool {
	return now.After(p.ExpiryDate)
}

// HasSigned reports whether role already signed.
func (p *SigningProcess) HasSigned(role string) bool {
	switch role {
	case SignerCandidate:
		return p.CandidateSigned
	case SignerGuardian:
		return p.GuardianSigned
	}
	return false
}

// IsComplete both parties signed.
func (p *SigningProcess) IsComplete() bool {
	return p.CandidateSigned && p.GuardianSigned
}

// DocumentStatus projection of the two flags onto a document status.
func (p *SigningProcess) DocumentStatus() string {
	switch {
	case p.CandidateSigned && p.GuardianSigned:
		return DocStatusComplete
	case p.CandidateSigned:
		return DocStatusSignedCandidate
	case p.GuardianSigned:
		return DocStatusSignedGuardian
	default:
		return DocStatusPending
	}
}

// Apply sets the flag, time and name belonging to role.
func (p *SigningProcess) Apply(role, signerName string, at time.Time) {
	switch role {
	case SignerCandidate:
		p.CandidateSigned = true
		p.CandidateSignedAt = &at
		p.CandidateSignerName = signerName
	case SignerGuardian:
		p.GuardianSigned = true
		p.GuardianSignedAt = &at
		p.GuardianSignerName = signerName
	}
}

// OtherSigner the party that signs after role.
func OtherSigner(role string) string {
	if role == SignerCandidate {
		return SignerGuardian
	}
	return SignerCandidate
}
