package dto

import "time"

// ── Signing ──

// TokenSignRequest signature submitted through an emailed link
type TokenSignRequest struct {
	SignerRole string `json:"signer_role" form:"signer_role"`
	Acceptance bool   `json:"acceptance"  form:"acceptance"`
	FullName   string `json:"full_name"   form:"full_name"`
}

// SessionSignRequest signature by a logged-in candidate or guardian
type SessionSignRequest struct {
	Acceptance bool   `json:"acceptance" form:"acceptance"`
	FullName   string `json:"full_name"  form:"full_name"`
}

// SigningView what the signer sees before signing
type SigningView struct {
	DocumentID    string       `json:"document_id"`
	DocumentType  string       `json:"document_type"`
	Title         string       `json:"title"`
	Status        string       `json:"status"`
	CandidateName string       `json:"candidate_name"`
	Guardians     []string     `json:"guardians"`
	Signing       SigningState `json:"signing"`
	Expired       bool         `json:"expired"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

// SignResult outcome of a signature
type SignResult struct {
	DocumentID      string `json:"document_id"`
	Status          string `json:"status"`
	AlreadySigned   bool   `json:"already_signed"`
	AlreadyComplete bool   `json:"already_complete"`
}
