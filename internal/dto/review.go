package dto

import "time"

// ── Admission review ──

// ApplicationListRequest list filters
type ApplicationListRequest struct {
	PaginationRequest
	Status        string `form:"status"         binding:"omitempty,oneof=pending approved rejected"`
	PromotionYear *int   `form:"promotion_year" binding:"omitempty,min=1"`
	// IncludeDrafts also lists applications whose wizard is not finalized
	IncludeDrafts bool `form:"include_drafts"`
}

// ApplicationSummary list row
type ApplicationSummary struct {
	ID                string     `json:"id"`
	CandidateID       string     `json:"candidate_id"`
	CandidateName     string     `json:"candidate_name"`
	Email             string     `json:"email"`
	Status            string     `json:"status"`
	PromotionYear     *int       `json:"promotion_year,omitempty"`
	ApplicationDate   time.Time  `json:"application_date"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	DocumentsComplete int        `json:"documents_complete"`
	DocumentsTotal    int        `json:"documents_total"`
}

// ApplicationDetail full dossier
type ApplicationDetail struct {
	Application  any            `json:"application"`
	Candidate    any            `json:"candidate"`
	Guardians    []GuardianView `json:"guardians"`
	Medical      any            `json:"medical,omitempty"`
	Measurements any            `json:"measurements,omitempty"`
	Documents    []DocumentView `json:"documents"`
}

// ReviewDecisionRequest approve / reject
type ReviewDecisionRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}

// DeleteApplicationRequest delete options
type DeleteApplicationRequest struct {
	DeleteCandidate bool `json:"delete_candidate" form:"delete_candidate"`
}

// UpdatePromotionRequest promotion year change
type UpdatePromotionRequest struct {
	PromotionYear int `json:"promotion_year" binding:"required,min=1"`
}

// ReviewResult decision outcome; remote failures are reported as warnings
type ReviewResult struct {
	ApplicationID string   `json:"application_id"`
	Status        string   `json:"status"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ExportApplicationsRequest export filters
type ExportApplicationsRequest struct {
	Status        string `form:"status"         binding:"omitempty,oneof=pending approved rejected"`
	PromotionYear *int   `form:"promotion_year" binding:"omitempty,min=1"`
}
