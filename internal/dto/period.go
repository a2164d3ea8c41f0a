package dto

// ── Application periods ──

// CreatePeriodRequest new registration window
type CreatePeriodRequest struct {
	Name          string `json:"name"           binding:"required,min=2,max=100"`
	StartDate     string `json:"start_date"     binding:"required"` // "2026-01-15"
	EndDate       string `json:"end_date"       binding:"required"`
	PromotionYear int    `json:"promotion_year" binding:"required,min=2000,max=2100"`
	IsActive      bool   `json:"is_active"`
	Description   string `json:"description"    binding:"max=2000"`
}

// UpdatePeriodRequest partial update
type UpdatePeriodRequest struct {
	Name          *string `json:"name"           binding:"omitempty,min=2,max=100"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	PromotionYear *int    `json:"promotion_year" binding:"omitempty,min=2000,max=2100"`
	IsActive      *bool   `json:"is_active"`
	Description   *string `json:"description"    binding:"omitempty,max=2000"`
}

// PeriodResponse registration window
type PeriodResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	PromotionYear int    `json:"promotion_year"`
	IsActive      bool   `json:"is_active"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// RegistrationWindowResponse public view of the registration window
type RegistrationWindowResponse struct {
	Open    bool            `json:"open"`
	Reason  string          `json:"reason,omitempty"` // no_active_period | not_started | ended
	Message string          `json:"message,omitempty"`
	Period  *PeriodResponse `json:"period,omitempty"`
}
