package handler

import (
	"acadef/backend/config"
	"acadef/backend/internal/service"
)

// Handler every HTTP handler of the API
type Handler struct {
	Auth         *AuthHandler
	Registration *RegistrationHandler
	Signing      *SigningHandler
	Document     *DocumentHandler
	Period       *PeriodHandler
	Review       *ReviewHandler
	Export       *ExportHandler
}

// NewHandler wires the handlers to their services
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, NewCookieOptions(&cfg.Server, &cfg.Auth)),
		Registration: NewRegistrationHandler(svc.Registration, svc.Period),
		Signing:      NewSigningHandler(svc.Signing, svc.Document),
		Document:     NewDocumentHandler(svc.Document, svc.Signing),
		Period:       NewPeriodHandler(svc.Period),
		Review:       NewReviewHandler(svc.Review),
		Export:       NewExportHandler(svc.Export),
	}
}
