package service

import (
	"go.uber.org/zap"

	"acadef/backend/config"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
	"acadef/backend/pkg/jwt"
	"acadef/backend/pkg/pdf"
	"acadef/backend/pkg/provisioning"
	"acadef/backend/pkg/storage"
)

// Service aggregates every service
type Service struct {
	Auth         AuthService
	Period       PeriodService
	Document     DocumentService
	Signing      SigningService
	Registration RegistrationService
	Review       ReviewService
	Export       ExportService
}

// NewService wires the services together
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	store *storage.Resolver,
	renderer pdf.Renderer,
	notifier notify.Notifier,
	provisioners []provisioning.Provisioner,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	auth := NewAuthService(cfg, repo, jwtMgr, blacklist, logger)
	period := NewPeriodService(repo, logger)
	docs := NewDocumentService(cfg, repo, store, renderer, m, logger)

	return &Service{
		Auth:         auth,
		Period:       period,
		Document:     docs,
		Signing:      NewSigningService(cfg, repo, notifier, m, logger),
		Registration: NewRegistrationService(cfg, repo, auth, period, docs, store, notifier, m, logger),
		Review:       NewReviewService(cfg, repo, docs, store, notifier, provisioners, m, logger),
		Export:       NewExportService(repo, logger),
	}
}

// Actor authenticated caller
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller has the admin role
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == model.RoleAdmin
}
