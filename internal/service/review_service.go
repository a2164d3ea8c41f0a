package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
	"acadef/backend/pkg/provisioning"
	"acadef/backend/pkg/storage"
)

var (
	ErrApplicationNotFound      = errors.New("candidature introuvable")
	ErrApplicationNotReviewable = errors.New("seules les candidatures soumises en attente peuvent être traitées")
	ErrInvalidPromotionYear     = errors.New("l'année de promotion doit être positive")
)

// Remote account roles
const (
	remoteRoleCadet    = "cadet"
	remoteRoleGuardian = "guardian"
)

// ReviewService admission office operations on submitted applications
type ReviewService interface {
	List(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationSummary, int64, error)
	PromotionYears(ctx context.Context) ([]int, error)
	Detail(ctx context.Context, applicationID string) (*dto.ApplicationDetail, error)
	// Approve accepts the application and provisions remote accounts; remote
	// failures come back as warnings.
	Approve(ctx context.Context, applicationID, reviewerID string, req *dto.ReviewDecisionRequest) (*dto.ReviewResult, error)
	Reject(ctx context.Context, applicationID, reviewerID string, req *dto.ReviewDecisionRequest) (*dto.ReviewResult, error)
	Delete(ctx context.Context, applicationID string, req *dto.DeleteApplicationRequest) (*dto.ReviewResult, error)
	UpdatePromotion(ctx context.Context, applicationID string, req *dto.UpdatePromotionRequest) error
	RegenerateDocuments(ctx context.Context, applicationID string) ([]dto.DocumentView, error)
}

type reviewService struct {
	cfg          *config.Config
	repo         *repository.Repository
	docs         DocumentService
	store        *storage.Resolver
	notifier     notify.Notifier
	provisioners []provisioning.Provisioner
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewReviewService creates a ReviewService
func NewReviewService(
	cfg *config.Config,
	repo *repository.Repository,
	docs DocumentService,
	store *storage.Resolver,
	notifier notify.Notifier,
	provisioners []provisioning.Provisioner,
	m *metrics.Metrics,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		cfg:          cfg,
		repo:         repo,
		docs:         docs,
		store:        store,
		notifier:     notifier,
		provisioners: provisioners,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *reviewService) List(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationSummary, int64, error) {
	filter := repository.ApplicationFilter{
		Status:        req.Status,
		PromotionYear: req.PromotionYear,
		SubmittedOnly: !req.IncludeDrafts,
	}
	apps, total, err := s.repo.Application.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list applications failed", zap.Error(err))
		return nil, 0, err
	}

	candIDs := make([]string, 0, len(apps))
	appIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		candIDs = append(candIDs, a.CandidateID)
		appIDs = append(appIDs, a.ApplicationID)
	}

	candidates, err := s.repo.Candidate.ListByIDs(ctx, candIDs)
	if err != nil {
		return nil, 0, err
	}
	candByID := make(map[string]*model.Candidate, len(candidates))
	for i := range candidates {
		candByID[candidates[i].CandidateID] = &candidates[i]
	}

	docs, err := s.repo.Document.ListByApplicationIDs(ctx, appIDs)
	if err != nil {
		return nil, 0, err
	}
	complete := make(map[string]int, len(apps))
	for _, d := range docs {
		if isWizardDocument(d.DocumentType) && d.Status == model.DocStatusComplete {
			complete[d.ApplicationID]++
		}
	}

	result := make([]dto.ApplicationSummary, 0, len(apps))
	for _, a := range apps {
		item := dto.ApplicationSummary{
			ID:                a.ApplicationID,
			CandidateID:       a.CandidateID,
			Status:            a.Status,
			PromotionYear:     a.PromotionYear,
			ApplicationDate:   a.ApplicationDate,
			SubmittedAt:       a.SubmittedAt,
			DocumentsComplete: complete[a.ApplicationID],
			DocumentsTotal:    len(model.SignableDocumentTypes),
		}
		if c, ok := candByID[a.CandidateID]; ok {
			item.CandidateName = c.FullName()
			item.Email = c.Email
		}
		result = append(result, item)
	}
	return result, total, nil
}

func (s *reviewService) PromotionYears(ctx context.Context) ([]int, error) {
	years, err := s.repo.Application.ListPromotionYears(ctx)
	if err != nil {
		s.logger.Error("list promotion years failed", zap.Error(err))
		return nil, err
	}
	if years == nil {
		years = []int{}
	}
	return years, nil
}

// ────────────────────── Detail ──────────────────────

func (s *reviewService) Detail(ctx context.Context, applicationID string) (*dto.ApplicationDetail, error) {
	app, cand, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	guardians, err := s.repo.Guardian.ListByCandidate(ctx, cand.CandidateID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListViews(ctx, app.ApplicationID)
	if err != nil {
		return nil, err
	}

	detail := &dto.ApplicationDetail{
		Application: app,
		Candidate:   cand,
		Guardians:   toGuardianViews(guardians),
		Documents:   docs,
	}
	if m, err := s.repo.MedicalInformation.GetByCandidate(ctx, cand.CandidateID); err == nil {
		detail.Medical = m
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if m, err := s.repo.PhysicalMeasurements.GetByCandidate(ctx, cand.CandidateID); err == nil {
		detail.Measurements = m
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *reviewService) Approve(ctx context.Context, applicationID, reviewerID string, req *dto.ReviewDecisionRequest) (*dto.ReviewResult, error) {
	app, cand, err := s.decide(ctx, applicationID, reviewerID, model.ApplicationApproved, model.StatusApproved, req.Notes)
	if err != nil {
		return nil, err
	}
	result := &dto.ReviewResult{ApplicationID: app.ApplicationID, Status: app.Status}

	guardians, err := s.repo.Guardian.ListByCandidate(ctx, cand.CandidateID)
	if err != nil {
		s.logger.Warn("list guardians for provisioning failed", zap.Error(err))
		result.Warnings = append(result.Warnings, "tuteurs introuvables, comptes non créés")
	}

	username := usernameBase(cand.FirstName, cand.LastName)
	if cand.UserID != nil {
		if u, err := s.repo.User.GetByID(ctx, *cand.UserID); err == nil {
			username = u.Username
		}
	}
	accounts, warnings := s.provision(ctx, provisioning.Profile{
		Username:  username,
		Email:     cand.Email,
		FirstName: cand.FirstName,
		LastName:  cand.LastName,
		Role:      remoteRoleCadet,
	})
	result.Warnings = append(result.Warnings, warnings...)
	s.notifier.Send(ctx, notify.KindApproval, []string{cand.Email}, map[string]any{
		"FirstName": cand.FirstName,
		"LastName":  cand.LastName,
		"Accounts":  accounts,
		"LoginURL":  s.cfg.Server.BaseURL + "/login",
	})

	for i := range guardians {
		g := &guardians[i]
		accounts, warnings := s.provision(ctx, provisioning.Profile{
			Username:  usernameBase(g.FirstName, g.LastName),
			Email:     g.Email,
			FirstName: g.FirstName,
			LastName:  g.LastName,
			Role:      remoteRoleGuardian,
		})
		result.Warnings = append(result.Warnings, warnings...)
		if len(accounts) == 0 {
			continue
		}
		s.notifier.Send(ctx, notify.KindApproval, []string{g.Email}, map[string]any{
			"FirstName": g.FirstName,
			"LastName":  g.LastName,
			"Accounts":  accounts,
			"LoginURL":  s.cfg.Server.BaseURL + "/login",
		})
	}

	s.logger.Info("application approved",
		zap.String("application_id", app.ApplicationID),
		zap.String("by", reviewerID),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (s *reviewService) Reject(ctx context.Context, applicationID, reviewerID string, req *dto.ReviewDecisionRequest) (*dto.ReviewResult, error) {
	app, cand, err := s.decide(ctx, applicationID, reviewerID, model.ApplicationRejected, model.StatusRejected, req.Notes)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, notify.KindRejection, []string{cand.Email}, map[string]any{
		"FirstName": cand.FirstName,
		"LastName":  cand.LastName,
		"Reason":    req.Notes,
	})

	s.logger.Info("application rejected", zap.String("application_id", app.ApplicationID), zap.String("by", reviewerID))
	return &dto.ReviewResult{ApplicationID: app.ApplicationID, Status: app.Status}, nil
}

// decide records the decision on the application and the candidate. The
// application row is locked and re-checked so that only one decision commits.
func (s *reviewService) decide(ctx context.Context, applicationID, reviewerID, appStatus, candStatus, notes string) (*model.Application, *model.Candidate, error) {
	app, cand, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if !app.IsReviewable() {
		return nil, nil, ErrApplicationNotReviewable
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Application.GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if !locked.IsReviewable() {
			return ErrApplicationNotReviewable
		}

		now := s.now()
		locked.Status = appStatus
		locked.ReviewDate = &now
		locked.ReviewedBy = &reviewerID
		locked.Notes = notes
		locked.UpdatedBy = &reviewerID
		if err := tx.Application.Update(ctx, locked); err != nil {
			return err
		}
		app = locked
		return tx.Candidate.UpdateStatus(ctx, cand.CandidateID, candStatus)
	})
	if err != nil {
		if !errors.Is(err, ErrApplicationNotReviewable) && !errors.Is(err, ErrApplicationNotFound) {
			s.logger.Error("record decision failed", zap.String("application_id", applicationID), zap.Error(err))
		}
		return nil, nil, err
	}
	cand.ApplicationStatus = candStatus
	return app, cand, nil
}

// provision creates the account on every remote system with a fresh
// password each.
func (s *reviewService) provision(ctx context.Context, p provisioning.Profile) ([]notify.Account, []string) {
	var (
		accounts []notify.Account
		warnings []string
	)
	for _, prov := range s.provisioners {
		password, err := generateTempPassword(s.cfg.Registration.TempPasswordLength)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", prov.Name(), err))
			continue
		}
		p.Password = password

		res := prov.CreateAccount(ctx, p)
		s.metrics.IncProvisioning(prov.Name(), "create", res.Success)
		if !res.Success {
			s.logger.Warn("remote account creation failed",
				zap.String("system", prov.Name()),
				zap.String("email", p.Email),
				zap.String("message", res.Message),
			)
			warnings = append(warnings, fmt.Sprintf("%s (%s): %s", prov.Name(), p.Email, res.Message))
			continue
		}
		accounts = append(accounts, notify.Account{System: prov.Name(), Username: p.Username, Password: password})
	}
	return accounts, warnings
}

// ────────────────────── Delete ──────────────────────

func (s *reviewService) Delete(ctx context.Context, applicationID string, req *dto.DeleteApplicationRequest) (*dto.ReviewResult, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		return nil, err
	}

	var (
		cand      *model.Candidate
		guardians []model.Guardian
	)
	if req.DeleteCandidate {
		c, err := s.repo.Candidate.GetByID(ctx, app.CandidateID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		cand = c
		if cand != nil {
			if guardians, err = s.repo.Guardian.ListByCandidate(ctx, cand.CandidateID); err != nil {
				return nil, err
			}
		}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, d := range docs {
			if err := tx.SigningProcess.DeleteByDocument(ctx, d.DocumentID); err != nil {
				return err
			}
			if err := tx.Document.Delete(ctx, d.DocumentID); err != nil {
				return err
			}
		}
		if err := tx.Application.Delete(ctx, app.ApplicationID); err != nil {
			return err
		}
		if cand == nil {
			return nil
		}
		return s.deleteCandidate(ctx, tx, cand, guardians)
	})
	if err != nil {
		s.logger.Error("delete application failed", zap.String("application_id", applicationID), zap.Error(err))
		return nil, err
	}

	for _, d := range docs {
		_ = s.store.Remove(d.FilePath)
		_ = s.store.Remove(s.store.DocumentPath(d.Filename))
	}

	result := &dto.ReviewResult{ApplicationID: app.ApplicationID, Status: "deleted"}
	if cand != nil {
		for _, kind := range model.IdentityFileKinds {
			_ = s.store.RemoveIdentityFile(cand.IdentityFile(kind))
		}

		identifiers := []string{cand.Email}
		for _, g := range guardians {
			identifiers = append(identifiers, g.Email)
		}
		for _, prov := range s.provisioners {
			for _, id := range identifiers {
				res := prov.DeleteAccount(ctx, id)
				s.metrics.IncProvisioning(prov.Name(), "delete", res.Success)
				if !res.Success {
					result.Warnings = append(result.Warnings, fmt.Sprintf("%s (%s): %s", prov.Name(), id, res.Message))
				}
			}
		}
	}

	s.logger.Info("application deleted",
		zap.String("application_id", app.ApplicationID),
		zap.Bool("with_candidate", cand != nil),
	)
	return result, nil
}

// deleteCandidate removes the candidate, its dependent rows, its account and
// the guardian accounts no other candidate uses.
func (s *reviewService) deleteCandidate(ctx context.Context, tx *repository.Repository, cand *model.Candidate, guardians []model.Guardian) error {
	if err := tx.MedicalInformation.DeleteByCandidate(ctx, cand.CandidateID); err != nil {
		return err
	}
	if err := tx.PhysicalMeasurements.DeleteByCandidate(ctx, cand.CandidateID); err != nil {
		return err
	}
	if err := tx.Guardian.DeleteByCandidate(ctx, cand.CandidateID); err != nil {
		return err
	}

	for _, g := range guardians {
		if g.UserID == nil {
			continue
		}
		n, err := tx.Guardian.CountByUser(ctx, *g.UserID)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		user, err := tx.User.GetByID(ctx, *g.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if user.Role != model.RoleGuardian {
			continue
		}
		if err := tx.User.Delete(ctx, user.UserID); err != nil {
			return err
		}
	}

	if err := tx.Candidate.Delete(ctx, cand.CandidateID); err != nil {
		return err
	}
	if cand.UserID != nil {
		if err := tx.User.Delete(ctx, *cand.UserID); err != nil {
			return err
		}
	}
	return nil
}

// ────────────────────── Promotion / documents ──────────────────────

func (s *reviewService) UpdatePromotion(ctx context.Context, applicationID string, req *dto.UpdatePromotionRequest) error {
	if req.PromotionYear <= 0 {
		return ErrInvalidPromotionYear
	}
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return err
	}

	year := req.PromotionYear
	app.PromotionYear = &year
	if err := s.repo.Application.Update(ctx, app); err != nil {
		s.logger.Error("update promotion failed", zap.String("application_id", applicationID), zap.Error(err))
		return err
	}
	return nil
}

func (s *reviewService) RegenerateDocuments(ctx context.Context, applicationID string) ([]dto.DocumentView, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.docs.RegenerateDocuments(ctx, app.CandidateID); err != nil {
		return nil, err
	}
	return s.docs.ListViews(ctx, app.ApplicationID)
}

// ── helpers ──

func (s *reviewService) getApplication(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("lookup application failed", zap.String("application_id", id), zap.Error(err))
		return nil, err
	}
	return app, nil
}

func (s *reviewService) load(ctx context.Context, applicationID string) (*model.Application, *model.Candidate, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	cand, err := s.repo.Candidate.GetByID(ctx, app.CandidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCandidateNotFound
		}
		return nil, nil, err
	}
	return app, cand, nil
}
