package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
	pkgerrors "acadef/backend/pkg/errors"
	"acadef/backend/pkg/storage"
)

var (
	ErrCandidateNotFound          = errors.New("candidat introuvable")
	ErrCandidateAccessDenied      = errors.New("accès au dossier refusé")
	ErrInvalidStep                = errors.New("étape invalide")
	ErrStepNotReached             = errors.New("veuillez compléter les étapes précédentes")
	ErrRegistrationSubmitted      = errors.New("la candidature a déjà été soumise")
	ErrDuplicateEmail             = errors.New("un compte existe déjà avec cette adresse email")
	ErrPasswordMismatch           = errors.New("les mots de passe ne correspondent pas")
	ErrPasswordRequired           = errors.New("un mot de passe est requis")
	ErrTermsNotAccepted           = errors.New("vous devez accepter les conditions")
	ErrInvalidUpload              = errors.New("fichier invalide")
	ErrLegacyRegistrationDisabled = errors.New("l'inscription en un formulaire est désactivée")
)

// RegistrationService five-step registration wizard. candidateID is empty
// when a new applicant starts at step 1.
type RegistrationService interface {
	GetStep(ctx context.Context, actor *Actor, candidateID string, step int) (*dto.StepView, error)
	SubmitStep1(ctx context.Context, actor *Actor, candidateID string, req *dto.Step1Request) (*dto.StepResult, error)
	SubmitStep2(ctx context.Context, actor *Actor, candidateID string, req *dto.Step2Request) (*dto.StepResult, error)
	SubmitStep3(ctx context.Context, actor *Actor, candidateID string, req *dto.Step3Request) (*dto.StepResult, error)
	SubmitStep4(ctx context.Context, actor *Actor, candidateID string, req *dto.Step4Request) (*dto.StepResult, error)
	SubmitStep5(ctx context.Context, actor *Actor, candidateID string, req *dto.Step5Request) (*dto.StepResult, error)
	LegacyRegister(ctx context.Context, req *dto.LegacyRegisterRequest) (*dto.LegacyRegisterResult, error)
}

type registrationService struct {
	cfg      *config.Config
	repo     *repository.Repository
	auth     AuthService
	period   PeriodService
	docs     DocumentService
	store    *storage.Resolver
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(
	cfg *config.Config,
	repo *repository.Repository,
	auth AuthService,
	period PeriodService,
	docs DocumentService,
	store *storage.Resolver,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		cfg:      cfg,
		repo:     repo,
		auth:     auth,
		period:   period,
		docs:     docs,
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

// ────────────────────── GetStep ──────────────────────

func (s *registrationService) GetStep(ctx context.Context, actor *Actor, candidateID string, step int) (*dto.StepView, error) {
	if step < 1 || step > 5 {
		return nil, ErrInvalidStep
	}

	if candidateID == "" {
		if step != 1 {
			return nil, ErrStepNotReached
		}
		period, err := s.period.CheckOpen(ctx, s.now())
		if err != nil {
			return nil, err
		}
		return &dto.StepView{
			Step:        1,
			CurrentStep: 1,
			Status:      model.StatusStep1,
			Period:      toPeriodResponse(period),
		}, nil
	}

	cand, err := s.loadCandidate(ctx, actor, candidateID)
	if err != nil {
		return nil, err
	}
	if step > cand.CurrentStep() {
		return nil, ErrStepNotReached
	}

	view := &dto.StepView{
		Step:        step,
		CurrentStep: cand.CurrentStep(),
		Status:      cand.ApplicationStatus,
		Submitted:   cand.IsSubmitted(),
		Candidate:   cand,
	}

	switch step {
	case 2:
		if view.Measurements, err = s.measurements(ctx, candidateID); err != nil {
			return nil, err
		}
		if view.Medical, err = s.medical(ctx, candidateID); err != nil {
			return nil, err
		}
	case 3:
		guardians, err := s.repo.Guardian.ListByCandidate(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		view.Guardians = toGuardianViews(guardians)
	case 4, 5:
		app, err := s.ensureApplication(ctx, cand)
		if err != nil {
			return nil, err
		}
		if step == 4 {
			if _, err := s.docs.EnsureSignableDocuments(ctx, cand, app); err != nil {
				return nil, err
			}
			if err := s.docs.VerifyDocumentFiles(ctx, cand, app); err != nil {
				return nil, err
			}
		}
		docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
		if err != nil {
			return nil, err
		}
		if view.Documents, err = s.docs.ListViews(ctx, app.ApplicationID); err != nil {
			return nil, err
		}
		view.MissingItems = missingItems(cand, docs, nil)
	}
	return view, nil
}

// ── access / state helpers ──

// loadCandidate returns the candidate when actor is an admin or owns it.
func (s *registrationService) loadCandidate(ctx context.Context, actor *Actor, candidateID string) (*model.Candidate, error) {
	cand, err := s.repo.Candidate.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		s.logger.Error("lookup candidate failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}

	if actor.IsAdmin() {
		return cand, nil
	}
	if actor == nil || cand.UserID == nil || *cand.UserID != actor.UserID {
		return nil, ErrCandidateAccessDenied
	}
	return cand, nil
}

// beginStep loads the candidate and checks step may be submitted.
func (s *registrationService) beginStep(ctx context.Context, actor *Actor, candidateID string, step int) (*model.Candidate, error) {
	cand, err := s.loadCandidate(ctx, actor, candidateID)
	if err != nil {
		return nil, err
	}
	if cand.IsSubmitted() {
		return nil, ErrRegistrationSubmitted
	}
	if cand.CurrentStep() < step {
		return nil, ErrStepNotReached
	}
	return cand, nil
}

// advance moves the candidate past step; it never moves backwards.
// Reports whether the status changed.
func advance(ctx context.Context, tx *repository.Repository, cand *model.Candidate, step int) (bool, error) {
	next := step + 1
	if cand.IsSubmitted() || cand.CurrentStep() >= next {
		return false, nil
	}
	status := model.StepStatus(next)
	if err := tx.Candidate.UpdateStatus(ctx, cand.CandidateID, status); err != nil {
		return false, err
	}
	cand.ApplicationStatus = status
	return true, nil
}

func (s *registrationService) stepResult(cand *model.Candidate, step int) *dto.StepResult {
	next := step + 1
	if next > 5 {
		next = 0
	}
	return &dto.StepResult{
		CandidateID: cand.CandidateID,
		Step:        step,
		NextStep:    next,
		Status:      cand.ApplicationStatus,
	}
}

// stepCompleted records metrics and emails the candidate after a transition.
func (s *registrationService) stepCompleted(ctx context.Context, cand *model.Candidate, step int) {
	s.metrics.IncStepCompleted(strconv.Itoa(step))

	next := step + 1
	s.notifier.Send(ctx, notify.KindStepCompleted, []string{cand.Email}, map[string]any{
		"FirstName":    cand.FirstName,
		"LastName":     cand.LastName,
		"Step":         step,
		"StepName":     notify.StepName(step),
		"NextStep":     next,
		"NextStepName": notify.StepName(next),
		"URL":          fmt.Sprintf("%s/registration/%s/step/%d", s.baseURL(), cand.CandidateID, next),
	})
}

// ensureApplication returns the candidate's application, creating it with
// the active period's promotion year on first use.
func (s *registrationService) ensureApplication(ctx context.Context, cand *model.Candidate) (*model.Application, error) {
	app, err := s.repo.Application.GetByCandidate(ctx, cand.CandidateID)
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	app = &model.Application{
		CandidateID:     cand.CandidateID,
		Status:          model.ApplicationPending,
		PromotionYear:   s.period.ActivePromotionYear(ctx),
		ApplicationDate: s.now(),
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		// unique candidate_id: another request created it first
		if existing, lookupErr := s.repo.Application.GetByCandidate(ctx, cand.CandidateID); lookupErr == nil {
			return existing, nil
		}
		s.logger.Error("create application failed", zap.String("candidate_id", cand.CandidateID), zap.Error(err))
		return nil, err
	}
	return app, nil
}

func (s *registrationService) measurements(ctx context.Context, candidateID string) (*model.PhysicalMeasurements, error) {
	m, err := s.repo.PhysicalMeasurements.GetByCandidate(ctx, candidateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return m, err
}

func (s *registrationService) medical(ctx context.Context, candidateID string) (*model.MedicalInformation, error) {
	m, err := s.repo.MedicalInformation.GetByCandidate(ctx, candidateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return m, err
}

// missingItems labels of every requirement not yet met for step 4.
// uploaded lists identity files provided in the current request.
func missingItems(cand *model.Candidate, docs []model.Document, uploaded map[model.IdentityFileKind]dto.FileUpload) []string {
	var missing []string
	for _, kind := range model.RequiredIdentityFiles {
		if cand.IdentityFile(kind) != "" {
			continue
		}
		if _, ok := uploaded[kind]; ok {
			continue
		}
		missing = append(missing, kind.Label())
	}

	complete := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d.Status == model.DocStatusComplete {
			complete[d.DocumentType] = true
		}
	}
	for _, docType := range model.SignableDocumentTypes {
		if !complete[docType] {
			missing = append(missing, model.SignedLabel(docType))
		}
	}
	return missing
}

func missingError(items []string) error {
	if len(items) == 0 {
		return nil
	}
	return &pkgerrors.MissingItemsError{Items: items}
}

// ── uploads ──

// saveUploads writes the validated uploads and returns the stored file
// names. On failure nothing written by this call is left behind.
func (s *registrationService) saveUploads(candidateID string, uploads map[model.IdentityFileKind]dto.FileUpload) (map[model.IdentityFileKind]string, error) {
	saved := make(map[model.IdentityFileKind]string, len(uploads))
	for _, kind := range model.IdentityFileKinds {
		up, ok := uploads[kind]
		if !ok {
			continue
		}

		filename, err := s.saveUpload(kind, candidateID, up)
		if err != nil {
			s.removeIdentityFiles(saved)
			if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrExtensionNotAllowed) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidUpload, up.Filename)
			}
			s.logger.Error("save upload failed", zap.String("kind", string(kind)), zap.Error(err))
			return nil, err
		}
		saved[kind] = filename
	}
	return saved, nil
}

func (s *registrationService) saveUpload(kind model.IdentityFileKind, candidateID string, up dto.FileUpload) (string, error) {
	rc, err := up.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.store.SaveIdentityFile(kind.Prefix(), candidateID, up.Filename, rc)
}

// applyUploads records saved files on the candidate and returns the names
// they replace.
func applyUploads(cand *model.Candidate, saved map[model.IdentityFileKind]string) map[model.IdentityFileKind]string {
	replaced := make(map[model.IdentityFileKind]string)
	for kind, filename := range saved {
		if old := cand.IdentityFile(kind); old != "" && old != filename {
			replaced[kind] = old
		}
		cand.SetIdentityFile(kind, filename)
	}
	return replaced
}

func (s *registrationService) removeIdentityFiles(files map[model.IdentityFileKind]string) {
	for _, filename := range files {
		if err := s.store.RemoveIdentityFile(filename); err != nil {
			s.logger.Warn("remove upload failed", zap.String("file", filename), zap.Error(err))
		}
	}
}

// ── guardians ──

type guardianAccount struct {
	guardian model.Guardian
	username string
	password string
}

func guardiansFromRequest(req *dto.Step3Request) []model.Guardian {
	trim := strings.TrimSpace
	out := []model.Guardian{{
		FirstName:    trim(req.Guardian1FirstName),
		LastName:     trim(req.Guardian1LastName),
		Relationship: trim(req.Guardian1Relationship),
		Email:        strings.ToLower(trim(req.Guardian1Email)),
		Phone:        trim(req.Guardian1Phone),
		Address:      trim(req.Guardian1Address),
		City:         trim(req.Guardian1City),
		PostalCode:   trim(req.Guardian1PostalCode),
	}}
	if req.HasSecondGuardian {
		out = append(out, model.Guardian{
			FirstName:    trim(req.Guardian2FirstName),
			LastName:     trim(req.Guardian2LastName),
			Relationship: trim(req.Guardian2Relationship),
			Email:        strings.ToLower(trim(req.Guardian2Email)),
			Phone:        trim(req.Guardian2Phone),
			Address:      trim(req.Guardian2Address),
			City:         trim(req.Guardian2City),
			PostalCode:   trim(req.Guardian2PostalCode),
		})
	}
	return out
}

// replaceGuardians deletes the candidate's guardians and inserts the given
// ones. Each guardian is linked to the user owning its email, or to a new
// guardian account whose credentials are returned for emailing.
func (s *registrationService) replaceGuardians(ctx context.Context, tx *repository.Repository, cand *model.Candidate, guardians []model.Guardian) ([]guardianAccount, error) {
	if err := tx.Guardian.DeleteByCandidate(ctx, cand.CandidateID); err != nil {
		return nil, err
	}

	var created []guardianAccount
	for i := range guardians {
		g := guardians[i]
		g.CandidateID = cand.CandidateID

		user, err := tx.User.GetByEmail(ctx, g.Email)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			username, err := generateUsername(ctx, tx.User, g.FirstName, g.LastName, s.cfg.Registration.UsernameMaxAttempts)
			if err != nil {
				return nil, err
			}
			password, err := generateTempPassword(s.cfg.Registration.TempPasswordLength)
			if err != nil {
				return nil, err
			}
			hash, err := hashPassword(password)
			if err != nil {
				return nil, err
			}
			user = &model.User{
				Username:           username,
				Email:              g.Email,
				PasswordHash:       hash,
				Role:               model.RoleGuardian,
				IsActive:           true,
				MustChangePassword: true,
			}
			if err := tx.User.Create(ctx, user); err != nil {
				return nil, err
			}
			created = append(created, guardianAccount{guardian: g, username: username, password: password})
		default:
			return nil, err
		}

		g.UserID = &user.UserID
		if err := tx.Guardian.Create(ctx, &g); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *registrationService) sendGuardianAccounts(ctx context.Context, cand *model.Candidate, accounts []guardianAccount) {
	for _, a := range accounts {
		s.notifier.Send(ctx, notify.KindGuardianAccountCreated, []string{a.guardian.Email}, map[string]any{
			"FirstName":     a.guardian.FirstName,
			"LastName":      a.guardian.LastName,
			"CandidateName": cand.FullName(),
			"Username":      a.username,
			"Password":      a.password,
			"LoginURL":      s.baseURL() + "/login",
		})
	}
}

// ── misc ──

// checkEmailAvailable fails with ErrDuplicateEmail when another user owns
// email. ownUserID is ignored.
func (s *registrationService) checkEmailAvailable(ctx context.Context, email string, ownUserID *string) error {
	user, err := s.repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if ownUserID != nil && user.UserID == *ownUserID {
		return nil
	}
	return ErrDuplicateEmail
}

// adminRecipients configured admin addresses plus every admin user.
func (s *registrationService) adminRecipients(ctx context.Context) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, addr)
	}

	for _, addr := range s.cfg.Mail.AdminEmails {
		add(addr)
	}
	admins, err := s.repo.User.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		s.logger.Warn("list admin users failed", zap.Error(err))
	}
	for _, u := range admins {
		if u.IsActive {
			add(u.Email)
		}
	}
	return out
}

func (s *registrationService) baseURL() string {
	return strings.TrimRight(s.cfg.Server.BaseURL, "/")
}

func toGuardianViews(guardians []model.Guardian) []dto.GuardianView {
	out := make([]dto.GuardianView, 0, len(guardians))
	for _, g := range guardians {
		out = append(out, dto.GuardianView{
			ID:           g.GuardianID,
			FirstName:    g.FirstName,
			LastName:     g.LastName,
			Relationship: g.Relationship,
			Email:        g.Email,
			Phone:        g.Phone,
			Address:      g.Address,
			City:         g.City,
			PostalCode:   g.PostalCode,
			HasAccount:   g.UserID != nil,
		})
	}
	return out
}
