package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
)

var (
	ErrSigningProcessNotFound = errors.New("lien de signature invalide")
	ErrSigningLinkExpired     = errors.New("le lien de signature a expiré")
	ErrInvalidSignerRole      = errors.New("rôle de signataire invalide")
	ErrIncompleteSignature    = errors.New("veuillez accepter le document et saisir votre nom complet")
	ErrSignerMismatch         = errors.New("le nom saisi ne correspond pas au signataire attendu")
	ErrSignerNotAuthorized    = errors.New("vous n'êtes pas autorisé à signer ce document")
)

const (
	channelToken   = "token"
	channelSession = "session"
)

// SigningService bilateral signature of generated documents
type SigningService interface {
	GetByToken(ctx context.Context, token string) (*dto.SigningView, error)
	SignWithToken(ctx context.Context, token string, req *dto.TokenSignRequest) (*dto.SignResult, error)
	SignAsUser(ctx context.Context, documentID string, actor *Actor, req *dto.SessionSignRequest) (*dto.SignResult, error)
}

type signingService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSigningService creates a SigningService
func NewSigningService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) SigningService {
	return &signingService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// signingContext rows around one signing process
type signingContext struct {
	process   *model.SigningProcess
	document  *model.Document
	candidate *model.Candidate
	guardians []model.Guardian
}

// ────────────────────── GetByToken ──────────────────────

func (s *signingService) GetByToken(ctx context.Context, token string) (*dto.SigningView, error) {
	sp, err := s.processByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	sc, err := s.load(ctx, sp)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sc.guardians))
	for i := range sc.guardians {
		names = append(names, sc.guardians[i].FullName())
	}

	return &dto.SigningView{
		DocumentID:    sc.document.DocumentID,
		DocumentType:  sc.document.DocumentType,
		Title:         model.DocumentTitle(sc.document.DocumentType),
		Status:        sc.document.Status,
		CandidateName: sc.candidate.FullName(),
		Guardians:     names,
		Signing:       toSigningState(sp),
		Expired:       sp.IsExpired(s.now()),
		ExpiresAt:     sp.ExpiryDate,
	}, nil
}

// ────────────────────── SignWithToken ──────────────────────

func (s *signingService) SignWithToken(ctx context.Context, token string, req *dto.TokenSignRequest) (*dto.SignResult, error) {
	sp, err := s.processByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sp.IsExpired(s.now()) {
		return nil, ErrSigningLinkExpired
	}

	role := strings.TrimSpace(req.SignerRole)
	if role != model.SignerCandidate && role != model.SignerGuardian {
		return nil, ErrInvalidSignerRole
	}

	fullName := strings.TrimSpace(req.FullName)
	if !req.Acceptance || fullName == "" {
		return nil, ErrIncompleteSignature
	}

	sc, err := s.load(ctx, sp)
	if err != nil {
		return nil, err
	}

	if s.cfg.Registration.StrictTokenSigner && !sc.nameMatches(role, fullName) {
		s.logger.Warn("token signature name mismatch",
			zap.String("document_id", sc.document.DocumentID),
			zap.String("role", role),
		)
		return nil, ErrSignerMismatch
	}

	return s.sign(ctx, sc, role, fullName, channelToken)
}

// ────────────────────── SignAsUser ──────────────────────

func (s *signingService) SignAsUser(ctx context.Context, documentID string, actor *Actor, req *dto.SessionSignRequest) (*dto.SignResult, error) {
	sp, err := s.repo.SigningProcess.GetByDocumentID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, docErr := s.repo.Document.GetByID(ctx, documentID); errors.Is(docErr, gorm.ErrRecordNotFound) {
				return nil, ErrDocumentNotFound
			}
			return nil, ErrSigningProcessNotFound
		}
		s.logger.Error("lookup signing process failed", zap.String("document_id", documentID), zap.Error(err))
		return nil, err
	}
	if sp.IsExpired(s.now()) {
		return nil, ErrSigningLinkExpired
	}

	sc, err := s.load(ctx, sp)
	if err != nil {
		return nil, err
	}

	var role string
	if actor != nil {
		role, err = partyOf(ctx, s.repo, actor.UserID, sc.candidate.CandidateID)
		if err != nil {
			return nil, err
		}
	}
	if role == "" {
		return nil, ErrSignerNotAuthorized
	}

	fullName := strings.TrimSpace(req.FullName)
	if !req.Acceptance || fullName == "" {
		return nil, ErrIncompleteSignature
	}

	return s.sign(ctx, sc, role, fullName, channelSession)
}

// ────────────────────── sign ──────────────────────

// sign merges role's signature into a freshly locked row. Only the signer's
// columns are written, so concurrent signatures by both parties both land.
func (s *signingService) sign(ctx context.Context, sc *signingContext, role, fullName, channel string) (*dto.SignResult, error) {
	result := &dto.SignResult{DocumentID: sc.document.DocumentID}
	var fresh *model.SigningProcess
	changed := false

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		sp, err := tx.SigningProcess.GetByDocumentIDForUpdate(ctx, sc.document.DocumentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSigningProcessNotFound
			}
			return err
		}
		fresh = sp

		switch {
		case sp.IsComplete():
			result.AlreadyComplete = true
			return nil
		case sp.HasSigned(role):
			result.AlreadySigned = true
			return nil
		}

		now := s.now()
		if err := tx.SigningProcess.RecordSignature(ctx, sp.SigningProcessID, role, fullName, now); err != nil {
			return err
		}
		sp.Apply(role, fullName, now)

		if err := tx.Document.UpdateStatus(ctx, sc.document.DocumentID, sp.DocumentStatus()); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSigningProcessNotFound) {
			s.logger.Error("record signature failed",
				zap.String("document_id", sc.document.DocumentID),
				zap.String("role", role),
				zap.Error(err),
			)
		}
		return nil, err
	}

	result.Status = fresh.DocumentStatus()
	if !changed {
		return result, nil
	}

	s.metrics.IncSignature(role, channel)
	s.logger.Info("document signed",
		zap.String("document_id", sc.document.DocumentID),
		zap.String("type", sc.document.DocumentType),
		zap.String("role", role),
		zap.String("channel", channel),
		zap.String("status", result.Status),
	)

	if !fresh.HasSigned(model.OtherSigner(role)) {
		s.notifyOtherParty(ctx, sc, fresh, role)
	}
	return result, nil
}

func (s *signingService) notifyOtherParty(ctx context.Context, sc *signingContext, sp *model.SigningProcess, signedBy string) {
	title := model.DocumentTitle(sc.document.DocumentType)
	url := s.signingURL(sp.SigningToken)
	expires := formatDate(sp.ExpiryDate)

	if signedBy == model.SignerCandidate {
		for i := range sc.guardians {
			g := &sc.guardians[i]
			s.notifier.Send(ctx, notify.KindSigningRequest, []string{g.Email}, map[string]any{
				"FirstName":     g.FirstName,
				"LastName":      g.LastName,
				"DocumentTitle": title,
				"CandidateName": sc.candidate.FullName(),
				"URL":           url,
				"ExpiresOn":     expires,
			})
		}
		return
	}

	if sc.document.DocumentType == model.DocRegistration {
		s.notifier.Send(ctx, notify.KindAdditionalDocuments, []string{sc.candidate.Email}, map[string]any{
			"FirstName": sc.candidate.FirstName,
			"LastName":  sc.candidate.LastName,
			"LoginURL":  s.cfg.Server.BaseURL + "/login",
		})
		return
	}

	s.notifier.Send(ctx, notify.KindSigningRequest, []string{sc.candidate.Email}, map[string]any{
		"FirstName":     sc.candidate.FirstName,
		"LastName":      sc.candidate.LastName,
		"DocumentTitle": title,
		"CandidateName": sc.candidate.FullName(),
		"URL":           url,
		"ExpiresOn":     expires,
	})
}

// ── helpers ──

func (s *signingService) signingURL(token string) string {
	return strings.TrimRight(s.cfg.Server.BaseURL, "/") + "/signing/" + token
}

func (s *signingService) processByToken(ctx context.Context, token string) (*model.SigningProcess, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrSigningProcessNotFound
	}
	sp, err := s.repo.SigningProcess.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSigningProcessNotFound
		}
		s.logger.Error("lookup signing token failed", zap.Error(err))
		return nil, err
	}
	return sp, nil
}

func (s *signingService) load(ctx context.Context, sp *model.SigningProcess) (*signingContext, error) {
	doc, err := s.repo.Document.GetByID(ctx, sp.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	app, err := s.repo.Application.GetByID(ctx, doc.ApplicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	cand, err := s.repo.Candidate.GetByID(ctx, app.CandidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	guardians, err := s.repo.Guardian.ListByCandidate(ctx, cand.CandidateID)
	if err != nil {
		return nil, err
	}

	return &signingContext{process: sp, document: doc, candidate: cand, guardians: guardians}, nil
}

// nameMatches compares the attested name with the declared party, ignoring
// case and extra spaces. Either name order is accepted.
func (sc *signingContext) nameMatches(role, fullName string) bool {
	given := normalizeName(fullName)
	match := func(first, last string) bool {
		return given == normalizeName(first+" "+last) || given == normalizeName(last+" "+first)
	}

	if role == model.SignerCandidate {
		return match(sc.candidate.FirstName, sc.candidate.LastName)
	}
	for i := range sc.guardians {
		if match(sc.guardians[i].FirstName, sc.guardians[i].LastName) {
			return true
		}
	}
	return false
}

// normalizeName folds case, accents and spacing.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldAccents(s))), " ")
}
