package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/repository"
	"acadef/backend/pkg/pdf"
	"acadef/backend/pkg/storage"
)

var (
	ErrDocumentNotFound     = errors.New("document introuvable")
	ErrDocumentFileMissing  = errors.New("le fichier du document est introuvable")
	ErrDocumentAccessDenied = errors.New("accès au document refusé")
)

// DocumentFile resolved file ready to be served
type DocumentFile struct {
	Path        string
	Name        string
	ContentType string
}

// PathFix row whose stored path drifted from the canonical location
type PathFix struct {
	DocumentID string
	Type       string
	From       string
	To         string
}

// RepairReport outcome of RepairPaths
type RepairReport struct {
	Checked int
	Fixed   []PathFix
	Missing []model.Document
}

// DocumentService generated PDFs and their signing processes
type DocumentService interface {
	// EnsureSignableDocuments creates the missing signable documents of an
	// application and returns all of them in type order.
	EnsureSignableDocuments(ctx context.Context, cand *model.Candidate, app *model.Application) ([]model.Document, error)
	CreateSignableDocument(ctx context.Context, cand *model.Candidate, app *model.Application, docType string) (*model.Document, error)
	// VerifyDocumentFiles repairs drifted paths and recreates signable
	// documents whose file is gone.
	VerifyDocumentFiles(ctx context.Context, cand *model.Candidate, app *model.Application) error
	RegenerateDocuments(ctx context.Context, candidateID string) ([]model.Document, error)
	// PrepareSummary renders the registration summary and returns the row to
	// insert; the caller persists it in its own transaction.
	PrepareSummary(ctx context.Context, in SummaryInput, app *model.Application) (*model.Document, error)
	CreateLegacyDossier(ctx context.Context, cand *model.Candidate, app *model.Application) (*model.Document, *model.SigningProcess, error)
	ListViews(ctx context.Context, applicationID string) ([]dto.DocumentView, error)
	OpenDocument(ctx context.Context, documentID string, actor *Actor) (*DocumentFile, error)
	OpenByToken(ctx context.Context, token string) (*DocumentFile, error)
	RepairPaths(ctx context.Context, dryRun bool) (*RepairReport, error)
	// SweepOrphans removes PDFs no document row references and returns their names.
	SweepOrphans(ctx context.Context, dryRun bool) ([]string, error)
}

type documentService struct {
	cfg      *config.Config
	repo     *repository.Repository
	store    *storage.Resolver
	renderer pdf.Renderer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewDocumentService creates a DocumentService
func NewDocumentService(
	cfg *config.Config,
	repo *repository.Repository,
	store *storage.Resolver,
	renderer pdf.Renderer,
	m *metrics.Metrics,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		cfg:      cfg,
		repo:     repo,
		store:    store,
		renderer: renderer,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── EnsureSignableDocuments ──────────────────────

func (s *documentService) EnsureSignableDocuments(ctx context.Context, cand *model.Candidate, app *model.Application) ([]model.Document, error) {
	existing, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		s.logger.Error("list documents failed", zap.String("application_id", app.ApplicationID), zap.Error(err))
		return nil, err
	}

	byType := make(map[string]model.Document, len(existing))
	for _, d := range existing {
		byType[d.DocumentType] = d
	}

	docs := make([]model.Document, 0, len(model.SignableDocumentTypes))
	for _, docType := range model.SignableDocumentTypes {
		if d, ok := byType[docType]; ok {
			docs = append(docs, d)
			continue
		}

		doc, err := s.CreateSignableDocument(ctx, cand, app, docType)
		if err != nil {
			s.logger.Error("create signable document failed",
				zap.String("application_id", app.ApplicationID),
				zap.String("type", docType),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ────────────────────── CreateSignableDocument ──────────────────────

func (s *documentService) CreateSignableDocument(ctx context.Context, cand *model.Candidate, app *model.Application, docType string) (*model.Document, error) {
	if !model.IsSignable(docType) {
		return nil, fmt.Errorf("document type %q is not signable", docType)
	}

	filename := fmt.Sprintf("%s_%s.pdf", docType, storage.NewHex())
	path := s.store.DocumentPath(filename)
	if err := renderSignable(s.renderer, path, docType, cand, s.now()); err != nil {
		return nil, err
	}

	ttl := s.cfg.Registration.SigningLinkTTL
	if docType == model.DocRegistration {
		ttl = s.cfg.Registration.LegacySigningLinkTTL
	}

	doc := &model.Document{
		ApplicationID:    app.ApplicationID,
		Filename:         filename,
		OriginalFilename: fmt.Sprintf("%s_%s.pdf", docType, safeName(cand.LastName)),
		FilePath:         path,
		DocumentType:     docType,
		Status:           model.DocStatusPending,
	}
	sp := &model.SigningProcess{
		SigningToken: uuid.NewString(),
		ExpiryDate:   s.now().Add(ttl),
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Document.Create(ctx, doc); err != nil {
			return err
		}
		sp.DocumentID = doc.DocumentID
		return tx.SigningProcess.Create(ctx, sp)
	})
	if err != nil {
		// a concurrent request may have created the same type first
		if winner, lookupErr := s.repo.Document.GetByApplicationAndType(ctx, app.ApplicationID, docType); lookupErr == nil {
			_ = s.store.Remove(path)
			return winner, nil
		}
		s.logger.Error("insert document failed, orphan file left on disk",
			zap.String("file", filename),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncDocumentGenerated(docType)
	return doc, nil
}

// ────────────────────── VerifyDocumentFiles ──────────────────────

func (s *documentService) VerifyDocumentFiles(ctx context.Context, cand *model.Candidate, app *model.Application) error {
	docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		s.logger.Error("list documents failed", zap.String("application_id", app.ApplicationID), zap.Error(err))
		return err
	}

	for i := range docs {
		doc := &docs[i]

		path, drifted, err := s.store.Locate(doc.FilePath, doc.Filename)
		if err == nil {
			if drifted {
				if err := s.repo.Document.UpdateFilePath(ctx, doc.DocumentID, path); err != nil {
					s.logger.Error("update document path failed", zap.String("document_id", doc.DocumentID), zap.Error(err))
				}
			}
			continue
		}

		// after submission the signatures are part of the record; docrepair
		// reports the missing file instead
		if !isWizardDocument(doc.DocumentType) || cand.IsSubmitted() {
			s.logger.Warn("document file missing",
				zap.String("document_id", doc.DocumentID),
				zap.String("type", doc.DocumentType),
				zap.String("status", doc.Status),
			)
			continue
		}

		s.logger.Warn("document file unrecoverable, recreating",
			zap.String("document_id", doc.DocumentID),
			zap.String("type", doc.DocumentType),
		)
		if err := s.deleteDocumentRows(ctx, s.repo, doc.DocumentID); err != nil {
			s.logger.Error("delete broken document failed", zap.String("document_id", doc.DocumentID), zap.Error(err))
			continue
		}
		if _, err := s.CreateSignableDocument(ctx, cand, app, doc.DocumentType); err != nil {
			s.logger.Error("recreate document failed", zap.String("type", doc.DocumentType), zap.Error(err))
		}
	}
	return nil
}

// ────────────────────── RegenerateDocuments ──────────────────────

func (s *documentService) RegenerateDocuments(ctx context.Context, candidateID string) ([]model.Document, error) {
	cand, err := s.repo.Candidate.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	app, err := s.repo.Application.GetByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	docs, err := s.repo.Document.ListByApplication(ctx, app.ApplicationID)
	if err != nil {
		return nil, err
	}

	var stale []string
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, d := range docs {
			if !isWizardDocument(d.DocumentType) {
				continue
			}
			if err := s.deleteDocumentRows(ctx, tx, d.DocumentID); err != nil {
				return err
			}
			stale = append(stale, d.FilePath, s.store.DocumentPath(d.Filename))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("delete documents failed", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, err
	}

	for _, path := range stale {
		if err := s.store.Remove(path); err != nil {
			s.logger.Warn("remove document file failed", zap.String("path", path), zap.Error(err))
		}
	}

	s.logger.Info("documents regenerated", zap.String("candidate_id", candidateID))
	return s.EnsureSignableDocuments(ctx, cand, app)
}

// ────────────────────── Summary / legacy dossier ──────────────────────

func (s *documentService) PrepareSummary(ctx context.Context, in SummaryInput, app *model.Application) (*model.Document, error) {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = s.now()
	}

	filename := fmt.Sprintf("registration_%s_%s.pdf", in.Candidate.CandidateID, storage.NewHex())
	path := s.store.DocumentPath(filename)
	if err := RenderSummary(s.renderer, path, in); err != nil {
		s.logger.Error("render summary failed", zap.String("candidate_id", in.Candidate.CandidateID), zap.Error(err))
		return nil, err
	}
	s.metrics.IncDocumentGenerated(model.DocRegistrationSummary)

	return &model.Document{
		ApplicationID:    app.ApplicationID,
		Filename:         filename,
		OriginalFilename: fmt.Sprintf("Registration_%s.pdf", safeName(in.Candidate.LastName)),
		FilePath:         path,
		DocumentType:     model.DocRegistrationSummary,
		Status:           model.DocStatusComplete,
	}, nil
}

func (s *documentService) CreateLegacyDossier(ctx context.Context, cand *model.Candidate, app *model.Application) (*model.Document, *model.SigningProcess, error) {
	doc, err := s.CreateSignableDocument(ctx, cand, app, model.DocRegistration)
	if err != nil {
		return nil, nil, err
	}
	sp, err := s.repo.SigningProcess.GetByDocumentID(ctx, doc.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return doc, sp, nil
}

// ────────────────────── Views ──────────────────────

func (s *documentService) ListViews(ctx context.Context, applicationID string) ([]dto.DocumentView, error) {
	docs, err := s.repo.Document.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.DocumentID)
	}
	processes, err := s.repo.SigningProcess.ListByDocumentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byDoc := make(map[string]*model.SigningProcess, len(processes))
	for i := range processes {
		byDoc[processes[i].DocumentID] = &processes[i]
	}

	views := make([]dto.DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, toDocumentView(&docs[i], byDoc[docs[i].DocumentID]))
	}
	return views, nil
}

func toDocumentView(d *model.Document, sp *model.SigningProcess) dto.DocumentView {
	v := dto.DocumentView{
		ID:               d.DocumentID,
		Type:             d.DocumentType,
		Title:            model.DocumentTitle(d.DocumentType),
		Filename:         d.Filename,
		OriginalFilename: d.OriginalFilename,
		Status:           d.Status,
	}
	if sp != nil {
		state := toSigningState(sp)
		v.Signing = &state
	}
	return v
}

func toSigningState(sp *model.SigningProcess) dto.SigningState {
	return dto.SigningState{
		CandidateSigned:     sp.CandidateSigned,
		CandidateSignedAt:   sp.CandidateSignedAt,
		CandidateSignerName: sp.CandidateSignerName,
		GuardianSigned:      sp.GuardianSigned,
		GuardianSignedAt:    sp.GuardianSignedAt,
		GuardianSignerName:  sp.GuardianSignerName,
		ExpiryDate:          sp.ExpiryDate,
	}
}

// ────────────────────── Download ──────────────────────

func (s *documentService) OpenDocument(ctx context.Context, documentID string, actor *Actor) (*DocumentFile, error) {
	doc, err := s.repo.Document.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	if !actor.IsAdmin() {
		app, err := s.repo.Application.GetByID(ctx, doc.ApplicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDocumentNotFound
			}
			return nil, err
		}
		party, err := partyOf(ctx, s.repo, actor.UserID, app.CandidateID)
		if err != nil {
			return nil, err
		}
		if party == "" {
			return nil, ErrDocumentAccessDenied
		}
	}

	return s.resolve(ctx, doc)
}

func (s *documentService) OpenByToken(ctx context.Context, token string) (*DocumentFile, error) {
	sp, err := s.repo.SigningProcess.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSigningProcessNotFound
		}
		return nil, err
	}
	if sp.IsExpired(s.now()) {
		return nil, ErrSigningLinkExpired
	}

	doc, err := s.repo.Document.GetByID(ctx, sp.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return s.resolve(ctx, doc)
}

func (s *documentService) resolve(ctx context.Context, doc *model.Document) (*DocumentFile, error) {
	path, drifted, err := s.store.Locate(doc.FilePath, doc.Filename)
	if err != nil {
		s.logger.Warn("document file missing", zap.String("document_id", doc.DocumentID), zap.String("path", doc.FilePath))
		return nil, ErrDocumentFileMissing
	}
	if drifted {
		if err := s.repo.Document.UpdateFilePath(ctx, doc.DocumentID, path); err != nil {
			s.logger.Warn("update document path failed", zap.String("document_id", doc.DocumentID), zap.Error(err))
		}
	}

	name := doc.OriginalFilename
	if name == "" {
		name = doc.Filename
	}
	return &DocumentFile{Path: path, Name: name, ContentType: "application/pdf"}, nil
}

// ────────────────────── Repair ──────────────────────

func (s *documentService) RepairPaths(ctx context.Context, dryRun bool) (*RepairReport, error) {
	docs, err := s.repo.Document.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{Checked: len(docs)}
	for i := range docs {
		doc := &docs[i]
		path, drifted, err := s.store.Locate(doc.FilePath, doc.Filename)
		switch {
		case err != nil:
			report.Missing = append(report.Missing, *doc)
		case drifted:
			report.Fixed = append(report.Fixed, PathFix{
				DocumentID: doc.DocumentID,
				Type:       doc.DocumentType,
				From:       doc.FilePath,
				To:         path,
			})
			if dryRun {
				continue
			}
			if err := s.repo.Document.UpdateFilePath(ctx, doc.DocumentID, path); err != nil {
				return report, fmt.Errorf("update %s: %w", doc.DocumentID, err)
			}
		}
	}

	s.logger.Info("document paths checked",
		zap.Int("checked", report.Checked),
		zap.Int("fixed", len(report.Fixed)),
		zap.Int("missing", len(report.Missing)),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}

func (s *documentService) SweepOrphans(ctx context.Context, dryRun bool) ([]string, error) {
	docs, err := s.repo.Document.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]bool, len(docs)*2)
	for _, d := range docs {
		referenced[d.Filename] = true
		referenced[filepath.Base(d.FilePath)] = true
	}

	files, err := s.store.ListDocumentFiles()
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, name := range files {
		if referenced[name] {
			continue
		}
		orphans = append(orphans, name)
		if dryRun {
			continue
		}
		if err := s.store.Remove(s.store.DocumentPath(name)); err != nil {
			s.logger.Warn("remove orphan failed", zap.String("file", name), zap.Error(err))
		}
	}

	s.logger.Info("orphan sweep done", zap.Int("orphans", len(orphans)), zap.Bool("dry_run", dryRun))
	return orphans, nil
}

// ── helpers ──

func (s *documentService) deleteDocumentRows(ctx context.Context, repo *repository.Repository, documentID string) error {
	if err := repo.SigningProcess.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	return repo.Document.Delete(ctx, documentID)
}

// partyOf returns the signer role userID holds for the candidate, or "".
func partyOf(ctx context.Context, repo *repository.Repository, userID, candidateID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	cand, err := repo.Candidate.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCandidateNotFound
		}
		return "", err
	}
	if cand.UserID != nil && *cand.UserID == userID {
		return model.SignerCandidate, nil
	}

	_, err = repo.Guardian.GetByUserAndCandidate(ctx, userID, candidateID)
	switch {
	case err == nil:
		return model.SignerGuardian, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", err
	}
}

// isWizardDocument one of the five documents signed during step 4
func isWizardDocument(docType string) bool {
	for _, t := range model.SignableDocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// safeName file-name friendly version of a person name
func safeName(s string) string {
	s = strings.Join(strings.Fields(s), "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
