package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
	"acadef/backend/internal/repository"
	"acadef/backend/pkg/jwt"
	"acadef/backend/pkg/pdf"
	"acadef/backend/pkg/provisioning"
	"acadef/backend/pkg/storage"
)

// ── fakes ──

type sentMessage struct {
	kind notify.Kind
	to   []string
	data map[string]any
}

type fakeNotifier struct {
	sent []sentMessage
}

func (n *fakeNotifier) Send(_ context.Context, kind notify.Kind, to []string, data map[string]any) bool {
	n.sent = append(n.sent, sentMessage{kind: kind, to: to, data: data})
	return true
}

func (n *fakeNotifier) count(kind notify.Kind) int {
	c := 0
	for _, m := range n.sent {
		if m.kind == kind {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) to(kind notify.Kind) []string {
	var out []string
	for _, m := range n.sent {
		if m.kind == kind {
			out = append(out, m.to...)
		}
	}
	return out
}

func (n *fakeNotifier) reset() { n.sent = nil }

type fakeProvisioner struct {
	name    string
	fail    bool
	created []provisioning.Profile
	deleted []string
}

func (p *fakeProvisioner) Name() string { return p.name }

func (p *fakeProvisioner) CreateAccount(_ context.Context, prof provisioning.Profile) provisioning.Result {
	if p.fail {
		return provisioning.Result{Success: false, Message: "remote unavailable"}
	}
	p.created = append(p.created, prof)
	return provisioning.Result{Success: true}
}

func (p *fakeProvisioner) DeleteAccount(_ context.Context, identifier string) provisioning.Result {
	if p.fail {
		return provisioning.Result{Success: false, Message: "remote unavailable"}
	}
	p.deleted = append(p.deleted, identifier)
	return provisioning.Result{Success: true}
}

type fakeBlacklist struct {
	revoked map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.revoked[jti] = ttl
	return nil
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.revoked[jti]
	return ok, nil
}

// fakeRenderer records drawn text and writes a small placeholder file.
type fakeRenderer struct {
	fail     bool
	canvases []*fakeCanvas
}

func (r *fakeRenderer) NewCanvas(path string, _ pdf.PageSize) (pdf.Canvas, error) {
	if r.fail {
		return nil, errors.New("renderer unavailable")
	}
	c := &fakeCanvas{path: path, pages: 1}
	r.canvases = append(r.canvases, c)
	return c, nil
}

type fakeCanvas struct {
	path  string
	pages int
	texts []string
}

func (c *fakeCanvas) Size() (float64, float64) { return 210, 297 }

func (c *fakeCanvas) DrawText(_, _ float64, text string, _ pdf.Font) {
	c.texts = append(c.texts, text)
}

func (c *fakeCanvas) DrawCenteredText(_ float64, text string, _ pdf.Font) {
	c.texts = append(c.texts, text)
}

func (c *fakeCanvas) NewPage() { c.pages++ }

func (c *fakeCanvas) Save() error {
	return os.WriteFile(c.path, []byte("%PDF-1.3 test"), 0o644)
}

func (c *fakeCanvas) contains(s string) bool {
	for _, t := range c.texts {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// ── environment ──

type testEnv struct {
	cfg          *config.Config
	users        *mockUserRepo
	candidates   *mockCandidateRepo
	guardians    *mockGuardianRepo
	apps         *mockApplicationRepo
	docs         *mockDocumentRepo
	processes    *mockSigningProcessRepo
	periods      *mockPeriodRepo
	medical      *mockMedicalRepo
	measurements *mockMeasurementsRepo
	repo         *repository.Repository
	store        *storage.Resolver
	renderer     *fakeRenderer
	notifier     *fakeNotifier
	provisioner  *fakeProvisioner
	blacklist    *fakeBlacklist
	metrics      *metrics.Metrics
	svc          *Service
}

func testConfig(uploadDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "https://acadef.test"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Mail: config.MailConfig{AdminEmails: []string{"admissions@acadef.test"}},
		Storage: config.StorageConfig{
			UploadDir:         uploadDir,
			MaxUploadSize:     1 << 20,
			AllowedExtensions: []string{"pdf", "jpg", "jpeg", "png"},
		},
		Registration: config.RegistrationConfig{
			SigningLinkTTL:       30 * 24 * time.Hour,
			LegacySigningLinkTTL: 7 * 24 * time.Hour,
			UsernameMaxAttempts:  5,
			TempPasswordLength:   12,
			StrictTokenSigner:    true,
		},
		Feature: config.FeatureConfig{LegacyRegisterEnabled: true},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testConfig(t.TempDir())
	store, err := storage.NewResolver(&cfg.Storage)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	env := &testEnv{
		cfg:          cfg,
		users:        newMockUserRepo(),
		candidates:   newMockCandidateRepo(),
		guardians:    newMockGuardianRepo(),
		apps:         newMockApplicationRepo(),
		docs:         newMockDocumentRepo(),
		processes:    newMockSigningProcessRepo(),
		periods:      newMockPeriodRepo(),
		medical:      newMockMedicalRepo(),
		measurements: newMockMeasurementsRepo(),
		store:        store,
		renderer:     &fakeRenderer{},
		notifier:     &fakeNotifier{},
		provisioner:  &fakeProvisioner{name: "other_app"},
		blacklist:    newFakeBlacklist(),
		metrics:      metrics.New(prometheus.NewRegistry()),
	}
	env.repo = &repository.Repository{
		User:                 env.users,
		Candidate:            env.candidates,
		Guardian:             env.guardians,
		Application:          env.apps,
		Document:             env.docs,
		SigningProcess:       env.processes,
		ApplicationPeriod:    env.periods,
		MedicalInformation:   env.medical,
		PhysicalMeasurements: env.measurements,
	}
	env.svc = NewService(
		cfg,
		env.repo,
		jwt.NewManager(&cfg.Auth),
		env.blacklist,
		store,
		env.renderer,
		env.notifier,
		[]provisioning.Provisioner{env.provisioner},
		env.metrics,
		zap.NewNop(),
	)
	return env
}

// openPeriod adds an active period covering today.
func (e *testEnv) openPeriod(t *testing.T) *model.ApplicationPeriod {
	t.Helper()
	p := &model.ApplicationPeriod{
		Name:          "Promotion 2027",
		StartDate:     time.Now().AddDate(0, 0, -1),
		EndDate:       time.Now().AddDate(0, 1, 0),
		PromotionYear: 2027,
		IsActive:      true,
	}
	if err := e.periods.Create(context.Background(), p); err != nil {
		t.Fatalf("create period failed: %v", err)
	}
	return p
}

// addCandidate stores a candidate with its own account at the given status.
func (e *testEnv) addCandidate(t *testing.T, status string) (*model.Candidate, *Actor) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{Username: "jean.dupont", Email: "jean@example.com", Role: model.RoleCandidate, IsActive: true}
	if err := e.users.Create(ctx, user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	cand := &model.Candidate{
		UserID:            &user.UserID,
		FirstName:         "Jean",
		LastName:          "Dupont",
		DateOfBirth:       time.Date(2010, 5, 14, 0, 0, 0, 0, time.UTC),
		Email:             "jean@example.com",
		ApplicationStatus: status,
	}
	if err := e.candidates.Create(ctx, cand); err != nil {
		t.Fatalf("create candidate failed: %v", err)
	}
	return cand, &Actor{UserID: user.UserID, Role: model.RoleCandidate}
}

// addGuardian links a guardian account to the candidate.
func (e *testEnv) addGuardian(t *testing.T, cand *model.Candidate, first, last, email string) *Actor {
	t.Helper()
	ctx := context.Background()

	user := &model.User{Username: first + "." + last, Email: email, Role: model.RoleGuardian, IsActive: true}
	if err := e.users.Create(ctx, user); err != nil {
		t.Fatalf("create guardian user failed: %v", err)
	}
	g := &model.Guardian{CandidateID: cand.CandidateID, UserID: &user.UserID, FirstName: first, LastName: last, Email: email}
	if err := e.guardians.Create(ctx, g); err != nil {
		t.Fatalf("create guardian failed: %v", err)
	}
	return &Actor{UserID: user.UserID, Role: model.RoleGuardian}
}

// addApplication stores an application for the candidate.
func (e *testEnv) addApplication(t *testing.T, cand *model.Candidate, submitted bool) *model.Application {
	t.Helper()
	year := 2027
	app := &model.Application{
		CandidateID:     cand.CandidateID,
		Status:          model.ApplicationPending,
		PromotionYear:   &year,
		ApplicationDate: time.Now(),
	}
	if submitted {
		now := time.Now()
		app.SubmittedAt = &now
	}
	if err := e.apps.Create(context.Background(), app); err != nil {
		t.Fatalf("create application failed: %v", err)
	}
	return app
}

// completeDocuments marks every signable document of the application as
// signed by both parties.
func (e *testEnv) completeDocuments(t *testing.T, appID string) {
	t.Helper()
	ctx := context.Background()
	docs, _ := e.docs.ListByApplication(ctx, appID)
	for _, d := range docs {
		sp, err := e.processes.GetByDocumentID(ctx, d.DocumentID)
		if err != nil {
			continue
		}
		_ = e.processes.RecordSignature(ctx, sp.SigningProcessID, model.SignerCandidate, "Jean Dupont", time.Now())
		_ = e.processes.RecordSignature(ctx, sp.SigningProcessID, model.SignerGuardian, "Marie Dupont", time.Now())
		_ = e.docs.UpdateStatus(ctx, d.DocumentID, model.DocStatusComplete)
	}
}

// setIdentityFiles marks every required identity upload as stored.
func (e *testEnv) setIdentityFiles(t *testing.T, candidateID string) {
	t.Helper()
	c := e.candidates.candidates[candidateID]
	for _, kind := range model.RequiredIdentityFiles {
		c.SetIdentityFile(kind, string(kind)+".pdf")
	}
	e.candidates.candidates[candidateID] = c
}

func upload(name, content string) dto.FileUpload {
	return dto.FileUpload{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func identityFilesIn(store *storage.Resolver) []string {
	entries, _ := os.ReadDir(filepath.Join(store.Root(), "identity"))
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
