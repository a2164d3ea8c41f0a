package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
	"acadef/backend/internal/repository"
)

// Mocks store copies so callers never alias stored rows, like a database.

var errDuplicateKey = fmt.Errorf("duplicate key value violates unique constraint")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return errDuplicateKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = *user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if u, err := m.GetByUsername(ctx, identifier); err == nil {
		return u, nil
	}
	return m.GetByEmail(ctx, identifier)
}

func (m *mockUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role && u.IsActive {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = *user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

// ── Mock CandidateRepository ──

type mockCandidateRepo struct {
	candidates map[string]model.Candidate
	seq        int
}

func newMockCandidateRepo() *mockCandidateRepo {
	return &mockCandidateRepo{candidates: make(map[string]model.Candidate)}
}

func (m *mockCandidateRepo) Create(_ context.Context, c *model.Candidate) error {
	if c.CandidateID == "" {
		m.seq++
		c.CandidateID = fmt.Sprintf("cand-%d", m.seq)
	}
	if c.ApplicationStatus == "" {
		c.ApplicationStatus = model.StatusStep1
	}
	m.candidates[c.CandidateID] = *c
	return nil
}

func (m *mockCandidateRepo) GetByID(_ context.Context, id string) (*model.Candidate, error) {
	if c, ok := m.candidates[id]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCandidateRepo) GetByUserID(_ context.Context, userID string) (*model.Candidate, error) {
	for _, c := range m.candidates {
		if c.UserID != nil && *c.UserID == userID {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCandidateRepo) ListByIDs(_ context.Context, ids []string) ([]model.Candidate, error) {
	var result []model.Candidate
	for _, id := range ids {
		if c, ok := m.candidates[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCandidateRepo) Update(_ context.Context, c *model.Candidate) error {
	m.candidates[c.CandidateID] = *c
	return nil
}

func (m *mockCandidateRepo) UpdateStatus(_ context.Context, id, status string) error {
	c, ok := m.candidates[id]
	if !ok {
		return nil
	}
	c.ApplicationStatus = status
	m.candidates[id] = c
	return nil
}

func (m *mockCandidateRepo) Delete(_ context.Context, id string) error {
	delete(m.candidates, id)
	return nil
}

// ── Mock GuardianRepository ──

type mockGuardianRepo struct {
	guardians []model.Guardian
	seq       int
}

func newMockGuardianRepo() *mockGuardianRepo {
	return &mockGuardianRepo{}
}

func (m *mockGuardianRepo) Create(_ context.Context, g *model.Guardian) error {
	if g.GuardianID == "" {
		m.seq++
		g.GuardianID = fmt.Sprintf("guardian-%d", m.seq)
	}
	m.guardians = append(m.guardians, *g)
	return nil
}

func (m *mockGuardianRepo) ListByCandidate(_ context.Context, candidateID string) ([]model.Guardian, error) {
	var result []model.Guardian
	for _, g := range m.guardians {
		if g.CandidateID == candidateID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *mockGuardianRepo) GetByUserAndCandidate(_ context.Context, userID, candidateID string) (*model.Guardian, error) {
	for _, g := range m.guardians {
		if g.UserID != nil && *g.UserID == userID && g.CandidateID == candidateID {
			return &g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGuardianRepo) ListByUser(_ context.Context, userID string) ([]model.Guardian, error) {
	var result []model.Guardian
	for _, g := range m.guardians {
		if g.UserID != nil && *g.UserID == userID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *mockGuardianRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	list, _ := m.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

func (m *mockGuardianRepo) DeleteByCandidate(_ context.Context, candidateID string) error {
	kept := m.guardians[:0]
	for _, g := range m.guardians {
		if g.CandidateID != candidateID {
			kept = append(kept, g)
		}
	}
	m.guardians = kept
	return nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	apps  map[string]model.Application
	order []string
	seq   int
	// beforeLock runs once before the next GetByIDForUpdate reads the row.
	beforeLock func()
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]model.Application)}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	for _, a := range m.apps {
		if a.CandidateID == app.CandidateID {
			return errDuplicateKey
		}
	}
	if app.ApplicationID == "" {
		m.seq++
		app.ApplicationID = fmt.Sprintf("app-%d", m.seq)
	}
	m.apps[app.ApplicationID] = *app
	m.order = append(m.order, app.ApplicationID)
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if a, ok := m.apps[id]; ok {
		return &a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error) {
	if hook := m.beforeLock; hook != nil {
		m.beforeLock = nil
		hook()
	}
	return m.GetByID(ctx, id)
}

func (m *mockApplicationRepo) GetByCandidate(_ context.Context, candidateID string) (*model.Application, error) {
	for _, a := range m.apps {
		if a.CandidateID == candidateID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListAll(_ context.Context, f repository.ApplicationFilter) ([]model.Application, error) {
	var result []model.Application
	for _, id := range m.order {
		a, ok := m.apps[id]
		if !ok {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.PromotionYear != nil && (a.PromotionYear == nil || *a.PromotionYear != *f.PromotionYear) {
			continue
		}
		if f.SubmittedOnly && a.SubmittedAt == nil {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, f repository.ApplicationFilter, offset, limit int) ([]model.Application, int64, error) {
	all, _ := m.ListAll(ctx, f)
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockApplicationRepo) ListPromotionYears(_ context.Context) ([]int, error) {
	seen := make(map[int]bool)
	var years []int
	for _, a := range m.apps {
		if a.PromotionYear != nil && !seen[*a.PromotionYear] {
			seen[*a.PromotionYear] = true
			years = append(years, *a.PromotionYear)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (m *mockApplicationRepo) Update(_ context.Context, app *model.Application) error {
	m.apps[app.ApplicationID] = *app
	return nil
}

func (m *mockApplicationRepo) Delete(_ context.Context, id string) error {
	delete(m.apps, id)
	return nil
}

// ── Mock DocumentRepository ──

type mockDocumentRepo struct {
	docs  map[string]model.Document
	order []string
	seq   int
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]model.Document)}
}

func (m *mockDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	for _, d := range m.docs {
		if d.ApplicationID == doc.ApplicationID && d.DocumentType == doc.DocumentType {
			return errDuplicateKey
		}
	}
	if doc.DocumentID == "" {
		m.seq++
		doc.DocumentID = fmt.Sprintf("doc-%d", m.seq)
	}
	m.docs[doc.DocumentID] = *doc
	m.order = append(m.order, doc.DocumentID)
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.Document, error) {
	if d, ok := m.docs[id]; ok {
		return &d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) GetByApplicationAndType(_ context.Context, applicationID, docType string) (*model.Document, error) {
	for _, d := range m.docs {
		if d.ApplicationID == applicationID && d.DocumentType == docType {
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) ListByApplication(_ context.Context, applicationID string) ([]model.Document, error) {
	var result []model.Document
	for _, id := range m.order {
		if d, ok := m.docs[id]; ok && d.ApplicationID == applicationID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockDocumentRepo) ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Document, error) {
	var result []model.Document
	for _, appID := range applicationIDs {
		docs, _ := m.ListByApplication(ctx, appID)
		result = append(result, docs...)
	}
	return result, nil
}

func (m *mockDocumentRepo) ListAll(_ context.Context) ([]model.Document, error) {
	var result []model.Document
	for _, id := range m.order {
		if d, ok := m.docs[id]; ok {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockDocumentRepo) UpdateStatus(_ context.Context, id, status string) error {
	if d, ok := m.docs[id]; ok {
		d.Status = status
		m.docs[id] = d
	}
	return nil
}

func (m *mockDocumentRepo) UpdateFilePath(_ context.Context, id, path string) error {
	if d, ok := m.docs[id]; ok {
		d.FilePath = path
		m.docs[id] = d
	}
	return nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

// ── Mock SigningProcessRepository ──

type mockSigningProcessRepo struct {
	processes map[string]model.SigningProcess // key: document id
	seq       int
	locks     int
}

func newMockSigningProcessRepo() *mockSigningProcessRepo {
	return &mockSigningProcessRepo{processes: make(map[string]model.SigningProcess)}
}

func (m *mockSigningProcessRepo) Create(_ context.Context, sp *model.SigningProcess) error {
	if _, ok := m.processes[sp.DocumentID]; ok {
		return errDuplicateKey
	}
	if sp.SigningProcessID == "" {
		m.seq++
		sp.SigningProcessID = fmt.Sprintf("sp-%d", m.seq)
	}
	m.processes[sp.DocumentID] = *sp
	return nil
}

func (m *mockSigningProcessRepo) GetByToken(_ context.Context, token string) (*model.SigningProcess, error) {
	for _, sp := range m.processes {
		if sp.SigningToken == token {
			return &sp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSigningProcessRepo) GetByDocumentID(_ context.Context, documentID string) (*model.SigningProcess, error) {
	if sp, ok := m.processes[documentID]; ok {
		return &sp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSigningProcessRepo) GetByDocumentIDForUpdate(ctx context.Context, documentID string) (*model.SigningProcess, error) {
	m.locks++
	return m.GetByDocumentID(ctx, documentID)
}

func (m *mockSigningProcessRepo) ListByDocumentIDs(_ context.Context, documentIDs []string) ([]model.SigningProcess, error) {
	var result []model.SigningProcess
	for _, id := range documentIDs {
		if sp, ok := m.processes[id]; ok {
			result = append(result, sp)
		}
	}
	return result, nil
}

func (m *mockSigningProcessRepo) RecordSignature(_ context.Context, id, role, signerName string, at time.Time) error {
	if role != model.SignerCandidate && role != model.SignerGuardian {
		return fmt.Errorf("unknown signer role %q", role)
	}
	for docID, sp := range m.processes {
		if sp.SigningProcessID == id {
			sp.Apply(role, signerName, at)
			m.processes[docID] = sp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSigningProcessRepo) DeleteByDocument(_ context.Context, documentID string) error {
	delete(m.processes, documentID)
	return nil
}

// expire moves every link of the store into the past
func (m *mockSigningProcessRepo) expire() {
	for id, sp := range m.processes {
		sp.ExpiryDate = time.Now().Add(-time.Hour)
		m.processes[id] = sp
	}
}

// ── Mock ApplicationPeriodRepository ──

type mockPeriodRepo struct {
	periods map[string]model.ApplicationPeriod
	seq     int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]model.ApplicationPeriod)}
}

func (m *mockPeriodRepo) Create(_ context.Context, p *model.ApplicationPeriod) error {
	if p.PeriodID == "" {
		m.seq++
		p.PeriodID = fmt.Sprintf("period-%d", m.seq)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.periods[p.PeriodID] = *p
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.ApplicationPeriod, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) GetActive(_ context.Context) (*model.ApplicationPeriod, error) {
	for _, p := range m.periods {
		if p.IsActive {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) List(_ context.Context) ([]model.ApplicationPeriod, error) {
	var result []model.ApplicationPeriod
	for _, p := range m.periods {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockPeriodRepo) Update(_ context.Context, p *model.ApplicationPeriod) error {
	p.UpdatedAt = time.Now()
	m.periods[p.PeriodID] = *p
	return nil
}

func (m *mockPeriodRepo) Delete(_ context.Context, id string) error {
	delete(m.periods, id)
	return nil
}

func (m *mockPeriodRepo) ClearActive(_ context.Context, keepID string) error {
	for id, p := range m.periods {
		if id != keepID {
			p.IsActive = false
			m.periods[id] = p
		}
	}
	return nil
}

func (m *mockPeriodRepo) activeCount() int {
	n := 0
	for _, p := range m.periods {
		if p.IsActive {
			n++
		}
	}
	return n
}

// ── Mock MedicalInformationRepository ──

type mockMedicalRepo struct {
	infos map[string]model.MedicalInformation // key: candidate id
}

func newMockMedicalRepo() *mockMedicalRepo {
	return &mockMedicalRepo{infos: make(map[string]model.MedicalInformation)}
}

func (m *mockMedicalRepo) GetByCandidate(_ context.Context, candidateID string) (*model.MedicalInformation, error) {
	if info, ok := m.infos[candidateID]; ok {
		return &info, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMedicalRepo) Save(_ context.Context, info *model.MedicalInformation) error {
	if info.MedicalInfoID == "" {
		info.MedicalInfoID = "medical-" + info.CandidateID
	}
	m.infos[info.CandidateID] = *info
	return nil
}

func (m *mockMedicalRepo) DeleteByCandidate(_ context.Context, candidateID string) error {
	delete(m.infos, candidateID)
	return nil
}

// ── Mock PhysicalMeasurementsRepository ──

type mockMeasurementsRepo struct {
	measurements map[string]model.PhysicalMeasurements // key: candidate id
}

func newMockMeasurementsRepo() *mockMeasurementsRepo {
	return &mockMeasurementsRepo{measurements: make(map[string]model.PhysicalMeasurements)}
}

func (m *mockMeasurementsRepo) GetByCandidate(_ context.Context, candidateID string) (*model.PhysicalMeasurements, error) {
	if pm, ok := m.measurements[candidateID]; ok {
		return &pm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMeasurementsRepo) Save(_ context.Context, pm *model.PhysicalMeasurements) error {
	if pm.MeasurementID == "" {
		pm.MeasurementID = "measurements-" + pm.CandidateID
	}
	m.measurements[pm.CandidateID] = *pm
	return nil
}

func (m *mockMeasurementsRepo) DeleteByCandidate(_ context.Context, candidateID string) error {
	delete(m.measurements, candidateID)
	return nil
}
