package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/internal/notify"
)

type signingFixture struct {
	env       *testEnv
	cand      *model.Candidate
	candidate *Actor
	guardian  *Actor
	doc       *model.Document
	token     string
}

func newSigningFixture(t *testing.T, docType string) *signingFixture {
	t.Helper()
	env := newTestEnv(t)
	cand, candidate := env.addCandidate(t, model.StatusStep4)
	guardian := env.addGuardian(t, cand, "Marie", "Dupont", "marie@example.com")
	app := env.addApplication(t, cand, false)

	doc, err := env.svc.Document.CreateSignableDocument(context.Background(), cand, app, docType)
	require.NoError(t, err)

	return &signingFixture{
		env:       env,
		cand:      cand,
		candidate: candidate,
		guardian:  guardian,
		doc:       doc,
		token:     env.processes.processes[doc.DocumentID].SigningToken,
	}
}

func (f *signingFixture) signToken(role, name string) (*dto.SignResult, error) {
	return f.env.svc.Signing.SignWithToken(context.Background(), f.token, &dto.TokenSignRequest{
		SignerRole: role, Acceptance: true, FullName: name,
	})
}

func (f *signingFixture) process() model.SigningProcess {
	return f.env.processes.processes[f.doc.DocumentID]
}

func (f *signingFixture) status() string {
	return f.env.docs.docs[f.doc.DocumentID].Status
}

// ── GetByToken ──

func TestSigningService_GetByToken(t *testing.T) {
	f := newSigningFixture(t, model.DocParentalAuth)
	ctx := context.Background()

	view, err := f.env.svc.Signing.GetByToken(ctx, f.token)
	require.NoError(t, err)
	assert.Equal(t, f.doc.DocumentID, view.DocumentID)
	assert.Equal(t, "Autorisation Parentale", view.Title)
	assert.Equal(t, "Jean Dupont", view.CandidateName)
	assert.Equal(t, []string{"Marie Dupont"}, view.Guardians)
	assert.False(t, view.Expired)

	f.env.processes.expire()
	view, err = f.env.svc.Signing.GetByToken(ctx, f.token)
	require.NoError(t, err)
	assert.True(t, view.Expired)

	_, err = f.env.svc.Signing.GetByToken(ctx, "nope")
	assert.ErrorIs(t, err, ErrSigningProcessNotFound)
	_, err = f.env.svc.Signing.GetByToken(ctx, "  ")
	assert.ErrorIs(t, err, ErrSigningProcessNotFound)
}

// ── SignWithToken ──

func TestSigningService_BothOrdersComplete(t *testing.T) {
	orders := [][2]string{
		{model.SignerCandidate, model.SignerGuardian},
		{model.SignerGuardian, model.SignerCandidate},
	}
	names := map[string]string{
		model.SignerCandidate: "Jean Dupont",
		model.SignerGuardian:  "Marie Dupont",
	}
	intermediate := map[string]string{
		model.SignerCandidate: model.DocStatusSignedCandidate,
		model.SignerGuardian:  model.DocStatusSignedGuardian,
	}

	for _, order := range orders {
		t.Run(order[0]+"_first", func(t *testing.T) {
			f := newSigningFixture(t, model.DocRules)

			res, err := f.signToken(order[0], names[order[0]])
			require.NoError(t, err)
			assert.Equal(t, intermediate[order[0]], res.Status)
			assert.Equal(t, intermediate[order[0]], f.status())

			res, err = f.signToken(order[1], names[order[1]])
			require.NoError(t, err)
			assert.Equal(t, model.DocStatusComplete, res.Status)
			assert.Equal(t, model.DocStatusComplete, f.status())

			sp := f.process()
			assert.True(t, sp.CandidateSigned && sp.GuardianSigned)
			assert.Equal(t, "Jean Dupont", sp.CandidateSignerName)
			assert.Equal(t, "Marie Dupont", sp.GuardianSignerName)
			assert.NotNil(t, sp.CandidateSignedAt)
			assert.NotNil(t, sp.GuardianSignedAt)
			assert.Equal(t, 2, f.env.processes.locks, "every signature locks the row")
		})
	}
}

func TestSigningService_SameRoleTwiceIsNoop(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)

	_, err := f.signToken(model.SignerCandidate, "Jean Dupont")
	require.NoError(t, err)
	first := f.process()
	f.env.notifier.reset()

	res, err := f.signToken(model.SignerCandidate, "jean  DUPONT")
	require.NoError(t, err)
	assert.True(t, res.AlreadySigned)
	assert.Equal(t, model.DocStatusSignedCandidate, res.Status)

	again := f.process()
	assert.Equal(t, first.CandidateSignerName, again.CandidateSignerName)
	assert.Equal(t, first.CandidateSignedAt, again.CandidateSignedAt)
	assert.Empty(t, f.env.notifier.sent, "a no-op sends nothing")
}

func TestSigningService_CompleteIsNoop(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	_, _ = f.signToken(model.SignerCandidate, "Jean Dupont")
	_, _ = f.signToken(model.SignerGuardian, "Marie Dupont")

	res, err := f.signToken(model.SignerGuardian, "Marie Dupont")
	require.NoError(t, err)
	assert.True(t, res.AlreadyComplete)
	assert.Equal(t, model.DocStatusComplete, res.Status)
}

func TestSigningService_ExpiredLinkAlwaysFails(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	f.env.processes.expire()

	tests := []dto.TokenSignRequest{
		{SignerRole: model.SignerCandidate, Acceptance: true, FullName: "Jean Dupont"},
		{SignerRole: "owner", Acceptance: true, FullName: "Jean Dupont"},
		{SignerRole: model.SignerGuardian, Acceptance: false, FullName: ""},
	}
	for _, req := range tests {
		_, err := f.env.svc.Signing.SignWithToken(context.Background(), f.token, &req)
		assert.ErrorIs(t, err, ErrSigningLinkExpired)
	}
	assert.False(t, f.process().CandidateSigned)
	assert.Equal(t, model.DocStatusPending, f.status())
}

func TestSigningService_SignWithToken_InputErrors(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		req     dto.TokenSignRequest
		wantErr error
	}{
		{"unknown token", "missing", dto.TokenSignRequest{SignerRole: model.SignerCandidate, Acceptance: true, FullName: "Jean Dupont"}, ErrSigningProcessNotFound},
		{"bad role", f.token, dto.TokenSignRequest{SignerRole: "admin", Acceptance: true, FullName: "Jean Dupont"}, ErrInvalidSignerRole},
		{"not accepted", f.token, dto.TokenSignRequest{SignerRole: model.SignerCandidate, FullName: "Jean Dupont"}, ErrIncompleteSignature},
		{"blank name", f.token, dto.TokenSignRequest{SignerRole: model.SignerCandidate, Acceptance: true, FullName: "   "}, ErrIncompleteSignature},
		{"wrong name", f.token, dto.TokenSignRequest{SignerRole: model.SignerCandidate, Acceptance: true, FullName: "Marie Dupont"}, ErrSignerMismatch},
		{"guardian claims stranger", f.token, dto.TokenSignRequest{SignerRole: model.SignerGuardian, Acceptance: true, FullName: "Paul Martin"}, ErrSignerMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.svc.Signing.SignWithToken(ctx, tt.token, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, model.DocStatusPending, f.status())
}

func TestSigningService_NameMatchAcceptsEitherOrder(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)

	_, err := f.signToken(model.SignerCandidate, "DUPONT  jean")
	assert.NoError(t, err)
}

func TestSigningService_NameMatchIgnoresAccents(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	c := f.env.candidates.candidates[f.cand.CandidateID]
	c.FirstName = "Élodie"
	f.env.candidates.candidates[f.cand.CandidateID] = c

	_, err := f.signToken(model.SignerCandidate, "Elodie Dupont")
	require.NoError(t, err)
	assert.True(t, f.process().CandidateSigned)
}

func TestSigningService_LooseTokenSigner(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	f.env.cfg.Registration.StrictTokenSigner = false

	res, err := f.signToken(model.SignerGuardian, "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusSignedGuardian, res.Status)
}

// ── notifications ──

func TestSigningService_CandidateSignatureNotifiesGuardians(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	f.env.addGuardian(t, f.cand, "Paul", "Dupont", "paul@example.com")

	_, err := f.signToken(model.SignerCandidate, "Jean Dupont")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"marie@example.com", "paul@example.com"}, f.env.notifier.to(notify.KindSigningRequest))
	msg := f.env.notifier.sent[0]
	assert.Equal(t, "https://acadef.test/signing/"+f.token, msg.data["URL"])
	assert.Equal(t, "Règlement ACADEF", msg.data["DocumentTitle"])

	f.env.notifier.reset()
	_, err = f.signToken(model.SignerGuardian, "Paul Dupont")
	require.NoError(t, err)
	assert.Empty(t, f.env.notifier.sent, "nobody left to notify once complete")
}

func TestSigningService_GuardianSignatureNotifiesCandidate(t *testing.T) {
	f := newSigningFixture(t, model.DocImageRights)

	_, err := f.signToken(model.SignerGuardian, "Marie Dupont")
	require.NoError(t, err)
	assert.Equal(t, []string{"jean@example.com"}, f.env.notifier.to(notify.KindSigningRequest))
}

func TestSigningService_LegacyDossierGuardianSignature(t *testing.T) {
	f := newSigningFixture(t, model.DocRegistration)

	_, err := f.signToken(model.SignerGuardian, "Marie Dupont")
	require.NoError(t, err)
	assert.Equal(t, 1, f.env.notifier.count(notify.KindAdditionalDocuments))
	assert.Equal(t, 0, f.env.notifier.count(notify.KindSigningRequest))
	assert.Equal(t, []string{"jean@example.com"}, f.env.notifier.to(notify.KindAdditionalDocuments))
}

// ── SignAsUser ──

func TestSigningService_SignAsUser(t *testing.T) {
	f := newSigningFixture(t, model.DocCadetDeclaration)
	ctx := context.Background()
	req := &dto.SessionSignRequest{Acceptance: true, FullName: "Marie D."}

	res, err := f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, f.guardian, req)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusSignedGuardian, res.Status)
	assert.Equal(t, "Marie D.", f.process().GuardianSignerName, "the session fixes the role, not the name")

	res, err = f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, f.candidate, &dto.SessionSignRequest{Acceptance: true, FullName: "Jean Dupont"})
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusComplete, res.Status)
}

func TestSigningService_SignAsUser_Errors(t *testing.T) {
	f := newSigningFixture(t, model.DocCadetDeclaration)
	ctx := context.Background()
	ok := &dto.SessionSignRequest{Acceptance: true, FullName: "Jean Dupont"}

	_, err := f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, &Actor{UserID: "stranger", Role: model.RoleGuardian}, ok)
	assert.ErrorIs(t, err, ErrSignerNotAuthorized)

	_, err = f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, nil, ok)
	assert.ErrorIs(t, err, ErrSignerNotAuthorized)

	_, err = f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, f.candidate, &dto.SessionSignRequest{FullName: "Jean Dupont"})
	assert.ErrorIs(t, err, ErrIncompleteSignature)

	_, err = f.env.svc.Signing.SignAsUser(ctx, "missing", f.candidate, ok)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	f.env.processes.expire()
	_, err = f.env.svc.Signing.SignAsUser(ctx, f.doc.DocumentID, f.candidate, ok)
	assert.ErrorIs(t, err, ErrSigningLinkExpired)
}

func TestSigningService_SummaryHasNoSigningProcess(t *testing.T) {
	f := newSigningFixture(t, model.DocRules)
	ctx := context.Background()

	summary := &model.Document{
		ApplicationID: f.doc.ApplicationID,
		Filename:      "registration_x.pdf",
		DocumentType:  model.DocRegistrationSummary,
		Status:        model.DocStatusComplete,
	}
	require.NoError(t, f.env.docs.Create(ctx, summary))

	_, err := f.env.svc.Signing.SignAsUser(ctx, summary.DocumentID, f.candidate, &dto.SessionSignRequest{Acceptance: true, FullName: "Jean Dupont"})
	assert.ErrorIs(t, err, ErrSigningProcessNotFound)
}
