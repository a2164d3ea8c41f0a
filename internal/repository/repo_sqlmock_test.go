package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestSigningProcessRepo_GetByDocumentIDForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSigningProcessRepo(db)

	rows := sqlmock.NewRows([]string{"signing_process_id", "document_id", "candidate_signed", "guardian_signed"}).
		AddRow("sp-1", "doc-1", true, false)
	mock.ExpectQuery(`SELECT \* FROM "signing_processes" WHERE document_id = \$1 .*LIMIT \$2 FOR UPDATE`).
		WithArgs("doc-1", 1).
		WillReturnRows(rows)

	sp, err := repo.GetByDocumentIDForUpdate(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "sp-1", sp.SigningProcessID)
	assert.True(t, sp.CandidateSigned)
	assert.False(t, sp.GuardianSigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_GetByIDForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationRepo(db)

	rows := sqlmock.NewRows([]string{"application_id", "candidate_id", "status"}).
		AddRow("app-1", "cand-1", model.ApplicationPending)
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE application_id = \$1 .*LIMIT \$2 FOR UPDATE`).
		WithArgs("app-1", 1).
		WillReturnRows(rows)

	app, err := repo.GetByIDForUpdate(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "cand-1", app.CandidateID)
	assert.Equal(t, model.ApplicationPending, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigningProcessRepo_GetByToken_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSigningProcessRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "signing_processes" WHERE signing_token = $1`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"signing_process_id"}))

	_, err := repo.GetByToken(context.Background(), "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigningProcessRepo_RecordSignature_OnlyTouchesRoleColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSigningProcessRepo(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "signing_processes" SET "candidate_signed"=$1,"candidate_signed_at"=$2,"candidate_signer_name"=$3,"updated_at"=$4 WHERE signing_process_id = $5`)).
		WithArgs(true, at, "Jean Dupont", sqlmock.AnyArg(), "sp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RecordSignature(context.Background(), "sp-1", model.SignerCandidate, "Jean Dupont", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigningProcessRepo_RecordSignature_UnknownRole(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSigningProcessRepo(db)

	err := repo.RecordSignature(context.Background(), "sp-1", "witness", "X", time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationPeriodRepo_ClearActive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationPeriodRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "application_periods" SET "is_active"=$1,"updated_at"=$2 WHERE is_active = $3 AND period_id <> $4`)).
		WithArgs(false, sqlmock.AnyArg(), true, "period-keep").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ClearActive(context.Background(), "period-keep"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepo_ListByApplicationIDs_EmptySkipsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDocumentRepo(db)

	docs, err := repo.ListByApplicationIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepo_List_Filters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewApplicationRepo(db)
	year := 2026

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "applications" WHERE status = $1 AND promotion_year = $2 AND submitted_at IS NOT NULL`)).
		WithArgs(model.ApplicationPending, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "applications" WHERE status = $1 AND promotion_year = $2 AND submitted_at IS NOT NULL ORDER BY application_date DESC, application_id ASC LIMIT $3`)).
		WithArgs(model.ApplicationPending, 2026, 20).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "candidate_id", "status"}).
			AddRow("app-1", "cand-1", model.ApplicationPending))

	apps, total, err := repo.List(context.Background(), ApplicationFilter{
		Status:        model.ApplicationPending,
		PromotionYear: &year,
		SubmittedOnly: true,
	}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-1", apps[0].ApplicationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Transaction_NilDB(t *testing.T) {
	repo := &Repository{}
	called := false

	err := repo.Transaction(context.Background(), func(txRepo *Repository) error {
		called = true
		assert.Same(t, repo, txRepo)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRepository_Transaction_RollbackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.Transaction(context.Background(), func(txRepo *Repository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
