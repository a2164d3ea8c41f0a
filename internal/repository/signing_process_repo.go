package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"acadef/backend/internal/model"
)

// SigningProcessRepository signing state data access
type SigningProcessRepository interface {
	Create(ctx context.Context, sp *model.SigningProcess) error
	GetByToken(ctx context.Context, token string) (*model.SigningProcess, error)
	GetByDocumentID(ctx context.Context, documentID string) (*model.SigningProcess, error)
	// GetByDocumentIDForUpdate reads the row with SELECT ... FOR UPDATE; only
	// meaningful inside a transaction.
	GetByDocumentIDForUpdate(ctx context.Context, documentID string) (*model.SigningProcess, error)
	ListByDocumentIDs(ctx context.Context, documentIDs []string) ([]model.SigningProcess, error)
	// RecordSignature writes only the columns belonging to role.
	RecordSignature(ctx context.Context, id, role, signerName string, at time.Time) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

type signingProcessRepo struct {
	db *gorm.DB
}

// NewSigningProcessRepo creates a SigningProcessRepository
func NewSigningProcessRepo(db *gorm.DB) SigningProcessRepository {
	return &signingProcessRepo{db: db}
}

func (r *signingProcessRepo) Create(ctx context.Context, sp *model.SigningProcess) error {
	return r.db.WithContext(ctx).Create(sp).Error
}

func (r *signingProcessRepo) GetByToken(ctx context.Context, token string) (*model.SigningProcess, error) {
	var sp model.SigningProcess
	err := r.db.WithContext(ctx).
		Where("signing_token = ?", token).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *signingProcessRepo) GetByDocumentID(ctx context.Context, documentID string) (*model.SigningProcess, error) {
	var sp model.SigningProcess
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *signingProcessRepo) GetByDocumentIDForUpdate(ctx context.Context, documentID string) (*model.SigningProcess, error) {
	var sp model.SigningProcess
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_id = ?", documentID).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *signingProcessRepo) ListByDocumentIDs(ctx context.Context, documentIDs []string) ([]model.SigningProcess, error) {
	var sps []model.SigningProcess
	if len(documentIDs) == 0 {
		return sps, nil
	}
	err := r.db.WithContext(ctx).
		Where("document_id IN ?", documentIDs).
		Find(&sps).Error
	return sps, err
}

func (r *signingProcessRepo) RecordSignature(ctx context.Context, id, role, signerName string, at time.Time) error {
	var updates map[string]interface{}
	switch role {
	case model.SignerCandidate:
		updates = map[string]interface{}{
			"candidate_signed":      true,
			"candidate_signed_at":   at,
			"candidate_signer_name": signerName,
		}
	case model.SignerGuardian:
		updates = map[string]interface{}{
			"guardian_signed":      true,
			"guardian_signed_at":   at,
			"guardian_signer_name": signerName,
		}
	default:
		return fmt.Errorf("unknown signer role %q", role)
	}

	return r.db.WithContext(ctx).
		Model(&model.SigningProcess{}).
		Where("signing_process_id = ?", id).
		Updates(updates).Error
}

func (r *signingProcessRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&model.SigningProcess{}).Error
}
