package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// CandidateRepository candidate data access
type CandidateRepository interface {
	Create(ctx context.Context, candidate *model.Candidate) error
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
	GetByUserID(ctx context.Context, userID string) (*model.Candidate, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Candidate, error)
	Update(ctx context.Context, candidate *model.Candidate) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type candidateRepo struct {
	db *gorm.DB
}

// NewCandidateRepo creates a CandidateRepository
func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) Create(ctx context.Context, candidate *model.Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	var candidate model.Candidate
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", id).
		First(&candidate).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepo) GetByUserID(ctx context.Context, userID string) (*model.Candidate, error) {
	var candidate model.Candidate
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&candidate).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Candidate, error) {
	var candidates []model.Candidate
	if len(ids) == 0 {
		return candidates, nil
	}
	err := r.db.WithContext(ctx).
		Where("candidate_id IN ?", ids).
		Find(&candidates).Error
	return candidates, err
}

func (r *candidateRepo) Update(ctx context.Context, candidate *model.Candidate) error {
	return r.db.WithContext(ctx).Save(candidate).Error
}

func (r *candidateRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Candidate{}).
		Where("candidate_id = ?", id).
		Update("application_status", status).Error
}

func (r *candidateRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("candidate_id = ?", id).
		Delete(&model.Candidate{}).Error
}
