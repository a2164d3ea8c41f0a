package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// GuardianRepository guardian data access
type GuardianRepository interface {
	Create(ctx context.Context, guardian *model.Guardian) error
	ListByCandidate(ctx context.Context, candidateID string) ([]model.Guardian, error)
	GetByUserAndCandidate(ctx context.Context, userID, candidateID string) (*model.Guardian, error)
	ListByUser(ctx context.Context, userID string) ([]model.Guardian, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	DeleteByCandidate(ctx context.Context, candidateID string) error
}

type guardianRepo struct {
	db *gorm.DB
}

// NewGuardianRepo creates a GuardianRepository
func NewGuardianRepo(db *gorm.DB) GuardianRepository {
	return &guardianRepo{db: db}
}

func (r *guardianRepo) Create(ctx context.Context, guardian *model.Guardian) error {
	return r.db.WithContext(ctx).Create(guardian).Error
}

func (r *guardianRepo) ListByCandidate(ctx context.Context, candidateID string) ([]model.Guardian, error) {
	var guardians []model.Guardian
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at ASC, guardian_id ASC").
		Find(&guardians).Error
	return guardians, err
}

func (r *guardianRepo) GetByUserAndCandidate(ctx context.Context, userID, candidateID string) (*model.Guardian, error) {
	var guardian model.Guardian
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND candidate_id = ?", userID, candidateID).
		First(&guardian).Error
	if err != nil {
		return nil, err
	}
	return &guardian, nil
}

func (r *guardianRepo) ListByUser(ctx context.Context, userID string) ([]model.Guardian, error) {
	var guardians []model.Guardian
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&guardians).Error
	return guardians, err
}

func (r *guardianRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Guardian{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *guardianRepo) DeleteByCandidate(ctx context.Context, candidateID string) error {
	return r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Delete(&model.Guardian{}).Error
}
