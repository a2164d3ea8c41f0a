package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// MedicalInformationRepository medical questionnaire data access
type MedicalInformationRepository interface {
	GetByCandidate(ctx context.Context, candidateID string) (*model.MedicalInformation, error)
	// Save inserts or updates the single row of a candidate.
	Save(ctx context.Context, info *model.MedicalInformation) error
	DeleteByCandidate(ctx context.Context, candidateID string) error
}

type medicalInformationRepo struct {
	db *gorm.DB
}

// NewMedicalInformationRepo creates a MedicalInformationRepository
func NewMedicalInformationRepo(db *gorm.DB) MedicalInformationRepository {
	return &medicalInformationRepo{db: db}
}

func (r *medicalInformationRepo) GetByCandidate(ctx context.Context, candidateID string) (*model.MedicalInformation, error) {
	var info model.MedicalInformation
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *medicalInformationRepo) Save(ctx context.Context, info *model.MedicalInformation) error {
	if info.MedicalInfoID == "" {
		return r.db.WithContext(ctx).Create(info).Error
	}
	return r.db.WithContext(ctx).Save(info).Error
}

func (r *medicalInformationRepo) DeleteByCandidate(ctx context.Context, candidateID string) error {
	return r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Delete(&model.MedicalInformation{}).Error
}
