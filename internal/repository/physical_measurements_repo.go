package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// PhysicalMeasurementsRepository uniform sizes data access
type PhysicalMeasurementsRepository interface {
	GetByCandidate(ctx context.Context, candidateID string) (*model.PhysicalMeasurements, error)
	Save(ctx context.Context, m *model.PhysicalMeasurements) error
	DeleteByCandidate(ctx context.Context, candidateID string) error
}

type physicalMeasurementsRepo struct {
	db *gorm.DB
}

// NewPhysicalMeasurementsRepo creates a PhysicalMeasurementsRepository
func NewPhysicalMeasurementsRepo(db *gorm.DB) PhysicalMeasurementsRepository {
	return &physicalMeasurementsRepo{db: db}
}

func (r *physicalMeasurementsRepo) GetByCandidate(ctx context.Context, candidateID string) (*model.PhysicalMeasurements, error) {
	var m model.PhysicalMeasurements
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *physicalMeasurementsRepo) Save(ctx context.Context, m *model.PhysicalMeasurements) error {
	if m.MeasurementID == "" {
		return r.db.WithContext(ctx).Create(m).Error
	}
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *physicalMeasurementsRepo) DeleteByCandidate(ctx context.Context, candidateID string) error {
	return r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Delete(&model.PhysicalMeasurements{}).Error
}
