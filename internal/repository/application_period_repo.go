package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// ApplicationPeriodRepository registration window data access
type ApplicationPeriodRepository interface {
	Create(ctx context.Context, period *model.ApplicationPeriod) error
	GetByID(ctx context.Context, id string) (*model.ApplicationPeriod, error)
	GetActive(ctx context.Context) (*model.ApplicationPeriod, error)
	List(ctx context.Context) ([]model.ApplicationPeriod, error)
	Update(ctx context.Context, period *model.ApplicationPeriod) error
	Delete(ctx context.Context, id string) error
	// ClearActive deactivates every period except keepID (empty keeps none).
	ClearActive(ctx context.Context, keepID string) error
}

type applicationPeriodRepo struct {
	db *gorm.DB
}

// NewApplicationPeriodRepo creates an ApplicationPeriodRepository
func NewApplicationPeriodRepo(db *gorm.DB) ApplicationPeriodRepository {
	return &applicationPeriodRepo{db: db}
}

func (r *applicationPeriodRepo) Create(ctx context.Context, period *model.ApplicationPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *applicationPeriodRepo) GetByID(ctx context.Context, id string) (*model.ApplicationPeriod, error) {
	var period model.ApplicationPeriod
	err := r.db.WithContext(ctx).
		Where("period_id = ?", id).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// GetActive more than one active row only happens with legacy data; the most
// recently updated one wins.
func (r *applicationPeriodRepo) GetActive(ctx context.Context) (*model.ApplicationPeriod, error) {
	var period model.ApplicationPeriod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *applicationPeriodRepo) List(ctx context.Context) ([]model.ApplicationPeriod, error) {
	var periods []model.ApplicationPeriod
	err := r.db.WithContext(ctx).
		Order("start_date DESC, created_at DESC").
		Find(&periods).Error
	return periods, err
}

func (r *applicationPeriodRepo) Update(ctx context.Context, period *model.ApplicationPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}

func (r *applicationPeriodRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("period_id = ?", id).
		Delete(&model.ApplicationPeriod{}).Error
}

func (r *applicationPeriodRepo) ClearActive(ctx context.Context, keepID string) error {
	db := r.db.WithContext(ctx).
		Model(&model.ApplicationPeriod{}).
		Where("is_active = ?", true)
	if keepID != "" {
		db = db.Where("period_id <> ?", keepID)
	}
	return db.Update("is_active", false).Error
}
