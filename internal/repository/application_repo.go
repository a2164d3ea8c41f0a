package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"acadef/backend/internal/model"
)

// ApplicationFilter list criteria; zero values match everything
type ApplicationFilter struct {
	Status        string
	PromotionYear *int
	SubmittedOnly bool
}

// ApplicationRepository application data access
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	// GetByIDForUpdate reads the row with SELECT ... FOR UPDATE; only
	// meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error)
	GetByCandidate(ctx context.Context, candidateID string) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]model.Application, int64, error)
	ListAll(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)
	ListPromotionYears(ctx context.Context) ([]int, error)
	Update(ctx context.Context, app *model.Application) error
	Delete(ctx context.Context, id string) error
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo creates an ApplicationRepository
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetByCandidate(ctx context.Context, candidateID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) filtered(ctx context.Context, filter ApplicationFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Application{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PromotionYear != nil {
		db = db.Where("promotion_year = ?", *filter.PromotionYear)
	}
	if filter.SubmittedOnly {
		db = db.Where("submitted_at IS NOT NULL")
	}
	return db
}

func (r *applicationRepo) List(ctx context.Context, filter ApplicationFilter, offset, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.filtered(ctx, filter).
		Order("application_date DESC, application_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&apps).Error
	return apps, total, err
}

func (r *applicationRepo) ListAll(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	var apps []model.Application
	err := r.filtered(ctx, filter).
		Order("application_date DESC, application_id ASC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListPromotionYears(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("promotion_year IS NOT NULL").
		Distinct("promotion_year").
		Order("promotion_year DESC").
		Pluck("promotion_year", &years).Error
	return years, err
}

func (r *applicationRepo) Update(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *applicationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("application_id = ?", id).
		Delete(&model.Application{}).Error
}
