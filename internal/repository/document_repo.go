package repository

import (
	"context"

	"gorm.io/gorm"

	"acadef/backend/internal/model"
)

// DocumentRepository document data access
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	GetByApplicationAndType(ctx context.Context, applicationID, docType string) (*model.Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error)
	ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Document, error)
	// ListAll every document, oldest first; used by the repair tasks.
	ListAll(ctx context.Context) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateFilePath(ctx context.Context, id, path string) error
	Delete(ctx context.Context, id string) error
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo creates a DocumentRepository
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetByApplicationAndType(ctx context.Context, applicationID, docType string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND document_type = ?", applicationID, docType).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByApplication(ctx context.Context, applicationID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC, document_id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Document, error) {
	var docs []model.Document
	if len(applicationIDs) == 0 {
		return docs, nil
	}
	err := r.db.WithContext(ctx).
		Where("application_id IN ?", applicationIDs).
		Order("created_at ASC, document_id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) ListAll(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Order("created_at ASC, document_id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("document_id = ?", id).
		Update("status", status).Error
}

func (r *documentRepo) UpdateFilePath(ctx context.Context, id, path string) error {
	return r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("document_id = ?", id).
		Update("file_path", path).Error
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", id).
		Delete(&model.Document{}).Error
}
