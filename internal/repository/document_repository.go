package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"axel-advisor/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByIDAndOrgID(id, orgID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND org_id = ?", id, orgID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOrgID(orgID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("org_id = ?", orgID).Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) DeleteByIDAndOrgID(id, orgID string) error {
	if err := r.db.Where("id = ? AND org_id = ?", id, orgID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
