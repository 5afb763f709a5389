package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"axel-advisor/internal/model"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) Create(section *model.Section) error {
	if err := r.db.Create(section).Error; err != nil {
		return fmt.Errorf("create section failed: %w", err)
	}
	return nil
}

func (r *SectionRepository) GetByID(id string) (*model.Section, error) {
	var section model.Section
	if err := r.db.Where("id = ?", id).First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get section failed: %w", err)
	}
	return &section, nil
}

func (r *SectionRepository) ListByOrgID(orgID string) ([]model.Section, error) {
	var sections []model.Section
	if err := r.db.Where("org_id = ?", orgID).Order("name ASC").Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("list sections failed: %w", err)
	}
	return sections, nil
}
