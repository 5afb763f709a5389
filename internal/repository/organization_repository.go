package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"axel-advisor/internal/model"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(org *model.Organization) error {
	if err := r.db.Create(org).Error; err != nil {
		return fmt.Errorf("create organization failed: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(id string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization failed: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) GetByOwnerID(ownerID string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Where("owner_id = ?", ownerID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization by owner failed: %w", err)
	}
	return &org, nil
}

// IncrementCreditsIfBelow bumps the usage counter by one only while it is
// still below ceiling, as a single conditional UPDATE. Two concurrent turns
// at ceiling-1 can therefore never both pass: the database serializes the
// check and the increment.
func (r *OrganizationRepository) IncrementCreditsIfBelow(id string, ceiling int) (bool, error) {
	res := r.db.Model(&model.Organization{}).
		Where("id = ? AND credits_used < ?", id, ceiling).
		UpdateColumn("credits_used", gorm.Expr("credits_used + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment credits failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
