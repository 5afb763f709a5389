package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"axel-advisor/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conv *model.Conversation) error {
	if err := r.db.Create(conv).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetByID(id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.Where("id = ?", id).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conv, nil
}

// GetLatestBySectionID returns the most recently created conversation for a
// section, or nil when the section has none yet.
func (r *ConversationRepository) GetLatestBySectionID(sectionID string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.Where("section_id = ?", sectionID).Order("created_at DESC").First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest conversation failed: %w", err)
	}
	return &conv, nil
}
