package model

import "time"

// Conversation is the single chat thread for a section. It is created
// lazily on the first chat turn and reused afterwards.
type Conversation struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	SectionID string    `gorm:"type:char(36);not null;index" json:"section_id"`
	Title     string    `gorm:"size:256" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
