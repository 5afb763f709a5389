package model

import "time"

// Organization is the tenant boundary: documents, personas, and usage
// accounting all hang off exactly one organization.
type Organization struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null;index" json:"name"`
	Industry    string    `gorm:"size:128;not null" json:"industry"`
	OwnerID     string    `gorm:"type:char(36);not null;index" json:"owner_id"`
	CreditsUsed int       `gorm:"not null;default:0" json:"credits_used"`
	CreatedAt   time.Time `json:"created_at"`
}
