package model

import "time"

// Document records an uploaded file belonging to one organization. The raw
// bytes live in the blob store; the searchable representation lives in the
// vector index under the organization's namespace. Post-ingestion only the
// indexed vector and its stored snippet are read at query time.
type Document struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	OrgID      string    `gorm:"type:char(36);not null;index" json:"org_id"`
	Filename   string    `gorm:"size:256;not null" json:"filename"`
	BlobURL    string    `gorm:"size:1024" json:"blob_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}
