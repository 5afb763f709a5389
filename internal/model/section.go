package model

// Section is a persona template scoped to one organization. The system
// prompt template is used verbatim as generation instructions and the
// record is immutable after creation.
type Section struct {
	ID                   string `gorm:"type:char(36);primaryKey" json:"id"`
	OrgID                string `gorm:"type:char(36);not null;index" json:"org_id"`
	Name                 string `gorm:"size:128;not null" json:"name"`
	RolePersona          string `gorm:"size:128;not null" json:"role_persona"`
	SystemPromptTemplate string `gorm:"type:text;not null" json:"system_prompt_template"`
	IconURL              string `gorm:"size:512" json:"icon_url,omitempty"`
}
