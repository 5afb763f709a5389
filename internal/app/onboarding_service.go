package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"axel-advisor/internal/model"
)

type organizationStore interface {
	Create(org *model.Organization) error
	GetByOwnerID(ownerID string) (*model.Organization, error)
}

type sectionWriter interface {
	Create(section *model.Section) error
}

// SectionSeed describes one persona to create during onboarding. The
// templates themselves come from the caller.
type SectionSeed struct {
	Name    string
	Role    string
	Prompt  string
	IconURL string
}

type OnboardInput struct {
	OwnerID  string
	OrgName  string
	Industry string
	Sections []SectionSeed
	// Document is the optional initial upload, indexed right after the
	// organization is created.
	Document *IngestInput
}

type OnboardResult struct {
	Organization *model.Organization `json:"organization"`
	Sections     []model.Section     `json:"sections"`
	Document     *model.Document     `json:"document,omitempty"`
}

// OnboardingService creates an organization with its personas and ingests
// the initial document in one pass.
type OnboardingService struct {
	orgs     organizationStore
	sections sectionWriter
	ingest   *IngestService
}

func NewOnboardingService(orgs organizationStore, sections sectionWriter, ingest *IngestService) *OnboardingService {
	return &OnboardingService{orgs: orgs, sections: sections, ingest: ingest}
}

func (s *OnboardingService) Onboard(ctx context.Context, input OnboardInput) (*OnboardResult, error) {
	name := strings.TrimSpace(input.OrgName)
	if input.OwnerID == "" || name == "" {
		return nil, ErrInvalidInput
	}

	org := &model.Organization{
		ID:        uuid.NewString(),
		Name:      name,
		Industry:  strings.TrimSpace(input.Industry),
		OwnerID:   input.OwnerID,
		CreatedAt: time.Now(),
	}
	if err := s.orgs.Create(org); err != nil {
		return nil, err
	}

	sections := make([]model.Section, 0, len(input.Sections))
	for _, seed := range input.Sections {
		section := model.Section{
			ID:                   uuid.NewString(),
			OrgID:                org.ID,
			Name:                 seed.Name,
			RolePersona:          seed.Role,
			SystemPromptTemplate: seed.Prompt,
			IconURL:              seed.IconURL,
		}
		if err := s.sections.Create(&section); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	result := &OnboardResult{Organization: org, Sections: sections}
	if input.Document != nil {
		docInput := *input.Document
		docInput.OrgID = org.ID
		doc, err := s.ingest.Ingest(ctx, docInput)
		if err != nil {
			return nil, err
		}
		result.Document = doc
	}
	return result, nil
}

// OrganizationForOwner resolves the owner's organization, used by the
// transport layer to scope every request to one tenant.
func (s *OnboardingService) OrganizationForOwner(ownerID string) (*model.Organization, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	org, err := s.orgs.GetByOwnerID(ownerID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}
