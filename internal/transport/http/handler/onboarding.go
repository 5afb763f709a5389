package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"axel-advisor/internal/app"
	"axel-advisor/internal/pkg/extract"
	"axel-advisor/internal/transport/http/middleware"
	"axel-advisor/internal/transport/http/response"
)

type OnboardingHandler struct {
	onboarding *app.OnboardingService
}

func NewOnboardingHandler(onboarding *app.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding}
}

type sectionSeedRequest struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Prompt  string `json:"prompt"`
	IconURL string `json:"icon_url"`
}

// Setup creates the organization, its personas, and indexes the optional
// initial document, all from one multipart form. Personas arrive as a JSON
// array in the "sections" form field.
func (h *OnboardingHandler) Setup(c *gin.Context) {
	userID := middleware.UserID(c)

	orgName := c.PostForm("org_name")
	industry := c.PostForm("industry")
	if orgName == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "org_name is required")
		return
	}

	seeds, err := parseSectionSeeds(c.PostForm("sections"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid sections payload")
		return
	}

	input := app.OnboardInput{
		OwnerID:  userID,
		OrgName:  orgName,
		Industry: industry,
		Sections: seeds,
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
			return
		}
		input.Document = &app.IngestInput{
			Filename:    fileHeader.Filename,
			Text:        extract.DocumentText(fileHeader.Filename, raw),
			Raw:         raw,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	}

	result, err := h.onboarding.Onboard(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "onboarding failed")
		return
	}

	response.OK(c, result)
}

func parseSectionSeeds(raw string) ([]app.SectionSeed, error) {
	if raw == "" {
		return nil, nil
	}

	var reqSeeds []sectionSeedRequest
	if err := json.Unmarshal([]byte(raw), &reqSeeds); err != nil {
		return nil, err
	}

	seeds := make([]app.SectionSeed, 0, len(reqSeeds))
	for _, s := range reqSeeds {
		seeds = append(seeds, app.SectionSeed{
			Name:    s.Name,
			Role:    s.Role,
			Prompt:  s.Prompt,
			IconURL: s.IconURL,
		})
	}
	return seeds, nil
}
