package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"axel-advisor/internal/app"
	"axel-advisor/internal/model"
	"axel-advisor/internal/pkg/extract"
	"axel-advisor/internal/repository"
	"axel-advisor/internal/transport/http/middleware"
	"axel-advisor/internal/transport/http/response"
)

type DocumentHandler struct {
	ingest     *app.IngestService
	onboarding *app.OnboardingService
	docRepo    *repository.DocumentRepository
}

func NewDocumentHandler(ingest *app.IngestService, onboarding *app.OnboardingService, docRepo *repository.DocumentRepository) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, onboarding: onboarding, docRepo: docRepo}
}

// Upload extracts text from the uploaded file and runs the ingestion
// pipeline for the caller's organization.
func (h *DocumentHandler) Upload(c *gin.Context) {
	org, ok := h.resolveOrg(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}

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

	doc, err := h.ingest.Ingest(c.Request.Context(), app.IngestInput{
		OrgID:       org.ID,
		Filename:    fileHeader.Filename,
		Text:        extract.DocumentText(fileHeader.Filename, raw),
		Raw:         raw,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "document upload failed")
		return
	}

	response.OK(c, gin.H{"document_id": doc.ID, "filename": doc.Filename})
}

// List returns the organization's documents, newest first.
func (h *DocumentHandler) List(c *gin.Context) {
	org, ok := h.resolveOrg(c)
	if !ok {
		return
	}

	docs, err := h.docRepo.ListByOrgID(org.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) resolveOrg(c *gin.Context) (*model.Organization, bool) {
	userID := middleware.UserID(c)
	org, err := h.onboarding.OrganizationForOwner(userID)
	if err != nil {
		if errors.Is(err, app.ErrOrganizationNotFound) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no organization found, complete onboarding first")
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resolve organization failed")
		}
		return nil, false
	}
	return org, true
}
