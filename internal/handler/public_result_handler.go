package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type publicResultService interface {
	Search(ctx context.Context, req service.PublicSearchRequest) (*service.PublicResult, error)
	Marksheet(ctx context.Context, token string) (*service.ExportFile, error)
}

// PublicResultHandler answers anonymous result lookups.
type PublicResultHandler struct {
	service publicResultService
}

func NewPublicResultHandler(svc publicResultService) *PublicResultHandler {
	return &PublicResultHandler{service: svc}
}

// Search godoc
// @Summary Look up a published result
// @Description Requires the roll number plus the enrollment number or date of birth
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body service.PublicSearchRequest true "Student identity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/results/search [post]
func (h *PublicResultHandler) Search(c *gin.Context) {
	var req service.PublicSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Marksheet godoc
// @Summary Download a marksheet
// @Tags Public
// @Produce application/pdf
// @Param token path string true "Marksheet token from a search"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /public/results/marksheet/{token} [get]
func (h *PublicResultHandler) Marksheet(c *gin.Context) {
	file, err := h.service.Marksheet(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
