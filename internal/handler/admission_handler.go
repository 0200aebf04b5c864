package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type admissionService interface {
	Submit(ctx context.Context, req service.AdmissionRequest, meta models.RequestMeta) (*models.AdmissionEnquiry, error)
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionEnquiry, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AdmissionEnquiry, error)
	UpdateStatus(ctx context.Context, id string, req service.AdmissionStatusRequest, meta models.RequestMeta) (*models.AdmissionEnquiry, error)
}

// AdmissionHandler takes admission enquiries from the public site and lets
// staff track them.
type AdmissionHandler struct {
	service admissionService
}

func NewAdmissionHandler(svc admissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit an admission enquiry
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body service.AdmissionRequest true "Enquiry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var req service.AdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	enquiry, err := h.service.Submit(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": enquiry.ID, "status": enquiry.Status})
}

// List godoc
// @Summary List admission enquiries
// @Tags Admissions
// @Produce json
// @Param status query string false "NEW, CONTACTED or CLOSED"
// @Param search query string false "Name, email or phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	filter := models.AdmissionFilter{
		Status: models.EnquiryStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Search: strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get admission enquiry
// @Tags Admissions
// @Produce json
// @Param id path string true "Enquiry ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// UpdateStatus godoc
// @Summary Update enquiry status
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Enquiry ID"
// @Param payload body service.AdmissionStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id}/status [patch]
func (h *AdmissionHandler) UpdateStatus(c *gin.Context) {
	var req service.AdmissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
