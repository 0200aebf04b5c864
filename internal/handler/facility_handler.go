package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type facilityService interface {
	List(ctx context.Context) ([]models.Facility, error)
	Get(ctx context.Context, id string) (*models.Facility, error)
	GetBySlug(ctx context.Context, slug string) (*models.Facility, error)
	Create(ctx context.Context, req service.FacilityRequest, meta models.RequestMeta) (*models.Facility, error)
	Update(ctx context.Context, id string, req service.FacilityRequest, meta models.RequestMeta) (*models.Facility, error)
	UploadImage(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.Facility, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
}

// FacilityHandler manages the facilities pages.
type FacilityHandler struct {
	service        facilityService
	maxUploadBytes int64
}

func NewFacilityHandler(svc facilityService, maxUploadBytes int64) *FacilityHandler {
	return &FacilityHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List facilities
// @Tags Facilities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get facility
// @Tags Facilities
// @Produce json
// @Param id path string true "Facility ID"
// @Success 200 {object} response.Envelope
// @Router /facilities/{id} [get]
func (h *FacilityHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param payload body service.FacilityRequest true "Facility"
// @Success 201 {object} response.Envelope
// @Router /facilities [post]
func (h *FacilityHandler) Create(c *gin.Context) {
	var req service.FacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param id path string true "Facility ID"
// @Param payload body service.FacilityRequest true "Facility"
// @Success 200 {object} response.Envelope
// @Router /facilities/{id} [put]
func (h *FacilityHandler) Update(c *gin.Context) {
	var req service.FacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// UploadImage godoc
// @Summary Upload facility image
// @Tags Facilities
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Facility ID"
// @Param file formData file true "Image"
// @Success 200 {object} response.Envelope
// @Router /facilities/{id}/image [post]
func (h *FacilityHandler) UploadImage(c *gin.Context) {
	data, err := readUpload(c, defaultUploadField, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.UploadImage(c.Request.Context(), c.Param("id"), data, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete facility
// @Tags Facilities
// @Param id path string true "Facility ID"
// @Success 204
// @Router /facilities/{id} [delete]
func (h *FacilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PublicList godoc
// @Summary List facilities
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/facilities [get]
func (h *FacilityHandler) PublicList(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, items, nil, publicMaxAge)
}

// PublicGet godoc
// @Summary Get facility by slug
// @Tags Public
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} response.Envelope
// @Router /public/facilities/{slug} [get]
func (h *FacilityHandler) PublicGet(c *gin.Context) {
	item, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, item, nil, publicMaxAge)
}
