package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type slideService interface {
	List(ctx context.Context) ([]models.Slide, error)
	ListActive(ctx context.Context) ([]models.Slide, error)
	Get(ctx context.Context, id string) (*models.Slide, error)
	Create(ctx context.Context, req service.SlideRequest, meta models.RequestMeta) (*models.Slide, error)
	Update(ctx context.Context, id string, req service.SlideRequest, meta models.RequestMeta) (*models.Slide, error)
	SetActive(ctx context.Context, id string, active bool, meta models.RequestMeta) (*models.Slide, error)
	UploadImage(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.Slide, error)
	Reorder(ctx context.Context, req service.ReorderRequest, meta models.RequestMeta) ([]models.Slide, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
}

type slideActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SlideHandler manages the home page slideshow.
type SlideHandler struct {
	service        slideService
	maxUploadBytes int64
}

func NewSlideHandler(svc slideService, maxUploadBytes int64) *SlideHandler {
	return &SlideHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List slides
// @Tags Slides
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slides [get]
func (h *SlideHandler) List(c *gin.Context) {
	slides, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slides, nil)
}

// Get godoc
// @Summary Get slide
// @Tags Slides
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /slides/{id} [get]
func (h *SlideHandler) Get(c *gin.Context) {
	slide, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Create godoc
// @Summary Create slide
// @Tags Slides
// @Accept json
// @Produce json
// @Param payload body service.SlideRequest true "Slide"
// @Success 201 {object} response.Envelope
// @Router /slides [post]
func (h *SlideHandler) Create(c *gin.Context) {
	var req service.SlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	slide, err := h.service.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slide)
}

// Update godoc
// @Summary Update slide
// @Tags Slides
// @Accept json
// @Produce json
// @Param id path string true "Slide ID"
// @Param payload body service.SlideRequest true "Slide"
// @Success 200 {object} response.Envelope
// @Router /slides/{id} [put]
func (h *SlideHandler) Update(c *gin.Context) {
	var req service.SlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	slide, err := h.service.Update(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// SetActive godoc
// @Summary Toggle slide visibility
// @Tags Slides
// @Accept json
// @Produce json
// @Param id path string true "Slide ID"
// @Param payload body slideActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /slides/{id}/active [patch]
func (h *SlideHandler) SetActive(c *gin.Context) {
	var req slideActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	slide, err := h.service.SetActive(c.Request.Context(), c.Param("id"), *req.Active, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// UploadImage godoc
// @Summary Upload slide image
// @Tags Slides
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Slide ID"
// @Param file formData file true "Image"
// @Success 200 {object} response.Envelope
// @Router /slides/{id}/image [post]
func (h *SlideHandler) UploadImage(c *gin.Context) {
	data, err := readUpload(c, defaultUploadField, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	slide, err := h.service.UploadImage(c.Request.Context(), c.Param("id"), data, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Reorder godoc
// @Summary Reorder slides
// @Tags Slides
// @Accept json
// @Produce json
// @Param payload body service.ReorderRequest true "New positions"
// @Success 200 {object} response.Envelope
// @Router /slides/reorder [put]
func (h *SlideHandler) Reorder(c *gin.Context) {
	var req service.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	slides, err := h.service.Reorder(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slides, nil)
}

// Delete godoc
// @Summary Delete slide
// @Tags Slides
// @Param id path string true "Slide ID"
// @Success 204
// @Router /slides/{id} [delete]
func (h *SlideHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PublicList godoc
// @Summary Active slides
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/slides [get]
func (h *SlideHandler) PublicList(c *gin.Context) {
	slides, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, slides, nil, publicMaxAge)
}
