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

type galleryService interface {
	ListCategories(ctx context.Context) ([]models.GalleryCategorySummary, error)
	Album(ctx context.Context, idOrSlug string) (*service.GalleryAlbum, error)
	CreateCategory(ctx context.Context, req service.GalleryCategoryRequest, meta models.RequestMeta) (*models.GalleryCategory, error)
	UpdateCategory(ctx context.Context, id string, req service.GalleryCategoryRequest, meta models.RequestMeta) (*models.GalleryCategory, error)
	DeleteCategory(ctx context.Context, id string, meta models.RequestMeta) error
	UploadImage(ctx context.Context, categoryID, title string, data []byte, meta models.RequestMeta) (*models.GalleryImage, error)
	DeleteImage(ctx context.Context, id string, meta models.RequestMeta) error
}

// GalleryHandler manages photo albums.
type GalleryHandler struct {
	service        galleryService
	maxUploadBytes int64
}

func NewGalleryHandler(svc galleryService, maxUploadBytes int64) *GalleryHandler {
	return &GalleryHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// ListCategories godoc
// @Summary List gallery categories
// @Tags Gallery
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gallery/categories [get]
func (h *GalleryHandler) ListCategories(c *gin.Context) {
	items, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Album godoc
// @Summary Get a category with its images
// @Tags Gallery
// @Produce json
// @Param id path string true "Category ID or slug"
// @Success 200 {object} response.Envelope
// @Router /gallery/categories/{id} [get]
func (h *GalleryHandler) Album(c *gin.Context) {
	album, err := h.service.Album(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, album, nil)
}

// CreateCategory godoc
// @Summary Create gallery category
// @Tags Gallery
// @Accept json
// @Produce json
// @Param payload body service.GalleryCategoryRequest true "Category"
// @Success 201 {object} response.Envelope
// @Router /gallery/categories [post]
func (h *GalleryHandler) CreateCategory(c *gin.Context) {
	var req service.GalleryCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory godoc
// @Summary Update gallery category
// @Tags Gallery
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.GalleryCategoryRequest true "Category"
// @Success 200 {object} response.Envelope
// @Router /gallery/categories/{id} [put]
func (h *GalleryHandler) UpdateCategory(c *gin.Context) {
	var req service.GalleryCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// DeleteCategory godoc
// @Summary Delete gallery category and its images
// @Tags Gallery
// @Param id path string true "Category ID"
// @Success 204
// @Router /gallery/categories/{id} [delete]
func (h *GalleryHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadImage godoc
// @Summary Upload an image into a category
// @Description Images are resized, converted to WebP and get a thumbnail
// @Tags Gallery
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Category ID"
// @Param title formData string false "Caption"
// @Param file formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /gallery/categories/{id}/images [post]
func (h *GalleryHandler) UploadImage(c *gin.Context) {
	data, err := readUpload(c, defaultUploadField, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	title := strings.TrimSpace(c.PostForm("title"))
	image, err := h.service.UploadImage(c.Request.Context(), c.Param("id"), title, data, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// DeleteImage godoc
// @Summary Delete gallery image
// @Tags Gallery
// @Param id path string true "Image ID"
// @Success 204
// @Router /gallery/images/{id} [delete]
func (h *GalleryHandler) DeleteImage(c *gin.Context) {
	if err := h.service.DeleteImage(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PublicCategories godoc
// @Summary Browse gallery categories
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/gallery [get]
func (h *GalleryHandler) PublicCategories(c *gin.Context) {
	items, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, items, nil, publicMaxAge)
}

// PublicAlbum godoc
// @Summary Browse a gallery category
// @Tags Public
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} response.Envelope
// @Router /public/gallery/{slug} [get]
func (h *GalleryHandler) PublicAlbum(c *gin.Context) {
	album, err := h.service.Album(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, album, nil, publicMaxAge)
}
