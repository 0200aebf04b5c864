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

// Max-age in seconds sent with anonymous content responses.
const publicMaxAge = 60

type newsService interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error)
	ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.News, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.News, error)
	Create(ctx context.Context, req service.NewsRequest, meta models.RequestMeta) (*models.News, error)
	Update(ctx context.Context, id string, req service.NewsRequest, meta models.RequestMeta) (*models.News, error)
	UploadCover(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.News, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
}

// NewsHandler serves news articles to editors and the public site.
type NewsHandler struct {
	service        newsService
	maxUploadBytes int64
}

func NewNewsHandler(svc newsService, maxUploadBytes int64) *NewsHandler {
	return &NewsHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List news (admin)
// @Tags News
// @Produce json
// @Param published query bool false "Published filter"
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /news [get]
func (h *NewsHandler) List(c *gin.Context) {
	published, err := optionalBool(c, "published")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.NewsFilter{Published: published, Search: strings.TrimSpace(c.Query("search"))}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get news article (admin)
// @Tags News
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} response.Envelope
// @Router /news/{id} [get]
func (h *NewsHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create news article
// @Tags News
// @Accept json
// @Produce json
// @Param payload body service.NewsRequest true "Article"
// @Success 201 {object} response.Envelope
// @Router /news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	var req service.NewsRequest
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
// @Summary Update news article
// @Tags News
// @Accept json
// @Produce json
// @Param id path string true "News ID"
// @Param payload body service.NewsRequest true "Article"
// @Success 200 {object} response.Envelope
// @Router /news/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
	var req service.NewsRequest
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

// UploadCover godoc
// @Summary Upload news cover image
// @Tags News
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "News ID"
// @Param file formData file true "Image"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /news/{id}/cover [post]
func (h *NewsHandler) UploadCover(c *gin.Context) {
	data, err := readUpload(c, defaultUploadField, h.maxUploadBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.UploadCover(c.Request.Context(), c.Param("id"), data, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete news article
// @Tags News
// @Param id path string true "News ID"
// @Success 204
// @Router /news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PublicList godoc
// @Summary List published news
// @Tags Public
// @Produce json
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /public/news [get]
func (h *NewsHandler) PublicList(c *gin.Context) {
	filter := models.NewsFilter{Search: strings.TrimSpace(c.Query("search"))}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.ListPublished(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, items, pagination, publicMaxAge)
}

// PublicGet godoc
// @Summary Get published news by slug
// @Tags Public
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/news/{slug} [get]
func (h *NewsHandler) PublicGet(c *gin.Context) {
	item, err := h.service.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, item, nil, publicMaxAge)
}
