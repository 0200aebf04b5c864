package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type resultService interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, *models.Pagination, error)
	GetByStudent(ctx context.Context, studentID, academicYear string) (*models.ResultDetail, error)
	UpsertMarks(ctx context.Context, studentID string, req service.UpsertMarksRequest, meta models.RequestMeta) (*models.ResultDetail, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
	Recalculate(ctx context.Context, req service.RecalculateRequest, meta models.RequestMeta) (*service.RecalculateSummary, error)
	Export(ctx context.Context, req service.ExportRequest) (*service.ExportFile, error)
}

type resultImporter interface {
	Import(ctx context.Context, req service.ImportRequest, file io.Reader, meta models.RequestMeta) (*service.ImportSummary, error)
}

// ResultHandler serves the staff side of results: marks entry, bulk
// import and class sheet exports.
type ResultHandler struct {
	service        resultService
	importer       resultImporter
	maxImportBytes int64
}

// NewResultHandler constructs a result handler.
func NewResultHandler(svc resultService, importer resultImporter, maxImportBytes int64) *ResultHandler {
	return &ResultHandler{service: svc, importer: importer, maxImportBytes: maxImportBytes}
}

// List godoc
// @Summary List results
// @Tags Results
// @Produce json
// @Param academic_year query string false "Academic year"
// @Param class_id query string false "Class ID"
// @Param passed query bool false "Pass filter"
// @Param search query string false "Student name or roll number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	passed, err := optionalBool(c, "passed")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ResultFilter{
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
		ClassID:      c.Query("class_id"),
		Passed:       passed,
		Search:       strings.TrimSpace(c.Query("search")),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetByStudent godoc
// @Summary Get a student's result
// @Tags Results
// @Produce json
// @Param studentId path string true "Student ID"
// @Param academic_year query string false "Defaults to the student's academic year"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results/students/{studentId} [get]
func (h *ResultHandler) GetByStudent(c *gin.Context) {
	detail, err := h.service.GetByStudent(c.Request.Context(), c.Param("studentId"), strings.TrimSpace(c.Query("academic_year")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpsertMarks godoc
// @Summary Enter marks for a student
// @Description Replaces every mark of the student's result and recomputes totals
// @Tags Results
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body service.UpsertMarksRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results/students/{studentId} [put]
func (h *ResultHandler) UpsertMarks(c *gin.Context) {
	var req service.UpsertMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	detail, err := h.service.UpsertMarks(c.Request.Context(), c.Param("studentId"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete result
// @Tags Results
// @Param id path string true "Result ID"
// @Success 204
// @Router /results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Recalculate godoc
// @Summary Recompute results of a class
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.RecalculateRequest true "Class and academic year"
// @Success 200 {object} response.Envelope
// @Router /results/recalculate [post]
func (h *ResultHandler) Recalculate(c *gin.Context) {
	var req service.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	summary, err := h.service.Recalculate(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export a class result sheet
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param academic_year query string true "Academic year"
// @Param class_id query string true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if req.AcademicYear == "" {
		req.AcademicYear = c.Query("academicYear")
	}
	if req.ClassID == "" {
		req.ClassID = c.Query("classId")
	}
	file, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Import godoc
// @Summary Bulk import students and marks
// @Description CSV upload; atomic mode aborts on the first bad row, partialOnError reports per row
// @Tags Results
// @Accept multipart/form-data
// @Produce json
// @Param academic_year formData string true "Academic year"
// @Param class_id formData string true "Class ID"
// @Param mode formData string false "atomic or partialOnError"
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /results/import [post]
func (h *ResultHandler) Import(c *gin.Context) {
	data, err := readUpload(c, defaultUploadField, h.maxImportBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	summary, err := h.importer.Import(c.Request.Context(), req, bytes.NewReader(data), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
