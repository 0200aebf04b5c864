package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/export"
)

type resultRepository interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, int, error)
	ListForExport(ctx context.Context, classID, academicYear string) ([]models.ResultRow, error)
	FindByID(ctx context.Context, id string) (*models.Result, error)
	FindByStudentYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	ListMarks(ctx context.Context, resultID string) ([]models.SubjectMarkDetail, error)
	ListRawMarks(ctx context.Context, resultID string) ([]models.SubjectMark, error)
	Save(ctx context.Context, record repository.ResultRecord) error
	SaveBatch(ctx context.Context, records []repository.ResultRecord) error
	ListYearsByClass(ctx context.Context, classID string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type resultStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClassYear(ctx context.Context, classID, academicYear string) ([]models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// UpsertMarksRequest replaces every mark of a student's result.
type UpsertMarksRequest struct {
	Remarks string             `json:"remarks" validate:"max=500"`
	Marks   []models.MarkInput `json:"marks" validate:"required,min=1,dive"`
}

// RecalculateRequest selects the results to recompute.
type RecalculateRequest struct {
	ClassID      string `json:"class_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// RecalculateSkip names a result that could not be recomputed.
type RecalculateSkip struct {
	StudentID  string `json:"student_id"`
	RollNumber string `json:"roll_number"`
	Reason     string `json:"reason"`
}

// RecalculateSummary reports the outcome of a recalculation run.
type RecalculateSummary struct {
	Recalculated int               `json:"recalculated"`
	Skipped      []RecalculateSkip `json:"skipped"`
}

// ExportRequest selects a class sheet and output format.
type ExportRequest struct {
	AcademicYear string `form:"academic_year" validate:"required"`
	ClassID      string `form:"class_id" validate:"required"`
	Format       string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResultService maintains student results and derived totals.
type ResultService struct {
	repo      resultRepository
	students  resultStudentRepository
	classes   classFinder
	subjects  classSubjectLister
	audit     auditRepository
	cache     *CacheService
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

func NewResultService(repo resultRepository, students resultStudentRepository, classes classFinder, subjects classSubjectLister, audit auditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResultService{
		repo:      repo,
		students:  students,
		classes:   classes,
		subjects:  subjects,
		audit:     audit,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

func (s *ResultService) List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list results")
	}
	return rows, newPagination(filter.Page, filter.PageSize, total), nil
}

// GetByStudent returns the result of a student for academicYear, or for
// the student's enrolled year when empty.
func (s *ResultService) GetByStudent(ctx context.Context, studentID, academicYear string) (*models.ResultDetail, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if academicYear == "" {
		academicYear = student.AcademicYear
	}
	result, err := s.repo.FindByStudentYear(ctx, student.ID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, internalError(err, "failed to load result")
	}
	return s.detail(ctx, result)
}

// UpsertMarks validates the marks against the student's subjects,
// recomputes totals and stores the result with its marks in one
// transaction.
func (s *ResultService) UpsertMarks(ctx context.Context, studentID string, req UpsertMarksRequest, meta models.RequestMeta) (*models.ResultDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid marks payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByClass(ctx, student.ClassID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	comp, err := ComputeResult(subjects, *student, req.Marks)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByStudentYear(ctx, student.ID, student.AcademicYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load result")
	}
	result := newResult(student, comp.Totals, strings.TrimSpace(req.Remarks))
	action := models.AuditActionCreate
	var before interface{}
	if existing != nil {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		action = models.AuditActionUpdate
		before = existing
	}

	if err := s.repo.Save(ctx, repository.ResultRecord{Result: result, Marks: comp.Marks}); err != nil {
		return nil, internalError(err, "failed to save result")
	}
	s.invalidate(ctx, student.AcademicYear, student.ID)
	recordAudit(ctx, s.audit, s.logger, meta, action, models.AuditResourceResult, result.ID, before, result)
	return s.detail(ctx, result)
}

func (s *ResultService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return internalError(err, "failed to load result")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return internalError(err, "failed to delete result")
	}
	s.invalidate(ctx, result.AcademicYear, result.StudentID)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceResult, id, result, nil)
	return nil
}

// Recalculate recomputes every stored result of a class and year from the
// stored marks, typically after thresholds changed. Results whose marks no
// longer satisfy the subject set are skipped and reported.
func (s *ResultService) Recalculate(ctx context.Context, req RecalculateRequest, meta models.RequestMeta) (*RecalculateSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid recalculate payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, internalError(err, "failed to load class")
	}
	subjects, err := s.subjects.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	students, err := s.students.ListByClassYear(ctx, req.ClassID, req.AcademicYear)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}

	summary := &RecalculateSummary{Skipped: make([]RecalculateSkip, 0)}
	records := make([]repository.ResultRecord, 0, len(students))
	for i := range students {
		student := students[i]
		existing, err := s.repo.FindByStudentYear(ctx, student.ID, req.AcademicYear)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, internalError(err, "failed to load result")
		}
		stored, err := s.repo.ListRawMarks(ctx, existing.ID)
		if err != nil {
			return nil, internalError(err, "failed to load marks")
		}
		comp, err := ComputeResult(subjects, student, markInputs(stored))
		if err != nil {
			summary.Skipped = append(summary.Skipped, RecalculateSkip{
				StudentID:  student.ID,
				RollNumber: student.RollNumber,
				Reason:     appErrors.FromError(err).Message,
			})
			continue
		}
		result := newResult(&student, comp.Totals, existing.Remarks)
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
		records = append(records, repository.ResultRecord{Result: result, Marks: comp.Marks})
	}

	if len(records) > 0 {
		if err := s.repo.SaveBatch(ctx, records); err != nil {
			return nil, internalError(err, "failed to save recalculated results")
		}
	}
	summary.Recalculated = len(records)
	s.invalidateYear(ctx, req.AcademicYear)

	s.logger.Info("results recalculated",
		zap.String("class_id", req.ClassID),
		zap.String("academic_year", req.AcademicYear),
		zap.Int("recalculated", summary.Recalculated),
		zap.Int("skipped", len(summary.Skipped)))
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionRecalculate, models.AuditResourceResult, "", nil, map[string]interface{}{
		"class_id": req.ClassID, "academic_year": req.AcademicYear, "recalculated": summary.Recalculated, "skipped": len(summary.Skipped),
	})
	return summary, nil
}

// RecalculateClass recalculates the class in every academic year that
// holds results for it.
func (s *ResultService) RecalculateClass(ctx context.Context, classID string, meta models.RequestMeta) (*RecalculateSummary, error) {
	years, err := s.repo.ListYearsByClass(ctx, classID)
	if err != nil {
		return nil, internalError(err, "failed to list result years")
	}
	total := &RecalculateSummary{Skipped: make([]RecalculateSkip, 0)}
	for _, year := range years {
		summary, err := s.Recalculate(ctx, RecalculateRequest{ClassID: classID, AcademicYear: year}, meta)
		if err != nil {
			return nil, err
		}
		total.Recalculated += summary.Recalculated
		total.Skipped = append(total.Skipped, summary.Skipped...)
	}
	return total, nil
}

// Export renders the class result sheet, one row per student and one
// column per subject.
func (s *ResultService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid export parameters")
	}
	if req.Format == "" {
		req.Format = ExportFormatCSV
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, internalError(err, "failed to load class")
	}
	subjects, err := s.subjects.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	rows, err := s.repo.ListForExport(ctx, req.ClassID, req.AcademicYear)
	if err != nil {
		return nil, internalError(err, "failed to list results")
	}

	headers := []string{"Roll Number", "Enrollment Number", "Name"}
	for _, subject := range subjects {
		headers = append(headers, subject.Code)
	}
	headers = append(headers, "Total", "Max Total", "Percentage", "Result")

	dataset := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		marks, err := s.repo.ListMarks(ctx, row.ID)
		if err != nil {
			return nil, internalError(err, "failed to load marks")
		}
		record := map[string]string{
			"Roll Number":       row.RollNumber,
			"Enrollment Number": row.EnrollmentNumber,
			"Name":              row.StudentName,
			"Total":             formatMarks(row.TotalMarks),
			"Max Total":         formatMarks(row.MaxTotalMarks),
			"Percentage":        strconv.FormatFloat(row.Percentage, 'f', 2, 64),
			"Result":            passLabel(row.IsPassed),
		}
		for _, mark := range marks {
			record[mark.SubjectCode] = markCell(mark)
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	base := fmt.Sprintf("results-%s-%s", cacheSegment(class.Name), cacheSegment(req.AcademicYear))
	base = strings.ReplaceAll(strings.ToLower(base), " ", "-")
	switch req.Format {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("%s results %s", class.Name, req.AcademicYear))
		if err != nil {
			return nil, internalError(err, "failed to render pdf")
		}
		return &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, internalError(err, "failed to render csv")
		}
		return &ExportFile{Filename: base + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

func (s *ResultService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

func (s *ResultService) detail(ctx context.Context, result *models.Result) (*models.ResultDetail, error) {
	marks, err := s.repo.ListMarks(ctx, result.ID)
	if err != nil {
		return nil, internalError(err, "failed to load marks")
	}
	return &models.ResultDetail{Result: *result, Marks: marks}, nil
}

func (s *ResultService) invalidate(ctx context.Context, academicYear, studentID string) {
	_ = s.cache.Invalidate(ctx, publicResultKey(academicYear, studentID))
	_ = s.cache.Invalidate(ctx, dashboardPattern())
}

func (s *ResultService) invalidateYear(ctx context.Context, academicYear string) {
	_ = s.cache.Invalidate(ctx, publicResultYearPattern(academicYear))
	_ = s.cache.Invalidate(ctx, dashboardPattern())
}

func newResult(student *models.Student, totals ResultTotals, remarks string) *models.Result {
	return &models.Result{
		StudentID:     student.ID,
		AcademicYear:  student.AcademicYear,
		TotalMarks:    totals.TotalMarks,
		MaxTotalMarks: totals.MaxTotalMarks,
		Percentage:    totals.Percentage,
		IsPassed:      totals.IsPassed,
		Remarks:       remarks,
	}
}

// markInputs turns stored marks back into raw entries.
func markInputs(marks []models.SubjectMark) []models.MarkInput {
	inputs := make([]models.MarkInput, 0, len(marks))
	for _, mark := range marks {
		input := models.MarkInput{SubjectID: mark.SubjectID}
		if mark.TheoryMarks != nil || mark.PracticalMarks != nil {
			input.TheoryMarks = mark.TheoryMarks
			input.PracticalMarks = mark.PracticalMarks
		} else {
			obtained := mark.MarksObtained
			input.MarksObtained = &obtained
		}
		inputs = append(inputs, input)
	}
	return inputs
}

func markCell(mark models.SubjectMarkDetail) string {
	if mark.TheoryMarks != nil && mark.PracticalMarks != nil {
		return fmt.Sprintf("%s (%s+%s)", formatMarks(mark.MarksObtained), formatMarks(*mark.TheoryMarks), formatMarks(*mark.PracticalMarks))
	}
	return formatMarks(mark.MarksObtained)
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
