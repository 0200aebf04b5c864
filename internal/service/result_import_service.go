package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// Import modes.
const (
	ImportModeAtomic         = "atomic"
	ImportModePartialOnError = "partialOnError"
)

// Fixed leading columns of an import file.
const (
	colRollNumber         = "roll_number"
	colEnrollmentNumber   = "enrollment_number"
	colName               = "name"
	colFatherName         = "father_name"
	colMotherName         = "mother_name"
	colDateOfBirth        = "date_of_birth"
	colAdditionalSubjects = "additional_subjects"

	theorySuffix    = "_TH"
	practicalSuffix = "_PR"
)

var requiredImportColumns = []string{colRollNumber, colEnrollmentNumber, colName, colDateOfBirth}

type importResultRepository interface {
	FindByStudentYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	Save(ctx context.Context, record repository.ResultRecord) error
	SaveBatch(ctx context.Context, records []repository.ResultRecord) error
}

type importStudentRepository interface {
	FindByRollNumber(ctx context.Context, academicYear, rollNumber string) (*models.Student, error)
	ExistsByEnrollmentNumber(ctx context.Context, academicYear, enrollmentNumber, excludeID string) (bool, error)
}

// ImportRequest carries the form fields sent with an import file.
type ImportRequest struct {
	AcademicYear string `form:"academic_year" validate:"required,max=20"`
	ClassID      string `form:"class_id" validate:"required"`
	Mode         string `form:"mode" validate:"omitempty,oneof=atomic partialOnError"`
}

// ImportRowError reports why a file row was not imported. Row counts the
// header as row 1.
type ImportRowError struct {
	Row        int    `json:"row"`
	RollNumber string `json:"roll_number,omitempty"`
	Message    string `json:"message"`
}

// ImportSummary is returned after an import run.
type ImportSummary struct {
	Mode      string           `json:"mode"`
	TotalRows int              `json:"total_rows"`
	Imported  int              `json:"imported"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors"`
}

// ImportConfig bounds import files.
type ImportConfig struct {
	MaxRows int
}

// ResultImportService creates students and results in bulk from CSV.
type ResultImportService struct {
	results   importResultRepository
	students  importStudentRepository
	classes   classFinder
	subjects  classSubjectLister
	audit     auditRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ImportConfig
}

func NewResultImportService(results importResultRepository, students importStudentRepository, classes classFinder, subjects classSubjectLister, audit auditRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ImportConfig) *ResultImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &ResultImportService{
		results:   results,
		students:  students,
		classes:   classes,
		subjects:  subjects,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// importRow is one parsed data row.
type importRow struct {
	row    int
	cells  map[string]string
	record repository.ResultRecord
	exists bool
}

// Import reads a CSV file and upserts a student and result per row. In
// atomic mode the first failing row aborts the whole file; in partial mode
// valid rows are stored and failures are reported per row.
func (s *ResultImportService) Import(ctx context.Context, req ImportRequest, file io.Reader, meta models.RequestMeta) (*ImportSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid import parameters")
	}
	if req.Mode == "" {
		req.Mode = ImportModeAtomic
	}
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)

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
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class has no subjects")
	}

	rows, err := s.readFile(file, subjects)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Mode: req.Mode, TotalRows: len(rows), Errors: make([]ImportRowError, 0)}
	fail := func(row *importRow, err error) {
		summary.Failed++
		summary.Errors = append(summary.Errors, ImportRowError{
			Row:        row.row,
			RollNumber: row.cells[colRollNumber],
			Message:    appErrors.FromError(err).Message,
		})
	}

	valid := make([]*importRow, 0, len(rows))
	rollSeen := make(map[string]int, len(rows))
	enrollmentSeen := make(map[string]int, len(rows))
	for _, row := range rows {
		err := checkInFileDuplicates(row, rollSeen, enrollmentSeen)
		if err == nil {
			err = s.buildRecord(ctx, req, subjects, row)
		}
		if err != nil {
			if req.Mode == ImportModeAtomic {
				s.metrics.RecordImportRows(0, len(rows))
				return nil, abortError(row, err)
			}
			fail(row, err)
			continue
		}
		valid = append(valid, row)
	}

	if req.Mode == ImportModeAtomic {
		if err := s.saveAtomic(ctx, valid); err != nil {
			s.metrics.RecordImportRows(0, len(rows))
			return nil, err
		}
		for _, row := range valid {
			summary.count(row)
		}
	} else {
		for _, row := range valid {
			if err := s.results.Save(ctx, row.record); err != nil {
				fail(row, saveError(err))
				continue
			}
			summary.count(row)
		}
	}

	if summary.Imported > 0 {
		_ = s.cache.Invalidate(ctx, publicResultYearPattern(req.AcademicYear))
		_ = s.cache.Invalidate(ctx, dashboardPattern())
	}
	s.metrics.RecordImportRows(summary.Imported, summary.Failed)
	s.logger.Info("results imported",
		zap.String("academic_year", req.AcademicYear),
		zap.String("class_id", req.ClassID),
		zap.String("mode", req.Mode),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed))
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionImport, models.AuditResourceResult, "", nil, map[string]interface{}{
		"academic_year": req.AcademicYear, "class_id": req.ClassID, "mode": req.Mode,
		"imported": summary.Imported, "failed": summary.Failed,
	})
	return summary, nil
}

func (sum *ImportSummary) count(row *importRow) {
	sum.Imported++
	if row.exists {
		sum.Updated++
	} else {
		sum.Created++
	}
}

func (s *ResultImportService) saveAtomic(ctx context.Context, rows []*importRow) error {
	if len(rows) == 0 {
		return nil
	}
	records := make([]repository.ResultRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record
	}
	err := s.results.SaveBatch(ctx, records)
	if err == nil {
		return nil
	}
	var recordErr *repository.RecordError
	if errors.As(err, &recordErr) && recordErr.Index < len(rows) {
		if _, ok := appErrors.IsUniqueViolation(recordErr.Err); ok {
			return abortError(rows[recordErr.Index], saveError(recordErr.Err))
		}
	}
	return internalError(err, "failed to save imported results")
}

// abortError prefixes a row failure with its position, keeping its code.
func abortError(row *importRow, err error) error {
	appErr := appErrors.FromError(err)
	return appErrors.Wrap(err, appErr.Code, appErr.Status, fmt.Sprintf("import aborted at row %d: %s", row.row, appErr.Message))
}

func saveError(err error) error {
	if dup, ok := duplicateError(err, studentDuplicateMessages); ok {
		return dup
	}
	return internalError(err, "failed to save row")
}

// readFile parses the header and data rows.
func (s *ResultImportService) readFile(file io.Reader, subjects []models.Subject) ([]*importRow, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "import file is empty")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "import file is not valid CSV")
	}
	index, err := mapHeader(header, subjects)
	if err != nil {
		return nil, err
	}

	rows := make([]*importRow, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("row %d is not valid CSV", line))
		}
		if blankRecord(record) {
			continue
		}
		if len(rows) >= s.cfg.MaxRows {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("import is limited to %d rows", s.cfg.MaxRows))
		}
		cells := make(map[string]string, len(index))
		for name, pos := range index {
			if pos < len(record) {
				cells[name] = strings.TrimSpace(record[pos])
			}
		}
		rows = append(rows, &importRow{row: line, cells: cells})
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import file has no data rows")
	}
	return rows, nil
}

// mapHeader resolves column positions. Fixed columns are matched case
// insensitively; subject columns by code, with _TH/_PR for split subjects.
// Columns of additional subjects may be omitted.
func mapHeader(header []string, subjects []models.Subject) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		key := strings.ToLower(name)
		switch key {
		case colRollNumber, colEnrollmentNumber, colName, colFatherName, colMotherName, colDateOfBirth, colAdditionalSubjects:
		default:
			key = strings.ToUpper(name)
		}
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("column %s appears more than once", name))
		}
		index[key] = i
	}
	for _, col := range requiredImportColumns {
		if _, ok := index[col]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing column %s", col))
		}
	}

	known := map[string]struct{}{
		colRollNumber: {}, colEnrollmentNumber: {}, colName: {}, colFatherName: {},
		colMotherName: {}, colDateOfBirth: {}, colAdditionalSubjects: {},
	}
	for _, subject := range subjects {
		code := strings.ToUpper(subject.Code)
		names := []string{code}
		if subject.HasPractical {
			names = []string{code + theorySuffix, code + practicalSuffix}
		}
		found := 0
		for _, name := range names {
			known[name] = struct{}{}
			if _, ok := index[name]; ok {
				found++
			}
		}
		if found == len(names) || (found == 0 && subject.IsAdditional) {
			continue
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing column %s", strings.Join(names, " or ")))
	}
	for name := range index {
		if _, ok := known[name]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown column %s", name))
		}
	}
	return index, nil
}

func checkInFileDuplicates(row *importRow, rollSeen, enrollmentSeen map[string]int) error {
	roll := row.cells[colRollNumber]
	enrollment := row.cells[colEnrollmentNumber]
	if first, ok := rollSeen[roll]; ok && roll != "" {
		return appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("roll number %s already appears in row %d", roll, first))
	}
	if first, ok := enrollmentSeen[enrollment]; ok && enrollment != "" {
		return appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("enrollment number %s already appears in row %d", enrollment, first))
	}
	rollSeen[roll] = row.row
	enrollmentSeen[enrollment] = row.row
	return nil
}

// buildRecord validates a row and prepares the student and result to save.
func (s *ResultImportService) buildRecord(ctx context.Context, req ImportRequest, subjects []models.Subject, row *importRow) error {
	cells := row.cells
	for _, col := range requiredImportColumns {
		if cells[col] == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", col))
		}
	}
	dob, err := models.ParseDate(cells[colDateOfBirth])
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	additional, err := resolveAdditionalSubjects(subjects, splitCodes(cells[colAdditionalSubjects]), func(sub models.Subject) string { return sub.Code })
	if err != nil {
		return err
	}

	student, err := s.students.FindByRollNumber(ctx, req.AcademicYear, cells[colRollNumber])
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists, err := s.students.ExistsByEnrollmentNumber(ctx, req.AcademicYear, cells[colEnrollmentNumber], "")
		if err != nil {
			return internalError(err, "failed to check enrollment number")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrDuplicate, studentDuplicateMessages["students_enrollment_year_key"])
		}
		student = &models.Student{AcademicYear: req.AcademicYear}
	case err != nil:
		return internalError(err, "failed to load student")
	default:
		if student.EnrollmentNumber != cells[colEnrollmentNumber] {
			return appErrors.Clone(appErrors.ErrValidation, "enrollment number does not match the student with this roll number")
		}
		row.exists = true
	}

	student.RollNumber = cells[colRollNumber]
	student.EnrollmentNumber = cells[colEnrollmentNumber]
	student.Name = cells[colName]
	student.FatherName = cells[colFatherName]
	student.MotherName = cells[colMotherName]
	student.DateOfBirth = dob
	student.ClassID = req.ClassID
	student.AdditionalSubjectIDs = additional

	inputs := make([]models.MarkInput, 0, len(subjects))
	for _, subject := range subjects {
		input, present, err := markInputFromCells(subject, cells)
		if err != nil {
			return err
		}
		if present {
			inputs = append(inputs, input)
		}
	}
	comp, err := ComputeResult(subjects, *student, inputs)
	if err != nil {
		return err
	}

	result := newResult(student, comp.Totals, "")
	if row.exists {
		existing, err := s.results.FindByStudentYear(ctx, student.ID, req.AcademicYear)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return internalError(err, "failed to load result")
		}
		if existing != nil {
			result.ID = existing.ID
			result.CreatedAt = existing.CreatedAt
			result.Remarks = existing.Remarks
		}
	}
	row.record = repository.ResultRecord{Student: student, Result: result, Marks: comp.Marks}
	return nil
}

// markInputFromCells reads a subject's cells. present is false when every
// cell of the subject is empty.
func markInputFromCells(subject models.Subject, cells map[string]string) (models.MarkInput, bool, error) {
	code := strings.ToUpper(subject.Code)
	input := models.MarkInput{SubjectID: subject.ID}
	if subject.HasPractical {
		th, pr := cells[code+theorySuffix], cells[code+practicalSuffix]
		if th == "" && pr == "" {
			return input, false, nil
		}
		var err error
		if input.TheoryMarks, err = parseMarkCell(code+theorySuffix, th); err != nil {
			return input, false, err
		}
		if input.PracticalMarks, err = parseMarkCell(code+practicalSuffix, pr); err != nil {
			return input, false, err
		}
		return input, true, nil
	}
	raw := cells[code]
	if raw == "" {
		return input, false, nil
	}
	value, err := parseMarkCell(code, raw)
	if err != nil {
		return input, false, err
	}
	input.MarksObtained = value
	return input, true, nil
}

func parseMarkCell(column, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a number", column))
	}
	return &value, nil
}

func splitCodes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
