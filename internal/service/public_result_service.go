package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/export"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

const marksheetScopePrefix = "marksheet:"

// noMatchMessage is shared by every lookup failure so callers cannot tell
// which identifier was wrong.
const noMatchMessage = "no result matches the details provided"

type publicStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByRollNumber(ctx context.Context, academicYear, rollNumber string) (*models.Student, error)
}

type publicResultRepository interface {
	FindByStudentYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	ListMarks(ctx context.Context, resultID string) ([]models.SubjectMarkDetail, error)
}

type publicationFinder interface {
	FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error)
}

type marksheetRenderer interface {
	RenderMarksheet(m export.Marksheet) ([]byte, error)
}

// PublicSearchRequest identifies a student. Either the enrollment number
// or the date of birth must accompany the roll number.
type PublicSearchRequest struct {
	AcademicYear     string `json:"academic_year" validate:"required,max=20"`
	RollNumber       string `json:"roll_number" validate:"required,max=30"`
	EnrollmentNumber string `json:"enrollment_number" validate:"max=40"`
	DateOfBirth      string `json:"date_of_birth"`
}

// PublicStudent is the student summary disclosed with a result.
type PublicStudent struct {
	Name             string      `json:"name"`
	RollNumber       string      `json:"roll_number"`
	EnrollmentNumber string      `json:"enrollment_number"`
	FatherName       string      `json:"father_name,omitempty"`
	MotherName       string      `json:"mother_name,omitempty"`
	DateOfBirth      models.Date `json:"date_of_birth"`
	ClassName        string      `json:"class_name"`
	AcademicYear     string      `json:"academic_year"`
}

// PublicResult is the payload returned by a successful search.
type PublicResult struct {
	Student            PublicStudent              `json:"student"`
	Marks              []models.SubjectMarkDetail `json:"marks"`
	Totals             ResultTotals               `json:"totals"`
	Remarks            string                     `json:"remarks,omitempty"`
	MarksheetToken     string                     `json:"marksheet_token,omitempty"`
	MarksheetExpiresAt *time.Time                 `json:"marksheet_expires_at,omitempty"`
}

// PublicResultConfig configures public search.
type PublicResultConfig struct {
	CacheTTL   time.Duration
	SchoolName string
}

// PublicResultService answers public result lookups once a year's results
// are visible.
type PublicResultService struct {
	students     publicStudentRepository
	results      publicResultRepository
	classes      classFinder
	publications publicationFinder
	signer       *storage.Signer
	renderer     marksheetRenderer
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          PublicResultConfig
	now          func() time.Time
}

func NewPublicResultService(students publicStudentRepository, results publicResultRepository, classes classFinder, publications publicationFinder, signer *storage.Signer, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PublicResultConfig) *PublicResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PublicResultService{
		students:     students,
		results:      results,
		classes:      classes,
		publications: publications,
		signer:       signer,
		renderer:     export.NewPDFExporter(),
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Search verifies the caller's identifiers and returns the student's
// result. The publication gate is checked before any student lookup.
func (s *PublicResultService) Search(ctx context.Context, req PublicSearchRequest) (*PublicResult, error) {
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)
	req.RollNumber = strings.TrimSpace(req.RollNumber)
	req.EnrollmentNumber = strings.TrimSpace(req.EnrollmentNumber)
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)

	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordResultSearch(SearchOutcomeInvalid)
		return nil, validationError(err, "academic_year and roll_number are required")
	}
	if req.EnrollmentNumber == "" && req.DateOfBirth == "" {
		s.metrics.RecordResultSearch(SearchOutcomeInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment_number or date_of_birth is required")
	}
	var dob models.Date
	if req.DateOfBirth != "" {
		parsed, err := models.ParseDate(req.DateOfBirth)
		if err != nil {
			s.metrics.RecordResultSearch(SearchOutcomeInvalid)
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		dob = parsed
	}

	if err := s.ensureVisible(ctx, req.AcademicYear); err != nil {
		return nil, err
	}

	student, err := s.students.FindByRollNumber(ctx, req.AcademicYear, req.RollNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordResultSearch(SearchOutcomeNotFound)
			return nil, appErrors.Clone(appErrors.ErrNotFound, noMatchMessage)
		}
		return nil, internalError(err, "failed to look up student")
	}
	if !identityMatches(student, req.EnrollmentNumber, dob) {
		s.metrics.RecordResultSearch(SearchOutcomeNotFound)
		return nil, appErrors.Clone(appErrors.ErrNotFound, noMatchMessage)
	}

	payload, err := s.load(ctx, student)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(student.ID, marksheetScopePrefix+student.AcademicYear)
	if err != nil {
		s.logger.Warn("failed to sign marksheet token", zap.Error(err))
	} else {
		payload.MarksheetToken = token
		payload.MarksheetExpiresAt = &expiresAt
	}
	s.metrics.RecordResultSearch(SearchOutcomeFound)
	return payload, nil
}

// Marksheet renders the PDF marksheet for a token issued by Search. The
// gate is checked again so closing it revokes outstanding links.
func (s *PublicResultService) Marksheet(ctx context.Context, token string) (*ExportFile, error) {
	studentID, scope, err := s.signer.Parse(token)
	if err != nil || !strings.HasPrefix(scope, marksheetScopePrefix) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "marksheet link is invalid or has expired")
	}
	academicYear := strings.TrimPrefix(scope, marksheetScopePrefix)
	if err := s.ensureVisible(ctx, academicYear); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, noMatchMessage)
		}
		return nil, internalError(err, "failed to load student")
	}
	if student.AcademicYear != academicYear {
		return nil, appErrors.Clone(appErrors.ErrNotFound, noMatchMessage)
	}
	payload, err := s.load(ctx, student)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.RenderMarksheet(s.marksheet(payload))
	if err != nil {
		return nil, internalError(err, "failed to render marksheet")
	}
	filename := fmt.Sprintf("marksheet-%s-%s.pdf", cacheSegment(academicYear), cacheSegment(student.RollNumber))
	return &ExportFile{Filename: filename, ContentType: "application/pdf", Data: data}, nil
}

func (s *PublicResultService) ensureVisible(ctx context.Context, academicYear string) error {
	pub, err := s.publications.FindByYear(ctx, academicYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return internalError(err, "failed to check result publication")
	}
	if !pub.IsVisible(s.now()) {
		s.metrics.RecordResultSearch(SearchOutcomeNotPublished)
		return appErrors.Clone(appErrors.ErrNotPublished, "")
	}
	return nil
}

// load returns the verified payload, using the cache when possible.
func (s *PublicResultService) load(ctx context.Context, student *models.Student) (*PublicResult, error) {
	key := publicResultKey(student.AcademicYear, student.ID)
	var cached PublicResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	result, err := s.results.FindByStudentYear(ctx, student.ID, student.AcademicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordResultSearch(SearchOutcomeNotFound)
			return nil, appErrors.Clone(appErrors.ErrNotFound, noMatchMessage)
		}
		return nil, internalError(err, "failed to load result")
	}
	marks, err := s.results.ListMarks(ctx, result.ID)
	if err != nil {
		return nil, internalError(err, "failed to load marks")
	}
	className := ""
	if class, err := s.classes.FindByID(ctx, student.ClassID); err == nil {
		className = class.Name
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load class")
	}

	payload := &PublicResult{
		Student: PublicStudent{
			Name:             student.Name,
			RollNumber:       student.RollNumber,
			EnrollmentNumber: student.EnrollmentNumber,
			FatherName:       student.FatherName,
			MotherName:       student.MotherName,
			DateOfBirth:      student.DateOfBirth,
			ClassName:        className,
			AcademicYear:     student.AcademicYear,
		},
		Marks: marks,
		Totals: ResultTotals{
			TotalMarks:    result.TotalMarks,
			MaxTotalMarks: result.MaxTotalMarks,
			Percentage:    result.Percentage,
			IsPassed:      result.IsPassed,
		},
		Remarks: result.Remarks,
	}
	_ = s.cache.Set(ctx, key, *payload, s.cfg.CacheTTL)
	return payload, nil
}

func (s *PublicResultService) marksheet(p *PublicResult) export.Marksheet {
	sheet := export.Marksheet{
		SchoolName: s.cfg.SchoolName,
		Title:      "Statement of Marks " + p.Student.AcademicYear,
		Details: []export.Field{
			{Label: "Name", Value: p.Student.Name},
			{Label: "Roll Number", Value: p.Student.RollNumber},
			{Label: "Enrollment Number", Value: p.Student.EnrollmentNumber},
			{Label: "Class", Value: p.Student.ClassName},
			{Label: "Date of Birth", Value: p.Student.DateOfBirth.String()},
		},
		Headers: []string{"Subject", "Theory", "Practical", "Obtained", "Max", "Result"},
		Rows:    make([][]string, 0, len(p.Marks)),
		Summary: []export.Field{
			{Label: "Total", Value: fmt.Sprintf("%s / %s", formatMarks(p.Totals.TotalMarks), formatMarks(p.Totals.MaxTotalMarks))},
			{Label: "Percentage", Value: strconv.FormatFloat(p.Totals.Percentage, 'f', 2, 64) + "%"},
			{Label: "Result", Value: passLabel(p.Totals.IsPassed)},
		},
		Footer: fmt.Sprintf("Generated %s. This statement is provisional.", s.now().UTC().Format(models.DateLayout)),
	}
	if p.Student.FatherName != "" {
		sheet.Details = append(sheet.Details, export.Field{Label: "Father's Name", Value: p.Student.FatherName})
	}
	if p.Student.MotherName != "" {
		sheet.Details = append(sheet.Details, export.Field{Label: "Mother's Name", Value: p.Student.MotherName})
	}
	for _, mark := range p.Marks {
		theory, practical := "-", "-"
		if mark.TheoryMarks != nil {
			theory = formatMarks(*mark.TheoryMarks)
		}
		if mark.PracticalMarks != nil {
			practical = formatMarks(*mark.PracticalMarks)
		}
		name := mark.SubjectName
		if mark.IsAdditional {
			name += " (Additional)"
		}
		sheet.Rows = append(sheet.Rows, []string{name, theory, practical, formatMarks(mark.MarksObtained), formatMarks(mark.MaxMarks), passLabel(mark.IsPassed)})
	}
	if p.Remarks != "" {
		sheet.Summary = append(sheet.Summary, export.Field{Label: "Remarks", Value: p.Remarks})
	}
	return sheet
}

// identityMatches checks every identifier supplied by the caller.
func identityMatches(student *models.Student, enrollmentNumber string, dob models.Date) bool {
	if enrollmentNumber != "" && !strings.EqualFold(student.EnrollmentNumber, enrollmentNumber) {
		return false
	}
	if !dob.IsZero() && !student.DateOfBirth.Equal(dob) {
		return false
	}
	return true
}
