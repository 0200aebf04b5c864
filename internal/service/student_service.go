package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRollNumber(ctx context.Context, academicYear, rollNumber, excludeID string) (bool, error)
	ExistsByEnrollmentNumber(ctx context.Context, academicYear, enrollmentNumber, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// studentResultStore lets a student edit restate the stored result in the
// same transaction as the student row.
type studentResultStore interface {
	FindByStudentYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	ListRawMarks(ctx context.Context, resultID string) ([]models.SubjectMark, error)
	SaveBatch(ctx context.Context, records []repository.ResultRecord) error
}

// StudentRequest is the create/update payload for a student.
type StudentRequest struct {
	RollNumber           string      `json:"roll_number" validate:"required,max=30"`
	EnrollmentNumber     string      `json:"enrollment_number" validate:"required,max=40"`
	Name                 string      `json:"name" validate:"required,max=120"`
	FatherName           string      `json:"father_name" validate:"max=120"`
	MotherName           string      `json:"mother_name" validate:"max=120"`
	DateOfBirth          models.Date `json:"date_of_birth"`
	ClassID              string      `json:"class_id" validate:"required"`
	AcademicYear         string      `json:"academic_year" validate:"required,max=20"`
	AdditionalSubjectIDs []string    `json:"additional_subject_ids"`
}

// Messages for the per-year uniqueness constraints on students.
var studentDuplicateMessages = map[string]string{
	"students_roll_year_key":       "roll number already exists for this academic year",
	"students_enrollment_year_key": "enrollment number already exists for this academic year",
}

// StudentService manages students and their elective choices.
type StudentService struct {
	repo      studentRepository
	classes   classFinder
	subjects  classSubjectLister
	results   studentResultStore
	audit     auditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewStudentService(repo studentRepository, classes classFinder, subjects classSubjectLister, results studentResultStore, audit auditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, classes: classes, subjects: subjects, results: results, audit: audit, cache: cache, validator: validate, logger: logger}
}

func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, newPagination(filter.Page, filter.PageSize, total), nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

// Create registers a student. Roll and enrollment numbers must be unique
// within the academic year.
func (s *StudentService) Create(ctx context.Context, req StudentRequest, meta models.RequestMeta) (*models.Student, error) {
	student := &models.Student{}
	if _, err := s.apply(ctx, student, req); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, student, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if dup, ok := duplicateError(err, studentDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create student")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceStudent, student.ID, nil, student)
	return student, nil
}

func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest, meta models.RequestMeta) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *student
	subjects, err := s.apply(ctx, student, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, student, id); err != nil {
		return nil, err
	}
	restated, err := s.restateResult(ctx, before, *student, subjects)
	if err != nil {
		return nil, err
	}

	if restated != nil {
		restated.Student = student
		err = s.results.SaveBatch(ctx, []repository.ResultRecord{*restated})
	} else {
		err = s.repo.Update(ctx, student)
	}
	if err != nil {
		if dup, ok := duplicateError(err, studentDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update student")
	}
	s.invalidate(ctx, before)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceStudent, id, before, student)
	if restated != nil {
		_ = s.cache.Invalidate(ctx, dashboardPattern())
		recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionRecalculate, models.AuditResourceResult, restated.Result.ID, nil, restated.Result)
	}
	return student, nil
}

// restateResult recomputes the stored result of a student whose class or
// elective choices change. Marks of subjects the student no longer takes
// are dropped; a subject without marks blocks the change. It returns nil
// when no stored result is affected.
func (s *StudentService) restateResult(ctx context.Context, before, after models.Student, subjects []models.Subject) (*repository.ResultRecord, error) {
	if s.results == nil || !affectsResult(before, after) {
		return nil, nil
	}
	existing, err := s.results.FindByStudentYear(ctx, before.ID, before.AcademicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load result")
	}
	if before.AcademicYear != after.AcademicYear {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has a result for "+before.AcademicYear+"; delete it before changing the academic year")
	}

	stored, err := s.results.ListRawMarks(ctx, existing.ID)
	if err != nil {
		return nil, internalError(err, "failed to load marks")
	}
	applicable := make(map[string]struct{})
	for _, subject := range ApplicableSubjects(subjects, after) {
		applicable[subject.ID] = struct{}{}
	}
	kept := make([]models.SubjectMark, 0, len(stored))
	for _, mark := range stored {
		if _, ok := applicable[mark.SubjectID]; ok {
			kept = append(kept, mark)
		}
	}
	comp, err := ComputeResult(subjects, after, markInputs(kept))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "stored result cannot follow the change: "+appErrors.FromError(err).Message)
	}

	result := newResult(&after, comp.Totals, existing.Remarks)
	result.ID = existing.ID
	result.CreatedAt = existing.CreatedAt
	return &repository.ResultRecord{Result: result, Marks: comp.Marks}, nil
}

// affectsResult reports whether the edit changes which subjects count
// toward the student's result.
func affectsResult(before, after models.Student) bool {
	if before.ClassID != after.ClassID || before.AcademicYear != after.AcademicYear {
		return true
	}
	if len(before.AdditionalSubjectIDs) != len(after.AdditionalSubjectIDs) {
		return true
	}
	for _, id := range after.AdditionalSubjectIDs {
		if !before.OptsInto(id) {
			return true
		}
	}
	return false
}

// Delete removes the student together with their results.
func (s *StudentService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	student, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return internalError(err, "failed to delete student")
	}
	s.invalidate(ctx, *student)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceStudent, id, student, nil)
	return nil
}

// apply copies the request onto student and returns the subjects of the
// student's class.
func (s *StudentService) apply(ctx context.Context, student *models.Student, req StudentRequest) ([]models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if req.DateOfBirth.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth is required")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return nil, internalError(err, "failed to load class")
	}
	subjects, err := s.subjects.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	additional, err := resolveAdditionalSubjects(subjects, req.AdditionalSubjectIDs, func(sub models.Subject) string { return sub.ID })
	if err != nil {
		return nil, err
	}

	student.RollNumber = strings.TrimSpace(req.RollNumber)
	student.EnrollmentNumber = strings.TrimSpace(req.EnrollmentNumber)
	student.Name = strings.TrimSpace(req.Name)
	student.FatherName = strings.TrimSpace(req.FatherName)
	student.MotherName = strings.TrimSpace(req.MotherName)
	student.DateOfBirth = req.DateOfBirth
	student.ClassID = req.ClassID
	student.AcademicYear = strings.TrimSpace(req.AcademicYear)
	student.AdditionalSubjectIDs = additional
	return subjects, nil
}

// ensureUnique checks roll and enrollment numbers before writing so the
// caller gets a precise message; the unique constraints remain the backstop.
func (s *StudentService) ensureUnique(ctx context.Context, student *models.Student, excludeID string) error {
	exists, err := s.repo.ExistsByRollNumber(ctx, student.AcademicYear, student.RollNumber, excludeID)
	if err != nil {
		return internalError(err, "failed to check roll number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, studentDuplicateMessages["students_roll_year_key"])
	}
	exists, err = s.repo.ExistsByEnrollmentNumber(ctx, student.AcademicYear, student.EnrollmentNumber, excludeID)
	if err != nil {
		return internalError(err, "failed to check enrollment number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, studentDuplicateMessages["students_enrollment_year_key"])
	}
	return nil
}

func (s *StudentService) invalidate(ctx context.Context, student models.Student) {
	_ = s.cache.Invalidate(ctx, publicResultKey(student.AcademicYear, student.ID))
}

// resolveAdditionalSubjects maps references (ids or codes, depending on
// key) to subject ids, accepting only additional subjects of the class.
func resolveAdditionalSubjects(subjects []models.Subject, refs []string, key func(models.Subject) string) ([]string, error) {
	lookup := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		lookup[strings.ToUpper(key(subject))] = subject
	}
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		subject, ok := lookup[strings.ToUpper(ref)]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "additional subject "+ref+" does not belong to the class")
		}
		if !subject.IsAdditional {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject "+subject.Code+" is not an additional subject")
		}
		if _, dup := seen[subject.ID]; dup {
			continue
		}
		seen[subject.ID] = struct{}{}
		ids = append(ids, subject.ID)
	}
	return ids, nil
}
