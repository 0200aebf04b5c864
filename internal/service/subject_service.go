package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type subjectRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, classID, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	CountMarks(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, classID string, orders []models.SubjectOrder) error
}

// classResultRecalculator restates stored results after a subject of the
// class changes.
type classResultRecalculator interface {
	RecalculateClass(ctx context.Context, classID string, meta models.RequestMeta) (*RecalculateSummary, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// SubjectRequest is the create/update payload for a subject. Split
// subjects set HasPractical and the four theory/practical fields; the
// single pair is then derived.
type SubjectRequest struct {
	Name                  string   `json:"name" validate:"required,max=120"`
	Code                  string   `json:"code" validate:"required,max=20"`
	Position              *int     `json:"position" validate:"omitempty,gte=0"`
	IsAdditional          bool     `json:"is_additional"`
	HasPractical          bool     `json:"has_practical"`
	MaxMarks              float64  `json:"max_marks" validate:"gte=0"`
	PassingMarks          float64  `json:"passing_marks" validate:"gte=0"`
	TheoryMaxMarks        *float64 `json:"theory_max_marks" validate:"omitempty,gte=0"`
	TheoryPassingMarks    *float64 `json:"theory_passing_marks" validate:"omitempty,gte=0"`
	PracticalMaxMarks     *float64 `json:"practical_max_marks" validate:"omitempty,gte=0"`
	PracticalPassingMarks *float64 `json:"practical_passing_marks" validate:"omitempty,gte=0"`
}

// ReorderSubjectsRequest assigns new positions within a class.
type ReorderSubjectsRequest struct {
	Orders []models.SubjectOrder `json:"orders" validate:"required,min=1,dive"`
}

var subjectDuplicateMessages = map[string]string{
	"subjects_class_code_key": "subject code already exists in this class",
}

// SubjectService manages the subjects of a class.
type SubjectService struct {
	repo      subjectRepository
	classes   classFinder
	results   classResultRecalculator
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewSubjectService(repo subjectRepository, classes classFinder, results classResultRecalculator, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, classes: classes, results: results, audit: audit, validator: validate, logger: logger}
}

// ListByClass returns the class subjects in display order.
func (s *SubjectService) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}
	subjects, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	return subjects, nil
}

func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, internalError(err, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject to the class. Without an explicit position it is
// appended after the existing subjects.
func (s *SubjectService) Create(ctx context.Context, classID string, req SubjectRequest, meta models.RequestMeta) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}
	subject := &models.Subject{ClassID: classID}
	if err := applySubjectRequest(subject, req); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, classID, subject.Code, ""); err != nil {
		return nil, err
	}
	if req.Position == nil {
		existing, err := s.repo.ListByClass(ctx, classID)
		if err != nil {
			return nil, internalError(err, "failed to list subjects")
		}
		subject.Position = len(existing) + 1
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		if dup, ok := duplicateError(err, subjectDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create subject")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceSubject, subject.ID, nil, subject)
	return subject, nil
}

// Update replaces the subject definition and recalculates the stored
// results of the class. Results the new definition rejects are left as
// they were and logged.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest, meta models.RequestMeta) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *subject
	if err := applySubjectRequest(subject, req); err != nil {
		return nil, err
	}
	if req.Position == nil {
		subject.Position = before.Position
	}
	if !strings.EqualFold(before.Code, subject.Code) {
		if err := s.ensureCodeFree(ctx, subject.ClassID, subject.Code, id); err != nil {
			return nil, err
		}
	}
	if before.HasPractical != subject.HasPractical {
		count, err := s.repo.CountMarks(ctx, id)
		if err != nil {
			return nil, internalError(err, "failed to count subject marks")
		}
		if count > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "marking scheme cannot change while marks exist for the subject")
		}
	}

	if err := s.repo.Update(ctx, subject); err != nil {
		if dup, ok := duplicateError(err, subjectDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update subject")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSubject, id, before, subject)
	s.recalculate(ctx, subject.ClassID, meta)
	return subject, nil
}

func (s *SubjectService) recalculate(ctx context.Context, classID string, meta models.RequestMeta) {
	if s.results == nil {
		return
	}
	summary, err := s.results.RecalculateClass(ctx, classID, meta)
	if err != nil {
		s.logger.Warn("recalculate results after subject change", zap.String("class_id", classID), zap.Error(err))
		return
	}
	if len(summary.Skipped) > 0 {
		s.logger.Warn("results skipped after subject change", zap.String("class_id", classID), zap.Int("skipped", len(summary.Skipped)))
	}
}

// Delete removes a subject that no result references.
func (s *SubjectService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountMarks(ctx, id)
	if err != nil {
		return internalError(err, "failed to count subject marks")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is referenced by recorded marks")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if appErrors.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is referenced by recorded marks")
		}
		return internalError(err, "failed to delete subject")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceSubject, id, subject, nil)
	return nil
}

// Reorder assigns positions to subjects of the class in one transaction.
func (s *SubjectService) Reorder(ctx context.Context, classID string, req ReorderSubjectsRequest, meta models.RequestMeta) ([]models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reorder payload")
	}
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Orders))
	for _, o := range req.Orders {
		if _, dup := seen[o.SubjectID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject listed more than once")
		}
		seen[o.SubjectID] = struct{}{}
	}
	if err := s.repo.Reorder(ctx, classID, req.Orders); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "every subject must belong to the class")
		}
		return nil, internalError(err, "failed to reorder subjects")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSubject, classID, nil, req.Orders)
	return s.ListByClass(ctx, classID)
}

// applySubjectRequest validates the mark pairs and copies req onto subject.
func applySubjectRequest(subject *models.Subject, req SubjectRequest) error {
	subject.Name = strings.TrimSpace(req.Name)
	subject.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	subject.IsAdditional = req.IsAdditional
	subject.HasPractical = req.HasPractical
	if req.Position != nil {
		subject.Position = *req.Position
	}

	if !req.HasPractical {
		if err := checkMarkPair("", req.MaxMarks, req.PassingMarks); err != nil {
			return err
		}
		subject.MaxMarks = req.MaxMarks
		subject.PassingMarks = req.PassingMarks
		subject.TheoryMaxMarks = nil
		subject.TheoryPassingMarks = nil
		subject.PracticalMaxMarks = nil
		subject.PracticalPassingMarks = nil
		return nil
	}

	if req.TheoryMaxMarks == nil || req.TheoryPassingMarks == nil || req.PracticalMaxMarks == nil || req.PracticalPassingMarks == nil {
		return appErrors.Clone(appErrors.ErrValidation, "split subjects need theory and practical max and passing marks")
	}
	if err := checkMarkPair("theory ", *req.TheoryMaxMarks, *req.TheoryPassingMarks); err != nil {
		return err
	}
	if err := checkMarkPair("practical ", *req.PracticalMaxMarks, *req.PracticalPassingMarks); err != nil {
		return err
	}
	theoryMax, theoryPass := *req.TheoryMaxMarks, *req.TheoryPassingMarks
	practicalMax, practicalPass := *req.PracticalMaxMarks, *req.PracticalPassingMarks
	subject.TheoryMaxMarks = &theoryMax
	subject.TheoryPassingMarks = &theoryPass
	subject.PracticalMaxMarks = &practicalMax
	subject.PracticalPassingMarks = &practicalPass
	subject.MaxMarks = round2(theoryMax + practicalMax)
	subject.PassingMarks = round2(theoryPass + practicalPass)
	return nil
}

func checkMarkPair(label string, maxMarks, passing float64) error {
	if maxMarks <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, label+"max marks must be greater than zero")
	}
	if passing <= 0 || passing > maxMarks {
		return appErrors.Clone(appErrors.ErrValidation, label+"passing marks must be greater than zero and not exceed max marks")
	}
	return nil
}

func (s *SubjectService) ensureClass(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return internalError(err, "failed to load class")
	}
	return nil
}

func (s *SubjectService) ensureCodeFree(ctx context.Context, classID, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, classID, code, excludeID)
	if err != nil {
		return internalError(err, "failed to check subject code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, "subject code already exists in this class")
	}
	return nil
}
