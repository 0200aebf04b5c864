package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/jobs"
	"github.com/noah-isme/school-portal-api/pkg/mail"
)

// JobTypeAdmissionNotification is the queue job emailing staff about a new enquiry.
const JobTypeAdmissionNotification = "admission.notification"

// Mail job outcomes reported to metrics.
const (
	MailJobSent    = "sent"
	MailJobFailed  = "failed"
	MailJobSkipped = "skipped"
	MailJobDropped = "dropped"
)

type admissionRepository interface {
	Create(ctx context.Context, item *models.AdmissionEnquiry) error
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionEnquiry, int, error)
	FindByID(ctx context.Context, id string) (*models.AdmissionEnquiry, error)
	UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AdmissionRequest is submitted from the public admissions form.
type AdmissionRequest struct {
	StudentName   string `json:"student_name" validate:"required,max=120"`
	ParentName    string `json:"parent_name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email,max=160"`
	Phone         string `json:"phone" validate:"required,max=30"`
	GradeApplying string `json:"grade_applying" validate:"required,max=40"`
	Message       string `json:"message" validate:"max=2000"`
}

type AdmissionStatusRequest struct {
	Status models.EnquiryStatus `json:"status" validate:"required"`
}

// AdmissionService records enquiries and queues staff notifications.
type AdmissionService struct {
	repo          admissionRepository
	notifications jobEnqueuer
	audit         auditRepository
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

func NewAdmissionService(repo admissionRepository, notifications jobEnqueuer, audit auditRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdmissionService{repo: repo, notifications: notifications, audit: audit, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Submit stores a public enquiry. A failure to queue the notification is
// logged; the enquiry is still accepted.
func (s *AdmissionService) Submit(ctx context.Context, req AdmissionRequest, meta models.RequestMeta) (*models.AdmissionEnquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid admission enquiry")
	}
	item := &models.AdmissionEnquiry{
		StudentName:   strings.TrimSpace(req.StudentName),
		ParentName:    strings.TrimSpace(req.ParentName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		GradeApplying: strings.TrimSpace(req.GradeApplying),
		Message:       strings.TrimSpace(req.Message),
		Status:        models.EnquiryStatusNew,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to save admission enquiry")
	}
	_ = s.cache.Invalidate(ctx, dashboardPattern())
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceAdmission, item.ID, nil, item)

	if s.notifications != nil {
		if err := s.notifications.Enqueue(jobs.Job{Type: JobTypeAdmissionNotification, Payload: *item}); err != nil {
			s.metrics.RecordMailJob(MailJobDropped)
			s.logger.Warn("failed to queue admission notification", zap.String("enquiry_id", item.ID), zap.Error(err))
		}
	}
	return item, nil
}

func (s *AdmissionService) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionEnquiry, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list admission enquiries")
	}
	return items, newPagination(filter.Page, filter.PageSize, total), nil
}

func (s *AdmissionService) Get(ctx context.Context, id string) (*models.AdmissionEnquiry, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission enquiry not found")
		}
		return nil, internalError(err, "failed to load admission enquiry")
	}
	return item, nil
}

func (s *AdmissionService) UpdateStatus(ctx context.Context, id string, req AdmissionStatusRequest, meta models.RequestMeta) (*models.AdmissionEnquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be NEW, CONTACTED or CLOSED")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission enquiry not found")
		}
		return nil, internalError(err, "failed to update admission enquiry")
	}
	item.Status = req.Status
	_ = s.cache.Invalidate(ctx, dashboardPattern())
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceAdmission, id, before, item)
	return item, nil
}

// AdmissionNotifier is the queue handler that emails staff about enquiries.
type AdmissionNotifier struct {
	sender     mail.Sender
	recipients []string
	metrics    *MetricsService
	logger     *zap.Logger
}

func NewAdmissionNotifier(sender mail.Sender, recipients []string, metrics *MetricsService, logger *zap.Logger) *AdmissionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionNotifier{sender: sender, recipients: recipients, metrics: metrics, logger: logger}
}

// Handle implements jobs.Handler. Returned errors are retried by the queue.
func (n *AdmissionNotifier) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeAdmissionNotification {
		return nil
	}
	enquiry, ok := job.Payload.(models.AdmissionEnquiry)
	if !ok {
		n.metrics.RecordMailJob(MailJobSkipped)
		n.logger.Error("unexpected admission notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if len(n.recipients) == 0 {
		n.metrics.RecordMailJob(MailJobSkipped)
		n.logger.Info("no staff recipients configured, skipping admission notification", zap.String("enquiry_id", enquiry.ID))
		return nil
	}
	if err := n.sender.Send(ctx, admissionMessage(n.recipients, enquiry)); err != nil {
		n.metrics.RecordMailJob(MailJobFailed)
		return fmt.Errorf("send admission notification: %w", err)
	}
	n.metrics.RecordMailJob(MailJobSent)
	n.logger.Info("admission notification sent", zap.String("enquiry_id", enquiry.ID), zap.Int("attempt", job.Attempt))
	return nil
}

func admissionMessage(recipients []string, e models.AdmissionEnquiry) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A new admission enquiry was submitted.\n\n")
	fmt.Fprintf(&b, "Student: %s\n", e.StudentName)
	fmt.Fprintf(&b, "Grade applying for: %s\n", e.GradeApplying)
	fmt.Fprintf(&b, "Parent: %s\n", e.ParentName)
	fmt.Fprintf(&b, "Email: %s\n", e.Email)
	fmt.Fprintf(&b, "Phone: %s\n", e.Phone)
	if e.Message != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", e.Message)
	}
	return mail.Message{
		To:      recipients,
		ReplyTo: e.Email,
		Subject: "New admission enquiry: " + e.StudentName,
		Text:    b.String(),
	}
}
