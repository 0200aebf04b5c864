package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const admissionColumns = `id, student_name, parent_name, email, phone, grade_applying, message, status, created_at, updated_at`

// AdmissionRepository stores admission enquiries.
type AdmissionRepository struct {
	db *sqlx.DB
}

func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) Create(ctx context.Context, item *models.AdmissionEnquiry) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.EnquiryStatusNew
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO admission_enquiries (id, student_name, parent_name, email, phone, grade_applying, message, status, created_at, updated_at)
		VALUES (:id, :student_name, :parent_name, :email, :phone, :grade_applying, :message, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create admission enquiry: %w", err)
	}
	return nil
}

func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionEnquiry, int, error) {
	var cond conditions
	if filter.Status != "" {
		cond.add("status = ?", filter.Status)
	}
	if filter.Search != "" {
		cond.add("(LOWER(student_name) LIKE ? OR LOWER(parent_name) LIKE ? OR LOWER(email) LIKE ?)", likePattern(filter.Search))
	}
	base := "FROM admission_enquiries WHERE 1=1" + cond.where()
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	items := make([]models.AdmissionEnquiry, 0)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC %s", admissionColumns, base, window)
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list admission enquiries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count admission enquiries: %w", err)
	}
	return items, total, nil
}

func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.AdmissionEnquiry, error) {
	var item models.AdmissionEnquiry
	if err := r.db.GetContext(ctx, &item, `SELECT `+admissionColumns+` FROM admission_enquiries WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admission enquiry: %w", err)
	}
	return &item, nil
}

func (r *AdmissionRepository) UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admission_enquiries SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update admission status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
