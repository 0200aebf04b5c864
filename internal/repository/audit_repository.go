package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// AuditRepository persists the admin audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	var cond conditions
	if filter.Resource != "" {
		cond.add("resource = ?", filter.Resource)
	}
	if filter.UserID != "" {
		cond.add("user_id = ?", filter.UserID)
	}
	base := "FROM audit_logs WHERE 1=1" + cond.where()
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	logs := make([]models.AuditLog, 0)
	query := fmt.Sprintf("SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at %s ORDER BY created_at DESC %s", base, window)
	if err := r.db.SelectContext(ctx, &logs, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	return logs, total, nil
}
