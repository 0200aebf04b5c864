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

// ClassRepository manages classes.
type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	var cond conditions
	if filter.Search != "" {
		cond.add("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	base := "FROM classes WHERE 1=1" + cond.where()
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	classes := make([]models.Class, 0)
	query := fmt.Sprintf("SELECT id, name, position, created_at, updated_at %s ORDER BY position ASC, name ASC %s", base, window)
	if err := r.db.SelectContext(ctx, &classes, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, position, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// ExistsByName checks for another class with the same name, ignoring case.
func (r *ClassRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT 1 FROM classes WHERE LOWER(name) = LOWER($1)`
	args := []interface{}{name}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class name: %w", err)
	}
	return true, nil
}

func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, position, created_at, updated_at) VALUES (:id, :name, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Dependents counts subjects and students attached to the class.
func (r *ClassRepository) Dependents(ctx context.Context, id string) (models.ClassDependents, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM subjects WHERE class_id = $1) AS subjects,
		(SELECT COUNT(*) FROM students WHERE class_id = $1) AS students`
	var deps models.ClassDependents
	if err := r.db.GetContext(ctx, &deps, query, id); err != nil {
		return deps, fmt.Errorf("count class dependents: %w", err)
	}
	return deps, nil
}

func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
