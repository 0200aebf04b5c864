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

const subjectColumns = `id, class_id, name, code, position, is_additional, has_practical, max_marks, passing_marks,
	theory_max_marks, theory_passing_marks, practical_max_marks, practical_passing_marks, created_at, updated_at`

// SubjectRepository manages the subjects of each class.
type SubjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByClass returns the class subjects in display order.
func (r *SubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE class_id = $1 ORDER BY position ASC, name ASC`
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ExistsByCode checks the per-class code uniqueness.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, classID, code, excludeID string) (bool, error) {
	query := `SELECT 1 FROM subjects WHERE class_id = $1 AND UPPER(code) = UPPER($2)`
	args := []interface{}{classID, code}
	if excludeID != "" {
		query += ` AND id <> $3`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, class_id, name, code, position, is_additional, has_practical, max_marks, passing_marks,
		theory_max_marks, theory_passing_marks, practical_max_marks, practical_passing_marks, created_at, updated_at)
		VALUES (:id, :class_id, :name, :code, :position, :is_additional, :has_practical, :max_marks, :passing_marks,
		:theory_max_marks, :theory_passing_marks, :practical_max_marks, :practical_passing_marks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, code = :code, position = :position, is_additional = :is_additional,
		has_practical = :has_practical, max_marks = :max_marks, passing_marks = :passing_marks,
		theory_max_marks = :theory_max_marks, theory_passing_marks = :theory_passing_marks,
		practical_max_marks = :practical_max_marks, practical_passing_marks = :practical_passing_marks,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// CountMarks returns how many subject marks reference the subject.
func (r *SubjectRepository) CountMarks(ctx context.Context, id string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subject_marks WHERE subject_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count subject marks: %w", err)
	}
	return total, nil
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Reorder updates positions for subjects of a class in one transaction.
func (r *SubjectRepository) Reorder(ctx context.Context, classID string, orders []models.SubjectOrder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder subjects: %w", err)
	}
	now := time.Now().UTC()
	for _, o := range orders {
		res, err := tx.ExecContext(ctx, `UPDATE subjects SET position = $1, updated_at = $2 WHERE id = $3 AND class_id = $4`, o.Position, now, o.SubjectID, classID)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("reorder subject %s: %w", o.SubjectID, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			tx.Rollback() //nolint:errcheck
			return sql.ErrNoRows
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder subjects: %w", err)
	}
	return nil
}
