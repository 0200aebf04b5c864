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

const studentColumns = `s.id, s.roll_number, s.enrollment_number, s.name, s.father_name, s.mother_name, s.date_of_birth,
	s.class_id, s.academic_year, s.additional_subject_ids, s.created_at, s.updated_at`

// StudentRepository manages students per academic year.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var cond conditions
	if filter.AcademicYear != "" {
		cond.add("s.academic_year = ?", filter.AcademicYear)
	}
	if filter.ClassID != "" {
		cond.add("s.class_id = ?", filter.ClassID)
	}
	if filter.Search != "" {
		cond.add("(LOWER(s.name) LIKE ? OR LOWER(s.roll_number) LIKE ? OR LOWER(s.enrollment_number) LIKE ?)", likePattern(filter.Search))
	}
	base := "FROM students s JOIN classes c ON c.id = s.class_id WHERE 1=1" + cond.where()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"roll_number": "s.roll_number",
		"name":        "s.name",
		"created_at":  "s.created_at",
	}, "s.roll_number ASC")
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	students := make([]models.StudentDetail, 0)
	query := fmt.Sprintf("SELECT %s, c.name AS class_name %s ORDER BY %s %s", studentColumns, base, order, window)
	if err := r.db.SelectContext(ctx, &students, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByRollNumber looks a student up by roll number within an academic year.
func (r *StudentRepository) FindByRollNumber(ctx context.Context, academicYear, rollNumber string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.academic_year = $1 AND s.roll_number = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, academicYear, rollNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by roll number: %w", err)
	}
	return &student, nil
}

// ListByClassYear returns every student of a class in an academic year.
func (r *StudentRepository) ListByClassYear(ctx context.Context, classID, academicYear string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.class_id = $1 AND s.academic_year = $2 ORDER BY s.roll_number`
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, classID, academicYear); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, academicYear, rollNumber, excludeID string) (bool, error) {
	return r.exists(ctx, "roll_number", academicYear, rollNumber, excludeID)
}

func (r *StudentRepository) ExistsByEnrollmentNumber(ctx context.Context, academicYear, enrollmentNumber, excludeID string) (bool, error) {
	return r.exists(ctx, "enrollment_number", academicYear, enrollmentNumber, excludeID)
}

func (r *StudentRepository) exists(ctx context.Context, column, academicYear, value, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM students WHERE academic_year = $1 AND %s = $2`, column)
	args := []interface{}{academicYear, value}
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
		return false, fmt.Errorf("check student %s: %w", column, err)
	}
	return true, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return insertStudent(ctx, r.db, student)
}

func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	return updateStudent(ctx, r.db, student)
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const (
	insertStudentQuery = `INSERT INTO students (id, roll_number, enrollment_number, name, father_name, mother_name, date_of_birth,
		class_id, academic_year, additional_subject_ids, created_at, updated_at)
		VALUES (:id, :roll_number, :enrollment_number, :name, :father_name, :mother_name, :date_of_birth,
		:class_id, :academic_year, :additional_subject_ids, :created_at, :updated_at)`
	updateStudentQuery = `UPDATE students SET roll_number = :roll_number, enrollment_number = :enrollment_number, name = :name,
		father_name = :father_name, mother_name = :mother_name, date_of_birth = :date_of_birth, class_id = :class_id,
		academic_year = :academic_year, additional_subject_ids = :additional_subject_ids, updated_at = :updated_at
		WHERE id = :id`
)

func insertStudent(ctx context.Context, db sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.AdditionalSubjectIDs == nil {
		student.AdditionalSubjectIDs = []string{}
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	if _, err := sqlx.NamedExecContext(ctx, db, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func updateStudent(ctx context.Context, db sqlx.ExtContext, student *models.Student) error {
	if student.AdditionalSubjectIDs == nil {
		student.AdditionalSubjectIDs = []string{}
	}
	student.UpdatedAt = time.Now().UTC()
	if _, err := sqlx.NamedExecContext(ctx, db, updateStudentQuery, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
