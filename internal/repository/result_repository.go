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

const resultColumns = `r.id, r.student_id, r.academic_year, r.total_marks, r.max_total_marks, r.percentage, r.is_passed,
	r.remarks, r.created_at, r.updated_at`

// ResultRecord is a computed result with its marks, ready to persist.
// When Student is set it is inserted (empty ID) or updated first.
type ResultRecord struct {
	Student *models.Student
	Result  *models.Result
	Marks   []models.SubjectMark
}

// RecordError identifies which record of a batch failed.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ResultRepository persists results and their subject marks.
type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRow, int, error) {
	var cond conditions
	if filter.AcademicYear != "" {
		cond.add("r.academic_year = ?", filter.AcademicYear)
	}
	if filter.ClassID != "" {
		cond.add("s.class_id = ?", filter.ClassID)
	}
	if filter.Passed != nil {
		cond.add("r.is_passed = ?", *filter.Passed)
	}
	if filter.Search != "" {
		cond.add("(LOWER(s.name) LIKE ? OR LOWER(s.roll_number) LIKE ?)", likePattern(filter.Search))
	}
	base := "FROM results r JOIN students s ON s.id = r.student_id JOIN classes c ON c.id = s.class_id WHERE 1=1" + cond.where()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"roll_number": "s.roll_number",
		"name":        "s.name",
		"percentage":  "r.percentage",
		"total_marks": "r.total_marks",
	}, "s.roll_number ASC")
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	rows := make([]models.ResultRow, 0)
	query := fmt.Sprintf(`SELECT %s, s.roll_number, s.enrollment_number, s.name AS student_name, s.class_id, c.name AS class_name %s ORDER BY %s %s`,
		resultColumns, base, order, window)
	if err := r.db.SelectContext(ctx, &rows, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	return rows, total, nil
}

// ListForExport returns every result row of a class and year without paging.
func (r *ResultRepository) ListForExport(ctx context.Context, classID, academicYear string) ([]models.ResultRow, error) {
	query := `SELECT ` + resultColumns + `, s.roll_number, s.enrollment_number, s.name AS student_name, s.class_id, c.name AS class_name
		FROM results r JOIN students s ON s.id = r.student_id JOIN classes c ON c.id = s.class_id
		WHERE s.class_id = $1 AND r.academic_year = $2 ORDER BY s.roll_number`
	rows := make([]models.ResultRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, classID, academicYear); err != nil {
		return nil, fmt.Errorf("list results for export: %w", err)
	}
	return rows, nil
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results r WHERE r.id = $1`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find result: %w", err)
	}
	return &result, nil
}

// FindByStudentYear returns the student's result for the academic year.
func (r *ResultRepository) FindByStudentYear(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results r WHERE r.student_id = $1 AND r.academic_year = $2`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, studentID, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student result: %w", err)
	}
	return &result, nil
}

// ListMarks returns the marks of a result in subject display order.
func (r *ResultRepository) ListMarks(ctx context.Context, resultID string) ([]models.SubjectMarkDetail, error) {
	const query = `SELECT m.id, m.result_id, m.subject_id, m.marks_obtained, m.theory_marks, m.practical_marks,
		m.is_passed, m.theory_passed, m.practical_passed,
		sub.name AS subject_name, sub.code AS subject_code, sub.position, sub.is_additional, sub.has_practical,
		sub.max_marks, sub.passing_marks
		FROM subject_marks m JOIN subjects sub ON sub.id = m.subject_id
		WHERE m.result_id = $1 ORDER BY sub.position ASC, sub.name ASC`
	marks := make([]models.SubjectMarkDetail, 0)
	if err := r.db.SelectContext(ctx, &marks, query, resultID); err != nil {
		return nil, fmt.Errorf("list subject marks: %w", err)
	}
	return marks, nil
}

// ListRawMarks returns the stored marks of a result without subject data.
func (r *ResultRepository) ListRawMarks(ctx context.Context, resultID string) ([]models.SubjectMark, error) {
	const query = `SELECT id, result_id, subject_id, marks_obtained, theory_marks, practical_marks, is_passed, theory_passed, practical_passed
		FROM subject_marks WHERE result_id = $1`
	marks := make([]models.SubjectMark, 0)
	if err := r.db.SelectContext(ctx, &marks, query, resultID); err != nil {
		return nil, fmt.Errorf("list raw subject marks: %w", err)
	}
	return marks, nil
}

// Save upserts a single result and replaces its marks atomically.
func (r *ResultRepository) Save(ctx context.Context, record ResultRecord) error {
	return r.SaveBatch(ctx, []ResultRecord{record})
}

// SaveBatch persists every record in one transaction. The first failure
// rolls the whole batch back and is returned as a *RecordError.
func (r *ResultRepository) SaveBatch(ctx context.Context, records []ResultRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save results: %w", err)
	}
	for i := range records {
		if err := saveRecord(ctx, tx, &records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return &RecordError{Index: i, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save results: %w", err)
	}
	return nil
}

func saveRecord(ctx context.Context, tx *sqlx.Tx, record *ResultRecord) error {
	if record.Student != nil {
		var err error
		if record.Student.ID == "" {
			err = insertStudent(ctx, tx, record.Student)
		} else {
			err = updateStudent(ctx, tx, record.Student)
		}
		if err != nil {
			return err
		}
		record.Result.StudentID = record.Student.ID
	}

	result := record.Result
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const upsert = `INSERT INTO results (id, student_id, academic_year, total_marks, max_total_marks, percentage, is_passed, remarks, created_at, updated_at)
		VALUES (:id, :student_id, :academic_year, :total_marks, :max_total_marks, :percentage, :is_passed, :remarks, :created_at, :updated_at)
		ON CONFLICT (student_id, academic_year) DO UPDATE SET
			total_marks = EXCLUDED.total_marks,
			max_total_marks = EXCLUDED.max_total_marks,
			percentage = EXCLUDED.percentage,
			is_passed = EXCLUDED.is_passed,
			remarks = EXCLUDED.remarks,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	query, args, err := sqlx.Named(upsert, result)
	if err != nil {
		return fmt.Errorf("bind result upsert: %w", err)
	}
	if err := tx.GetContext(ctx, &result.ID, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_marks WHERE result_id = $1`, result.ID); err != nil {
		return fmt.Errorf("clear subject marks: %w", err)
	}
	const insertMark = `INSERT INTO subject_marks (id, result_id, subject_id, marks_obtained, theory_marks, practical_marks, is_passed, theory_passed, practical_passed)
		VALUES (:id, :result_id, :subject_id, :marks_obtained, :theory_marks, :practical_marks, :is_passed, :theory_passed, :practical_passed)`
	for i := range record.Marks {
		mark := &record.Marks[i]
		mark.ID = uuid.NewString()
		mark.ResultID = result.ID
		if _, err := tx.NamedExecContext(ctx, insertMark, mark); err != nil {
			return fmt.Errorf("insert subject mark: %w", err)
		}
	}
	return nil
}

// ListYearsByClass returns the academic years that hold results of
// students enrolled in the class.
func (r *ResultRepository) ListYearsByClass(ctx context.Context, classID string) ([]string, error) {
	const query = `SELECT DISTINCT r.academic_year FROM results r JOIN students s ON s.id = r.student_id
		WHERE s.class_id = $1 ORDER BY r.academic_year`
	years := make([]string, 0)
	if err := r.db.SelectContext(ctx, &years, query, classID); err != nil {
		return nil, fmt.Errorf("list result years: %w", err)
	}
	return years, nil
}

func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
