package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

var studentRowColumns = []string{"id", "roll_number", "enrollment_number", "name", "father_name", "mother_name", "date_of_birth",
	"class_id", "academic_year", "additional_subject_ids", "created_at", "updated_at"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	dob := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(append(append([]string{}, studentRowColumns...), "class_name")).
		AddRow("s1", "101", "EN-1", "Asha", "Ravi", "Mira", dob, "c1", "2024-25", "{sub-music}", now, now, "Class 10")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s JOIN classes c ON c.id = s.class_id WHERE 1=1 AND s.academic_year = $1 AND s.class_id = $2 ORDER BY s.roll_number ASC LIMIT 20 OFFSET 0")).
		WithArgs("2024-25", "c1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s JOIN classes c")).
		WithArgs("2024-25", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{AcademicYear: "2024-25", ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Class 10", students[0].ClassName)
	assert.Equal(t, "2008-03-14", students[0].DateOfBirth.String())
	assert.True(t, students[0].OptsInto("sub-music"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByRollNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE academic_year = $1 AND roll_number = $2 LIMIT 1")).
		WithArgs("2024-25", "101").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE academic_year = $1 AND enrollment_number = $2 AND id <> $3 LIMIT 1")).
		WithArgs("2024-25", "EN-1", "s1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByRollNumber(context.Background(), "2024-25", "101", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEnrollmentNumber(context.Background(), "2024-25", "EN-1", "s1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))

	dob, _ := models.ParseDate("2008-03-14")
	student := &models.Student{RollNumber: "101", EnrollmentNumber: "EN-1", Name: "Asha", DateOfBirth: dob, ClassID: "c1", AcademicYear: "2024-25"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NotNil(t, student.AdditionalSubjectIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, sql.ErrNoRows, repo.Delete(context.Background(), "nope"))
}
