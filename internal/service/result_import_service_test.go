package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

const importHeader = "roll_number,enrollment_number,name,father_name,mother_name,date_of_birth,additional_subjects,ENG,PHY_TH,PHY_PR,MUS\n"

func newImportFixture(maxRows int) (*ResultImportService, *resultFixture) {
	f := newResultFixture()
	svc := NewResultImportService(f.results, fakeClassStudents{f.students}, newFakeClassRepo(models.Class{ID: "c10", Name: "Class 10"}), f.subjects, f.audit,
		NewCacheService(f.store, nil, time.Minute, nil, true), nil, nil, nil, ImportConfig{MaxRows: maxRows})
	return svc, f
}

func importCSV(rows ...string) *strings.Reader {
	return strings.NewReader(importHeader + strings.Join(rows, "\n") + "\n")
}

func TestResultImportAtomicCreatesAndUpdates(t *testing.T) {
	svc, f := newImportFixture(0)

	summary, err := svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10"}, importCSV(
		"101,E-101,Asha Rao,Ram,Sita,2010-04-02,,80,50,20,",
		"103,E-103,Kiran,,,2010-05-01,mus,70,40,25,30",
	), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, ImportModeAtomic, summary.Mode)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Created)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 1, f.results.batches)

	updated, err := f.results.FindByStudentYear(context.Background(), "s1", "2025")
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.Percentage)
	assert.Equal(t, "Asha Rao", f.results.students["s1"].Name)
	assert.Contains(t, f.store.invalidated, publicResultYearPattern("2025"))
	assert.Equal(t, []string{models.AuditActionImport}, f.audit.actions())
}

func TestResultImportAtomicAbortsOnFirstFailure(t *testing.T) {
	svc, f := newImportFixture(0)

	_, err := svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10", Mode: ImportModeAtomic}, importCSV(
		"103,E-103,Kiran,,,2010-05-01,,70,40,25,",
		"104,E-104,Meera,,,2010-05-01,,120,40,25,",
		"105,E-105,Dev,,,not-a-date,,70,40,25,",
	), models.RequestMeta{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.True(t, strings.HasPrefix(appErr.Message, "import aborted at row 3:"), appErr.Message)
	assert.Empty(t, f.results.results)
	assert.Zero(t, f.results.batches)
}

func TestResultImportPartialReportsRowErrors(t *testing.T) {
	svc, f := newImportFixture(0)

	summary, err := svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10", Mode: ImportModePartialOnError}, importCSV(
		"103,E-103,Kiran,,,2010-05-01,,70,40,25,",
		"103,E-113,Copy,,,2010-05-01,,70,40,25,",
		"101,E-999,Asha,,,2010-04-02,,80,50,20,",
		"106,E-106,Noor,,,2010-05-01,,70,,25,",
		"107,E-107,Lal,,,2010-05-01,ENG,70,40,25,",
	), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalRows)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 4, summary.Failed)
	require.Len(t, summary.Errors, 4)
	assert.Equal(t, ImportRowError{Row: 3, RollNumber: "103", Message: "roll number 103 already appears in row 2"}, summary.Errors[0])
	assert.Equal(t, "enrollment number does not match the student with this roll number", summary.Errors[1].Message)
	assert.Equal(t, "theory and practical marks are both required for subject PHY", summary.Errors[2].Message)
	assert.Equal(t, "subject ENG is not an additional subject", summary.Errors[3].Message)
	assert.Len(t, f.results.results, 1)
}

func TestResultImportRejectsExistingEnrollmentForNewStudent(t *testing.T) {
	svc, _ := newImportFixture(0)

	summary, err := svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10", Mode: ImportModePartialOnError}, importCSV(
		"150,E-102,Clash,,,2010-05-01,,70,40,25,",
	), models.RequestMeta{})
	require.NoError(t, err)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "enrollment number already exists for this academic year", summary.Errors[0].Message)
}

func TestResultImportValidatesHeader(t *testing.T) {
	svc, _ := newImportFixture(0)
	req := ImportRequest{AcademicYear: "2025", ClassID: "c10"}

	_, err := svc.Import(context.Background(), req, strings.NewReader("roll_number,enrollment_number,name,date_of_birth,PHY_TH,PHY_PR\n1,E1,A,2010-01-01,1,1\n"), models.RequestMeta{})
	assert.Equal(t, "missing column ENG", appErrors.FromError(err).Message)

	_, err = svc.Import(context.Background(), req, strings.NewReader("roll_number,enrollment_number,name,date_of_birth,ENG,PHY_TH,PHY_PR,XYZ\n1,E1,A,2010-01-01,1,1,1,1\n"), models.RequestMeta{})
	assert.Equal(t, "unknown column XYZ", appErrors.FromError(err).Message)

	_, err = svc.Import(context.Background(), req, strings.NewReader(importHeader), models.RequestMeta{})
	assert.Equal(t, "import file has no data rows", appErrors.FromError(err).Message)

	_, err = svc.Import(context.Background(), req, strings.NewReader(""), models.RequestMeta{})
	assert.Equal(t, "import file is empty", appErrors.FromError(err).Message)

	_, err = svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10", Mode: "best-effort"}, importCSV("1"), models.RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResultImportEnforcesRowLimit(t *testing.T) {
	svc, _ := newImportFixture(1)

	_, err := svc.Import(context.Background(), ImportRequest{AcademicYear: "2025", ClassID: "c10"}, importCSV(
		"103,E-103,Kiran,,,2010-05-01,,70,40,25,",
		"104,E-104,Meera,,,2010-05-01,,70,40,25,",
	), models.RequestMeta{})
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}
