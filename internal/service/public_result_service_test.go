package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

// countingStudents records roll number lookups.
type countingStudents struct {
	fakeClassStudents
	lookups int
}

func (c *countingStudents) FindByRollNumber(ctx context.Context, academicYear, rollNumber string) (*models.Student, error) {
	c.lookups++
	return c.fakeClassStudents.FindByRollNumber(ctx, academicYear, rollNumber)
}

type publicFixture struct {
	svc          *PublicResultService
	students     *countingStudents
	publications *fakePublicationRepo
	results      *resultFixture
	store        *memoryCache
}

func newPublicFixture(t *testing.T, gate *models.ResultPublication) *publicFixture {
	t.Helper()
	rf := newResultFixture()
	dob := models.NewDate(time.Date(2010, 4, 2, 0, 0, 0, 0, time.UTC))
	rf.students.students["s1"].DateOfBirth = dob
	rf.students.students["s1"].FatherName = "Ram"
	_, err := rf.svc.UpsertMarks(context.Background(), "s1", UpsertMarksRequest{Marks: coreMarks(80, 50, 20), Remarks: "Excellent"}, models.RequestMeta{})
	require.NoError(t, err)

	publications := newFakePublicationRepo()
	if gate != nil {
		publications.items[gate.AcademicYear] = gate
	}
	students := &countingStudents{fakeClassStudents: fakeClassStudents{rf.students}}
	store := newMemoryCache()
	svc := NewPublicResultService(students, rf.results, newFakeClassRepo(models.Class{ID: "c10", Name: "Class 10"}), publications,
		storage.NewSigner("marksheet-secret", time.Hour), NewCacheService(store, nil, time.Minute, nil, true), nil, nil, nil,
		PublicResultConfig{SchoolName: "Springfield High"})
	svc.now = func() time.Time { return gateNow }
	return &publicFixture{svc: svc, students: students, publications: publications, results: rf, store: store}
}

func openGate() *models.ResultPublication {
	return &models.ResultPublication{ID: "p1", AcademicYear: "2025", PublishDate: gateNow.Add(-time.Hour)}
}

func TestPublicSearchReturnsVerifiedResult(t *testing.T) {
	f := newPublicFixture(t, openGate())

	res, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "e-101"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", res.Student.Name)
	assert.Equal(t, "Class 10", res.Student.ClassName)
	assert.Equal(t, 75.0, res.Totals.Percentage)
	assert.True(t, res.Totals.IsPassed)
	require.Len(t, res.Marks, 2)
	assert.NotEmpty(t, res.MarksheetToken)
	assert.Contains(t, f.store.values, publicResultKey("2025", "s1"))

	byDOB, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", DateOfBirth: "2010-04-02"})
	require.NoError(t, err)
	assert.Equal(t, "Excellent", byDOB.Remarks)
}

func TestPublicSearchGateClosed(t *testing.T) {
	cases := map[string]*models.ResultPublication{
		"no publication row":  nil,
		"future publish date": {ID: "p1", AcademicYear: "2025", PublishDate: gateNow.Add(time.Hour)},
	}
	for name, gate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newPublicFixture(t, gate)

			_, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "E-101"})
			appErr := appErrors.FromError(err)
			assert.Equal(t, "RESULTS_NOT_PUBLISHED", appErr.Code)
			assert.Equal(t, 403, appErr.Status)
			assert.Zero(t, f.students.lookups)
		})
	}
}

func TestPublicSearchExplicitlyPublishedBeforeDate(t *testing.T) {
	f := newPublicFixture(t, &models.ResultPublication{ID: "p1", AcademicYear: "2025", PublishDate: gateNow.Add(time.Hour), IsPublished: true})

	_, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "E-101"})
	require.NoError(t, err)
}

func TestPublicSearchIdentityFailuresAreIndistinguishable(t *testing.T) {
	f := newPublicFixture(t, openGate())

	requests := []PublicSearchRequest{
		{AcademicYear: "2025", RollNumber: "999", EnrollmentNumber: "E-101"},
		{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "E-102"},
		{AcademicYear: "2025", RollNumber: "101", DateOfBirth: "2011-01-01"},
		{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "E-101", DateOfBirth: "2011-01-01"},
		{AcademicYear: "2025", RollNumber: "102", EnrollmentNumber: "E-102"},
	}
	for _, req := range requests {
		_, err := f.svc.Search(context.Background(), req)
		appErr := appErrors.FromError(err)
		assert.Equal(t, 404, appErr.Status)
		assert.Equal(t, "no result matches the details provided", appErr.Message)
	}
}

func TestPublicSearchValidation(t *testing.T) {
	f := newPublicFixture(t, openGate())

	_, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101"})
	assert.Equal(t, "enrollment_number or date_of_birth is required", appErrors.FromError(err).Message)

	_, err = f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", DateOfBirth: "02/04/2010"})
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	_, err = f.svc.Search(context.Background(), PublicSearchRequest{RollNumber: "101", EnrollmentNumber: "E-101"})
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Zero(t, f.students.lookups)
}

func TestPublicMarksheet(t *testing.T) {
	f := newPublicFixture(t, openGate())
	res, err := f.svc.Search(context.Background(), PublicSearchRequest{AcademicYear: "2025", RollNumber: "101", EnrollmentNumber: "E-101"})
	require.NoError(t, err)

	file, err := f.svc.Marksheet(context.Background(), res.MarksheetToken)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "marksheet-2025-101.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	_, err = f.svc.Marksheet(context.Background(), res.MarksheetToken+"x")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	f.publications.items["2025"].PublishDate = gateNow.Add(time.Hour)
	_, err = f.svc.Marksheet(context.Background(), res.MarksheetToken)
	assert.Equal(t, "RESULTS_NOT_PUBLISHED", appErrors.FromError(err).Code)
}
