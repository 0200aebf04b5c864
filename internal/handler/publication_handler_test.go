package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakePublicationService struct {
	year string
	req  service.PublicationRequest
	meta models.RequestMeta
}

func (f *fakePublicationService) List(ctx context.Context) ([]models.PublicationStatus, error) {
	return []models.PublicationStatus{}, nil
}

func (f *fakePublicationService) Get(ctx context.Context, academicYear string) (*models.PublicationStatus, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "result publication not found")
}

func (f *fakePublicationService) Upsert(ctx context.Context, academicYear string, req service.PublicationRequest, meta models.RequestMeta) (*models.PublicationStatus, error) {
	f.year = academicYear
	f.req = req
	f.meta = meta
	return &models.PublicationStatus{ResultPublication: models.ResultPublication{AcademicYear: academicYear, PublishDate: req.PublishDate.UTC()}}, nil
}

func (f *fakePublicationService) Publish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error) {
	return &models.PublicationStatus{Visible: true}, nil
}

func (f *fakePublicationService) Unpublish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error) {
	return &models.PublicationStatus{}, nil
}

func (f *fakePublicationService) Delete(ctx context.Context, academicYear string, meta models.RequestMeta) error {
	return nil
}

func TestPublicationUpsertAcceptsDateAndTimestamp(t *testing.T) {
	svc := &fakePublicationService{}
	router := newTestRouter()
	router.PUT("/result-publications/:academicYear", asUser("u-admin", models.RoleAdmin), NewPublicationHandler(svc).Upsert)

	rec := serve(router, jsonRequest(t, http.MethodPut, "/result-publications/2026", map[string]interface{}{"publish_date": "2026-05-01"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026", svc.year)
	assert.True(t, svc.req.PublishDate.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "u-admin", svc.meta.ActorID)

	rec = serve(router, jsonRequest(t, http.MethodPut, "/result-publications/2026", map[string]interface{}{"publish_date": "2026-05-01T10:00:00Z", "is_published": true}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.req.PublishDate.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, svc.req.IsPublished)

	rec = serve(router, jsonRequest(t, http.MethodPut, "/result-publications/2026", map[string]interface{}{"publish_date": "May 1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
