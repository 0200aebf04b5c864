package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakePublicResults struct {
	searchErr error
	token     string
}

func (f *fakePublicResults) Search(ctx context.Context, req service.PublicSearchRequest) (*service.PublicResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &service.PublicResult{Student: service.PublicStudent{RollNumber: req.RollNumber}}, nil
}

func (f *fakePublicResults) Marksheet(ctx context.Context, token string) (*service.ExportFile, error) {
	f.token = token
	if token == "expired" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "marksheet link has expired")
	}
	return &service.ExportFile{Filename: "marksheet.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func TestPublicSearchGateClosed(t *testing.T) {
	h := NewPublicResultHandler(&fakePublicResults{searchErr: appErrors.ErrNotPublished})
	router := newTestRouter()
	router.POST("/public/results/search", h.Search)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/public/results/search", map[string]string{"academic_year": "2024", "roll_number": "7"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "RESULTS_NOT_PUBLISHED", decodeEnvelope(t, rec).Error.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestPublicSearchSuccess(t *testing.T) {
	h := NewPublicResultHandler(&fakePublicResults{})
	router := newTestRouter()
	router.POST("/public/results/search", h.Search)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/public/results/search", map[string]string{"academic_year": "2024", "roll_number": "7", "enrollment_number": "E7"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"roll_number":"7"`)
}

func TestPublicMarksheetDownload(t *testing.T) {
	svc := &fakePublicResults{}
	h := NewPublicResultHandler(svc)
	router := newTestRouter()
	router.GET("/public/results/marksheet/:token", h.Marksheet)

	rec := serve(router, jsonRequest(t, http.MethodGet, "/public/results/marksheet/tok123", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok123", svc.token)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = serve(router, jsonRequest(t, http.MethodGet, "/public/results/marksheet/expired", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
