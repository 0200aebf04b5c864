package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func TestFacilityServiceCRUD(t *testing.T) {
	store := newFakeMediaStore()
	audit := &fakeAuditRepo{}
	svc := NewFacilityService(newFakeFacilityRepo(), newTestMedia(store), audit, nil, nil)

	lab, err := svc.Create(context.Background(), FacilityRequest{Name: "Science Lab", Description: " Two labs "}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "science-lab", lab.Slug)
	assert.Equal(t, "Two labs", lab.Description)

	withImage, err := svc.UploadImage(context.Background(), lab.ID, []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	assert.Contains(t, withImage.ImageURL, "uploads/facilities/")

	got, err := svc.GetBySlug(context.Background(), "science-lab")
	require.NoError(t, err)
	assert.Equal(t, withImage.ImageURL, got.ImageURL)

	require.NoError(t, svc.Delete(context.Background(), lab.ID, models.RequestMeta{}))
	assert.Empty(t, store.objects)
	_, err = svc.GetBySlug(context.Background(), "science-lab")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete}, audit.actions())
}
