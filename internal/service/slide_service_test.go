package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func TestSlideServiceActivationNeedsImage(t *testing.T) {
	repo := newFakeSlideRepo()
	svc := NewSlideService(repo, newTestMedia(newFakeMediaStore()), &fakeAuditRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), SlideRequest{Title: "Welcome", Active: true}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	slide, err := svc.Create(context.Background(), SlideRequest{Title: "Welcome", LinkURL: "https://school.test/admissions"}, models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.SetActive(context.Background(), slide.ID, true, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.UploadImage(context.Background(), slide.ID, []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	active, err := svc.SetActive(context.Background(), slide.ID, true, models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, active.Active)

	public, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, slide.ID, public[0].ID)

	_, err = svc.Create(context.Background(), SlideRequest{Title: "Bad link", LinkURL: "not a url"}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlideServiceReorder(t *testing.T) {
	repo := newFakeSlideRepo()
	svc := NewSlideService(repo, newTestMedia(newFakeMediaStore()), &fakeAuditRepo{}, nil, nil)
	a, err := svc.Create(context.Background(), SlideRequest{Title: "A"}, models.RequestMeta{})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), SlideRequest{Title: "B"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)

	items, err := svc.Reorder(context.Background(), ReorderRequest{Items: []models.PositionUpdate{{ID: a.ID, Position: 1}, {ID: b.ID, Position: 0}}}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, []string{items[0].ID, items[1].ID})

	_, err = svc.Reorder(context.Background(), ReorderRequest{Items: []models.PositionUpdate{{ID: a.ID, Position: 0}, {ID: a.ID, Position: 1}}}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Reorder(context.Background(), ReorderRequest{Items: []models.PositionUpdate{{ID: "ghost", Position: 0}}}, models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.items[a.ID].Position)
}

func TestSlideServiceDeleteRemovesImage(t *testing.T) {
	store := newFakeMediaStore()
	svc := NewSlideService(newFakeSlideRepo(), newTestMedia(store), &fakeAuditRepo{}, nil, nil)
	slide, err := svc.Create(context.Background(), SlideRequest{Title: "A"}, models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.UploadImage(context.Background(), slide.ID, []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), slide.ID, models.RequestMeta{}))
	assert.Empty(t, store.objects)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(svc.Delete(context.Background(), slide.ID, models.RequestMeta{})).Code)
}
