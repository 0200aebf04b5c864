package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func newGalleryFixture() (*GalleryService, *fakeGalleryRepo, *fakeMediaStore) {
	repo := newFakeGalleryRepo()
	store := newFakeMediaStore()
	svc := NewGalleryService(repo, newTestMedia(store), &fakeAuditRepo{}, NewCacheService(newMemoryCache(), nil, time.Minute, nil, true), nil, nil)
	return svc, repo, store
}

func TestGalleryServiceUploadAndBrowse(t *testing.T) {
	svc, _, store := newGalleryFixture()
	category, err := svc.CreateCategory(context.Background(), GalleryCategoryRequest{Name: "Sports Day"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "sports-day", category.Slug)

	first, err := svc.UploadImage(context.Background(), category.ID, " Relay ", []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Relay", first.Title)
	assert.Equal(t, 0, first.Position)
	assert.NotEmpty(t, first.ThumbnailURL)
	assert.Contains(t, store.objects, first.ThumbnailKey)

	second, err := svc.UploadImage(context.Background(), category.ID, "", []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	album, err := svc.Album(context.Background(), "sports-day")
	require.NoError(t, err)
	require.Len(t, album.Images, 2)
	assert.Equal(t, first.ID, album.Images[0].ID)

	summaries, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].ImageCount)

	_, err = svc.Album(context.Background(), "unknown")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	_, err = svc.UploadImage(context.Background(), "missing", "", []byte("jpg"), models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGalleryServiceDeleteRemovesStoredFiles(t *testing.T) {
	svc, repo, store := newGalleryFixture()
	category, err := svc.CreateCategory(context.Background(), GalleryCategoryRequest{Name: "Campus"}, models.RequestMeta{})
	require.NoError(t, err)
	img, err := svc.UploadImage(context.Background(), category.ID, "", []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.UploadImage(context.Background(), category.ID, "", []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	require.Len(t, store.objects, 4)

	require.NoError(t, svc.DeleteImage(context.Background(), img.ID, models.RequestMeta{}))
	assert.Len(t, store.objects, 2)

	require.NoError(t, svc.DeleteCategory(context.Background(), category.ID, models.RequestMeta{}))
	assert.Empty(t, store.objects)
	assert.Empty(t, repo.categories)
	assert.Empty(t, repo.images)
}

func TestGalleryServiceRenameRegeneratesSlug(t *testing.T) {
	svc, _, _ := newGalleryFixture()
	first, err := svc.CreateCategory(context.Background(), GalleryCategoryRequest{Name: "Events"}, models.RequestMeta{})
	require.NoError(t, err)
	second, err := svc.CreateCategory(context.Background(), GalleryCategoryRequest{Name: "Trips"}, models.RequestMeta{})
	require.NoError(t, err)

	renamed, err := svc.UpdateCategory(context.Background(), second.ID, GalleryCategoryRequest{Name: "Events", Position: 2}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "events-2", renamed.Slug)
	assert.Equal(t, 2, renamed.Position)

	same, err := svc.UpdateCategory(context.Background(), first.ID, GalleryCategoryRequest{Name: "events", Description: "School events"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "events", same.Slug)
}
