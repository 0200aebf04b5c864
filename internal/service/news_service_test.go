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

func newNewsFixture() (*NewsService, *fakeNewsRepo, *fakeMediaStore, *memoryCache) {
	repo := newFakeNewsRepo()
	store := newFakeMediaStore()
	cache := newMemoryCache()
	svc := NewNewsService(repo, newTestMedia(store), &fakeAuditRepo{}, NewCacheService(cache, nil, time.Minute, nil, true), nil, nil)
	svc.now = func() time.Time { return gateNow }
	return svc, repo, store, cache
}

func TestNewsServiceCreateGeneratesUniqueSlug(t *testing.T) {
	svc, _, _, cache := newNewsFixture()
	cache.values[dashboardKey("")] = "cached"
	meta := models.RequestMeta{ActorID: "u1"}

	first, err := svc.Create(context.Background(), NewsRequest{Title: "Annual Day 2025", Content: "body", IsPublished: true}, meta)
	require.NoError(t, err)
	assert.Equal(t, "annual-day-2025", first.Slug)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, gateNow, *first.PublishedAt)
	require.NotNil(t, first.CreatedBy)
	assert.Equal(t, "u1", *first.CreatedBy)
	assert.Empty(t, cache.values)

	second, err := svc.Create(context.Background(), NewsRequest{Title: "Annual Day 2025", Content: "draft"}, meta)
	require.NoError(t, err)
	assert.Equal(t, "annual-day-2025-2", second.Slug)
	assert.Nil(t, second.PublishedAt)

	_, err = svc.Create(context.Background(), NewsRequest{Content: "no title"}, meta)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsServicePublicAccessHidesDrafts(t *testing.T) {
	svc, _, _, _ := newNewsFixture()
	published, err := svc.Create(context.Background(), NewsRequest{Title: "Results Out", Content: "x", IsPublished: true}, models.RequestMeta{})
	require.NoError(t, err)
	draft, err := svc.Create(context.Background(), NewsRequest{Title: "Draft", Content: "x"}, models.RequestMeta{})
	require.NoError(t, err)

	items, page, err := svc.ListPublished(context.Background(), models.NewsFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, published.ID, items[0].ID)
	assert.Equal(t, 1, page.TotalCount)

	got, err := svc.GetPublishedBySlug(context.Background(), "Results-Out")
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	_, err = svc.GetPublishedBySlug(context.Background(), draft.Slug)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNewsServiceUpdateKeepsPublishTime(t *testing.T) {
	svc, _, _, _ := newNewsFixture()
	item, err := svc.Create(context.Background(), NewsRequest{Title: "Sports", Content: "x", IsPublished: true}, models.RequestMeta{})
	require.NoError(t, err)

	svc.now = func() time.Time { return gateNow.Add(time.Hour) }
	updated, err := svc.Update(context.Background(), item.ID, NewsRequest{Title: "Sports", Summary: " recap ", Content: "y", IsPublished: true}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "sports", updated.Slug)
	assert.Equal(t, "recap", updated.Summary)
	assert.Equal(t, gateNow, *updated.PublishedAt)

	unpublished, err := svc.Update(context.Background(), item.ID, NewsRequest{Title: "Sports Week", Content: "y"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "sports-week", unpublished.Slug)
	assert.Nil(t, unpublished.PublishedAt)
}

func TestNewsServiceCoverLifecycle(t *testing.T) {
	svc, repo, store, _ := newNewsFixture()
	item, err := svc.Create(context.Background(), NewsRequest{Title: "Library", Content: "x"}, models.RequestMeta{})
	require.NoError(t, err)

	first, err := svc.UploadCover(context.Background(), item.ID, []byte("jpg"), models.RequestMeta{})
	require.NoError(t, err)
	firstKey := first.CoverImageKey
	assert.Contains(t, first.CoverImageURL, "uploads/news/")

	second, err := svc.UploadCover(context.Background(), item.ID, []byte("jpg2"), models.RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.CoverImageKey)
	assert.Equal(t, []string{firstKey}, store.deleted)

	require.NoError(t, svc.Delete(context.Background(), item.ID, models.RequestMeta{}))
	assert.Empty(t, repo.items)
	assert.Empty(t, store.objects)

	_, err = svc.UploadCover(context.Background(), item.ID, []byte("jpg"), models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
