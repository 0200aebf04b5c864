package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakePublicationRepo struct {
	items map[string]*models.ResultPublication
}

func newFakePublicationRepo(items ...models.ResultPublication) *fakePublicationRepo {
	repo := &fakePublicationRepo{items: make(map[string]*models.ResultPublication)}
	for i := range items {
		item := items[i]
		repo.items[item.AcademicYear] = &item
	}
	return repo
}

func (f *fakePublicationRepo) List(ctx context.Context) ([]models.ResultPublication, error) {
	out := make([]models.ResultPublication, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakePublicationRepo) FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	item, ok := f.items[academicYear]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (f *fakePublicationRepo) Upsert(ctx context.Context, pub *models.ResultPublication) error {
	if pub.ID == "" {
		pub.ID = "pub-" + pub.AcademicYear
	}
	copy := *pub
	f.items[pub.AcademicYear] = &copy
	return nil
}

func (f *fakePublicationRepo) SetPublished(ctx context.Context, academicYear string, published bool) error {
	item, ok := f.items[academicYear]
	if !ok {
		return sql.ErrNoRows
	}
	item.IsPublished = published
	return nil
}

func (f *fakePublicationRepo) Delete(ctx context.Context, academicYear string) error {
	if _, ok := f.items[academicYear]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, academicYear)
	return nil
}

var gateNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newPublicationFixture(items ...models.ResultPublication) (*PublicationService, *fakePublicationRepo, *memoryCache, *fakeAuditRepo) {
	repo := newFakePublicationRepo(items...)
	store := newMemoryCache()
	audit := &fakeAuditRepo{}
	svc := NewPublicationService(repo, audit, NewCacheService(store, nil, time.Minute, nil, true), nil)
	svc.now = func() time.Time { return gateNow }
	return svc, repo, store, audit
}

func TestPublicationServiceUpsert(t *testing.T) {
	svc, repo, store, audit := newPublicationFixture()
	store.values[publicResultKey("2025", "s1")] = "cached"

	status, err := svc.Upsert(context.Background(), "2025", PublicationRequest{PublishDate: models.PublishTime{Time: gateNow.Add(24 * time.Hour)}}, models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, status.Visible)
	assert.Equal(t, "pub-2025", status.ID)
	assert.Empty(t, store.values)

	status, err = svc.Upsert(context.Background(), "2025", PublicationRequest{PublishDate: models.PublishTime{Time: gateNow.Add(-time.Hour)}}, models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, status.Visible)
	assert.Len(t, repo.items, 1)
	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionUpdate}, audit.actions())

	_, err = svc.Upsert(context.Background(), "2025", PublicationRequest{}, models.RequestMeta{})
	assert.Equal(t, "publish_date is required", appErrors.FromError(err).Message)
}

func TestPublicationServicePublishAndUnpublish(t *testing.T) {
	svc, _, store, audit := newPublicationFixture(models.ResultPublication{ID: "p1", AcademicYear: "2025", PublishDate: gateNow.Add(72 * time.Hour)})

	status, err := svc.Publish(context.Background(), "2025", models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, status.IsPublished)
	assert.True(t, status.Visible)

	status, err = svc.Unpublish(context.Background(), "2025", models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, status.Visible)
	assert.Equal(t, []string{models.AuditActionPublish, models.AuditActionUnpublish}, audit.actions())
	assert.Contains(t, store.invalidated, publicResultYearPattern("2025"))

	_, err = svc.Publish(context.Background(), "2030", models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublicationServiceDelete(t *testing.T) {
	svc, repo, _, _ := newPublicationFixture(models.ResultPublication{ID: "p1", AcademicYear: "2025", PublishDate: gateNow})

	require.NoError(t, svc.Delete(context.Background(), "2025", models.RequestMeta{}))
	assert.Empty(t, repo.items)

	err := svc.Delete(context.Background(), "2025", models.RequestMeta{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublicationServiceList(t *testing.T) {
	svc, _, _, _ := newPublicationFixture(
		models.ResultPublication{ID: "p1", AcademicYear: "2024", PublishDate: gateNow.Add(-time.Hour)},
		models.ResultPublication{ID: "p2", AcademicYear: "2025", PublishDate: gateNow.Add(time.Hour)},
	)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	visible := map[string]bool{}
	for _, item := range items {
		visible[item.AcademicYear] = item.Visible
	}
	assert.Equal(t, map[string]bool{"2024": true, "2025": false}, visible)
}
