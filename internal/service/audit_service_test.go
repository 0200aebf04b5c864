package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAuditLister struct {
	logs   []models.AuditLog
	filter models.AuditFilter
	err    error
}

func (f *fakeAuditLister) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	f.filter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.logs, len(f.logs), nil
}

func TestAuditServiceList(t *testing.T) {
	repo := &fakeAuditLister{logs: []models.AuditLog{{ID: "a1", Action: models.AuditActionLogin}}}
	svc := NewAuditService(repo, nil)

	logs, pagination, err := svc.List(context.Background(), models.AuditFilter{Resource: "user", Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "user", repo.filter.Resource)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, defaultPageSize, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestAuditServiceListError(t *testing.T) {
	svc := NewAuditService(&fakeAuditLister{err: errors.New("boom")}, nil)
	_, _, err := svc.List(context.Background(), models.AuditFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
