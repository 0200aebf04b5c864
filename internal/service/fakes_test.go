package service

import (
	"context"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAuditRepo struct {
	logs []*models.AuditLog
}

func (f *fakeAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

// memoryCache is an in-memory CacheRepository storing raw values.
type memoryCache struct {
	values      map[string]interface{}
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return copyJSON(v, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	for key := range m.values {
		if globMatch(pattern, key) {
			delete(m.values, key)
		}
	}
	return nil
}
