// Package storage persists uploaded media and signs download tokens.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/noah-isme/school-portal-api/pkg/config"
)

// MediaStore persists binary media and returns its public URL.
type MediaStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewMediaStore returns the backend selected by cfg.Driver.
func NewMediaStore(cfg config.MediaConfig) (MediaStore, error) {
	switch cfg.Driver {
	case config.MediaDriverS3:
		return NewS3Storage(cfg)
	case config.MediaDriverLocal, "":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
	}
}

// ObjectKey joins key segments under prefix, dropping empty parts.
func ObjectKey(prefix string, parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	if p := strings.Trim(prefix, "/"); p != "" {
		segments = append(segments, p)
	}
	for _, part := range parts {
		if p := strings.Trim(part, "/"); p != "" {
			segments = append(segments, p)
		}
	}
	return path.Join(segments...)
}
