package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/imaging"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

// Media kinds double as object key folders and metric labels.
const (
	MediaKindNews     = "news"
	MediaKindGallery  = "gallery"
	MediaKindSlide    = "slides"
	MediaKindFacility = "facilities"
)

type imageProcessor interface {
	Process(data []byte, withThumbnail bool) (*imaging.Result, error)
}

// MediaConfig bounds uploads.
type MediaConfig struct {
	KeyPrefix    string
	MaxFileBytes int64
}

// StoredImage locates an uploaded image and its optional thumbnail.
type StoredImage struct {
	URL          string
	Key          string
	ThumbnailURL string
	ThumbnailKey string
}

// MediaService converts uploads to WebP and stores them.
type MediaService struct {
	store     storage.MediaStore
	processor imageProcessor
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       MediaConfig
}

func NewMediaService(store storage.MediaStore, processor imageProcessor, metrics *MetricsService, logger *zap.Logger, cfg MediaConfig) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{store: store, processor: processor, metrics: metrics, logger: logger, cfg: cfg}
}

// StoreImage processes data and uploads the renditions under kind.
func (m *MediaService) StoreImage(ctx context.Context, kind string, data []byte, withThumbnail bool) (*StoredImage, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image file is required")
	}
	if m.cfg.MaxFileBytes > 0 && int64(len(data)) > m.cfg.MaxFileBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("image exceeds %d bytes", m.cfg.MaxFileBytes))
	}
	processed, err := m.processor.Process(data, withThumbnail)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "image must be JPEG, PNG, GIF or WebP")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image could not be processed")
	}

	id := uuid.NewString()
	stored := &StoredImage{Key: storage.ObjectKey(m.cfg.KeyPrefix, kind, id+".webp")}
	stored.URL, err = m.store.Put(ctx, stored.Key, imaging.ContentTypeWebP, processed.Image.Data)
	if err != nil {
		return nil, internalError(err, "failed to store image")
	}
	uploaded := len(processed.Image.Data)

	if processed.Thumbnail != nil {
		stored.ThumbnailKey = storage.ObjectKey(m.cfg.KeyPrefix, kind, "thumbs", id+".webp")
		stored.ThumbnailURL, err = m.store.Put(ctx, stored.ThumbnailKey, imaging.ContentTypeWebP, processed.Thumbnail.Data)
		if err != nil {
			m.Remove(ctx, stored.Key)
			return nil, internalError(err, "failed to store thumbnail")
		}
		uploaded += len(processed.Thumbnail.Data)
	}

	m.metrics.RecordMediaUpload(kind, uploaded)
	m.logger.Debug("image stored", zap.String("kind", kind), zap.String("key", stored.Key), zap.Int("bytes", uploaded))
	return stored, nil
}

// Remove deletes objects, logging failures. Empty keys are skipped.
func (m *MediaService) Remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("failed to delete media object", zap.String("key", key), zap.Error(err))
		}
	}
}
