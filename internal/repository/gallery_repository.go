package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// GalleryRepository stores gallery categories and images.
type GalleryRepository struct {
	db *sqlx.DB
}

func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// ListCategories returns categories with image counts and the first thumbnail.
func (r *GalleryRepository) ListCategories(ctx context.Context) ([]models.GalleryCategorySummary, error) {
	const query = `SELECT c.id, c.name, c.slug, c.description, c.position, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM gallery_images i WHERE i.category_id = c.id) AS image_count,
		(SELECT i.thumbnail_url FROM gallery_images i WHERE i.category_id = c.id ORDER BY i.position, i.created_at LIMIT 1) AS cover_url
		FROM gallery_categories c ORDER BY c.position ASC, c.name ASC`
	items := make([]models.GalleryCategorySummary, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list gallery categories: %w", err)
	}
	return items, nil
}

func (r *GalleryRepository) FindCategory(ctx context.Context, id string) (*models.GalleryCategory, error) {
	return r.findCategory(ctx, "id", id)
}

func (r *GalleryRepository) FindCategoryBySlug(ctx context.Context, slug string) (*models.GalleryCategory, error) {
	return r.findCategory(ctx, "slug", slug)
}

func (r *GalleryRepository) findCategory(ctx context.Context, column, value string) (*models.GalleryCategory, error) {
	query := fmt.Sprintf(`SELECT id, name, slug, description, position, created_at, updated_at FROM gallery_categories WHERE %s = $1`, column)
	var item models.GalleryCategory
	if err := r.db.GetContext(ctx, &item, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find gallery category: %w", err)
	}
	return &item, nil
}

func (r *GalleryRepository) CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return existsBySlug(ctx, r.db, "gallery_categories", slug, excludeID)
}

func (r *GalleryRepository) CreateCategory(ctx context.Context, item *models.GalleryCategory) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO gallery_categories (id, name, slug, description, position, created_at, updated_at)
		VALUES (:id, :name, :slug, :description, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create gallery category: %w", err)
	}
	return nil
}

func (r *GalleryRepository) UpdateCategory(ctx context.Context, item *models.GalleryCategory) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE gallery_categories SET name = :name, slug = :slug, description = :description, position = :position,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update gallery category: %w", err)
	}
	return nil
}

func (r *GalleryRepository) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "gallery_categories", id)
}

const galleryImageColumns = `id, category_id, title, image_url, thumbnail_url, storage_key, thumbnail_key, position, created_at`

func (r *GalleryRepository) ListImages(ctx context.Context, categoryID string) ([]models.GalleryImage, error) {
	query := `SELECT ` + galleryImageColumns + ` FROM gallery_images WHERE category_id = $1 ORDER BY position ASC, created_at ASC`
	items := make([]models.GalleryImage, 0)
	if err := r.db.SelectContext(ctx, &items, query, categoryID); err != nil {
		return nil, fmt.Errorf("list gallery images: %w", err)
	}
	return items, nil
}

func (r *GalleryRepository) FindImage(ctx context.Context, id string) (*models.GalleryImage, error) {
	query := `SELECT ` + galleryImageColumns + ` FROM gallery_images WHERE id = $1`
	var item models.GalleryImage
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find gallery image: %w", err)
	}
	return &item, nil
}

// NextImagePosition returns the position after the last image of a category.
func (r *GalleryRepository) NextImagePosition(ctx context.Context, categoryID string) (int, error) {
	var next int
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(position) + 1, 0) FROM gallery_images WHERE category_id = $1`, categoryID); err != nil {
		return 0, fmt.Errorf("next gallery position: %w", err)
	}
	return next, nil
}

func (r *GalleryRepository) CreateImage(ctx context.Context, item *models.GalleryImage) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO gallery_images (id, category_id, title, image_url, thumbnail_url, storage_key, thumbnail_key, position, created_at)
		VALUES (:id, :category_id, :title, :image_url, :thumbnail_url, :storage_key, :thumbnail_key, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create gallery image: %w", err)
	}
	return nil
}

func (r *GalleryRepository) DeleteImage(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "gallery_images", id)
}
