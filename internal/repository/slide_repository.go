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

const slideColumns = `id, title, caption, link_url, image_url, storage_key, position, active, created_at, updated_at`

// SlideRepository stores homepage slides.
type SlideRepository struct {
	db *sqlx.DB
}

func NewSlideRepository(db *sqlx.DB) *SlideRepository {
	return &SlideRepository{db: db}
}

func (r *SlideRepository) List(ctx context.Context, activeOnly bool) ([]models.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY position ASC, created_at ASC`
	items := make([]models.Slide, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return items, nil
}

func (r *SlideRepository) FindByID(ctx context.Context, id string) (*models.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE id = $1`
	var item models.Slide
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find slide: %w", err)
	}
	return &item, nil
}

// NextPosition returns the position after the last slide.
func (r *SlideRepository) NextPosition(ctx context.Context) (int, error) {
	var next int
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(position) + 1, 0) FROM slides`); err != nil {
		return 0, fmt.Errorf("next slide position: %w", err)
	}
	return next, nil
}

func (r *SlideRepository) Create(ctx context.Context, item *models.Slide) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO slides (id, title, caption, link_url, image_url, storage_key, position, active, created_at, updated_at)
		VALUES (:id, :title, :caption, :link_url, :image_url, :storage_key, :position, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) Update(ctx context.Context, item *models.Slide) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE slides SET title = :title, caption = :caption, link_url = :link_url, image_url = :image_url,
		storage_key = :storage_key, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "slides", id)
}

func (r *SlideRepository) Reorder(ctx context.Context, updates []models.PositionUpdate) error {
	return updatePositions(ctx, r.db, "slides", updates)
}
