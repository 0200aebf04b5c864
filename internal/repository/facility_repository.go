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

const facilityColumns = `id, name, slug, description, image_url, storage_key, position, created_at, updated_at`

type FacilityRepository struct {
	db *sqlx.DB
}

func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

func (r *FacilityRepository) List(ctx context.Context) ([]models.Facility, error) {
	items := make([]models.Facility, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+facilityColumns+` FROM facilities ORDER BY position ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return items, nil
}

func (r *FacilityRepository) FindByID(ctx context.Context, id string) (*models.Facility, error) {
	return r.findOne(ctx, "id", id)
}

func (r *FacilityRepository) FindBySlug(ctx context.Context, slug string) (*models.Facility, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *FacilityRepository) findOne(ctx context.Context, column, value string) (*models.Facility, error) {
	query := fmt.Sprintf(`SELECT %s FROM facilities WHERE %s = $1`, facilityColumns, column)
	var item models.Facility
	if err := r.db.GetContext(ctx, &item, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find facility: %w", err)
	}
	return &item, nil
}

func (r *FacilityRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	return existsBySlug(ctx, r.db, "facilities", slug, excludeID)
}

func (r *FacilityRepository) Create(ctx context.Context, item *models.Facility) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO facilities (id, name, slug, description, image_url, storage_key, position, created_at, updated_at)
		VALUES (:id, :name, :slug, :description, :image_url, :storage_key, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}
	return nil
}

func (r *FacilityRepository) Update(ctx context.Context, item *models.Facility) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE facilities SET name = :name, slug = :slug, description = :description, image_url = :image_url,
		storage_key = :storage_key, position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update facility: %w", err)
	}
	return nil
}

func (r *FacilityRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "facilities", id)
}
