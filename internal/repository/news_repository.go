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

const newsColumns = `id, title, slug, summary, content, cover_image_url, cover_image_key, is_published, published_at, created_by, created_at, updated_at`

// NewsRepository stores news posts.
type NewsRepository struct {
	db *sqlx.DB
}

func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// List orders published posts by publish time and drafts by last edit.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	var cond conditions
	if filter.Published != nil {
		cond.add("is_published = ?", *filter.Published)
	}
	if filter.Search != "" {
		cond.add("(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)", likePattern(filter.Search))
	}
	base := "FROM news WHERE 1=1" + cond.where()
	_, _, window := pageWindow(filter.Page, filter.PageSize)

	items := make([]models.News, 0)
	query := fmt.Sprintf("SELECT %s %s ORDER BY COALESCE(published_at, updated_at) DESC %s", newsColumns, base, window)
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	return items, total, nil
}

func (r *NewsRepository) FindByID(ctx context.Context, id string) (*models.News, error) {
	return r.findOne(ctx, "id", id)
}

func (r *NewsRepository) FindBySlug(ctx context.Context, slug string) (*models.News, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *NewsRepository) findOne(ctx context.Context, column, value string) (*models.News, error) {
	query := fmt.Sprintf(`SELECT %s FROM news WHERE %s = $1`, newsColumns, column)
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find news by %s: %w", column, err)
	}
	return &item, nil
}

func (r *NewsRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	return existsBySlug(ctx, r.db, "news", slug, excludeID)
}

func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO news (id, title, slug, summary, content, cover_image_url, cover_image_key, is_published, published_at, created_by, created_at, updated_at)
		VALUES (:id, :title, :slug, :summary, :content, :cover_image_url, :cover_image_key, :is_published, :published_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

func (r *NewsRepository) Update(ctx context.Context, item *models.News) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news SET title = :title, slug = :slug, summary = :summary, content = :content,
		cover_image_url = :cover_image_url, cover_image_key = :cover_image_key, is_published = :is_published,
		published_at = :published_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "news", id)
}

func existsBySlug(ctx context.Context, db *sqlx.DB, table, slug, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE slug = $1`, table)
	args := []interface{}{slug}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`
	var exists int
	if err := db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s slug: %w", table, err)
	}
	return true, nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, table, id string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// updatePositions rewrites display positions of table rows in one transaction.
func updatePositions(ctx context.Context, db *sqlx.DB, table string, updates []models.PositionUpdate) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder %s: %w", table, err)
	}
	query := fmt.Sprintf(`UPDATE %s SET position = $1 WHERE id = $2`, table)
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.Position, u.ID)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("reorder %s: %w", table, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			tx.Rollback() //nolint:errcheck
			return sql.ErrNoRows
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder %s: %w", table, err)
	}
	return nil
}
