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

const publicationColumns = `id, academic_year, publish_date, is_published, created_at, updated_at`

// PublicationRepository stores the per academic year result gates.
type PublicationRepository struct {
	db *sqlx.DB
}

func NewPublicationRepository(db *sqlx.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

func (r *PublicationRepository) List(ctx context.Context) ([]models.ResultPublication, error) {
	items := make([]models.ResultPublication, 0)
	query := `SELECT ` + publicationColumns + ` FROM result_publications ORDER BY academic_year DESC`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list result publications: %w", err)
	}
	return items, nil
}

func (r *PublicationRepository) FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	query := `SELECT ` + publicationColumns + ` FROM result_publications WHERE academic_year = $1`
	var pub models.ResultPublication
	if err := r.db.GetContext(ctx, &pub, query, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find result publication: %w", err)
	}
	return &pub, nil
}

// Upsert creates or replaces the gate for pub.AcademicYear.
func (r *PublicationRepository) Upsert(ctx context.Context, pub *models.ResultPublication) error {
	if pub.ID == "" {
		pub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pub.CreatedAt = now
	pub.UpdatedAt = now

	const query = `INSERT INTO result_publications (id, academic_year, publish_date, is_published, created_at, updated_at)
		VALUES (:id, :academic_year, :publish_date, :is_published, :created_at, :updated_at)
		ON CONFLICT (academic_year) DO UPDATE SET
			publish_date = EXCLUDED.publish_date,
			is_published = EXCLUDED.is_published,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	q, args, err := sqlx.Named(query, pub)
	if err != nil {
		return fmt.Errorf("bind result publication: %w", err)
	}
	row := r.db.QueryRowxContext(ctx, r.db.Rebind(q), args...)
	if err := row.Scan(&pub.ID, &pub.CreatedAt); err != nil {
		return fmt.Errorf("upsert result publication: %w", err)
	}
	return nil
}

// SetPublished flips the explicit published flag.
func (r *PublicationRepository) SetPublished(ctx context.Context, academicYear string, published bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE result_publications SET is_published = $2, updated_at = $3 WHERE academic_year = $1`,
		academicYear, published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set result publication: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PublicationRepository) Delete(ctx context.Context, academicYear string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM result_publications WHERE academic_year = $1`, academicYear)
	if err != nil {
		return fmt.Errorf("delete result publication: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
