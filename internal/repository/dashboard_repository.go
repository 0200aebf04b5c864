package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// DashboardRepository aggregates admin counters.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary counts records; student and result counts are scoped to academicYear when set.
func (r *DashboardRepository) Summary(ctx context.Context, academicYear string) (*models.DashboardSummary, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM classes) AS classes,
		(SELECT COUNT(*) FROM students WHERE $1 = '' OR academic_year = $1) AS students,
		(SELECT COUNT(*) FROM results WHERE $1 = '' OR academic_year = $1) AS results,
		(SELECT COUNT(*) FROM results WHERE is_passed AND ($1 = '' OR academic_year = $1)) AS passed_results,
		(SELECT COUNT(*) FROM news WHERE is_published) AS published_news,
		(SELECT COUNT(*) FROM gallery_images) AS gallery_images,
		(SELECT COUNT(*) FROM admission_enquiries WHERE status <> 'CLOSED') AS open_enquiries`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query, academicYear); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	summary.AcademicYear = academicYear
	return &summary, nil
}
