package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// AcademicYearRepository persists academic years. Years are only ever created through FindOrCreate.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository constructs the repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

func (r *AcademicYearRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindOrCreate returns the year spanning start-end, inserting it when absent.
func (r *AcademicYearRepository) FindOrCreate(ctx context.Context, exec sqlx.ExtContext, startYear, endYear int) (*models.AcademicYear, error) {
	const query = `INSERT INTO academic_years (start_year, end_year) VALUES ($1, $2)
        ON CONFLICT (start_year, end_year) DO UPDATE SET start_year = EXCLUDED.start_year
        RETURNING id, start_year, end_year, created_at`
	var year models.AcademicYear
	if err := sqlx.GetContext(ctx, r.exec(exec), &year, query, startYear, endYear); err != nil {
		return nil, fmt.Errorf("find or create academic year: %w", err)
	}
	return &year, nil
}

// FindByYears returns the year spanning start-end.
func (r *AcademicYearRepository) FindByYears(ctx context.Context, startYear, endYear int) (*models.AcademicYear, error) {
	const query = `SELECT id, start_year, end_year, created_at FROM academic_years WHERE start_year = $1 AND end_year = $2`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, startYear, endYear); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindByID returns a year by id.
func (r *AcademicYearRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.AcademicYear, error) {
	const query = `SELECT id, start_year, end_year, created_at FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := sqlx.GetContext(ctx, r.exec(exec), &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}
