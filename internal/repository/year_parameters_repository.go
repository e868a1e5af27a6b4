package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// YearParametersRepository persists the per-year rule sets.
type YearParametersRepository struct {
	db *sqlx.DB
}

// NewYearParametersRepository constructs the repository.
func NewYearParametersRepository(db *sqlx.DB) *YearParametersRepository {
	return &YearParametersRepository{db: db}
}

func (r *YearParametersRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const yearParametersColumns = `id, academic_year_id, min_age, max_age, max_class_size, min_subject_pass_score,
        min_semester_pass_score, min_score, max_score, created_at, updated_at`

// List returns all parameter sets, optionally for one academic year.
func (r *YearParametersRepository) List(ctx context.Context, academicYearID int64) ([]models.YearParameters, error) {
	query := `SELECT ` + yearParametersColumns + ` FROM year_parameters`
	var args []interface{}
	if academicYearID > 0 {
		query += ` WHERE academic_year_id = $1`
		args = append(args, academicYearID)
	}
	query += ` ORDER BY academic_year_id DESC`
	var params []models.YearParameters
	if err := r.db.SelectContext(ctx, &params, query, args...); err != nil {
		return nil, fmt.Errorf("list year parameters: %w", err)
	}
	return params, nil
}

// FindByYear returns the parameter set of an academic year.
func (r *YearParametersRepository) FindByYear(ctx context.Context, exec sqlx.ExtContext, academicYearID int64) (*models.YearParameters, error) {
	var params models.YearParameters
	query := `SELECT ` + yearParametersColumns + ` FROM year_parameters WHERE academic_year_id = $1`
	if err := sqlx.GetContext(ctx, r.exec(exec), &params, query, academicYearID); err != nil {
		return nil, err
	}
	return &params, nil
}

// FindByID returns a parameter set by id.
func (r *YearParametersRepository) FindByID(ctx context.Context, id int64) (*models.YearParameters, error) {
	var params models.YearParameters
	query := `SELECT ` + yearParametersColumns + ` FROM year_parameters WHERE id = $1`
	if err := r.db.GetContext(ctx, &params, query, id); err != nil {
		return nil, err
	}
	return &params, nil
}

// Create inserts a parameter set. A second row for the same year violates the unique constraint.
func (r *YearParametersRepository) Create(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters) error {
	const query = `INSERT INTO year_parameters (academic_year_id, min_age, max_age, max_class_size, min_subject_pass_score,
        min_semester_pass_score, min_score, max_score)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, params.AcademicYearID, params.MinAge, params.MaxAge, params.MaxClassSize,
		params.MinSubjectPassScore, params.MinSemesterPassScore, params.MinScore, params.MaxScore)
	if err := row.Scan(&params.ID, &params.CreatedAt, &params.UpdatedAt); err != nil {
		return fmt.Errorf("create year parameters: %w", err)
	}
	return nil
}

// Update overwrites every value column of the parameter set.
func (r *YearParametersRepository) Update(ctx context.Context, exec sqlx.ExtContext, params *models.YearParameters) error {
	const query = `UPDATE year_parameters SET min_age = $2, max_age = $3, max_class_size = $4, min_subject_pass_score = $5,
        min_semester_pass_score = $6, min_score = $7, max_score = $8, updated_at = NOW()
        WHERE id = $1 RETURNING updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, params.ID, params.MinAge, params.MaxAge, params.MaxClassSize,
		params.MinSubjectPassScore, params.MinSemesterPassScore, params.MinScore, params.MaxScore)
	if err := row.Scan(&params.UpdatedAt); err != nil {
		return fmt.Errorf("update year parameters: %w", err)
	}
	return nil
}

// Delete removes a parameter set by id. It reports whether a row was deleted.
func (r *YearParametersRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM year_parameters WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete year parameters: %w", err)
	}
	return affected(res)
}

// MaxClassSizeForClass resolves class -> academic year -> max_class_size. A nil result means no cap.
func (r *YearParametersRepository) MaxClassSizeForClass(ctx context.Context, exec sqlx.ExtContext, classID int64) (*int, error) {
	const query = `SELECT p.max_class_size FROM classes c
        LEFT JOIN year_parameters p ON p.academic_year_id = c.academic_year_id
        WHERE c.id = $1`
	var max *int
	if err := sqlx.GetContext(ctx, r.exec(exec), &max, query, classID); err != nil {
		return nil, err
	}
	return max, nil
}
