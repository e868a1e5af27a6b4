package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// AssessmentTypeRepository persists assessment types.
type AssessmentTypeRepository struct {
	db *sqlx.DB
}

// NewAssessmentTypeRepository constructs the repository.
func NewAssessmentTypeRepository(db *sqlx.DB) *AssessmentTypeRepository {
	return &AssessmentTypeRepository{db: db}
}

// List returns all assessment types ordered by id.
func (r *AssessmentTypeRepository) List(ctx context.Context) ([]models.AssessmentType, error) {
	const query = `SELECT id, name, weight, created_at, updated_at FROM assessment_types ORDER BY id`
	var types []models.AssessmentType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list assessment types: %w", err)
	}
	return types, nil
}

// FindByID returns an assessment type by id.
func (r *AssessmentTypeRepository) FindByID(ctx context.Context, id int64) (*models.AssessmentType, error) {
	const query = `SELECT id, name, weight, created_at, updated_at FROM assessment_types WHERE id = $1`
	var at models.AssessmentType
	if err := r.db.GetContext(ctx, &at, query, id); err != nil {
		return nil, err
	}
	return &at, nil
}

// Create inserts an assessment type.
func (r *AssessmentTypeRepository) Create(ctx context.Context, at *models.AssessmentType) error {
	const query = `INSERT INTO assessment_types (name, weight) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, at.Name, at.Weight).Scan(&at.ID, &at.CreatedAt, &at.UpdatedAt); err != nil {
		return fmt.Errorf("create assessment type: %w", err)
	}
	return nil
}

// Update overwrites name and weight.
func (r *AssessmentTypeRepository) Update(ctx context.Context, at *models.AssessmentType) error {
	const query = `UPDATE assessment_types SET name = $2, weight = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, at.ID, at.Name, at.Weight).Scan(&at.UpdatedAt); err != nil {
		return fmt.Errorf("update assessment type: %w", err)
	}
	return nil
}

// Delete removes an assessment type. It reports whether a row was deleted.
func (r *AssessmentTypeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assessment_types WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete assessment type: %w", err)
	}
	return affected(res)
}

// CountScores returns how many score entries use the assessment type.
func (r *AssessmentTypeRepository) CountScores(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM score_entries WHERE assessment_type_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count assessment type scores: %w", err)
	}
	return count, nil
}
