package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// GradeLevelRepository persists grade levels.
type GradeLevelRepository struct {
	db *sqlx.DB
}

// NewGradeLevelRepository constructs the repository.
func NewGradeLevelRepository(db *sqlx.DB) *GradeLevelRepository {
	return &GradeLevelRepository{db: db}
}

// List returns all grade levels ordered by id.
func (r *GradeLevelRepository) List(ctx context.Context) ([]models.GradeLevel, error) {
	const query = `SELECT id, name, class_count, created_at, updated_at FROM grade_levels ORDER BY id`
	var levels []models.GradeLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list grade levels: %w", err)
	}
	return levels, nil
}

// ListClassesByGradeLevels returns classes grouped by their grade level id.
func (r *GradeLevelRepository) ListClassesByGradeLevels(ctx context.Context, ids []int64) (map[int64][]models.SchoolClass, error) {
	result := make(map[int64][]models.SchoolClass, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, name, grade_level_id, academic_year_id, declared_size, created_at, updated_at
        FROM classes WHERE grade_level_id IN (%s) ORDER BY grade_level_id, name, id`, strings.Join(placeholders, ","))
	var classes []models.SchoolClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list grade level classes: %w", err)
	}
	for _, class := range classes {
		result[class.GradeLevelID] = append(result[class.GradeLevelID], class)
	}
	return result, nil
}

// FindByID returns a grade level by id.
func (r *GradeLevelRepository) FindByID(ctx context.Context, id int64) (*models.GradeLevel, error) {
	const query = `SELECT id, name, class_count, created_at, updated_at FROM grade_levels WHERE id = $1`
	var level models.GradeLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// Create inserts a grade level and fills its generated columns.
func (r *GradeLevelRepository) Create(ctx context.Context, level *models.GradeLevel) error {
	const query = `INSERT INTO grade_levels (name, class_count) VALUES ($1, $2) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, level.Name, level.ClassCount).Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt); err != nil {
		return fmt.Errorf("create grade level: %w", err)
	}
	return nil
}

// Update overwrites the mutable grade level columns.
func (r *GradeLevelRepository) Update(ctx context.Context, level *models.GradeLevel) error {
	const query = `UPDATE grade_levels SET name = $2, class_count = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, level.ID, level.Name, level.ClassCount).Scan(&level.UpdatedAt); err != nil {
		return fmt.Errorf("update grade level: %w", err)
	}
	return nil
}

// Delete removes a grade level. It reports whether a row was deleted.
func (r *GradeLevelRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grade_levels WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete grade level: %w", err)
	}
	return affected(res)
}

// CountClasses returns how many classes reference the grade level.
func (r *GradeLevelRepository) CountClasses(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes WHERE grade_level_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count grade level classes: %w", err)
	}
	return count, nil
}
