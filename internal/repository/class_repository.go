package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// ClassRepository persists school classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SchoolClass, error) {
	const query = `SELECT id, name, grade_level_id, academic_year_id, declared_size, created_at, updated_at FROM classes WHERE id = $1`
	var class models.SchoolClass
	if err := sqlx.GetContext(ctx, r.exec(exec), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.SchoolClass) error {
	const query = `INSERT INTO classes (name, grade_level_id, academic_year_id, declared_size) VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, class.Name, class.GradeLevelID, class.AcademicYearID, class.DeclaredSize)
	if err := row.Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// List returns class summaries. When filter.SemesterID is set each row carries that semester's head count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSummary, error) {
	var (
		args       []interface{}
		conditions []string
	)
	countColumn := "NULL::INTEGER AS student_count"
	if filter.SemesterID > 0 {
		args = append(args, filter.SemesterID)
		countColumn = fmt.Sprintf("(SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id AND e.semester_id = $%d)::INTEGER AS student_count", len(args))
	}
	if filter.AcademicYearID > 0 {
		args = append(args, filter.AcademicYearID)
		conditions = append(conditions, fmt.Sprintf("c.academic_year_id = $%d", len(args)))
	}
	if filter.GradeLevelID > 0 {
		args = append(args, filter.GradeLevelID)
		conditions = append(conditions, fmt.Sprintf("c.grade_level_id = $%d", len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT c.id, c.name, c.grade_level_id, g.name AS grade_level_name, c.academic_year_id, c.declared_size, %s
        FROM classes c
        JOIN grade_levels g ON g.id = c.grade_level_id%s
        ORDER BY g.name, c.name, c.id`, countColumn, clause)

	var classes []models.ClassSummary
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
