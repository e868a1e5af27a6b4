package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// SubjectRepository persists subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = `id, name, code, coefficient, description, created_at, updated_at`

// List returns all subjects ordered by id.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, `SELECT `+subjectColumns+` FROM subjects ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (name, code, coefficient, description) VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, subject.Name, subject.Code, subject.Coefficient, subject.Description)
	if err := row.Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update overwrites the mutable subject columns.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	const query = `UPDATE subjects SET name = $2, code = $3, coefficient = $4, description = $5, updated_at = NOW()
        WHERE id = $1 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, subject.ID, subject.Name, subject.Code, subject.Coefficient, subject.Description)
	if err := row.Scan(&subject.UpdatedAt); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject. It reports whether a row was deleted.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete subject: %w", err)
	}
	return affected(res)
}

// CountGradebooks returns how many gradebooks reference the subject.
func (r *SubjectRepository) CountGradebooks(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM subject_gradebooks WHERE subject_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count subject gradebooks: %w", err)
	}
	return count, nil
}
