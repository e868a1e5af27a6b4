package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// StudentRepository persists students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const studentColumns = `id, full_name, sex, birth_date, email, phone, address, admitted_at, notes, created_at, updated_at`

// SearchLimit caps the number of search hits.
const SearchLimit = 50

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a student with its externally assigned id.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	const query = `INSERT INTO students (id, full_name, sex, birth_date, email, phone, address, admitted_at, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, student.ID, student.FullName, student.Sex, student.BirthDate,
		student.Email, student.Phone, student.Address, student.AdmittedAt, student.Notes)
	if err := row.Scan(&student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update overwrites the mutable student columns.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET full_name = $2, sex = $3, birth_date = $4, email = $5, phone = $6, address = $7,
        admitted_at = $8, notes = $9, updated_at = NOW()
        WHERE id = $1 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, student.ID, student.FullName, student.Sex, student.BirthDate,
		student.Email, student.Phone, student.Address, student.AdmittedAt, student.Notes)
	if err := row.Scan(&student.UpdatedAt); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes the student row only. Dependent rows must be removed first.
func (r *StudentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// Search matches q against name (substring), id (exact), email and phone (substring).
func (r *StudentRepository) Search(ctx context.Context, q string) ([]models.StudentSearchResult, error) {
	query := fmt.Sprintf(`SELECT id, full_name, sex, birth_date, email, phone FROM students
        WHERE full_name ILIKE $1 OR id = $2 OR email ILIKE $1 OR phone ILIKE $1
        ORDER BY full_name, id
        LIMIT %d`, SearchLimit)
	var results []models.StudentSearchResult
	if err := r.db.SelectContext(ctx, &results, query, "%"+escapeLike(q)+"%", q); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return results, nil
}
