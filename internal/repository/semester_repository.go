package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// SemesterRepository persists semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

func (r *SemesterRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

type semesterRow struct {
	models.Semester
	StartYear int `db:"start_year"`
	EndYear   int `db:"end_year"`
}

func (row semesterRow) toModel() models.Semester {
	s := row.Semester
	s.AcademicYear = &models.AcademicYear{ID: s.AcademicYearID, StartYear: row.StartYear, EndYear: row.EndYear}
	return s
}

const semesterSelect = `SELECT s.id, s.name, s.academic_year_id, s.start_date, s.end_date, s.created_at, s.updated_at,
        y.start_year, y.end_year
        FROM semesters s
        JOIN academic_years y ON y.id = s.academic_year_id`

// List returns semesters, optionally restricted to one academic year, newest year first.
func (r *SemesterRepository) List(ctx context.Context, academicYearID int64) ([]models.Semester, error) {
	query := semesterSelect
	var args []interface{}
	if academicYearID > 0 {
		query += " WHERE s.academic_year_id = $1"
		args = append(args, academicYearID)
	}
	query += " ORDER BY y.start_year DESC, s.id"

	var rows []semesterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	semesters := make([]models.Semester, 0, len(rows))
	for _, row := range rows {
		semesters = append(semesters, row.toModel())
	}
	return semesters, nil
}

// FindByID returns a semester with its academic year.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	var row semesterRow
	if err := r.db.GetContext(ctx, &row, semesterSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	semester := row.toModel()
	return &semester, nil
}

// Create inserts a semester.
func (r *SemesterRepository) Create(ctx context.Context, exec sqlx.ExtContext, semester *models.Semester) error {
	const query = `INSERT INTO semesters (name, academic_year_id, start_date, end_date) VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, semester.Name, semester.AcademicYearID, semester.StartDate, semester.EndDate)
	if err := row.Scan(&semester.ID, &semester.CreatedAt, &semester.UpdatedAt); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update overwrites the mutable semester columns.
func (r *SemesterRepository) Update(ctx context.Context, exec sqlx.ExtContext, semester *models.Semester) error {
	const query = `UPDATE semesters SET name = $2, academic_year_id = $3, start_date = $4, end_date = $5, updated_at = NOW()
        WHERE id = $1 RETURNING updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, semester.ID, semester.Name, semester.AcademicYearID, semester.StartDate, semester.EndDate)
	if err := row.Scan(&semester.UpdatedAt); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

// Delete removes a semester. It reports whether a row was deleted.
func (r *SemesterRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete semester: %w", err)
	}
	return affected(res)
}

// CountUsages returns how many enrollments and gradebooks reference the semester.
func (r *SemesterRepository) CountUsages(ctx context.Context, id int64) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM enrollments WHERE semester_id = $1) +
        (SELECT COUNT(*) FROM subject_gradebooks WHERE semester_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count semester usages: %w", err)
	}
	return count, nil
}
