package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Exists reports whether the student is already enrolled in the class for the semester.
func (r *EnrollmentRepository) Exists(ctx context.Context, exec sqlx.ExtContext, studentID string, classID, semesterID int64) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND semester_id = $3`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, studentID, classID, semesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Count returns the head count of a class in a semester.
func (r *EnrollmentRepository) Count(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND semester_id = $2`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, classID, semesterID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Create inserts an enrollment. The semester average starts out null.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	const query = `INSERT INTO enrollments (student_id, class_id, semester_id) VALUES ($1, $2, $3)
        RETURNING created_at, updated_at`
	row := r.exec(exec).QueryRowxContext(ctx, query, enrollment.StudentID, enrollment.ClassID, enrollment.SemesterID)
	if err := row.Scan(&enrollment.CreatedAt, &enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListStudents returns the roster of a class for a semester ordered by student id.
func (r *EnrollmentRepository) ListStudents(ctx context.Context, classID, semesterID int64) ([]models.EnrolledStudent, error) {
	const query = `SELECT e.student_id, s.full_name, s.sex, s.birth_date, s.email, e.semester_average
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.class_id = $1 AND e.semester_id = $2
        ORDER BY e.student_id`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// ListStudentIDs returns the ids of every student enrolled in the class for the semester.
func (r *EnrollmentRepository) ListStudentIDs(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) ([]string, error) {
	const query = `SELECT student_id FROM enrollments WHERE class_id = $1 AND semester_id = $2 ORDER BY student_id`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list enrolled student ids: %w", err)
	}
	return ids, nil
}

// ListStudentClasses returns a student's class placements, optionally for one semester.
func (r *EnrollmentRepository) ListStudentClasses(ctx context.Context, studentID string, semesterID int64) ([]models.StudentClass, error) {
	query := `SELECT e.class_id, c.name AS class_name, g.name AS grade_level_name, e.semester_id, sm.name AS semester_name,
        y.start_year, y.end_year, e.semester_average
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN grade_levels g ON g.id = c.grade_level_id
        JOIN semesters sm ON sm.id = e.semester_id
        JOIN academic_years y ON y.id = sm.academic_year_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if semesterID > 0 {
		query += ` AND e.semester_id = $2`
		args = append(args, semesterID)
	}
	query += ` ORDER BY y.start_year DESC, e.semester_id DESC, e.class_id`

	var classes []models.StudentClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list student classes: %w", err)
	}
	return classes, nil
}

// DeleteByStudent removes every enrollment of a student.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student enrollments: %w", err)
	}
	return nil
}
