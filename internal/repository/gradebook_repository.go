package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// GradebookRepository persists gradebooks, student records and score entries, and the derived averages.
type GradebookRepository struct {
	db *sqlx.DB
}

// NewGradebookRepository constructs the repository.
func NewGradebookRepository(db *sqlx.DB) *GradebookRepository {
	return &GradebookRepository{db: db}
}

func (r *GradebookRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindOrCreateGradebook returns the gradebook of (class, semester, subject), creating it when absent.
func (r *GradebookRepository) FindOrCreateGradebook(ctx context.Context, exec sqlx.ExtContext, classID, semesterID, subjectID int64) (*models.SubjectGradebook, error) {
	const query = `INSERT INTO subject_gradebooks (class_id, semester_id, subject_id) VALUES ($1, $2, $3)
        ON CONFLICT (class_id, semester_id, subject_id) DO UPDATE SET class_id = EXCLUDED.class_id
        RETURNING id, class_id, semester_id, subject_id, created_at`
	var gradebook models.SubjectGradebook
	if err := sqlx.GetContext(ctx, r.exec(exec), &gradebook, query, classID, semesterID, subjectID); err != nil {
		return nil, fmt.Errorf("find or create gradebook: %w", err)
	}
	return &gradebook, nil
}

// FindOrCreateRecord returns the student's record in a gradebook, creating it when absent.
func (r *GradebookRepository) FindOrCreateRecord(ctx context.Context, exec sqlx.ExtContext, gradebookID int64, studentID string) (*models.StudentSubjectRecord, error) {
	const query = `INSERT INTO student_subject_records (gradebook_id, student_id) VALUES ($1, $2)
        ON CONFLICT (gradebook_id, student_id) DO UPDATE SET gradebook_id = EXCLUDED.gradebook_id
        RETURNING id, gradebook_id, student_id, subject_average, created_at, updated_at`
	var record models.StudentSubjectRecord
	if err := sqlx.GetContext(ctx, r.exec(exec), &record, query, gradebookID, studentID); err != nil {
		return nil, fmt.Errorf("find or create student record: %w", err)
	}
	return &record, nil
}

// UpsertScore writes the score of (record, type, attempt), overwriting any stored value. A nil score clears it.
func (r *GradebookRepository) UpsertScore(ctx context.Context, exec sqlx.ExtContext, recordID, assessmentTypeID int64, attempt int, score *float64) error {
	const query = `INSERT INTO score_entries (record_id, assessment_type_id, attempt, score) VALUES ($1, $2, $3, $4)
        ON CONFLICT (record_id, assessment_type_id, attempt) DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()`
	if _, err := r.exec(exec).ExecContext(ctx, query, recordID, assessmentTypeID, attempt, score); err != nil {
		return fmt.Errorf("upsert score entry: %w", err)
	}
	return nil
}

// EnsureScore creates an ungraded entry for (record, type, attempt) and leaves an existing one untouched.
func (r *GradebookRepository) EnsureScore(ctx context.Context, exec sqlx.ExtContext, recordID, assessmentTypeID int64, attempt int) error {
	const query = `INSERT INTO score_entries (record_id, assessment_type_id, attempt, score) VALUES ($1, $2, $3, NULL)
        ON CONFLICT (record_id, assessment_type_id, attempt) DO NOTHING`
	if _, err := r.exec(exec).ExecContext(ctx, query, recordID, assessmentTypeID, attempt); err != nil {
		return fmt.Errorf("ensure score entry: %w", err)
	}
	return nil
}

// ListWeightedScores returns every entry of a record with its type weight, ordered by (type, attempt).
func (r *GradebookRepository) ListWeightedScores(ctx context.Context, exec sqlx.ExtContext, recordID int64) ([]models.WeightedScore, error) {
	const query = `SELECT se.assessment_type_id, se.attempt, se.score, t.weight
        FROM score_entries se
        LEFT JOIN assessment_types t ON t.id = se.assessment_type_id
        WHERE se.record_id = $1
        ORDER BY se.assessment_type_id, se.attempt`
	var scores []models.WeightedScore
	if err := sqlx.SelectContext(ctx, r.exec(exec), &scores, query, recordID); err != nil {
		return nil, fmt.Errorf("list weighted scores: %w", err)
	}
	return scores, nil
}

// SetSubjectAverage stores the derived subject average of a record.
func (r *GradebookRepository) SetSubjectAverage(ctx context.Context, exec sqlx.ExtContext, recordID int64, average *float64) error {
	const query = `UPDATE student_subject_records SET subject_average = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, recordID, average); err != nil {
		return fmt.Errorf("set subject average: %w", err)
	}
	return nil
}

// ListSubjectAverages returns every subject average recorded in (class, semester) with its subject coefficient,
// ordered by (student, subject).
func (r *GradebookRepository) ListSubjectAverages(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64) ([]models.SubjectAverageRow, error) {
	const query = `SELECT r.student_id, g.subject_id, r.subject_average, s.coefficient
        FROM subject_gradebooks g
        JOIN student_subject_records r ON r.gradebook_id = g.id
        LEFT JOIN subjects s ON s.id = g.subject_id
        WHERE g.class_id = $1 AND g.semester_id = $2
        ORDER BY r.student_id, g.subject_id`
	var rows []models.SubjectAverageRow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list subject averages: %w", err)
	}
	return rows, nil
}

// SetSemesterAverage stores the derived semester average of an enrollment.
func (r *GradebookRepository) SetSemesterAverage(ctx context.Context, exec sqlx.ExtContext, classID, semesterID int64, studentID string, average *float64) error {
	const query = `UPDATE enrollments SET semester_average = $4, updated_at = NOW()
        WHERE class_id = $1 AND semester_id = $2 AND student_id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, classID, semesterID, studentID, average); err != nil {
		return fmt.Errorf("set semester average: %w", err)
	}
	return nil
}

// DeleteByStudent removes a student's score entries and then their subject records.
func (r *GradebookRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error {
	target := r.exec(exec)
	const scores = `DELETE FROM score_entries WHERE record_id IN (SELECT id FROM student_subject_records WHERE student_id = $1)`
	if _, err := target.ExecContext(ctx, scores, studentID); err != nil {
		return fmt.Errorf("delete student scores: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM student_subject_records WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student records: %w", err)
	}
	return nil
}

// ListSubjectRecords returns every gradebook of the classes the student is enrolled in, with the
// student's record when one exists.
func (r *GradebookRepository) ListSubjectRecords(ctx context.Context, studentID string, filter models.LookupFilter) ([]models.SubjectRecordRow, error) {
	query := `SELECT g.class_id, g.semester_id, g.id AS gradebook_id, g.subject_id, s.name AS subject_name, s.coefficient,
        r.id AS record_id, r.subject_average
        FROM enrollments e
        JOIN subject_gradebooks g ON g.class_id = e.class_id AND g.semester_id = e.semester_id
        LEFT JOIN student_subject_records r ON r.gradebook_id = g.id AND r.student_id = e.student_id
        LEFT JOIN subjects s ON s.id = g.subject_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if filter.SemesterID > 0 {
		args = append(args, filter.SemesterID)
		query += fmt.Sprintf(" AND g.semester_id = $%d", len(args))
	}
	if filter.SubjectID > 0 {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND g.subject_id = $%d", len(args))
	}
	query += " ORDER BY g.semester_id, g.class_id, g.subject_id"

	var rows []models.SubjectRecordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subject records: %w", err)
	}
	return rows, nil
}

// ListScoreDetails returns the score entries of the given records with their type names.
func (r *GradebookRepository) ListScoreDetails(ctx context.Context, recordIDs []int64) ([]models.ScoreDetailRow, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(recordIDs))
	args := make([]interface{}, len(recordIDs))
	for i, id := range recordIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT se.record_id, se.assessment_type_id, t.name AS assessment_type_name, se.attempt, se.score
        FROM score_entries se
        LEFT JOIN assessment_types t ON t.id = se.assessment_type_id
        WHERE se.record_id IN (%s)
        ORDER BY se.record_id, se.assessment_type_id, se.attempt`, strings.Join(placeholders, ","))

	var rows []models.ScoreDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list score details: %w", err)
	}
	return rows, nil
}

// ListReportRows returns one row per (enrolled student, gradebook) of a class and semester. A student
// without a record in a gradebook gets a nil average for it; a class without gradebooks yields one
// row per student with a nil subject.
func (r *GradebookRepository) ListReportRows(ctx context.Context, classID, semesterID int64) ([]models.GradebookReportRow, error) {
	const query = `SELECT e.student_id, s.full_name, g.subject_id, r.subject_average, e.semester_average
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN subject_gradebooks g ON g.class_id = e.class_id AND g.semester_id = e.semester_id
        LEFT JOIN student_subject_records r ON r.gradebook_id = g.id AND r.student_id = e.student_id
        WHERE e.class_id = $1 AND e.semester_id = $2
        ORDER BY e.student_id, g.subject_id`
	var rows []models.GradebookReportRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, semesterID); err != nil {
		return nil, fmt.Errorf("list gradebook report rows: %w", err)
	}
	return rows, nil
}
