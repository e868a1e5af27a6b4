package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

func TestAcademicYearRepositoryFindOrCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO academic_years (start_year, end_year) VALUES ($1, $2) ON CONFLICT (start_year, end_year) DO UPDATE")).
		WithArgs(2024, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_year", "end_year", "created_at"}).AddRow(int64(3), 2024, 2025, time.Now()))

	year, err := repo.FindOrCreate(context.Background(), nil, 2024, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(3), year.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryListEmbedsYear(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSemesterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "academic_year_id", "start_date", "end_date", "created_at", "updated_at", "start_year", "end_year"}).
		AddRow(int64(1), "HK1", int64(3), nil, nil, time.Now(), time.Now(), 2024, 2025)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.academic_year_id = $1 ORDER BY y.start_year DESC, s.id")).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	semesters, err := repo.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, semesters, 1)
	require.NotNil(t, semesters[0].AcademicYear)
	assert.Equal(t, 2025, semesters[0].AcademicYear.EndYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeLevelRepositoryDeleteReportsMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewGradeLevelRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grade_levels WHERE id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestYearParametersRepositoryMaxClassSizeForClass(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewYearParametersRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN year_parameters p ON p.academic_year_id = c.academic_year_id WHERE c.id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max_class_size"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.max_class_size FROM classes c")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"max_class_size"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.max_class_size FROM classes c")).
		WithArgs(int64(3)).
		WillReturnError(sql.ErrNoRows)

	max, err := repo.MaxClassSizeForClass(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NotNil(t, max)
	assert.Equal(t, 2, *max)

	max, err = repo.MaxClassSizeForClass(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Nil(t, max)

	_, err = repo.MaxClassSizeForClass(context.Background(), nil, 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListWithSemesterCount(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "grade_level_id", "grade_level_name", "academic_year_id", "declared_size", "student_count"}).
		AddRow(int64(1), "10A1", int64(1), "Khối 10", int64(3), 40, 2)
	mock.ExpectQuery(`e\.semester_id = \$1\)::INTEGER AS student_count .* WHERE c\.academic_year_id = \$2`).
		WithArgs(int64(5), int64(3)).
		WillReturnRows(rows)

	classes, err := repo.List(context.Background(), models.ClassFilter{AcademicYearID: 3, SemesterID: 5})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 2, *classes[0].StudentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
