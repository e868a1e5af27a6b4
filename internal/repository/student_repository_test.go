package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("HS001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "sex", "birth_date", "email", "phone", "address", "admitted_at", "notes", "created_at", "updated_at"}).
			AddRow("HS001", "Nguyễn An", "Nam", now, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	student, err := repo.FindByID(context.Background(), nil, "HS001")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn An", student.FullName)
	assert.Nil(t, student.Email)

	_, err = repo.FindByID(context.Background(), nil, "NOPE")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateKeepsExternalID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO students \\(id, full_name").
		WithArgs("HS001", "Nguyễn An", "Nam", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	student := &models.Student{ID: "HS001", FullName: "Nguyễn An", Sex: "Nam"}
	require.NoError(t, repo.Create(context.Background(), nil, student))
	assert.Equal(t, now, student.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySearchEscapesPattern(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE full_name ILIKE $1 OR id = $2 OR email ILIKE $1 OR phone ILIKE $1")).
		WithArgs(`%50\%%`, "50%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "sex", "birth_date", "email", "phone"}))

	results, err := repo.Search(context.Background(), "50%")
	require.NoError(t, err)
	assert.Empty(t, results)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteUsesTx(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("HS001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), tx, "HS001"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
