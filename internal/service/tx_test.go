package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("transaction provider unavailable")
}

func TestInTxCommits(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	called := false
	err := inTx(context.Background(), provider, func(tx *sqlx.Tx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := inTx(context.Background(), provider, func(tx *sqlx.Tx) error {
		return appErrors.Validation("bad row")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	provider, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = inTx(context.Background(), provider, func(tx *sqlx.Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxBeginFailure(t *testing.T) {
	err := inTx(context.Background(), noopTxProvider{}, func(tx *sqlx.Tx) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	err = inTx(context.Background(), nil, func(tx *sqlx.Tx) error { return nil })
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
