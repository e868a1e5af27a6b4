package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndMatches(t *testing.T) {
	err := Clone(ErrNotFound, "student not found")

	assert.Equal(t, "student not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("query: %w", sql.ErrConnDone))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, errors.Is(appErr, sql.ErrConnDone))
}

func TestFromErrorUnwrapsTyped(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", Validation("name is required"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, "name is required", appErr.Message)
	assert.Nil(t, FromError(nil))
}

func TestInternalMessage(t *testing.T) {
	err := Internal(sql.ErrTxDone, "failed to commit")
	assert.Equal(t, "failed to commit: sql: transaction has already been committed or rolled back", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}
