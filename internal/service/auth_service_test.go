package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
)

type mockAuthRepo struct {
	accounts         map[string]*models.UserAccount
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.accounts[id].PasswordHash = passwordHash
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	hash, err := bcrypt.GenerateFromPassword([]byte("abc123xyz9"), bcrypt.MinCost)
	require.NoError(t, err)
	studentID := "HS001"
	repo := &mockAuthRepo{accounts: map[string]*models.UserAccount{
		"u-1": {ID: "u-1", Username: "HS001", PasswordHash: string(hash), FullName: "Nguyễn Văn A", GroupName: models.GroupStudent, StudentID: &studentID, Active: true},
		"u-2": {ID: "u-2", Username: "locked", PasswordHash: string(hash), GroupName: models.GroupTeacher, Active: false},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "test"})
	return svc, repo
}

func TestAuthLoginIssuesTokenWithGroupRole(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "HS001", Password: "abc123xyz9"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	assert.Equal(t, "HS001", resp.User.StudentID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "HS001", claims.StudentID)
}

func TestAuthLoginFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "HS001", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "locked", Password: "abc123xyz9"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = svc.Login(context.Background(), models.LoginRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _ := newAuthFixture(t)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "HS001", Password: "abc123xyz9"})
	require.NoError(t, err)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{OldPassword: "abc123xyz9", NewPassword: "newpassword1"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.accounts["u-1"].PasswordHash), []byte("newpassword1")))

	me, err := svc.Me(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Văn A", me.FullName)

	_, err = svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
