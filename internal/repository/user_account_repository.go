package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// UserAccountRepository persists login accounts and their groups.
type UserAccountRepository struct {
	db *sqlx.DB
}

// NewUserAccountRepository constructs the repository.
func NewUserAccountRepository(db *sqlx.DB) *UserAccountRepository {
	return &UserAccountRepository{db: db}
}

func (r *UserAccountRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const accountSelect = `SELECT u.id, u.username, u.password_hash, u.full_name, u.email, u.group_id, g.name AS group_name,
        u.student_id, u.active, u.last_login, u.created_at, u.updated_at
        FROM user_accounts u
        JOIN user_groups g ON g.id = u.group_id`

// FindByUsername returns an account by username.
func (r *UserAccountRepository) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := r.db.GetContext(ctx, &account, accountSelect+` WHERE u.username = $1`, username); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByID returns an account by id.
func (r *UserAccountRepository) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := r.db.GetContext(ctx, &account, accountSelect+` WHERE u.id = $1`, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsForStudent reports whether the student already has a login.
func (r *UserAccountRepository) ExistsForStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) (bool, error) {
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, `SELECT 1 FROM user_accounts WHERE student_id = $1`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student account: %w", err)
	}
	return true, nil
}

// UsernameTaken reports whether the username is already in use.
func (r *UserAccountRepository) UsernameTaken(ctx context.Context, exec sqlx.ExtContext, username string) (bool, error) {
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, `SELECT 1 FROM user_accounts WHERE username = $1`, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// FindGroupByName returns a user group by name.
func (r *UserAccountRepository) FindGroupByName(ctx context.Context, exec sqlx.ExtContext, name string) (*models.UserGroup, error) {
	var group models.UserGroup
	if err := sqlx.GetContext(ctx, r.exec(exec), &group, `SELECT id, name, created_at FROM user_groups WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts an account, assigning an id when missing.
func (r *UserAccountRepository) Create(ctx context.Context, exec sqlx.ExtContext, account *models.UserAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	const query = `INSERT INTO user_accounts (id, username, password_hash, full_name, email, group_id, student_id, active, created_at, updated_at)
        VALUES (:id, :username, :password_hash, :full_name, :email, :group_id, :student_id, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, account); err != nil {
		return fmt.Errorf("create user account: %w", err)
	}
	return nil
}

// DeleteByStudent removes the login linked to a student.
func (r *UserAccountRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM user_accounts WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student account: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (r *UserAccountRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE user_accounts SET last_login = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (r *UserAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE user_accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
