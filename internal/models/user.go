package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User group names seeded by the schema. Roles are derived from them.
const (
	GroupAdmin   = "admin"
	GroupTeacher = "teacher"
	GroupStudent = "student"
)

// RoleForGroup maps a user group name onto its role. Unknown groups yield an empty role.
func RoleForGroup(group string) UserRole {
	switch group {
	case GroupAdmin:
		return RoleAdmin
	case GroupTeacher:
		return RoleTeacher
	case GroupStudent:
		return RoleStudent
	default:
		return ""
	}
}

// UserGroup is a permission group.
type UserGroup struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserAccount is a login. StudentID links accounts provisioned at enrollment.
type UserAccount struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Email        *string    `db:"email" json:"email"`
	GroupID      int64      `db:"group_id" json:"group_id"`
	GroupName    string     `db:"group_name" json:"group_name"`
	StudentID    *string    `db:"student_id" json:"student_id"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Role returns the role implied by the account's group.
func (u *UserAccount) Role() UserRole {
	return RoleForGroup(u.GroupName)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
