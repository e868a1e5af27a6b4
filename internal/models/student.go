package models

import "time"

// Student is identified by an externally assigned id (the school register number).
type Student struct {
	ID         string     `db:"id" json:"id"`
	FullName   string     `db:"full_name" json:"full_name"`
	Sex        string     `db:"sex" json:"sex"`
	BirthDate  time.Time  `db:"birth_date" json:"birth_date"`
	Email      *string    `db:"email" json:"email"`
	Phone      *string    `db:"phone" json:"phone"`
	Address    *string    `db:"address" json:"address"`
	AdmittedAt *time.Time `db:"admitted_at" json:"admitted_at"`
	Notes      *string    `db:"notes" json:"notes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentPatch carries a partial student update; nil pointers keep the stored value.
type StudentPatch struct {
	FullName   *string
	Sex        *string
	BirthDate  *time.Time
	Email      *string
	Phone      *string
	Address    *string
	AdmittedAt *time.Time
	Notes      *string
}

// Apply merges the non-nil fields of p onto s.
func (p StudentPatch) Apply(s *Student) {
	if p.FullName != nil {
		s.FullName = *p.FullName
	}
	if p.Sex != nil {
		s.Sex = *p.Sex
	}
	if p.BirthDate != nil {
		s.BirthDate = *p.BirthDate
	}
	if p.Email != nil {
		s.Email = p.Email
	}
	if p.Phone != nil {
		s.Phone = p.Phone
	}
	if p.Address != nil {
		s.Address = p.Address
	}
	if p.AdmittedAt != nil {
		s.AdmittedAt = p.AdmittedAt
	}
	if p.Notes != nil {
		s.Notes = p.Notes
	}
}

// HasEmail reports whether the student has a usable contact email.
func (s *Student) HasEmail() bool {
	return s.Email != nil && *s.Email != ""
}

// StudentSearchResult is a search hit.
type StudentSearchResult struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Sex       string    `db:"sex" json:"sex"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	Email     *string   `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
}
