package models

import "time"

// Enrollment places a student in a class for one semester. SemesterAverage is derived.
type Enrollment struct {
	StudentID       string    `db:"student_id" json:"student_id"`
	ClassID         int64     `db:"class_id" json:"class_id"`
	SemesterID      int64     `db:"semester_id" json:"semester_id"`
	SemesterAverage *float64  `db:"semester_average" json:"semester_average"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// EnrolledStudent is a class roster row.
type EnrolledStudent struct {
	StudentID       string    `db:"student_id" json:"student_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Sex             string    `db:"sex" json:"sex"`
	BirthDate       time.Time `db:"birth_date" json:"birth_date"`
	Email           *string   `db:"email" json:"email"`
	SemesterAverage *float64  `db:"semester_average" json:"semester_average"`
}

// ProvisionedAccount is returned exactly once after enrollment created a login.
type ProvisionedAccount struct {
	Username          string `json:"username"`
	TemporaryPassword string `json:"temporary_password"`
	Email             string `json:"email"`
}

// EnrollmentResult is the outcome of an enroll call.
type EnrollmentResult struct {
	Enrollment     Enrollment          `json:"enrollment"`
	Student        Student             `json:"student"`
	StudentCreated bool                `json:"student_created"`
	Account        *ProvisionedAccount `json:"account,omitempty"`
}

// StudentClass is one of a student's class placements.
type StudentClass struct {
	ClassID         int64    `db:"class_id" json:"class_id"`
	ClassName       string   `db:"class_name" json:"class_name"`
	GradeLevelName  string   `db:"grade_level_name" json:"grade_level_name"`
	SemesterID      int64    `db:"semester_id" json:"semester_id"`
	SemesterName    string   `db:"semester_name" json:"semester_name"`
	StartYear       int      `db:"start_year" json:"start_year"`
	EndYear         int      `db:"end_year" json:"end_year"`
	SemesterAverage *float64 `db:"semester_average" json:"semester_average"`
}
