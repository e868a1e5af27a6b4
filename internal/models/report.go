package models

import "time"

// GradebookReportRow is one student line of a class gradebook report.
type GradebookReportRow struct {
	StudentID       string   `db:"student_id"`
	FullName        string   `db:"full_name"`
	SubjectID       *int64   `db:"subject_id"`
	SubjectAverage  *float64 `db:"subject_average"`
	SemesterAverage *float64 `db:"semester_average"`
}

// ReportLink points at a generated report file.
type ReportLink struct {
	FileID    string    `json:"file_id"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
