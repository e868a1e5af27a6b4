package models

import "time"

// SubjectGradebook holds one subject's scores for one class and semester.
type SubjectGradebook struct {
	ID         int64     `db:"id" json:"id"`
	ClassID    int64     `db:"class_id" json:"class_id"`
	SemesterID int64     `db:"semester_id" json:"semester_id"`
	SubjectID  int64     `db:"subject_id" json:"subject_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StudentSubjectRecord is a student's row in a gradebook. SubjectAverage is derived.
type StudentSubjectRecord struct {
	ID             int64     `db:"id" json:"id"`
	GradebookID    int64     `db:"gradebook_id" json:"gradebook_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectAverage *float64  `db:"subject_average" json:"subject_average"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreEntry is one graded attempt. A nil Score means "not yet graded".
type ScoreEntry struct {
	ID               int64     `db:"id" json:"id"`
	RecordID         int64     `db:"record_id" json:"record_id"`
	AssessmentTypeID int64     `db:"assessment_type_id" json:"assessment_type_id"`
	Attempt          int       `db:"attempt" json:"attempt"`
	Score            *float64  `db:"score" json:"score"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// WeightedScore is a score joined with its assessment type weight. Weight is nil when the type is missing.
type WeightedScore struct {
	AssessmentTypeID int64    `db:"assessment_type_id"`
	Attempt          int      `db:"attempt"`
	Score            *float64 `db:"score"`
	Weight           *float64 `db:"weight"`
}

// SubjectAverageRow is one subject average of an enrolled student with its subject coefficient.
type SubjectAverageRow struct {
	StudentID      string   `db:"student_id"`
	SubjectID      int64    `db:"subject_id"`
	SubjectAverage *float64 `db:"subject_average"`
	Coefficient    *float64 `db:"coefficient"`
}

// ScoreDetailInput is a single score write. ScoreSet is false when the caller omitted the score.
type ScoreDetailInput struct {
	AssessmentTypeID int64
	Attempt          int
	ScoreSet         bool
	Score            *float64
}

// StudentScoresInput groups the details entered for one student.
type StudentScoresInput struct {
	RowIndex  int
	StudentID string
	Details   []ScoreDetailInput
}

// SkippedRow describes a batch row that was ignored. DetailIndex is -1 for student-level skips.
type SkippedRow struct {
	RowIndex    int    `json:"row_index"`
	DetailIndex int    `json:"detail_index"`
	StudentID   string `json:"student_id,omitempty"`
	Reason      string `json:"reason"`
}

// AcceptedRow reports how many details were stored for a student.
type AcceptedRow struct {
	RowIndex  int    `json:"row_index"`
	StudentID string `json:"student_id"`
	RecordID  int64  `json:"record_id"`
	Details   int    `json:"details"`
}

// StudentAverage reports a recomputed subject average.
type StudentAverage struct {
	StudentID      string   `json:"student_id"`
	SubjectAverage *float64 `json:"subject_average"`
}

// ScoreBatchResult summarises an enterScores call.
type ScoreBatchResult struct {
	OK          bool             `json:"ok"`
	GradebookID int64            `json:"gradebook_id"`
	Accepted    []AcceptedRow    `json:"accepted"`
	Skipped     []SkippedRow     `json:"skipped"`
	Averages    []StudentAverage `json:"averages"`
}
