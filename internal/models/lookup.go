package models

// Bucket is a display category for assessment types.
type Bucket string

const (
	BucketOral          Bucket = "oral"
	BucketFifteenMinute Bucket = "fifteen_minute"
	BucketOnePeriod     Bucket = "one_period"
	BucketMidterm       Bucket = "midterm"
	BucketFinal         Bucket = "final"
)

// BucketAverages holds the unweighted per-bucket display averages of one subject.
type BucketAverages struct {
	Oral          *float64 `json:"oral"`
	FifteenMinute *float64 `json:"fifteen_minute"`
	OnePeriod     *float64 `json:"one_period"`
	Midterm       *float64 `json:"midterm"`
	Final         *float64 `json:"final"`
}

// Set stores v under bucket b.
func (a *BucketAverages) Set(b Bucket, v *float64) {
	switch b {
	case BucketOral:
		a.Oral = v
	case BucketFifteenMinute:
		a.FifteenMinute = v
	case BucketOnePeriod:
		a.OnePeriod = v
	case BucketMidterm:
		a.Midterm = v
	case BucketFinal:
		a.Final = v
	}
}

// SubjectRecordRow is a gradebook of one of the student's classes joined with subject metadata.
// RecordID is nil when the student has no record in that gradebook yet.
type SubjectRecordRow struct {
	ClassID        int64    `db:"class_id"`
	SemesterID     int64    `db:"semester_id"`
	GradebookID    int64    `db:"gradebook_id"`
	SubjectID      int64    `db:"subject_id"`
	SubjectName    *string  `db:"subject_name"`
	Coefficient    *float64 `db:"coefficient"`
	RecordID       *int64   `db:"record_id"`
	SubjectAverage *float64 `db:"subject_average"`
}

// ScoreDetailRow is a score entry joined with its assessment type name.
type ScoreDetailRow struct {
	RecordID           int64    `db:"record_id"`
	AssessmentTypeID   int64    `db:"assessment_type_id"`
	AssessmentTypeName *string  `db:"assessment_type_name"`
	Attempt            int      `db:"attempt"`
	Score              *float64 `db:"score"`
}

// ScoreDetail is a raw score in a lookup. Bucket is empty when the type could not be classified.
type ScoreDetail struct {
	AssessmentTypeID   int64    `json:"assessment_type_id"`
	AssessmentTypeName string   `json:"assessment_type_name"`
	Attempt            int      `json:"attempt"`
	Score              *float64 `json:"score"`
	Bucket             Bucket   `json:"bucket,omitempty"`
}

// SubjectScores is one subject of a lookup.
type SubjectScores struct {
	GradebookID    int64          `json:"gradebook_id"`
	SubjectID      int64          `json:"subject_id"`
	SubjectName    string         `json:"subject_name"`
	Coefficient    float64        `json:"coefficient"`
	SubjectAverage *float64       `json:"subject_average"`
	Buckets        BucketAverages `json:"buckets"`
	Details        []ScoreDetail  `json:"details"`
}

// ClassScores is one enrollment of a lookup.
type ClassScores struct {
	StudentClass
	Subjects []SubjectScores `json:"subjects"`
}

// StudentScoreLookup is the score projection of one student.
type StudentScoreLookup struct {
	StudentID   string        `json:"student_id"`
	FullName    string        `json:"full_name"`
	Enrollments []ClassScores `json:"enrollments"`
}

// LookupFilter narrows a score lookup. Zero values mean "all".
type LookupFilter struct {
	SemesterID int64
	SubjectID  int64
}
