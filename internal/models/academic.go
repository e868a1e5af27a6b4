package models

import "time"

// GradeLevel groups classes of the same school year level (e.g. "Khối 10").
type GradeLevel struct {
	ID         int64         `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	ClassCount *int          `db:"class_count" json:"class_count"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
	Classes    []SchoolClass `db:"-" json:"classes,omitempty"`
}

// Subject is a taught subject; Coefficient weights it inside the semester average.
type Subject struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        *string   `db:"code" json:"code"`
	Coefficient float64   `db:"coefficient" json:"coefficient"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicYear spans two consecutive calendar years. Rows are created implicitly from semester labels.
type AcademicYear struct {
	ID        int64     `db:"id" json:"id"`
	StartYear int       `db:"start_year" json:"start_year"`
	EndYear   int       `db:"end_year" json:"end_year"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Semester belongs to exactly one academic year.
type Semester struct {
	ID             int64         `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	AcademicYearID int64         `db:"academic_year_id" json:"academic_year_id"`
	StartDate      *time.Time    `db:"start_date" json:"start_date"`
	EndDate        *time.Time    `db:"end_date" json:"end_date"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	AcademicYear   *AcademicYear `db:"-" json:"academic_year,omitempty"`
}

// SemesterFilter narrows semester listings. A non-empty YearLabel takes precedence over AcademicYearID.
type SemesterFilter struct {
	YearLabel      string
	AcademicYearID int64
}

// AssessmentType is a kind of test whose Weight applies inside a subject average.
type AssessmentType struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// YearParameters is the per-academic-year rule set. A nil field means "no constraint".
type YearParameters struct {
	ID                   int64     `db:"id" json:"id"`
	AcademicYearID       int64     `db:"academic_year_id" json:"academic_year_id"`
	MinAge               *int      `db:"min_age" json:"min_age"`
	MaxAge               *int      `db:"max_age" json:"max_age"`
	MaxClassSize         *int      `db:"max_class_size" json:"max_class_size"`
	MinSubjectPassScore  *int      `db:"min_subject_pass_score" json:"min_subject_pass_score"`
	MinSemesterPassScore *int      `db:"min_semester_pass_score" json:"min_semester_pass_score"`
	MinScore             *int      `db:"min_score" json:"min_score"`
	MaxScore             *int      `db:"max_score" json:"max_score"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// YearParametersInput is the canonical write shape. Fields whose Set flag is false are left untouched on update.
type YearParametersInput struct {
	MinAge               OptionalInt
	MaxAge               OptionalInt
	MaxClassSize         OptionalInt
	MinSubjectPassScore  OptionalInt
	MinSemesterPassScore OptionalInt
	MinScore             OptionalInt
	MaxScore             OptionalInt
}

// OptionalInt distinguishes an absent field from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

// Apply merges the present fields of in onto p.
func (in YearParametersInput) Apply(p *YearParameters) {
	assign := func(dst **int, src OptionalInt) {
		if src.Set {
			*dst = src.Value
		}
	}
	assign(&p.MinAge, in.MinAge)
	assign(&p.MaxAge, in.MaxAge)
	assign(&p.MaxClassSize, in.MaxClassSize)
	assign(&p.MinSubjectPassScore, in.MinSubjectPassScore)
	assign(&p.MinSemesterPassScore, in.MinSemesterPassScore)
	assign(&p.MinScore, in.MinScore)
	assign(&p.MaxScore, in.MaxScore)
}

// SchoolClass is a homeroom class in one grade level and academic year.
type SchoolClass struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	GradeLevelID   int64     `db:"grade_level_id" json:"grade_level_id"`
	AcademicYearID int64     `db:"academic_year_id" json:"academic_year_id"`
	DeclaredSize   *int      `db:"declared_size" json:"declared_size"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSummary is a class listing row with its grade level name and, when scoped to a semester, its head count.
type ClassSummary struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	GradeLevelID   int64  `db:"grade_level_id" json:"grade_level_id"`
	GradeLevelName string `db:"grade_level_name" json:"grade_level_name"`
	AcademicYearID int64  `db:"academic_year_id" json:"academic_year_id"`
	DeclaredSize   *int   `db:"declared_size" json:"declared_size"`
	StudentCount   *int   `db:"student_count" json:"student_count,omitempty"`
}

// ClassFilter narrows class listings.
type ClassFilter struct {
	AcademicYearID int64
	GradeLevelID   int64
	SemesterID     int64
}
