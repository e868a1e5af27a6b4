package dto

// CreateGradeLevelRequest captures fields for creating grade levels.
type CreateGradeLevelRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	ClassCount *int   `json:"class_count" validate:"omitempty,min=0"`
}

// UpdateGradeLevelRequest is a partial grade level update.
type UpdateGradeLevelRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	ClassCount *int    `json:"class_count" validate:"omitempty,min=0"`
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,max=150"`
	Code        *string `json:"code" validate:"omitempty,max=50"`
	Coefficient float64 `json:"coefficient" validate:"required,gt=0"`
	Description *string `json:"description"`
}

// UpdateSubjectRequest is a partial subject update.
type UpdateSubjectRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=150"`
	Code        *string  `json:"code" validate:"omitempty,max=50"`
	Coefficient *float64 `json:"coefficient" validate:"omitempty,gt=0"`
	Description *string  `json:"description"`
}

// CreateSemesterRequest creates a semester; the academic year is derived from YearLabel ("2024-2025").
type CreateSemesterRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	YearLabel string `json:"year_label" validate:"required"`
	StartDate *Date  `json:"start_date"`
	EndDate   *Date  `json:"end_date"`
}

// UpdateSemesterRequest is a partial semester update. YearLabel wins over AcademicYearID.
type UpdateSemesterRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	YearLabel      *string `json:"year_label"`
	AcademicYearID *int64  `json:"academic_year_id" validate:"omitempty,gt=0"`
	StartDate      *Date   `json:"start_date"`
	EndDate        *Date   `json:"end_date"`
}

// CreateAssessmentTypeRequest captures fields for creating assessment types.
type CreateAssessmentTypeRequest struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Weight float64 `json:"weight" validate:"required,gt=0"`
}

// UpdateAssessmentTypeRequest is a partial assessment type update.
type UpdateAssessmentTypeRequest struct {
	Name   *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0"`
}

// CreateClassRequest captures fields for creating classes.
type CreateClassRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	GradeLevelID   int64  `json:"grade_level_id" validate:"required,gt=0"`
	AcademicYearID int64  `json:"academic_year_id" validate:"required,gt=0"`
	DeclaredSize   *int   `json:"declared_size" validate:"omitempty,min=1"`
}
