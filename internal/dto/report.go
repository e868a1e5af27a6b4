package dto

// GradebookReportRequest asks for a class gradebook export.
type GradebookReportRequest struct {
	ClassID    int64  `json:"class_id" validate:"required,gt=0"`
	SemesterID int64  `json:"semester_id" validate:"required,gt=0"`
	Format     string `json:"format" validate:"required,oneof=csv pdf xlsx"`
}
