package dto

// EnrollStudentRequest enrolls an existing student or creates one first.
// FullName, Sex and BirthDate are required only when the student id is unknown.
type EnrollStudentRequest struct {
	StudentID  string  `json:"student_id" validate:"required,max=32"`
	FullName   *string `json:"full_name" validate:"omitempty,max=255"`
	Sex        *string `json:"sex" validate:"omitempty,max=10"`
	BirthDate  *Date   `json:"birth_date"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Address    *string `json:"address"`
	AdmittedAt *Date   `json:"admitted_at"`
	Notes      *string `json:"notes"`
}

// UpdateStudentRequest is a partial student update.
type UpdateStudentRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Sex        *string `json:"sex" validate:"omitempty,min=1,max=10"`
	BirthDate  *Date   `json:"birth_date"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Address    *string `json:"address"`
	AdmittedAt *Date   `json:"admitted_at"`
	Notes      *string `json:"notes"`
}
