package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, classID, semesterID int64, req dto.EnrollStudentRequest) (*models.EnrollmentResult, error)
	ListStudents(ctx context.Context, classID, semesterID int64) ([]models.EnrolledStudent, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List students of a class in a semester
// @Tags Enrollments
// @Produce json
// @Param classId path int true "Class ID"
// @Param semesterId path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/semesters/{semesterId}/students [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	classID, semesterID, err := classSemesterParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.enrollments.ListStudents(c.Request.Context(), classID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Enroll godoc
// @Summary Enroll a student
// @Description Creates the student when the id is unknown and provisions a login account when an email is given
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param classId path int true "Class ID"
// @Param semesterId path int true "Semester ID"
// @Param payload body dto.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/semesters/{semesterId}/students [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	classID, semesterID, err := classSemesterParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), classID, semesterID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func classSemesterParams(c *gin.Context) (int64, int64, error) {
	classID, err := pathID(c, "classId")
	if err != nil {
		return 0, 0, err
	}
	semesterID, err := pathID(c, "semesterId")
	if err != nil {
		return 0, 0, err
	}
	return classID, semesterID, nil
}
