package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

type lookupService interface {
	LookupScoresOfStudent(ctx context.Context, studentID string, filter models.LookupFilter) (*models.StudentScoreLookup, error)
	MyClasses(ctx context.Context, studentID string, semesterID int64) ([]models.StudentClass, error)
	MyScoresBySemester(ctx context.Context, studentID string, semesterID int64) (*models.StudentScoreLookup, error)
}

// LookupHandler serves the read-side score projections.
type LookupHandler struct {
	lookups lookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookups lookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// StudentScores godoc
// @Summary Scores of a student
// @Description Per enrollment and subject: subject average, bucket averages and raw scores
// @Tags Lookup
// @Produce json
// @Param id path string true "Student ID"
// @Param semester_id query int false "Semester ID"
// @Param subject_id query int false "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/scores [get]
func (h *LookupHandler) StudentScores(c *gin.Context) {
	var filter models.LookupFilter
	var err error
	if filter.SemesterID, err = queryID(c, "semester_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SubjectID, err = queryID(c, "subject_id"); err != nil {
		response.Error(c, err)
		return
	}

	lookup, err := h.lookups.LookupScoresOfStudent(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lookup, nil)
}

// MyClasses godoc
// @Summary Classes of the signed-in student
// @Tags Lookup
// @Produce json
// @Param semester_id query int false "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /me/classes [get]
func (h *LookupHandler) MyClasses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	semesterID, err := queryID(c, "semester_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	classes, err := h.lookups.MyClasses(c.Request.Context(), claims.StudentID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// MyScores godoc
// @Summary Scores of the signed-in student in a semester
// @Tags Lookup
// @Produce json
// @Param semesterId path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /me/semesters/{semesterId}/scores [get]
func (h *LookupHandler) MyScores(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	semesterID, err := pathID(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}

	lookup, err := h.lookups.MyScoresBySemester(c.Request.Context(), claims.StudentID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lookup, nil)
}
