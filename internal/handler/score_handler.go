package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

type scoreService interface {
	EnterScores(ctx context.Context, classID, semesterID, subjectID int64, req dto.EnterScoresRequest) (*models.ScoreBatchResult, error)
}

// ScoreHandler accepts score batches for one subject gradebook.
type ScoreHandler struct {
	scores scoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores scoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// Enter godoc
// @Summary Enter scores
// @Description Upserts scores for the class, semester and subject, then recomputes subject and semester averages.
// @Description A detail with "score": null clears the stored score; omitting the key leaves it untouched.
// @Tags Scores
// @Accept json
// @Produce json
// @Param classId path int true "Class ID"
// @Param semesterId path int true "Semester ID"
// @Param subjectId path int true "Subject ID"
// @Param payload body dto.EnterScoresRequest true "Score batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/semesters/{semesterId}/subjects/{subjectId}/scores [post]
func (h *ScoreHandler) Enter(c *gin.Context) {
	classID, semesterID, err := classSemesterParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID, err := pathID(c, "subjectId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.EnterScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	result, err := h.scores.EnterScores(c.Request.Context(), classID, semesterID, subjectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
