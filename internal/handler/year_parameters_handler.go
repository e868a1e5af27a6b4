package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook-api/pkg/errors"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

type yearParametersService interface {
	List(ctx context.Context, academicYearID int64) ([]models.YearParameters, error)
	GetByYear(ctx context.Context, academicYearID int64) (*models.YearParameters, error)
	GetByID(ctx context.Context, id int64) (*models.YearParameters, error)
	Create(ctx context.Context, academicYearID int64, input models.YearParametersInput) (*models.YearParameters, error)
	Upsert(ctx context.Context, academicYearID int64, input models.YearParametersInput) (*models.YearParameters, bool, error)
	UpdateByYear(ctx context.Context, academicYearID int64, input models.YearParametersInput) (*models.YearParameters, error)
	UpdateByID(ctx context.Context, id int64, input models.YearParametersInput) (*models.YearParameters, error)
	DeleteByYear(ctx context.Context, academicYearID int64) error
	DeleteByID(ctx context.Context, id int64) error
}

// YearParametersHandler exposes the per-year rule set. Bodies may use snake_case, camelCase or
// PascalCase keys; they are normalised before reaching the service.
type YearParametersHandler struct {
	service yearParametersService
}

// NewYearParametersHandler constructs the handler.
func NewYearParametersHandler(svc yearParametersService) *YearParametersHandler {
	return &YearParametersHandler{service: svc}
}

// List godoc
// @Summary List year parameters
// @Tags Year Parameters
// @Produce json
// @Param academic_year_id query int false "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters [get]
func (h *YearParametersHandler) List(c *gin.Context) {
	yearID, err := queryID(c, "academic_year_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	params, err := h.service.List(c.Request.Context(), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// Create godoc
// @Summary Create year parameters
// @Description Fails with 409 when the academic year already has parameters
// @Tags Year Parameters
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /year-parameters [post]
func (h *YearParametersHandler) Create(c *gin.Context) {
	payload, err := decodeYearParameters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payload.AcademicYearID == nil || *payload.AcademicYearID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required"))
		return
	}
	params, err := h.service.Create(c.Request.Context(), *payload.AcademicYearID, payload.Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, params)
}

// GetByYear godoc
// @Summary Get year parameters of an academic year
// @Tags Year Parameters
// @Produce json
// @Param yearId path int true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/years/{yearId} [get]
func (h *YearParametersHandler) GetByYear(c *gin.Context) {
	yearID, err := pathID(c, "yearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	params, err := h.service.GetByYear(c.Request.Context(), yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// Upsert godoc
// @Summary Create or merge year parameters
// @Description Responds 201 when a new set was created and 200 when an existing one was merged
// @Tags Year Parameters
// @Accept json
// @Produce json
// @Param yearId path int true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /year-parameters/years/{yearId}/upsert [put]
func (h *YearParametersHandler) Upsert(c *gin.Context) {
	yearID, err := pathID(c, "yearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := decodeYearParameters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	params, created, err := h.service.Upsert(c.Request.Context(), yearID, payload.Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, params)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// UpdateByYear godoc
// @Summary Update year parameters of an academic year
// @Tags Year Parameters
// @Accept json
// @Produce json
// @Param yearId path int true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/years/{yearId} [put]
func (h *YearParametersHandler) UpdateByYear(c *gin.Context) {
	yearID, err := pathID(c, "yearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := decodeYearParameters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	params, err := h.service.UpdateByYear(c.Request.Context(), yearID, payload.Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// DeleteByYear godoc
// @Summary Delete year parameters of an academic year
// @Tags Year Parameters
// @Produce json
// @Param yearId path int true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/years/{yearId} [delete]
func (h *YearParametersHandler) DeleteByYear(c *gin.Context) {
	yearID, err := pathID(c, "yearId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteByYear(c.Request.Context(), yearID); err != nil {
		response.Error(c, err)
		return
	}
	response.Deleted(c)
}

// Get godoc
// @Summary Get year parameters by id
// @Tags Year Parameters
// @Produce json
// @Param id path int true "Year parameters ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/{id} [get]
func (h *YearParametersHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	params, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// Update godoc
// @Summary Update year parameters by id
// @Tags Year Parameters
// @Accept json
// @Produce json
// @Param id path int true "Year parameters ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/{id} [put]
func (h *YearParametersHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := decodeYearParameters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	params, err := h.service.UpdateByID(c.Request.Context(), id, payload.Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, params, nil)
}

// Delete godoc
// @Summary Delete year parameters by id
// @Tags Year Parameters
// @Produce json
// @Param id path int true "Year parameters ID"
// @Success 200 {object} response.Envelope
// @Router /year-parameters/{id} [delete]
func (h *YearParametersHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Deleted(c)
}

func decodeYearParameters(c *gin.Context) (dto.YearParametersPayload, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return dto.YearParametersPayload{}, invalidPayload(err)
	}
	payload, err := dto.DecodeYearParameters(body)
	if err != nil {
		return payload, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return payload, nil
}
