package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/service"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

// AssessmentTypeHandler handles assessment type endpoints.
type AssessmentTypeHandler struct {
	service *service.AssessmentTypeService
}

// NewAssessmentTypeHandler constructs the handler.
func NewAssessmentTypeHandler(svc *service.AssessmentTypeService) *AssessmentTypeHandler {
	return &AssessmentTypeHandler{service: svc}
}

// List godoc
// @Summary List assessment types
// @Tags Assessment Types
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assessment-types [get]
func (h *AssessmentTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Create godoc
// @Summary Create assessment type
// @Tags Assessment Types
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssessmentTypeRequest true "Assessment type payload"
// @Success 201 {object} response.Envelope
// @Router /assessment-types [post]
func (h *AssessmentTypeHandler) Create(c *gin.Context) {
	var req dto.CreateAssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update assessment type
// @Tags Assessment Types
// @Accept json
// @Produce json
// @Param id path int true "Assessment type ID"
// @Param payload body dto.UpdateAssessmentTypeRequest true "Assessment type payload"
// @Success 200 {object} response.Envelope
// @Router /assessment-types/{id} [put]
func (h *AssessmentTypeHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete assessment type
// @Tags Assessment Types
// @Produce json
// @Param id path int true "Assessment type ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-types/{id} [delete]
func (h *AssessmentTypeHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Deleted(c)
}
