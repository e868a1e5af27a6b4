package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook-api/internal/dto"
	"github.com/noah-isme/sma-gradebook-api/internal/service"
	"github.com/noah-isme/sma-gradebook-api/pkg/response"
)

// GradeLevelHandler handles grade level endpoints.
type GradeLevelHandler struct {
	service *service.GradeLevelService
}

// NewGradeLevelHandler constructs a grade level handler.
func NewGradeLevelHandler(svc *service.GradeLevelService) *GradeLevelHandler {
	return &GradeLevelHandler{service: svc}
}

// List godoc
// @Summary List grade levels
// @Tags Grade Levels
// @Produce json
// @Param include_classes query bool false "Embed the classes of each grade level"
// @Success 200 {object} response.Envelope
// @Router /grade-levels [get]
func (h *GradeLevelHandler) List(c *gin.Context) {
	levels, err := h.service.List(c.Request.Context(), c.Query("include_classes") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Create godoc
// @Summary Create grade level
// @Tags Grade Levels
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradeLevelRequest true "Grade level payload"
// @Success 201 {object} response.Envelope
// @Router /grade-levels [post]
func (h *GradeLevelHandler) Create(c *gin.Context) {
	var req dto.CreateGradeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	level, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// Update godoc
// @Summary Update grade level
// @Tags Grade Levels
// @Accept json
// @Produce json
// @Param id path int true "Grade level ID"
// @Param payload body dto.UpdateGradeLevelRequest true "Grade level payload"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [put]
func (h *GradeLevelHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateGradeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	level, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Delete godoc
// @Summary Delete grade level
// @Description Refused with 400 while classes still reference the grade level
// @Tags Grade Levels
// @Produce json
// @Param id path int true "Grade level ID"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [delete]
func (h *GradeLevelHandler) Delete(c *gin.Context) {
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
