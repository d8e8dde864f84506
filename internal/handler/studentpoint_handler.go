package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// StudentPointHandler exposes the point status mutation endpoint.
type StudentPointHandler struct {
	points *service.StudentPointService
}

// NewStudentPointHandler constructs handler.
func NewStudentPointHandler(points *service.StudentPointService) *StudentPointHandler {
	return &StudentPointHandler{points: points}
}

// UpdateStatus godoc
// @Summary Update a student point status
// @Tags StudentPoints
// @Accept json
// @Produce json
// @Param id path int true "Student point ID"
// @Param payload body service.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /student-points/{id} [patch]
func (h *StudentPointHandler) UpdateStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student point id"))
		return
	}
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	point, err := h.points.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, point, nil)
}
