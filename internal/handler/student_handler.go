package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/models"
	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// StudentHandler exposes the student home screen and enrollment endpoints.
type StudentHandler struct {
	assembler   *service.AssemblerService
	enrollments *service.EnrollmentService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(assembler *service.AssemblerService, enrollments *service.EnrollmentService) *StudentHandler {
	return &StudentHandler{assembler: assembler, enrollments: enrollments}
}

// Data godoc
// @Summary Student home screen data
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/data [get]
func (h *StudentHandler) Data(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.assembler.StudentData(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// Enroll godoc
// @Summary Enroll in a section by code
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.EnrollByCodeRequest true "Enrollment code"
// @Success 201 {object} response.Envelope
// @Router /students/me/enrollments [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.EnrollByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.EnrollByCode(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.Outcome == models.EnrollOutcomeDuplicate {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// Disenroll godoc
// @Summary Leave a section
// @Tags Students
// @Produce json
// @Param sectionId path int true "Section ID"
// @Success 204
// @Router /students/me/enrollments/{sectionId} [delete]
func (h *StudentHandler) Disenroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	sectionID, err := idParam(c, "sectionId")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	if err := h.enrollments.Disenroll(c.Request.Context(), claims.UserID, sectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
