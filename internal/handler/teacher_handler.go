package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// TeacherHandler exposes the teacher home screen payload.
type TeacherHandler struct {
	assembler *service.AssemblerService
}

// NewTeacherHandler constructs handler.
func NewTeacherHandler(assembler *service.AssemblerService) *TeacherHandler {
	return &TeacherHandler{assembler: assembler}
}

// Data godoc
// @Summary Teacher home screen data
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers/me/data [get]
func (h *TeacherHandler) Data(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.assembler.TeacherData(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
