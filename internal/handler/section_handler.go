package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// SectionHandler exposes section management endpoints.
type SectionHandler struct {
	sections  *service.SectionService
	assembler *service.AssemblerService
}

// NewSectionHandler constructs handler.
func NewSectionHandler(sections *service.SectionService, assembler *service.AssemblerService) *SectionHandler {
	return &SectionHandler{sections: sections, assembler: assembler}
}

// Create godoc
// @Summary Create a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// ConfigurePoints godoc
// @Summary Configure assessment points for a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param payload body service.ConfigurePointsRequest true "Points payload"
// @Success 201 {object} response.Envelope
// @Router /sections/{id}/points [post]
func (h *SectionHandler) ConfigurePoints(c *gin.Context) {
	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	var req service.ConfigurePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	points, err := h.sections.ConfigurePoints(c.Request.Context(), sectionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, points)
}

// Roster godoc
// @Summary Section roster
// @Tags Sections
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/roster [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	roster, err := h.assembler.Roster(c.Request.Context(), sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Preview godoc
// @Summary Single section preview
// @Tags Sections
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/preview [get]
func (h *SectionHandler) Preview(c *gin.Context) {
	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}
	preview, err := h.assembler.SectionPreview(c.Request.Context(), sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}
