package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// ExportHandler serves mastery report downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// SectionMastery godoc
// @Summary Download a section mastery report
// @Tags Exports
// @Produce text/csv
// @Param id path int true "Section ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /sections/{id}/export [get]
func (h *ExportHandler) SectionMastery(c *gin.Context) {
	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return
	}

	format := service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))

	result, err := h.exports.SectionMasteryReport(c.Request.Context(), sectionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
