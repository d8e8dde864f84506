package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axis-edu/axis-api/internal/models"
	"github.com/axis-edu/axis-api/internal/realtime"
	"github.com/axis-edu/axis-api/internal/service"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
	"github.com/axis-edu/axis-api/pkg/response"
)

// GradeViewHandler serves compiled grade views, as one-shot snapshots and
// as live SSE streams.
type GradeViewHandler struct {
	views      *service.GradeViewService
	reconciler *realtime.Reconciler
}

// NewGradeViewHandler constructs handler. reconciler may be nil when
// realtime is disabled; the stream endpoint then degrades to a snapshot.
func NewGradeViewHandler(views *service.GradeViewService, reconciler *realtime.Reconciler) *GradeViewHandler {
	return &GradeViewHandler{views: views, reconciler: reconciler}
}

// Snapshot godoc
// @Summary Compiled grade view for one student in a section
// @Tags GradeViews
// @Produce json
// @Param id path int true "Section ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/students/{studentId}/gradeview [get]
func (h *GradeViewHandler) Snapshot(c *gin.Context) {
	sectionID, studentID, ok := h.scope(c)
	if !ok {
		return
	}
	view, err := h.views.Compile(c.Request.Context(), sectionID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Stream godoc
// @Summary Live grade view over server-sent events
// @Tags GradeViews
// @Produce text/event-stream
// @Param id path int true "Section ID"
// @Param studentId path int true "Student ID"
// @Success 200
// @Router /sections/{id}/students/{studentId}/gradeview/stream [get]
func (h *GradeViewHandler) Stream(c *gin.Context) {
	sectionID, studentID, ok := h.scope(c)
	if !ok {
		return
	}

	if h.reconciler == nil {
		h.Snapshot(c)
		return
	}

	updates, err := h.reconciler.Stream(c.Request.Context(), sectionID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		update, open := <-updates
		if !open {
			return false
		}
		c.SSEvent(string(update.Kind), update)
		return true
	})
}

// scope parses the path and enforces that students only read their own
// view. Teachers may read any student in the section.
func (h *GradeViewHandler) scope(c *gin.Context) (sectionID, studentID int64, ok bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return 0, 0, false
	}

	sectionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section id"))
		return 0, 0, false
	}
	studentID, err = idParam(c, "studentId")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return 0, 0, false
	}

	if claims.UserTypeID == models.RoleStudent && claims.UserID != studentID {
		response.Error(c, appErrors.ErrForbidden)
		return 0, 0, false
	}
	return sectionID, studentID, true
}
