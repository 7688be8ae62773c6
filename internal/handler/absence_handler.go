package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolara/scolara-api/internal/service"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/response"
)

// AbsenceHandler exposes administrative absence views and justification.
type AbsenceHandler struct {
	summary    *service.SummaryService
	attendance *service.AttendanceService
}

// NewAbsenceHandler constructs an absence handler.
func NewAbsenceHandler(summary *service.SummaryService, attendance *service.AttendanceService) *AbsenceHandler {
	return &AbsenceHandler{summary: summary, attendance: attendance}
}

// List godoc
// @Summary List absences
// @Tags Absences
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param subject_id query string false "Filter by subject"
// @Param justified query bool false "Filter by justified flag"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	req := absenceListRequest(c)
	req.StudentID = c.Query("student_id")
	rows, pagination, err := h.summary.Absences(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// StudentSummary godoc
// @Summary Get a student's per-subject absence summary
// @Tags Absences
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/summary [get]
func (h *AbsenceHandler) StudentSummary(c *gin.Context) {
	rows, err := h.summary.StudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// JustifyRequest is the payload for setting the justified flag.
type JustifyRequest struct {
	Justified bool `json:"justified"`
}

// Justify godoc
// @Summary Set or clear the justified flag on an absence
// @Tags Absences
// @Accept json
// @Produce json
// @Param id path string true "Absence ID"
// @Param payload body JustifyRequest true "Justification payload"
// @Success 204
// @Router /absences/{id}/justify [put]
func (h *AbsenceHandler) Justify(c *gin.Context) {
	var req JustifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.Justify(c.Request.Context(), c.Param("id"), req.Justified); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
