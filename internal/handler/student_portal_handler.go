package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scolara/scolara-api/internal/service"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/response"
)

// StudentPortalHandler serves the authenticated student's own schedule and
// absence views.
type StudentPortalHandler struct {
	schedule *service.ScheduleService
	summary  *service.SummaryService
}

// NewStudentPortalHandler constructs a student portal handler.
func NewStudentPortalHandler(schedule *service.ScheduleService, summary *service.SummaryService) *StudentPortalHandler {
	return &StudentPortalHandler{schedule: schedule, summary: summary}
}

// Schedule godoc
// @Summary Get my weekly schedule
// @Tags Student portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/schedule [get]
func (h *StudentPortalHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.schedule.StudentSchedule(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Absences godoc
// @Summary List my absences
// @Tags Student portal
// @Produce json
// @Param subject_id query string false "Filter by subject"
// @Param justified query bool false "Filter by justified flag"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student/absences [get]
func (h *StudentPortalHandler) Absences(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req := absenceListRequest(c)
	rows, pagination, err := h.summary.OwnAbsences(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Summary godoc
// @Summary Get my per-subject absence summary
// @Tags Student portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/summary [get]
func (h *StudentPortalHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.summary.OwnSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

func absenceListRequest(c *gin.Context) service.AbsenceListRequest {
	var req service.AbsenceListRequest
	req.SubjectID = c.Query("subject_id")
	req.SessionID = c.Query("session_id")
	if raw := c.Query("justified"); raw != "" {
		if justified, err := strconv.ParseBool(raw); err == nil {
			req.Justified = &justified
		}
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			req.DateFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			req.DateTo = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		req.PageSize = limit
	}
	return req
}
