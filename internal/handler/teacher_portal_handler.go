package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scolara/scolara-api/internal/service"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/response"
)

// TeacherPortalHandler serves the authenticated teacher's schedule,
// attendance marking and absence statistics.
type TeacherPortalHandler struct {
	schedule   *service.ScheduleService
	attendance *service.AttendanceService
	summary    *service.SummaryService
}

// NewTeacherPortalHandler constructs a teacher portal handler.
func NewTeacherPortalHandler(schedule *service.ScheduleService, attendance *service.AttendanceService, summary *service.SummaryService) *TeacherPortalHandler {
	return &TeacherPortalHandler{schedule: schedule, attendance: attendance, summary: summary}
}

// Schedule godoc
// @Summary Get my weekly schedule
// @Tags Teacher portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/schedule [get]
func (h *TeacherPortalHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.schedule.TeacherSchedule(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Today godoc
// @Summary Get my sessions for a date
// @Tags Teacher portal
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /teacher/sessions/today [get]
func (h *TeacherPortalHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	rows, err := h.schedule.TeacherToday(c.Request.Context(), claims.UserID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// MarkAttendance godoc
// @Summary Record the attendance roster for a session
// @Tags Teacher portal
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.MarkAttendanceRequest true "Roster payload"
// @Success 204
// @Failure 403 {object} response.Envelope "Not the assigned teacher"
// @Router /teacher/sessions/{id}/attendance [post]
func (h *TeacherPortalHandler) MarkAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.attendance.Mark(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AtRisk godoc
// @Summary List my students over the elimination threshold
// @Tags Teacher portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/at-risk [get]
func (h *TeacherPortalHandler) AtRisk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.summary.AtRiskStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Statistics godoc
// @Summary Get my per-subject and group attendance statistics
// @Tags Teacher portal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/statistics [get]
func (h *TeacherPortalHandler) Statistics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.summary.TeacherStatistics(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
