package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scolara/scolara-api/internal/service"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/response"
)

// ExportHandler serves CSV/PDF exports and CSV imports.
type ExportHandler struct {
	exports *service.ExportService
	imports *service.ImportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(exports *service.ExportService, imports *service.ImportService) *ExportHandler {
	return &ExportHandler{exports: exports, imports: imports}
}

func attachment(c *gin.Context, payload []byte, filename, contentType string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// StudentsCSV godoc
// @Summary Export students as CSV
// @Tags Export
// @Produce text/csv
// @Param group_id query string false "Scope to a group"
// @Success 200 {file} file
// @Router /export/students [get]
func (h *ExportHandler) StudentsCSV(c *gin.Context) {
	payload, filename, err := h.exports.StudentsCSV(c.Request.Context(), c.Query("group_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	attachment(c, payload, filename, "text/csv")
}

// AbsencesCSV godoc
// @Summary Export absences as CSV
// @Tags Export
// @Produce text/csv
// @Param student_id query string false "Filter by student"
// @Param subject_id query string false "Filter by subject"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /export/absences [get]
func (h *ExportHandler) AbsencesCSV(c *gin.Context) {
	req := absenceListRequest(c)
	req.StudentID = c.Query("student_id")
	payload, filename, err := h.exports.AbsencesCSV(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	attachment(c, payload, filename, "text/csv")
}

// AbsenceReportPDF godoc
// @Summary Export a student's absence report as PDF
// @Tags Export
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /export/students/{id}/absence-report [get]
func (h *ExportHandler) AbsenceReportPDF(c *gin.Context) {
	payload, filename, err := h.exports.AbsenceReportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	attachment(c, payload, filename, "application/pdf")
}

// ImportStudents godoc
// @Summary Import students from a CSV file
// @Tags Export
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file (full_name,email,password,cin,phone,group_id)"
// @Success 200 {object} response.Envelope
// @Router /import/students [post]
func (h *ExportHandler) ImportStudents(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing csv file upload"))
		return
	}
	defer file.Close()

	result, err := h.imports.ImportStudents(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
