package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, meta ...string) ([]byte, error)
}

type exportStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportAttendanceRepository interface {
	ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, int, error)
	StudentSubjectSummary(ctx context.Context, studentID string) ([]models.SubjectSummary, error)
}

// ExportService renders student lists and absence reports as CSV or PDF.
type ExportService struct {
	students   exportStudentRepository
	attendance exportAttendanceRepository
	csv        csvRenderer
	pdf        pdfRenderer
	threshold  int
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students exportStudentRepository, attendance exportAttendanceRepository, csv csvRenderer, pdf pdfRenderer, threshold int, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if threshold <= 0 {
		threshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, attendance: attendance, csv: csv, pdf: pdf, threshold: threshold, logger: logger}
}

// StudentsCSV renders the student list, optionally scoped to a group.
func (s *ExportService) StudentsCSV(ctx context.Context, groupID string) ([]byte, string, error) {
	filter := models.StudentFilter{GroupID: groupID, Page: 1, PageSize: 10000, SortBy: "full_name", SortOrder: "asc"}
	rows, _, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := export.Dataset{
		Headers: []string{"full_name", "email", "cin", "phone", "group_id", "active"},
	}
	for _, student := range rows {
		dataset.Rows = append(dataset.Rows, []string{
			student.FullName,
			student.Email,
			deref(student.CIN),
			deref(student.Phone),
			deref(student.GroupID),
			fmt.Sprintf("%t", student.Active),
		})
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename("students", "csv"), nil
}

// AbsencesCSV renders the absence history matching the filter.
func (s *ExportService) AbsencesCSV(ctx context.Context, req AbsenceListRequest) ([]byte, string, error) {
	filter := models.AbsenceFilter{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		SessionID: req.SessionID,
		Justified: req.Justified,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Page:      1,
		PageSize:  10000,
	}
	rows, _, err := s.attendance.ListAbsences(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}

	dataset := export.Dataset{
		Headers: []string{"date", "subject", "teacher", "start_time", "end_time", "justified"},
	}
	for _, record := range rows {
		dataset.Rows = append(dataset.Rows, []string{
			record.Date.Format("2006-01-02"),
			record.SubjectName,
			record.TeacherName,
			record.StartTime,
			record.EndTime,
			fmt.Sprintf("%t", record.Justified),
		})
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename("absences", "csv"), nil
}

// AbsenceReportPDF renders a per-subject absence report for one student.
func (s *ExportService) AbsenceReportPDF(ctx context.Context, studentID string) ([]byte, string, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, "", notFoundOr(err, "student", "failed to fetch student")
	}
	summary, err := s.attendance.StudentSubjectSummary(ctx, studentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise absences")
	}

	dataset := export.Dataset{
		Headers: []string{"Subject", "Recorded sessions", "Absences", "Eliminated"},
	}
	for _, row := range summary {
		eliminated := "no"
		if row.Absences > s.threshold {
			eliminated = "yes"
		}
		dataset.Rows = append(dataset.Rows, []string{
			row.SubjectName,
			fmt.Sprintf("%d", row.TotalSessions),
			fmt.Sprintf("%d", row.Absences),
			eliminated,
		})
	}
	meta := []string{
		"Student: " + student.FullName,
		"Email: " + student.Email,
		"Generated: " + time.Now().UTC().Format("2006-01-02 15:04"),
	}
	payload, err := s.pdf.Render(dataset, "Absence Report", meta...)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename("absence-report", "pdf"), nil
}

func exportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().UTC().Format("20060102-150405"), ext)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
