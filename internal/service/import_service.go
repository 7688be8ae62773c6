package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type studentCreator interface {
	Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error)
}

// ImportService bulk-creates students from uploaded CSV files.
type ImportService struct {
	students studentCreator
	logger   *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(students studentCreator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, logger: logger}
}

// ImportRowError reports why one CSV line was rejected.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarises a CSV import run.
type ImportResult struct {
	Processed int              `json:"processed"`
	Created   int              `json:"created"`
	Errors    []ImportRowError `json:"errors,omitempty"`
}

var studentCSVHeader = []string{"full_name", "email", "password", "cin", "phone", "group_id"}

// ImportStudents reads a CSV of students and creates each valid row. Rows
// that fail validation are reported with their line number; valid rows are
// still created.
func (s *ImportService) ImportStudents(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "empty csv file")
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed csv header")
	}
	if err := checkStudentHeader(header); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Message: "malformed csv row"})
			continue
		}
		result.Processed++

		req := CreateStudentRequest{
			FullName: strings.TrimSpace(record[0]),
			Email:    strings.TrimSpace(record[1]),
			Password: record[2],
		}
		if v := strings.TrimSpace(record[3]); v != "" {
			req.CIN = &v
		}
		if v := strings.TrimSpace(record[4]); v != "" {
			req.Phone = &v
		}
		if v := strings.TrimSpace(record[5]); v != "" {
			req.GroupID = &v
		}

		if _, err := s.students.Create(ctx, req); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Message: importErrorMessage(err)})
			continue
		}
		result.Created++
	}
	return result, nil
}

func checkStudentHeader(header []string) error {
	if len(header) != len(studentCSVHeader) {
		return appErrors.Clone(appErrors.ErrValidation, "csv header must be: "+strings.Join(studentCSVHeader, ","))
	}
	for i, column := range header {
		if !strings.EqualFold(strings.TrimSpace(column), studentCSVHeader[i]) {
			return appErrors.Clone(appErrors.ErrValidation, "csv header must be: "+strings.Join(studentCSVHeader, ","))
		}
	}
	return nil
}

func importErrorMessage(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "failed to create student"
}
