package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type attendanceRepository interface {
	MarkRoster(ctx context.Context, sessionID string, date time.Time, entries []models.Attendance) error
	SetJustified(ctx context.Context, id string, justified bool) error
}

type attendanceSessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type attendanceTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type attendanceStudentRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Student, error)
}

// AttendanceService records per-session attendance rosters.
type AttendanceService struct {
	repo      attendanceRepository
	sessions  attendanceSessionRepository
	teachers  attendanceTeacherRepository
	students  attendanceStudentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, sessions attendanceSessionRepository, teachers attendanceTeacherRepository, students attendanceStudentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, sessions: sessions, teachers: teachers, students: students, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// AttendanceEntry is one student's outcome in a roster submission.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// MarkAttendanceRequest is the payload for recording a session roster. An
// omitted date means today's occurrence.
type MarkAttendanceRequest struct {
	Date    string            `json:"date"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// Mark records the full roster for a session on a date. Only the teacher
// assigned to the session may submit; resubmitting overwrites the previous
// statuses for the same date.
func (s *AttendanceService) Mark(ctx context.Context, sessionID, callerUserID string, req MarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch session")
	}

	date := truncateToDay(time.Now().UTC())
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
	}
	if !sessionOccursOn(session, date) {
		return appErrors.Clone(appErrors.ErrValidation, "session does not occur on "+date.Format("2006-01-02"))
	}

	teacher, err := s.teachers.FindByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the assigned teacher may record attendance")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	if teacher.ID != session.TeacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the assigned teacher may record attendance")
	}

	roster, err := s.students.ListByGroup(ctx, session.GroupID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group roster")
	}
	members := make(map[string]struct{}, len(roster))
	for _, student := range roster {
		members[student.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(req.Entries))
	records := make([]models.Attendance, len(req.Entries))
	for i, entry := range req.Entries {
		if _, ok := seen[entry.StudentID]; ok {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate student in payload")
		}
		seen[entry.StudentID] = struct{}{}
		if _, ok := members[entry.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "student is not in the session's group")
		}
		records[i] = models.Attendance{
			SessionID: sessionID,
			StudentID: entry.StudentID,
			Date:      date,
			Status:    models.AttendanceStatus(strings.ToLower(entry.Status)),
		}
	}

	if err := s.repo.MarkRoster(ctx, sessionID, date, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	for id := range seen {
		if err := s.cache.Invalidate(ctx, "summary:student:"+id+":*"); err != nil {
			s.logger.Warn("failed to invalidate student summary cache", zap.String("student_id", id), zap.Error(err))
		}
	}
	if err := s.cache.Invalidate(ctx, "summary:teacher:"+session.TeacherID+":*"); err != nil {
		s.logger.Warn("failed to invalidate teacher summary cache", zap.String("teacher_id", session.TeacherID), zap.Error(err))
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sessionOccursOn(session *models.Session, date time.Time) bool {
	if session.SpecificDate != nil {
		sy, sm, sd := session.SpecificDate.Date()
		y, m, d := date.Date()
		return sy == y && sm == m && sd == d
	}
	return session.DayOfWeek != nil && *session.DayOfWeek == int(date.Weekday())
}

// Justify flags an absence as justified, or clears the flag.
func (s *AttendanceService) Justify(ctx context.Context, attendanceID string, justified bool) error {
	if err := s.repo.SetJustified(ctx, attendanceID, justified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update absence")
	}
	return nil
}
