package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type scheduleSessionRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.SessionView, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SessionView, error)
	TodayByTeacher(ctx context.Context, teacherID string, date time.Time) ([]models.SessionView, error)
}

type scheduleStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type scheduleTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// ScheduleService assembles timetable views for students, teachers and groups.
type ScheduleService struct {
	sessions    scheduleSessionRepository
	students    scheduleStudentRepository
	teachers    scheduleTeacherRepository
	cache       *CacheService
	scheduleTTL time.Duration
	logger      *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(sessions scheduleSessionRepository, students scheduleStudentRepository, teachers scheduleTeacherRepository, cache *CacheService, scheduleTTL time.Duration, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{sessions: sessions, students: students, teachers: teachers, cache: cache, scheduleTTL: scheduleTTL, logger: logger}
}

// StudentSchedule returns the weekly schedule for the student owning the
// given user account. A student without a group has an empty schedule.
func (s *ScheduleService) StudentSchedule(ctx context.Context, userID string) ([]models.SessionView, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if student.GroupID == nil || *student.GroupID == "" {
		return []models.SessionView{}, nil
	}
	return s.GroupSchedule(ctx, *student.GroupID)
}

// GroupSchedule returns every session scheduled for a group, cached per group.
func (s *ScheduleService) GroupSchedule(ctx context.Context, groupID string) ([]models.SessionView, error) {
	key := "schedule:group:" + groupID + ":week"
	var cached []models.SessionView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	rows, err := s.sessions.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group schedule")
	}
	if rows == nil {
		rows = []models.SessionView{}
	}
	if err := s.cache.Set(ctx, key, rows, s.scheduleTTL); err != nil {
		s.logger.Warn("failed to cache group schedule", zap.String("group_id", groupID), zap.Error(err))
	}
	return rows, nil
}

// TeacherSchedule returns the weekly schedule for the teacher owning the
// given user account.
func (s *ScheduleService) TeacherSchedule(ctx context.Context, userID string) ([]models.SessionView, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	key := "schedule:teacher:" + teacher.ID + ":week"
	var cached []models.SessionView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	rows, err := s.sessions.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedule")
	}
	if rows == nil {
		rows = []models.SessionView{}
	}
	if err := s.cache.Set(ctx, key, rows, s.scheduleTTL); err != nil {
		s.logger.Warn("failed to cache teacher schedule", zap.String("teacher_id", teacher.ID), zap.Error(err))
	}
	return rows, nil
}

// TeacherToday returns the sessions a teacher holds on the given date,
// matching recurring sessions by weekday and one-off sessions by date.
func (s *ScheduleService) TeacherToday(ctx context.Context, userID string, date time.Time) ([]models.SessionView, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	rows, err := s.sessions.TodayByTeacher(ctx, teacher.ID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's sessions")
	}
	if rows == nil {
		rows = []models.SessionView{}
	}
	return rows, nil
}
