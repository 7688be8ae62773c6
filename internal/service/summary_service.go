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

type summaryAttendanceRepository interface {
	ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, int, error)
	StudentSubjectSummary(ctx context.Context, studentID string) ([]models.SubjectSummary, error)
	AtRisk(ctx context.Context, teacherID string, threshold int) ([]models.AtRiskStudent, error)
	TeacherStatistics(ctx context.Context, teacherID string) ([]models.SubjectStatistics, error)
}

type summaryStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type summaryTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// SummaryService aggregates absences into per-subject summaries and derives
// elimination status from the configured absence threshold.
type SummaryService struct {
	repo       summaryAttendanceRepository
	students   summaryStudentRepository
	teachers   summaryTeacherRepository
	cache      *CacheService
	summaryTTL time.Duration
	threshold  int
	logger     *zap.Logger
}

// NewSummaryService constructs the summary service.
func NewSummaryService(repo summaryAttendanceRepository, students summaryStudentRepository, teachers summaryTeacherRepository, cache *CacheService, summaryTTL time.Duration, threshold int, logger *zap.Logger) *SummaryService {
	if threshold <= 0 {
		threshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{repo: repo, students: students, teachers: teachers, cache: cache, summaryTTL: summaryTTL, threshold: threshold, logger: logger}
}

// Threshold returns the absence count above which a student is eliminated.
func (s *SummaryService) Threshold() int {
	return s.threshold
}

// AbsenceListRequest scopes an absence listing.
type AbsenceListRequest struct {
	StudentID string     `json:"student_id"`
	SubjectID string     `json:"subject_id"`
	SessionID string     `json:"session_id"`
	Justified *bool      `json:"justified"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// StudentSummary returns a student's per-subject absence summary. Eliminated
// is set when the subject's absence count is strictly above the threshold.
func (s *SummaryService) StudentSummary(ctx context.Context, studentID string) ([]models.SubjectSummary, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return s.summarize(ctx, studentID)
}

// OwnSummary resolves the student behind the calling user account and returns
// their summary.
func (s *SummaryService) OwnSummary(ctx context.Context, userID string) ([]models.SubjectSummary, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return s.summarize(ctx, student.ID)
}

func (s *SummaryService) summarize(ctx context.Context, studentID string) ([]models.SubjectSummary, error) {
	key := "summary:student:" + studentID + ":subjects"
	var cached []models.SubjectSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	rows, err := s.repo.StudentSubjectSummary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise absences")
	}
	for i := range rows {
		rows[i].Eliminated = rows[i].Absences > s.threshold
	}
	if rows == nil {
		rows = []models.SubjectSummary{}
	}
	if err := s.cache.Set(ctx, key, rows, s.summaryTTL); err != nil {
		s.logger.Warn("failed to cache student summary", zap.String("student_id", studentID), zap.Error(err))
	}
	return rows, nil
}

// OwnAbsences lists the calling student's absence history.
func (s *SummaryService) OwnAbsences(ctx context.Context, userID string, req AbsenceListRequest) ([]models.AbsenceRecord, *models.Pagination, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	req.StudentID = student.ID
	return s.Absences(ctx, req)
}

// Absences lists absence records matching the filter.
func (s *SummaryService) Absences(ctx context.Context, req AbsenceListRequest) ([]models.AbsenceRecord, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.AbsenceFilter{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		SessionID: req.SessionID,
		Justified: req.Justified,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Page:      page,
		PageSize:  size,
	}
	rows, total, err := s.repo.ListAbsences(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// AtRiskStudents returns the calling teacher's students who exceeded the
// elimination threshold in one of that teacher's subjects.
func (s *SummaryService) AtRiskStudents(ctx context.Context, userID string) ([]models.AtRiskStudent, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	rows, err := s.repo.AtRisk(ctx, teacher.ID, s.threshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list at-risk students")
	}
	if rows == nil {
		rows = []models.AtRiskStudent{}
	}
	return rows, nil
}

// TeacherStatistics returns per subject and group attendance aggregates for
// the calling teacher.
func (s *SummaryService) TeacherStatistics(ctx context.Context, userID string) ([]models.SubjectStatistics, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	key := "summary:teacher:" + teacher.ID + ":statistics"
	var cached []models.SubjectStatistics
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	rows, err := s.repo.TeacherStatistics(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	if rows == nil {
		rows = []models.SubjectStatistics{}
	}
	if err := s.cache.Set(ctx, key, rows, s.summaryTTL); err != nil {
		s.logger.Warn("failed to cache teacher statistics", zap.String("teacher_id", teacher.ID), zap.Error(err))
	}
	return rows, nil
}
