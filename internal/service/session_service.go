package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	"github.com/scolara/scolara-api/internal/repository"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
	"github.com/scolara/scolara-api/pkg/timeslot"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	CreateChecked(ctx context.Context, session *models.Session, detect repository.ConflictDetector) error
	UpdateChecked(ctx context.Context, session *models.Session, detect repository.ConflictDetector) error
	Delete(ctx context.Context, id string) error
}

// SessionService manages scheduled class sessions and rejects writes that
// would double-book a room, a group or a teacher.
type SessionService struct {
	repo      sessionRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// SessionRequest is the payload for creating or updating a session. Exactly
// one of DayOfWeek and SpecificDate must be set.
type SessionRequest struct {
	DayOfWeek    *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	SpecificDate *string `json:"specific_date"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	RoomID       string  `json:"room_id" validate:"required"`
	SubjectID    string  `json:"subject_id" validate:"required"`
	GroupID      string  `json:"group_id" validate:"required"`
	TeacherID    string  `json:"teacher_id" validate:"required"`
}

// SessionListRequest captures query params for listing sessions.
type SessionListRequest struct {
	GroupID   string `json:"group_id"`
	TeacherID string `json:"teacher_id"`
	RoomID    string `json:"room_id"`
	SubjectID string `json:"subject_id"`
	DayOfWeek *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// DetectConflicts compares a candidate against existing sessions on the same
// day and reports every overlapping dimension. The repository has already
// narrowed existing to sessions sharing the candidate's room, group or
// teacher on a matching day, so only the time axis and the shared dimension
// remain to be checked here.
func DetectConflicts(candidate *models.Session, existing []models.Session) []models.SessionConflict {
	var conflicts []models.SessionConflict
	for _, other := range existing {
		if !timeslot.Overlaps(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			continue
		}
		if other.RoomID == candidate.RoomID {
			conflicts = append(conflicts, models.SessionConflict{
				Dimension: models.ConflictRoom,
				SessionID: other.ID,
				StartTime: other.StartTime,
				EndTime:   other.EndTime,
			})
		}
		if other.GroupID == candidate.GroupID {
			conflicts = append(conflicts, models.SessionConflict{
				Dimension: models.ConflictGroup,
				SessionID: other.ID,
				StartTime: other.StartTime,
				EndTime:   other.EndTime,
			})
		}
		if other.TeacherID == candidate.TeacherID {
			conflicts = append(conflicts, models.SessionConflict{
				Dimension: models.ConflictTeacher,
				SessionID: other.ID,
				StartTime: other.StartTime,
				EndTime:   other.EndTime,
			})
		}
	}
	return conflicts
}

// List returns paginated sessions.
func (s *SessionService) List(ctx context.Context, req SessionListRequest) ([]models.Session, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.SessionFilter{
		GroupID:   req.GroupID,
		TeacherID: req.TeacherID,
		RoomID:    req.RoomID,
		SubjectID: req.SubjectID,
		DayOfWeek: req.DayOfWeek,
		Page:      page,
		PageSize:  size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a single session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch session")
	}
	return session, nil
}

// Create validates the payload and writes the session unless it collides with
// an existing one.
func (s *SessionService) Create(ctx context.Context, req SessionRequest, createdBy string) (*models.Session, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	if createdBy != "" {
		session.CreatedBy = &createdBy
	}
	if err := s.repo.CreateChecked(ctx, session, DetectConflicts); err != nil {
		return nil, s.writeError(err, "failed to create session")
	}
	s.invalidateSchedules(ctx, session)
	return session, nil
}

// Update revalidates and rewrites an existing session, rechecking conflicts
// against every session except itself.
func (s *SessionService) Update(ctx context.Context, id string, req SessionRequest) (*models.Session, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	session.ID = current.ID
	session.CreatedBy = current.CreatedBy
	if err := s.repo.UpdateChecked(ctx, session, DetectConflicts); err != nil {
		return nil, s.writeError(err, "failed to update session")
	}
	// Invalidate both the old and new placement.
	s.invalidateSchedules(ctx, current)
	s.invalidateSchedules(ctx, session)
	return session, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return deleteError(err, "session")
	}
	s.invalidateSchedules(ctx, session)
	return nil
}

func (s *SessionService) buildSession(req SessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if (req.DayOfWeek == nil) == (req.SpecificDate == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of day_of_week and specific_date is required")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected HH:MM")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected HH:MM")
	}
	if timeslot.ToMinutes(end) <= timeslot.ToMinutes(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	session := &models.Session{
		DayOfWeek: req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		RoomID:    req.RoomID,
		SubjectID: req.SubjectID,
		GroupID:   req.GroupID,
		TeacherID: req.TeacherID,
	}
	if req.SpecificDate != nil {
		date, err := time.Parse("2006-01-02", *req.SpecificDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid specific_date, expected YYYY-MM-DD")
		}
		session.SpecificDate = &date
	}
	return session, nil
}

func (s *SessionService) writeError(err error, fallback string) error {
	var conflictErr *models.SessionConflictError
	if errors.As(err, &conflictErr) {
		for _, conflict := range conflictErr.Conflicts {
			if s.metrics != nil {
				s.metrics.RecordConflict(conflict.Dimension)
			}
		}
		wrapped := appErrors.Clone(appErrors.ErrConflict, "session conflicts with the existing schedule")
		wrapped.Details = conflictErr.Conflicts
		return wrapped
	}
	if repository.IsSerializationFailure(err) {
		return appErrors.Clone(appErrors.ErrConflict, "schedule was modified concurrently, retry the request")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func (s *SessionService) invalidateSchedules(ctx context.Context, session *models.Session) {
	if s.cache == nil || session == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "schedule:group:"+session.GroupID+":*"); err != nil {
		s.logger.Warn("failed to invalidate group schedule cache", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "schedule:teacher:"+session.TeacherID+":*"); err != nil {
		s.logger.Warn("failed to invalidate teacher schedule cache", zap.Error(err))
	}
}

// parseClock normalises a clock time to HH:MM, accepting HH:MM and HH:MM:SS.
func parseClock(value string) (string, error) {
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04"), nil
	}
	t, err := time.Parse("15:04:05", value)
	if err != nil {
		return "", err
	}
	return t.Format("15:04"), nil
}
