package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
	"github.com/scolara/scolara-api/internal/repository"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions map[string]models.Session
	existing []models.Session
	created  *models.Session
	deleted  []string
	failWith error
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	return nil, 0, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) CreateChecked(ctx context.Context, session *models.Session, detect repository.ConflictDetector) error {
	if m.failWith != nil {
		return m.failWith
	}
	if conflicts := detect(session, m.existing); len(conflicts) > 0 {
		return &models.SessionConflictError{Conflicts: conflicts}
	}
	if session.ID == "" {
		session.ID = "new-session"
	}
	if m.sessions == nil {
		m.sessions = make(map[string]models.Session)
	}
	m.sessions[session.ID] = *session
	m.created = session
	return nil
}

func (m *mockSessionRepo) UpdateChecked(ctx context.Context, session *models.Session, detect repository.ConflictDetector) error {
	filtered := make([]models.Session, 0, len(m.existing))
	for _, s := range m.existing {
		if s.ID != session.ID {
			filtered = append(filtered, s)
		}
	}
	if conflicts := detect(session, filtered); len(conflicts) > 0 {
		return &models.SessionConflictError{Conflicts: conflicts}
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestDetectConflictsRoomAndTeacher(t *testing.T) {
	// Session A holds R101/G1/T1 Monday 08:30-10:00. Candidate B overlaps in
	// the same room with the same teacher but a different group.
	existing := []models.Session{
		{ID: "session-a", DayOfWeek: intPtr(1), StartTime: "08:30", EndTime: "10:00", RoomID: "r101", GroupID: "g1", TeacherID: "t1"},
	}
	candidate := &models.Session{DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "09:30", RoomID: "r101", GroupID: "g2", TeacherID: "t1"}

	conflicts := DetectConflicts(candidate, existing)

	require.Len(t, conflicts, 2)
	dimensions := map[string]bool{}
	for _, c := range conflicts {
		dimensions[c.Dimension] = true
		assert.Equal(t, "session-a", c.SessionID)
	}
	assert.True(t, dimensions[models.ConflictRoom])
	assert.True(t, dimensions[models.ConflictTeacher])
	assert.False(t, dimensions[models.ConflictGroup])
}

func TestDetectConflictsGroupOnly(t *testing.T) {
	existing := []models.Session{
		{ID: "session-a", DayOfWeek: intPtr(2), StartTime: "14:00", EndTime: "16:00", RoomID: "r1", GroupID: "g1", TeacherID: "t1"},
	}
	candidate := &models.Session{DayOfWeek: intPtr(2), StartTime: "15:00", EndTime: "17:00", RoomID: "r2", GroupID: "g1", TeacherID: "t2"}

	conflicts := DetectConflicts(candidate, existing)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictGroup, conflicts[0].Dimension)
}

func TestDetectConflictsBackToBackSlots(t *testing.T) {
	existing := []models.Session{
		{ID: "session-a", DayOfWeek: intPtr(1), StartTime: "08:00", EndTime: "10:00", RoomID: "r1", GroupID: "g1", TeacherID: "t1"},
	}
	candidate := &models.Session{DayOfWeek: intPtr(1), StartTime: "10:00", EndTime: "12:00", RoomID: "r1", GroupID: "g1", TeacherID: "t1"}

	assert.Empty(t, DetectConflicts(candidate, existing))
}

func TestSessionCreateConflictReturnsDetails(t *testing.T) {
	repo := &mockSessionRepo{
		existing: []models.Session{
			{ID: "session-a", DayOfWeek: intPtr(1), StartTime: "08:30", EndTime: "10:00", RoomID: "r101", GroupID: "g1", TeacherID: "t1"},
		},
	}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), SessionRequest{
		DayOfWeek: intPtr(1),
		StartTime: "09:00",
		EndTime:   "09:30",
		RoomID:    "r101",
		SubjectID: "sub1",
		GroupID:   "g2",
		TeacherID: "t1",
	}, "admin-user")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	conflicts, ok := appErr.Details.([]models.SessionConflict)
	require.True(t, ok)
	assert.Len(t, conflicts, 2)
	assert.Nil(t, repo.created)
}

func TestSessionCreateSuccess(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	session, err := svc.Create(context.Background(), SessionRequest{
		DayOfWeek: intPtr(1),
		StartTime: "08:30",
		EndTime:   "10:00",
		RoomID:    "r101",
		SubjectID: "sub1",
		GroupID:   "g1",
		TeacherID: "t1",
	}, "admin-user")

	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "08:30", session.StartTime)
	require.NotNil(t, session.CreatedBy)
	assert.Equal(t, "admin-user", *session.CreatedBy)
}

func TestSessionCreateSerializationFailureMapsToConflict(t *testing.T) {
	repo := &mockSessionRepo{
		failWith: fmt.Errorf("create session: %w", &pq.Error{Code: "40001"}),
	}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), SessionRequest{
		DayOfWeek: intPtr(1),
		StartTime: "08:30",
		EndTime:   "10:00",
		RoomID:    "r101",
		SubjectID: "sub1",
		GroupID:   "g1",
		TeacherID: "t1",
	}, "admin-user")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
}

func TestSessionCreateRejectsAmbiguousDay(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, nil, nil, nil, nil)

	cases := []SessionRequest{
		{StartTime: "08:00", EndTime: "09:00", RoomID: "r", SubjectID: "s", GroupID: "g", TeacherID: "t"},
		{DayOfWeek: intPtr(1), SpecificDate: strPtr("2026-09-07"), StartTime: "08:00", EndTime: "09:00", RoomID: "r", SubjectID: "s", GroupID: "g", TeacherID: "t"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req, "")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestSessionCreateRejectsInvertedTimes(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), SessionRequest{
		DayOfWeek: intPtr(1),
		StartTime: "10:00",
		EndTime:   "09:00",
		RoomID:    "r",
		SubjectID: "s",
		GroupID:   "g",
		TeacherID: "t",
	}, "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateExcludesSelf(t *testing.T) {
	repo := &mockSessionRepo{
		sessions: map[string]models.Session{
			"session-a": {ID: "session-a", DayOfWeek: intPtr(1), StartTime: "08:30", EndTime: "10:00", RoomID: "r101", SubjectID: "sub1", GroupID: "g1", TeacherID: "t1"},
		},
		existing: []models.Session{
			{ID: "session-a", DayOfWeek: intPtr(1), StartTime: "08:30", EndTime: "10:00", RoomID: "r101", GroupID: "g1", TeacherID: "t1"},
		},
	}
	svc := NewSessionService(repo, nil, nil, nil, nil)

	// Shifting the session within its own slot must not conflict with itself.
	updated, err := svc.Update(context.Background(), "session-a", SessionRequest{
		DayOfWeek: intPtr(1),
		StartTime: "09:00",
		EndTime:   "10:30",
		RoomID:    "r101",
		SubjectID: "sub1",
		GroupID:   "g1",
		TeacherID: "t1",
	})

	require.NoError(t, err)
	assert.Equal(t, "09:00", updated.StartTime)
}

func TestSessionGetNotFound(t *testing.T) {
	svc := NewSessionService(&mockSessionRepo{}, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
