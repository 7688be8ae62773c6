package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type mockAttendanceRepo struct {
	marked    []models.Attendance
	markedFor string
	justified map[string]bool
}

func (m *mockAttendanceRepo) MarkRoster(ctx context.Context, sessionID string, date time.Time, entries []models.Attendance) error {
	m.markedFor = sessionID
	m.marked = entries
	return nil
}

func (m *mockAttendanceRepo) SetJustified(ctx context.Context, id string, justified bool) error {
	if m.justified == nil {
		return sql.ErrNoRows
	}
	if _, ok := m.justified[id]; !ok {
		return sql.ErrNoRows
	}
	m.justified[id] = justified
	return nil
}

type mockAttendanceSessions struct {
	sessions map[string]models.Session
}

func (m *mockAttendanceSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockGroupStudents struct {
	groups map[string][]models.Student
}

func (m *mockGroupStudents) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	return m.groups[groupID], nil
}

type mockCacheRecorder struct {
	patterns []string
}

func (m *mockCacheRecorder) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCacheRecorder) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (m *mockCacheRecorder) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func attendanceMocks() (*mockAttendanceRepo, *mockAttendanceSessions, *mockTeacherLookup, *mockGroupStudents) {
	repo := &mockAttendanceRepo{}
	sessions := &mockAttendanceSessions{sessions: map[string]models.Session{
		"session-1": {ID: "session-1", GroupID: "g1", TeacherID: "t1", DayOfWeek: intPtr(1)},
	}}
	teachers := &mockTeacherLookup{teachers: map[string]models.Teacher{
		"user-t1": {ID: "t1", UserID: "user-t1"},
		"user-t2": {ID: "t2", UserID: "user-t2"},
	}}
	students := &mockGroupStudents{groups: map[string][]models.Student{
		"g1": {{ID: "student-1"}, {ID: "student-2"}},
	}}
	return repo, sessions, teachers, students
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo) {
	repo, sessions, teachers, students := attendanceMocks()
	svc := NewAttendanceService(repo, sessions, teachers, students, nil, nil, nil)
	return svc, repo
}

func TestMarkAttendanceRecordsFullRoster(t *testing.T) {
	svc, repo := newAttendanceFixture()

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date: "2026-09-07",
		Entries: []AttendanceEntry{
			{StudentID: "student-1", Status: "present"},
			{StudentID: "student-2", Status: "absent"},
		},
	})

	require.NoError(t, err)
	require.Len(t, repo.marked, 2)
	assert.Equal(t, "session-1", repo.markedFor)
	assert.Equal(t, models.AttendancePresent, repo.marked[0].Status)
	assert.Equal(t, models.AttendanceAbsent, repo.marked[1].Status)
}

func TestMarkAttendanceUnknownSession(t *testing.T) {
	svc, _ := newAttendanceFixture()

	err := svc.Mark(context.Background(), "missing", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-07",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkAttendanceWrongTeacher(t *testing.T) {
	svc, repo := newAttendanceFixture()

	err := svc.Mark(context.Background(), "session-1", "user-t2", MarkAttendanceRequest{
		Date:    "2026-09-07",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.marked)
}

func TestMarkAttendanceInvalidStatus(t *testing.T) {
	svc, _ := newAttendanceFixture()

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-07",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "late"}},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkAttendanceDuplicateStudent(t *testing.T) {
	svc, repo := newAttendanceFixture()

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date: "2026-09-07",
		Entries: []AttendanceEntry{
			{StudentID: "student-1", Status: "present"},
			{StudentID: "student-1", Status: "absent"},
		},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.marked)
}

func TestMarkAttendanceStudentOutsideGroup(t *testing.T) {
	svc, repo := newAttendanceFixture()

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-07",
		Entries: []AttendanceEntry{{StudentID: "intruder", Status: "present"}},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.marked)
}

func TestMarkAttendanceInvalidatesSummaryCaches(t *testing.T) {
	repo, sessions, teachers, students := attendanceMocks()
	recorder := &mockCacheRecorder{}
	cache := NewCacheService(recorder, nil, 0, nil, true)
	svc := NewAttendanceService(repo, sessions, teachers, students, cache, nil, nil)

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date: "2026-09-07",
		Entries: []AttendanceEntry{
			{StudentID: "student-1", Status: "present"},
			{StudentID: "student-2", Status: "absent"},
		},
	})

	require.NoError(t, err)
	assert.Contains(t, recorder.patterns, "summary:student:student-1:*")
	assert.Contains(t, recorder.patterns, "summary:student:student-2:*")
	assert.Contains(t, recorder.patterns, "summary:teacher:t1:*")
}

func TestMarkAttendanceDefaultsToToday(t *testing.T) {
	repo, sessions, teachers, students := attendanceMocks()
	today := time.Now().UTC()
	day := int(today.Weekday())
	sessions.sessions["session-1"] = models.Session{ID: "session-1", GroupID: "g1", TeacherID: "t1", DayOfWeek: &day}
	svc := NewAttendanceService(repo, sessions, teachers, students, nil, nil, nil)

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})

	require.NoError(t, err)
	require.Len(t, repo.marked, 1)
	want := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	assert.True(t, repo.marked[0].Date.Equal(want), "expected %s, got %s", want, repo.marked[0].Date)
}

func TestMarkAttendanceRejectsNonOccurrenceDate(t *testing.T) {
	svc, repo := newAttendanceFixture()

	// 2026-09-06 is a Sunday; the fixture session recurs on Mondays.
	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-06",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.marked)
}

func TestMarkAttendanceOneOffSessionDate(t *testing.T) {
	repo, sessions, teachers, students := attendanceMocks()
	specific := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	sessions.sessions["session-1"] = models.Session{ID: "session-1", GroupID: "g1", TeacherID: "t1", SpecificDate: &specific}
	svc := NewAttendanceService(repo, sessions, teachers, students, nil, nil, nil)

	err := svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-11",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Mark(context.Background(), "session-1", "user-t1", MarkAttendanceRequest{
		Date:    "2026-09-10",
		Entries: []AttendanceEntry{{StudentID: "student-1", Status: "present"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.marked, 1)
}

func TestJustifyAbsence(t *testing.T) {
	svc, repo := newAttendanceFixture()
	repo.justified = map[string]bool{"abs-1": false}

	require.NoError(t, svc.Justify(context.Background(), "abs-1", true))
	assert.True(t, repo.justified["abs-1"])

	err := svc.Justify(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
