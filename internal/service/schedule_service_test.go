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

type mockScheduleSessionRepo struct {
	byGroup   map[string][]models.SessionView
	byTeacher map[string][]models.SessionView
	today     map[string][]models.SessionView
}

func (m *mockScheduleSessionRepo) ListByGroup(ctx context.Context, groupID string) ([]models.SessionView, error) {
	return m.byGroup[groupID], nil
}

func (m *mockScheduleSessionRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.SessionView, error) {
	return m.byTeacher[teacherID], nil
}

func (m *mockScheduleSessionRepo) TodayByTeacher(ctx context.Context, teacherID string, date time.Time) ([]models.SessionView, error) {
	return m.today[teacherID], nil
}

type mockStudentLookup struct {
	students map[string]models.Student
}

func (m *mockStudentLookup) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.students[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockTeacherLookup struct {
	teachers map[string]models.Teacher
}

func (m *mockTeacherLookup) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if t, ok := m.teachers[userID]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func TestStudentScheduleWithoutGroupIsEmpty(t *testing.T) {
	students := &mockStudentLookup{students: map[string]models.Student{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	svc := NewScheduleService(&mockScheduleSessionRepo{}, students, &mockTeacherLookup{}, nil, 0, nil)

	rows, err := svc.StudentSchedule(context.Background(), "user-1")

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStudentScheduleResolvesGroup(t *testing.T) {
	sessions := &mockScheduleSessionRepo{byGroup: map[string][]models.SessionView{
		"g1": {
			{Session: models.Session{ID: "s1", StartTime: "08:00", EndTime: "10:00", GroupID: "g1"}, SubjectName: "Algebra"},
			{Session: models.Session{ID: "s2", StartTime: "10:00", EndTime: "12:00", GroupID: "g1"}, SubjectName: "Physics"},
		},
	}}
	students := &mockStudentLookup{students: map[string]models.Student{
		"user-1": {ID: "student-1", UserID: "user-1", GroupID: strPtr("g1")},
	}}
	svc := NewScheduleService(sessions, students, &mockTeacherLookup{}, nil, 0, nil)

	rows, err := svc.StudentSchedule(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Algebra", rows[0].SubjectName)
}

func TestStudentScheduleUnknownUser(t *testing.T) {
	svc := NewScheduleService(&mockScheduleSessionRepo{}, &mockStudentLookup{}, &mockTeacherLookup{}, nil, 0, nil)

	_, err := svc.StudentSchedule(context.Background(), "ghost")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherScheduleAndToday(t *testing.T) {
	sessions := &mockScheduleSessionRepo{
		byTeacher: map[string][]models.SessionView{
			"t1": {{Session: models.Session{ID: "s1", TeacherID: "t1"}}},
		},
		today: map[string][]models.SessionView{
			"t1": {{Session: models.Session{ID: "s1", TeacherID: "t1"}}},
		},
	}
	teachers := &mockTeacherLookup{teachers: map[string]models.Teacher{
		"user-2": {ID: "t1", UserID: "user-2"},
	}}
	svc := NewScheduleService(sessions, &mockStudentLookup{}, teachers, nil, 0, nil)

	week, err := svc.TeacherSchedule(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Len(t, week, 1)

	today, err := svc.TeacherToday(context.Background(), "user-2", time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, today, 1)
}
