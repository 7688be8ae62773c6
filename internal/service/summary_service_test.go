package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type mockSummaryRepo struct {
	summaries  map[string][]models.SubjectSummary
	absences   []models.AbsenceRecord
	atRisk     []models.AtRiskStudent
	statistics []models.SubjectStatistics
	threshold  int
}

func (m *mockSummaryRepo) ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, int, error) {
	return m.absences, len(m.absences), nil
}

func (m *mockSummaryRepo) StudentSubjectSummary(ctx context.Context, studentID string) ([]models.SubjectSummary, error) {
	return m.summaries[studentID], nil
}

func (m *mockSummaryRepo) AtRisk(ctx context.Context, teacherID string, threshold int) ([]models.AtRiskStudent, error) {
	m.threshold = threshold
	return m.atRisk, nil
}

func (m *mockSummaryRepo) TeacherStatistics(ctx context.Context, teacherID string) ([]models.SubjectStatistics, error) {
	return m.statistics, nil
}

type mockSummaryStudents struct {
	byID   map[string]models.Student
	byUser map[string]models.Student
}

func (m *mockSummaryStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.byID[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSummaryStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.byUser[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func TestStudentSummaryEliminationThreshold(t *testing.T) {
	repo := &mockSummaryRepo{summaries: map[string][]models.SubjectSummary{
		"student-1": {
			{SubjectID: "sub1", SubjectName: "Algebra", TotalSessions: 20, Absences: 3},
			{SubjectID: "sub2", SubjectName: "Physics", TotalSessions: 20, Absences: 4},
		},
	}}
	students := &mockSummaryStudents{byID: map[string]models.Student{
		"student-1": {ID: "student-1"},
	}}
	svc := NewSummaryService(repo, students, &mockTeacherLookup{}, nil, 0, 3, nil)

	rows, err := svc.StudentSummary(context.Background(), "student-1")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Exactly at the threshold is not eliminated; strictly above is.
	assert.False(t, rows[0].Eliminated)
	assert.True(t, rows[1].Eliminated)
}

func TestStudentSummaryUnknownStudent(t *testing.T) {
	svc := NewSummaryService(&mockSummaryRepo{}, &mockSummaryStudents{}, &mockTeacherLookup{}, nil, 0, 3, nil)

	_, err := svc.StudentSummary(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOwnSummaryResolvesStudent(t *testing.T) {
	repo := &mockSummaryRepo{summaries: map[string][]models.SubjectSummary{
		"student-1": {{SubjectID: "sub1", Absences: 5, TotalSessions: 10}},
	}}
	students := &mockSummaryStudents{byUser: map[string]models.Student{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	svc := NewSummaryService(repo, students, &mockTeacherLookup{}, nil, 0, 3, nil)

	rows, err := svc.OwnSummary(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Eliminated)
}

func TestAtRiskUsesConfiguredThreshold(t *testing.T) {
	repo := &mockSummaryRepo{atRisk: []models.AtRiskStudent{
		{StudentID: "student-1", SubjectID: "sub1", AbsenceCount: 6},
	}}
	teachers := &mockTeacherLookup{teachers: map[string]models.Teacher{
		"user-2": {ID: "t1", UserID: "user-2"},
	}}
	svc := NewSummaryService(repo, &mockSummaryStudents{}, teachers, nil, 0, 5, nil)

	rows, err := svc.AtRiskStudents(context.Background(), "user-2")

	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 5, repo.threshold)
}

func TestSummaryServiceDefaultThreshold(t *testing.T) {
	svc := NewSummaryService(&mockSummaryRepo{}, &mockSummaryStudents{}, &mockTeacherLookup{}, nil, 0, 0, nil)

	assert.Equal(t, 3, svc.Threshold())
}

func TestTeacherStatistics(t *testing.T) {
	repo := &mockSummaryRepo{statistics: []models.SubjectStatistics{
		{SubjectID: "sub1", GroupID: "g1", TotalStudents: 25, TotalSessions: 12, TotalAbsences: 7},
	}}
	teachers := &mockTeacherLookup{teachers: map[string]models.Teacher{
		"user-2": {ID: "t1", UserID: "user-2"},
	}}
	svc := NewSummaryService(repo, &mockSummaryStudents{}, teachers, nil, 0, 3, nil)

	rows, err := svc.TeacherStatistics(context.Background(), "user-2")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].TotalAbsences)
}
