package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
)

func TestMarkRosterUpsertsAndFlagsSession(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	entries := []models.Attendance{
		{StudentID: "student-1", Status: models.AttendancePresent},
		{StudentID: "student-2", Status: models.AttendanceAbsent},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(sqlmock.AnyArg(), "session-1", "student-1", date, string(models.AttendancePresent), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(sqlmock.AnyArg(), "session-1", "student-2", date, string(models.AttendanceAbsent), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE sessions SET attendance_taken = TRUE").
		WithArgs("session-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkRoster(context.Background(), "session-1", date, entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "session-1", entries[0].SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRosterRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	entries := []models.Attendance{{StudentID: "student-1", Status: models.AttendancePresent}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendances").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.MarkRoster(context.Background(), "session-1", date, entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtRiskPassesThreshold(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "student_name", "subject_id", "subject_name", "group_name", "absence_count"}).
		AddRow("student-1", "Amine Kacem", "subject-1", "Algebra", "Informatique11", 5)
	mock.ExpectQuery("HAVING COUNT\\(\\*\\) > \\$2").
		WithArgs("teacher-1", 3).
		WillReturnRows(rows)

	students, err := repo.AtRisk(context.Background(), "teacher-1", 3)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 5, students[0].AbsenceCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetJustifiedMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendances SET justified = $2, updated_at = $3 WHERE id = $1 AND status = 'absent'")).
		WithArgs("absence-missing", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetJustified(context.Background(), "absence-missing", true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherStatisticsCountsSessionOccurrences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// A recurring session marked on several dates counts once per date.
	rows := sqlmock.NewRows([]string{"subject_id", "subject_name", "group_id", "group_name", "total_students", "total_sessions", "total_absences"}).
		AddRow("subject-1", "Algebra", "group-1", "Informatique11", 24, 10, 7)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT (a.session_id, a.date)) AS total_sessions")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	stats, err := repo.TeacherStatistics(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 10, stats[0].TotalSessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSubjectSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"subject_id", "subject_name", "total_sessions", "absences"}).
		AddRow("subject-1", "Algebra", 12, 4).
		AddRow("subject-2", "Physics", 10, 1)
	mock.ExpectQuery("GROUP BY se.subject_id, su.name").
		WithArgs("student-1").
		WillReturnRows(rows)

	summary, err := repo.StudentSubjectSummary(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, 4, summary[0].Absences)
	assert.NoError(t, mock.ExpectationsWereMet())
}
