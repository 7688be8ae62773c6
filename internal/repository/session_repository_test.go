package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func sessionRows(now time.Time, dayOfWeek int, id string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "day_of_week", "specific_date", "start_time", "end_time",
		"room_id", "subject_id", "group_id", "teacher_id", "attendance_taken",
		"created_by", "created_at", "updated_at",
	}).AddRow(id, dayOfWeek, nil, "08:30", "10:00", "room-1", "subject-1", "group-1", "teacher-1", false, nil, now, now)
}

func TestSessionFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id = \\$1").
		WithArgs("session-1").
		WillReturnRows(sessionRows(now, 1, "session-1"))

	session, err := repo.FindByID(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	require.NotNil(t, session.DayOfWeek)
	assert.Equal(t, 1, *session.DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE id = \\$1").
		WithArgs("session-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "session-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE 1=1 AND group_id = \\$1 ORDER BY").
		WithArgs("group-1").
		WillReturnRows(sessionRows(now, 1, "session-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1 AND group_id = $1")).
		WithArgs("group-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.SessionFilter{GroupID: "group-1"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionCreateCheckedConflictRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	day := 1
	candidate := &models.Session{
		DayOfWeek: &day,
		StartTime: "09:00",
		EndTime:   "09:30",
		RoomID:    "room-1",
		SubjectID: "subject-2",
		GroupID:   "group-2",
		TeacherID: "teacher-2",
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM sessions\nWHERE \\(room_id = \\$1 OR group_id = \\$2 OR teacher_id = \\$3\\)").
		WithArgs("room-1", "group-2", "teacher-2", 1).
		WillReturnRows(sessionRows(now, 1, "session-1"))
	mock.ExpectRollback()

	detect := func(candidate *models.Session, existing []models.Session) []models.SessionConflict {
		require.Len(t, existing, 1)
		return []models.SessionConflict{{Dimension: models.ConflictRoom, SessionID: existing[0].ID}}
	}

	err := repo.CreateChecked(context.Background(), candidate, detect)
	var conflictErr *models.SessionConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Len(t, conflictErr.Conflicts, 1)
	assert.Empty(t, candidate.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionCreateCheckedInserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	day := 1
	candidate := &models.Session{
		DayOfWeek: &day,
		StartTime: "09:00",
		EndTime:   "09:30",
		RoomID:    "room-1",
		SubjectID: "subject-2",
		GroupID:   "group-2",
		TeacherID: "teacher-2",
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM sessions\nWHERE \\(room_id = \\$1 OR group_id = \\$2 OR teacher_id = \\$3\\)").
		WithArgs("room-1", "group-2", "teacher-2", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	detect := func(candidate *models.Session, existing []models.Session) []models.SessionConflict {
		return nil
	}

	err := repo.CreateChecked(context.Background(), candidate, detect)
	require.NoError(t, err)
	assert.NotEmpty(t, candidate.ID)
	assert.False(t, candidate.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "session-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
