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

func TestGroupNamingInfo(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	rows := sqlmock.NewRows([]string{"specialty_name", "level_name", "group_count"}).
		AddRow("Informatique", "2nd Year", 2)
	mock.ExpectQuery("SELECT sp.name AS specialty_name, l.name AS level_name").
		WithArgs("level-1").
		WillReturnRows(rows)

	info, err := repo.GroupNamingInfo(context.Background(), "level-1")
	require.NoError(t, err)
	assert.Equal(t, "Informatique", info.SpecialtyName)
	assert.Equal(t, "2nd Year", info.LevelName)
	assert.Equal(t, 2, info.GroupCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupNamingInfoUnknownLevel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	mock.ExpectQuery("SELECT sp.name AS specialty_name, l.name AS level_name").
		WithArgs("level-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GroupNamingInfo(context.Background(), "level-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGroupStampsRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	mock.ExpectExec("INSERT INTO student_groups").WillReturnResult(sqlmock.NewResult(1, 1))

	group := &models.Group{Name: "Informatique23", LevelID: "level-1"}
	require.NoError(t, repo.CreateGroup(context.Background(), group))
	assert.NotEmpty(t, group.ID)
	assert.False(t, group.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindGroup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "level_id", "created_at", "updated_at"}).
		AddRow("group-1", "Informatique11", "level-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM student_groups WHERE id = $1")).
		WithArgs("group-1").
		WillReturnRows(rows)

	group, err := repo.FindGroup(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, "Informatique11", group.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
