package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
	"github.com/scolara/scolara-api/internal/repository"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type mockAcademicRepo struct {
	departments map[string]models.Department
	specialties map[string]models.Specialty
	levels      map[string]models.Level
	groups      map[string]models.Group
	naming      map[string]repository.GroupNaming

	createdGroup *models.Group
}

func (m *mockAcademicRepo) ListDepartments(ctx context.Context, filter models.NameFilter) ([]models.Department, int, error) {
	rows := make([]models.Department, 0, len(m.departments))
	for _, d := range m.departments {
		rows = append(rows, d)
	}
	return rows, len(rows), nil
}

func (m *mockAcademicRepo) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicRepo) CreateDepartment(ctx context.Context, d *models.Department) error {
	d.ID = "dep-new"
	return nil
}

func (m *mockAcademicRepo) UpdateDepartment(ctx context.Context, d *models.Department) error {
	return nil
}

func (m *mockAcademicRepo) DeleteDepartment(ctx context.Context, id string) error { return nil }

func (m *mockAcademicRepo) ListSpecialties(ctx context.Context, filter models.NameFilter) ([]models.Specialty, int, error) {
	return nil, 0, nil
}

func (m *mockAcademicRepo) FindSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	if s, ok := m.specialties[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicRepo) CreateSpecialty(ctx context.Context, s *models.Specialty) error {
	s.ID = "spec-new"
	return nil
}

func (m *mockAcademicRepo) UpdateSpecialty(ctx context.Context, s *models.Specialty) error {
	return nil
}

func (m *mockAcademicRepo) DeleteSpecialty(ctx context.Context, id string) error { return nil }

func (m *mockAcademicRepo) ListLevels(ctx context.Context, filter models.NameFilter) ([]models.Level, int, error) {
	return nil, 0, nil
}

func (m *mockAcademicRepo) FindLevel(ctx context.Context, id string) (*models.Level, error) {
	if l, ok := m.levels[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicRepo) CreateLevel(ctx context.Context, l *models.Level) error {
	l.ID = "level-new"
	return nil
}

func (m *mockAcademicRepo) UpdateLevel(ctx context.Context, l *models.Level) error { return nil }

func (m *mockAcademicRepo) DeleteLevel(ctx context.Context, id string) error { return nil }

func (m *mockAcademicRepo) ListGroups(ctx context.Context, filter models.NameFilter) ([]models.Group, int, error) {
	return nil, 0, nil
}

func (m *mockAcademicRepo) FindGroup(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicRepo) GroupNamingInfo(ctx context.Context, levelID string) (*repository.GroupNaming, error) {
	if n, ok := m.naming[levelID]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicRepo) CreateGroup(ctx context.Context, g *models.Group) error {
	g.ID = "group-new"
	m.createdGroup = g
	return nil
}

func (m *mockAcademicRepo) UpdateGroup(ctx context.Context, g *models.Group) error { return nil }

func (m *mockAcademicRepo) DeleteGroup(ctx context.Context, id string) error { return nil }

func TestGenerateGroupName(t *testing.T) {
	cases := []struct {
		specialty string
		level     string
		index     int
		expected  string
	}{
		{"Informatique", "1st Year", 1, "Informatique11"},
		{"Informatique", "2nd Year", 3, "Informatique23"},
		{"GC", "Licence 3", 2, "GCL2"},
		{"Math", "", 1, "Math1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, GenerateGroupName(tc.specialty, tc.level, tc.index))
	}
}

func TestCreateGroupGeneratesName(t *testing.T) {
	repo := &mockAcademicRepo{
		naming: map[string]repository.GroupNaming{
			"level-1": {SpecialtyName: "Informatique", LevelName: "2nd Year", GroupCount: 1},
		},
	}
	svc := NewAcademicService(repo, nil, nil)

	group, err := svc.CreateGroup(context.Background(), GroupRequest{LevelID: "level-1"})
	require.NoError(t, err)
	assert.Equal(t, "Informatique22", group.Name)
	assert.Equal(t, "level-1", group.LevelID)
	require.NotNil(t, repo.createdGroup)
	assert.Equal(t, "Informatique22", repo.createdGroup.Name)
}

func TestCreateGroupUnknownLevel(t *testing.T) {
	repo := &mockAcademicRepo{naming: map[string]repository.GroupNaming{}}
	svc := NewAcademicService(repo, nil, nil)

	_, err := svc.CreateGroup(context.Background(), GroupRequest{LevelID: "level-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.createdGroup)
}

func TestCreateSpecialtyRequiresDepartment(t *testing.T) {
	repo := &mockAcademicRepo{departments: map[string]models.Department{}}
	svc := NewAcademicService(repo, nil, nil)

	_, err := svc.CreateSpecialty(context.Background(), SpecialtyRequest{Name: "Networks", DepartmentID: "dep-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSpecialtyUnderDepartment(t *testing.T) {
	repo := &mockAcademicRepo{departments: map[string]models.Department{
		"dep-1": {ID: "dep-1", Name: "Sciences"},
	}}
	svc := NewAcademicService(repo, nil, nil)

	specialty, err := svc.CreateSpecialty(context.Background(), SpecialtyRequest{Name: "Networks", DepartmentID: "dep-1"})
	require.NoError(t, err)
	assert.Equal(t, "spec-new", specialty.ID)
	assert.Equal(t, "dep-1", specialty.DepartmentID)
}

func TestDeleteErrorMapsForeignKeyViolation(t *testing.T) {
	fkErr := &pq.Error{Code: "23503"}
	err := deleteError(fkErr, "room")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	err = deleteError(errors.New("connection reset"), "room")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUpdateDepartmentNotFound(t *testing.T) {
	repo := &mockAcademicRepo{departments: map[string]models.Department{}}
	svc := NewAcademicService(repo, nil, nil)

	_, err := svc.UpdateDepartment(context.Background(), "dep-missing", DepartmentRequest{Name: "Renamed"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
