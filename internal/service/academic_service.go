package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	"github.com/scolara/scolara-api/internal/repository"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type academicRepository interface {
	ListDepartments(ctx context.Context, filter models.NameFilter) ([]models.Department, int, error)
	FindDepartment(ctx context.Context, id string) (*models.Department, error)
	CreateDepartment(ctx context.Context, d *models.Department) error
	UpdateDepartment(ctx context.Context, d *models.Department) error
	DeleteDepartment(ctx context.Context, id string) error

	ListSpecialties(ctx context.Context, filter models.NameFilter) ([]models.Specialty, int, error)
	FindSpecialty(ctx context.Context, id string) (*models.Specialty, error)
	CreateSpecialty(ctx context.Context, s *models.Specialty) error
	UpdateSpecialty(ctx context.Context, s *models.Specialty) error
	DeleteSpecialty(ctx context.Context, id string) error

	ListLevels(ctx context.Context, filter models.NameFilter) ([]models.Level, int, error)
	FindLevel(ctx context.Context, id string) (*models.Level, error)
	CreateLevel(ctx context.Context, l *models.Level) error
	UpdateLevel(ctx context.Context, l *models.Level) error
	DeleteLevel(ctx context.Context, id string) error

	ListGroups(ctx context.Context, filter models.NameFilter) ([]models.Group, int, error)
	FindGroup(ctx context.Context, id string) (*models.Group, error)
	GroupNamingInfo(ctx context.Context, levelID string) (*repository.GroupNaming, error)
	CreateGroup(ctx context.Context, g *models.Group) error
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
}

// AcademicService manages the department, specialty, level and group
// hierarchy.
type AcademicService struct {
	repo      academicRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicService constructs the academic service.
func NewAcademicService(repo academicRepository, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, validator: validate, logger: logger}
}

// NameListRequest is the shared listing request for academic entities.
type NameListRequest struct {
	Search    string `json:"search"`
	ParentID  string `json:"parent_id"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// DepartmentRequest is the payload for creating or updating a department.
type DepartmentRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=120"`
	HeadTeacherID *string `json:"head_teacher_id"`
}

// SpecialtyRequest is the payload for creating or updating a specialty.
type SpecialtyRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// LevelRequest is the payload for creating or updating a level.
type LevelRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	SpecialtyID string `json:"specialty_id" validate:"required"`
}

// GroupRequest is the payload for creating a group. The group name is
// generated, never supplied.
type GroupRequest struct {
	LevelID string `json:"level_id" validate:"required"`
}

func (s *AcademicService) listFilter(req NameListRequest) models.NameFilter {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	return models.NameFilter{
		Search:    req.Search,
		ParentID:  req.ParentID,
		Page:      page,
		PageSize:  size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
}

func notFoundOr(err error, entity string, fallback string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func deleteError(err error, entity string) error {
	if repository.IsForeignKeyViolation(err) {
		return appErrors.Clone(appErrors.ErrConflict, entity+" is still referenced by other records")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+entity)
}

// ListDepartments returns paginated departments.
func (s *AcademicService) ListDepartments(ctx context.Context, req NameListRequest) ([]models.Department, *models.Pagination, error) {
	filter := s.listFilter(req)
	rows, total, err := s.repo.ListDepartments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetDepartment returns one department.
func (s *AcademicService) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindDepartment(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "department", "failed to fetch department")
	}
	return department, nil
}

// CreateDepartment creates a department.
func (s *AcademicService) CreateDepartment(ctx context.Context, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	department := &models.Department{Name: req.Name, HeadTeacherID: req.HeadTeacherID}
	if err := s.repo.CreateDepartment(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// UpdateDepartment updates a department.
func (s *AcademicService) UpdateDepartment(ctx context.Context, id string, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	department, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	department.Name = req.Name
	department.HeadTeacherID = req.HeadTeacherID
	if err := s.repo.UpdateDepartment(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}

// DeleteDepartment removes a department.
func (s *AcademicService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		return deleteError(err, "department")
	}
	return nil
}

// ListSpecialties returns paginated specialties, optionally scoped to a
// department via ParentID.
func (s *AcademicService) ListSpecialties(ctx context.Context, req NameListRequest) ([]models.Specialty, *models.Pagination, error) {
	filter := s.listFilter(req)
	rows, total, err := s.repo.ListSpecialties(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialties")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetSpecialty returns one specialty.
func (s *AcademicService) GetSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	specialty, err := s.repo.FindSpecialty(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "specialty", "failed to fetch specialty")
	}
	return specialty, nil
}

// CreateSpecialty creates a specialty under an existing department.
func (s *AcademicService) CreateSpecialty(ctx context.Context, req SpecialtyRequest) (*models.Specialty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.GetDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	specialty := &models.Specialty{Name: req.Name, DepartmentID: req.DepartmentID}
	if err := s.repo.CreateSpecialty(ctx, specialty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create specialty")
	}
	return specialty, nil
}

// UpdateSpecialty updates a specialty.
func (s *AcademicService) UpdateSpecialty(ctx context.Context, id string, req SpecialtyRequest) (*models.Specialty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	specialty, err := s.GetSpecialty(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	specialty.Name = req.Name
	specialty.DepartmentID = req.DepartmentID
	if err := s.repo.UpdateSpecialty(ctx, specialty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update specialty")
	}
	return specialty, nil
}

// DeleteSpecialty removes a specialty.
func (s *AcademicService) DeleteSpecialty(ctx context.Context, id string) error {
	if _, err := s.GetSpecialty(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteSpecialty(ctx, id); err != nil {
		return deleteError(err, "specialty")
	}
	return nil
}

// ListLevels returns paginated levels, optionally scoped to a specialty.
func (s *AcademicService) ListLevels(ctx context.Context, req NameListRequest) ([]models.Level, *models.Pagination, error) {
	filter := s.listFilter(req)
	rows, total, err := s.repo.ListLevels(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetLevel returns one level.
func (s *AcademicService) GetLevel(ctx context.Context, id string) (*models.Level, error) {
	level, err := s.repo.FindLevel(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "level", "failed to fetch level")
	}
	return level, nil
}

// CreateLevel creates a level under an existing specialty.
func (s *AcademicService) CreateLevel(ctx context.Context, req LevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.GetSpecialty(ctx, req.SpecialtyID); err != nil {
		return nil, err
	}
	level := &models.Level{Name: req.Name, SpecialtyID: req.SpecialtyID}
	if err := s.repo.CreateLevel(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create level")
	}
	return level, nil
}

// UpdateLevel updates a level.
func (s *AcademicService) UpdateLevel(ctx context.Context, id string, req LevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	level, err := s.GetLevel(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetSpecialty(ctx, req.SpecialtyID); err != nil {
		return nil, err
	}
	level.Name = req.Name
	level.SpecialtyID = req.SpecialtyID
	if err := s.repo.UpdateLevel(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update level")
	}
	return level, nil
}

// DeleteLevel removes a level.
func (s *AcademicService) DeleteLevel(ctx context.Context, id string) error {
	if _, err := s.GetLevel(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteLevel(ctx, id); err != nil {
		return deleteError(err, "level")
	}
	return nil
}

// ListGroups returns paginated groups, optionally scoped to a level.
func (s *AcademicService) ListGroups(ctx context.Context, req NameListRequest) ([]models.Group, *models.Pagination, error) {
	filter := s.listFilter(req)
	rows, total, err := s.repo.ListGroups(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetGroup returns one group.
func (s *AcademicService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindGroup(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "group", "failed to fetch group")
	}
	return group, nil
}

// CreateGroup creates a group under a level. The group name is generated as
// the specialty name, the level's leading character and the next per-level
// index, e.g. "Informatique" / "2nd Year" with one existing group yields
// "Informatique22".
func (s *AcademicService) CreateGroup(ctx context.Context, req GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	naming, err := s.repo.GroupNamingInfo(ctx, req.LevelID)
	if err != nil {
		return nil, notFoundOr(err, "level", "failed to resolve group name")
	}
	group := &models.Group{
		Name:    GenerateGroupName(naming.SpecialtyName, naming.LevelName, naming.GroupCount+1),
		LevelID: req.LevelID,
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// DeleteGroup removes a group.
func (s *AcademicService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.GetGroup(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return deleteError(err, "group")
	}
	return nil
}

// GenerateGroupName builds a group name from the specialty name, the level
// name's first character and the group's per-level index.
func GenerateGroupName(specialtyName, levelName string, index int) string {
	initial := ""
	for _, r := range levelName {
		initial = string(r)
		break
	}
	return fmt.Sprintf("%s%s%d", specialtyName, initial, index)
}
