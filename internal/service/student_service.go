package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Student, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, student *models.Student, passwordHash string) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type studentAcademicRepository interface {
	FindGroup(ctx context.Context, id string) (*models.Group, error)
	FindLevel(ctx context.Context, id string) (*models.Level, error)
}

// StudentService manages student records and their linked user accounts. The
// denormalized specialty is always derived from the group's level chain so
// the two can never disagree.
type StudentService struct {
	repo      studentRepository
	academic  studentAcademicRepository
	hasher    passwordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, academic studentAcademicRepository, hasher passwordHasher, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, academic: academic, hasher: hasher, validator: validate, logger: logger}
}

// CreateStudentRequest is the payload for provisioning a student with an
// initial password.
type CreateStudentRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	CIN      *string `json:"cin"`
	Phone    *string `json:"phone"`
	GroupID  *string `json:"group_id"`
}

// UpdateStudentRequest is the payload for updating a student.
type UpdateStudentRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	CIN      *string `json:"cin"`
	Phone    *string `json:"phone"`
	GroupID  *string `json:"group_id"`
}

// StudentListRequest captures query params for listing students.
type StudentListRequest struct {
	GroupID     string `json:"group_id"`
	SpecialtyID string `json:"specialty_id"`
	Active      *bool  `json:"active"`
	Search      string `json:"search"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
	SortBy      string `json:"sort_by"`
	SortOrder   string `json:"sort_order"`
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, req StudentListRequest) ([]models.Student, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.StudentFilter{
		GroupID:     req.GroupID,
		SpecialtyID: req.SpecialtyID,
		Active:      req.Active,
		Search:      req.Search,
		Page:        page,
		PageSize:    size,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}

// Roster returns the students of a group ordered by name.
func (s *StudentService) Roster(ctx context.Context, groupID string) ([]models.Student, error) {
	if _, err := s.academic.FindGroup(ctx, groupID); err != nil {
		return nil, notFoundOr(err, "group", "failed to fetch group")
	}
	rows, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group students")
	}
	if rows == nil {
		rows = []models.Student{}
	}
	return rows, nil
}

// Create provisions a student and its user account in one transaction.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}
	specialtyID, err := s.resolveSpecialty(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		FullName:    req.FullName,
		Email:       req.Email,
		CIN:         req.CIN,
		Phone:       req.Phone,
		GroupID:     req.GroupID,
		SpecialtyID: specialtyID,
		Active:      true,
	}
	if err := s.repo.CreateWithUser(ctx, student, hash); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update updates a student, re-deriving the specialty from the new group.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}
	specialtyID, err := s.resolveSpecialty(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	student.FullName = req.FullName
	student.Email = req.Email
	student.CIN = req.CIN
	student.Phone = req.Phone
	student.GroupID = req.GroupID
	student.SpecialtyID = specialtyID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate disables a student and its user account.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}

func (s *StudentService) resolveSpecialty(ctx context.Context, groupID *string) (*string, error) {
	if groupID == nil || *groupID == "" {
		return nil, nil
	}
	group, err := s.academic.FindGroup(ctx, *groupID)
	if err != nil {
		return nil, notFoundOr(err, "group", "failed to fetch group")
	}
	level, err := s.academic.FindLevel(ctx, group.LevelID)
	if err != nil {
		return nil, notFoundOr(err, "level", "failed to fetch level")
	}
	return &level.SpecialtyID, nil
}
