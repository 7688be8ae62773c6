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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, teacher *models.Teacher, passwordHash string) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

// TeacherService manages teacher records and their linked user accounts.
type TeacherService struct {
	repo      teacherRepository
	hasher    passwordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, hasher passwordHasher, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, hasher: hasher, validator: validate, logger: logger}
}

// CreateTeacherRequest is the payload for provisioning a teacher with an
// initial password.
type CreateTeacherRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=2,max=120"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	CIN          *string `json:"cin"`
	Phone        *string `json:"phone"`
	DepartmentID *string `json:"department_id"`
}

// UpdateTeacherRequest is the payload for updating a teacher.
type UpdateTeacherRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=2,max=120"`
	Email        string  `json:"email" validate:"required,email"`
	CIN          *string `json:"cin"`
	Phone        *string `json:"phone"`
	DepartmentID *string `json:"department_id"`
}

// TeacherListRequest captures query params for listing teachers.
type TeacherListRequest struct {
	DepartmentID string `json:"department_id"`
	Active       *bool  `json:"active"`
	Search       string `json:"search"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
	SortBy       string `json:"sort_by"`
	SortOrder    string `json:"sort_order"`
}

// List returns paginated teachers.
func (s *TeacherService) List(ctx context.Context, req TeacherListRequest) ([]models.Teacher, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.TeacherFilter{
		DepartmentID: req.DepartmentID,
		Active:       req.Active,
		Search:       req.Search,
		Page:         page,
		PageSize:     size,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	return teacher, nil
}

// Create provisions a teacher and its user account in one transaction.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
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
	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		FullName:     req.FullName,
		Email:        req.Email,
		CIN:          req.CIN,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}
	if err := s.repo.CreateWithUser(ctx, teacher, hash); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update updates a teacher and mirrors the identity fields onto its account.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	teacher, err := s.Get(ctx, id)
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
	teacher.FullName = req.FullName
	teacher.Email = req.Email
	teacher.CIN = req.CIN
	teacher.Phone = req.Phone
	teacher.DepartmentID = req.DepartmentID
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Deactivate disables a teacher and its user account.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}
