package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolara/scolara-api/internal/models"
)

const teacherColumns = "id, user_id, full_name, email, cin, phone, department_id, active, created_at, updated_at"

// TeacherRepository provides persistence for teachers and their user accounts.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers with optional filtering and pagination.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", teacherColumns, base, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID resolves the teacher row owned by a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE user_id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail reports whether a teacher with the email already exists,
// optionally excluding one id.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1)`
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var one int
	err := r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the user account and the teacher row in one
// transaction.
func (r *TeacherRepository) CreateWithUser(ctx context.Context, teacher *models.Teacher, passwordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if teacher.UserID == "" {
		teacher.UserID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		teacher.UserID, teacher.Email, passwordHash, teacher.FullName, models.RoleTeacher, true, now, now); err != nil {
		return fmt.Errorf("create teacher user: %w", err)
	}

	stampNew(&teacher.ID, &teacher.CreatedAt, &teacher.UpdatedAt)
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO teachers (id, user_id, full_name, email, cin, phone, department_id, active, created_at, updated_at)
VALUES (:id, :user_id, :full_name, :email, :cin, :phone, :department_id, :active, :created_at, :updated_at)`, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher record and mirrors identity fields onto the user
// row.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	teacher.UpdatedAt = time.Now().UTC()
	if _, err := tx.NamedExecContext(ctx, `UPDATE teachers SET full_name = :full_name, email = :email, cin = :cin, phone = :phone,
department_id = :department_id, active = :active, updated_at = :updated_at WHERE id = :id`, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET email = $2, full_name = $3, active = $4, updated_at = $5 WHERE id = $1`,
		teacher.UserID, teacher.Email, teacher.FullName, teacher.Active, teacher.UpdatedAt); err != nil {
		return fmt.Errorf("update teacher user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher: %w", err)
	}
	return nil
}

// Deactivate disables a teacher and its user account.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE teachers SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = (SELECT user_id FROM teachers WHERE id = $1)`, id, now); err != nil {
		return fmt.Errorf("deactivate teacher user: %w", err)
	}
	return nil
}
