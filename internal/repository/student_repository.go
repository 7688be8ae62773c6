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

const studentColumns = "id, user_id, full_name, email, cin, phone, group_id, specialty_id, active, created_at, updated_at"

// StudentRepository provides persistence for students and their user accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students with optional filtering and pagination.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if filter.SpecialtyID != "" {
		args = append(args, filter.SpecialtyID)
		conditions = append(conditions, fmt.Sprintf("specialty_id = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID loads a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID resolves the student row owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE user_id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByGroup returns the active student roster of a group.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE group_id = $1 AND active ORDER BY full_name ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return students, nil
}

// ExistsByEmail reports whether a student with the email already exists,
// optionally excluding one id.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)`
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
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the user account and the student row in one
// transaction.
func (r *StudentRepository) CreateWithUser(ctx context.Context, student *models.Student, passwordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if student.UserID == "" {
		student.UserID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		student.UserID, student.Email, passwordHash, student.FullName, models.RoleStudent, true, now, now); err != nil {
		return fmt.Errorf("create student user: %w", err)
	}

	stampNew(&student.ID, &student.CreatedAt, &student.UpdatedAt)
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO students (id, user_id, full_name, email, cin, phone, group_id, specialty_id, active, created_at, updated_at)
VALUES (:id, :user_id, :full_name, :email, :cin, :phone, :group_id, :specialty_id, :active, :created_at, :updated_at)`, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// Update modifies a student record and mirrors identity fields onto the user
// row.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	student.UpdatedAt = time.Now().UTC()
	if _, err := tx.NamedExecContext(ctx, `UPDATE students SET full_name = :full_name, email = :email, cin = :cin, phone = :phone,
group_id = :group_id, specialty_id = :specialty_id, active = :active, updated_at = :updated_at WHERE id = :id`, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET email = $2, full_name = $3, active = $4, updated_at = $5 WHERE id = $1`,
		student.UserID, student.Email, student.FullName, student.Active, student.UpdatedAt); err != nil {
		return fmt.Errorf("update student user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// Deactivate disables a student and its user account.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = (SELECT user_id FROM students WHERE id = $1)`, id, now); err != nil {
		return fmt.Errorf("deactivate student user: %w", err)
	}
	return nil
}
