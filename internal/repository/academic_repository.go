package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolara/scolara-api/internal/models"
)

// AcademicRepository persists the department → specialty → level → group
// hierarchy.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository creates a new academic repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

func listNamed[T any](ctx context.Context, db *sqlx.DB, table, parentColumn string, filter models.NameFilter, dest *[]T) (int, error) {
	base := fmt.Sprintf("FROM %s WHERE 1=1", table)
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.ParentID != "" && parentColumn != "" {
		args = append(args, filter.ParentID)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", parentColumn, len(args)))
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

	query := fmt.Sprintf("SELECT * %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", table, err)
	}

	var total int
	if err := db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

// ListDepartments returns departments matching the filter.
func (r *AcademicRepository) ListDepartments(ctx context.Context, filter models.NameFilter) ([]models.Department, int, error) {
	var rows []models.Department
	total, err := listNamed(ctx, r.db, "departments", "", filter, &rows)
	return rows, total, err
}

// FindDepartment loads a department by id.
func (r *AcademicRepository) FindDepartment(ctx context.Context, id string) (*models.Department, error) {
	var row models.Department
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM departments WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateDepartment stores a new department.
func (r *AcademicRepository) CreateDepartment(ctx context.Context, d *models.Department) error {
	stampNew(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	const query = `INSERT INTO departments (id, name, head_teacher_id, created_at, updated_at) VALUES (:id, :name, :head_teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// UpdateDepartment modifies a department.
func (r *AcademicRepository) UpdateDepartment(ctx context.Context, d *models.Department) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, head_teacher_id = :head_teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// DeleteDepartment removes a department by id.
func (r *AcademicRepository) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// ListSpecialties returns specialties, optionally scoped to a department.
func (r *AcademicRepository) ListSpecialties(ctx context.Context, filter models.NameFilter) ([]models.Specialty, int, error) {
	var rows []models.Specialty
	total, err := listNamed(ctx, r.db, "specialties", "department_id", filter, &rows)
	return rows, total, err
}

// FindSpecialty loads a specialty by id.
func (r *AcademicRepository) FindSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	var row models.Specialty
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM specialties WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateSpecialty stores a new specialty.
func (r *AcademicRepository) CreateSpecialty(ctx context.Context, s *models.Specialty) error {
	stampNew(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	const query = `INSERT INTO specialties (id, name, department_id, created_at, updated_at) VALUES (:id, :name, :department_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create specialty: %w", err)
	}
	return nil
}

// UpdateSpecialty modifies a specialty.
func (r *AcademicRepository) UpdateSpecialty(ctx context.Context, s *models.Specialty) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE specialties SET name = :name, department_id = :department_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("update specialty: %w", err)
	}
	return nil
}

// DeleteSpecialty removes a specialty by id.
func (r *AcademicRepository) DeleteSpecialty(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM specialties WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	return nil
}

// ListLevels returns levels, optionally scoped to a specialty.
func (r *AcademicRepository) ListLevels(ctx context.Context, filter models.NameFilter) ([]models.Level, int, error) {
	var rows []models.Level
	total, err := listNamed(ctx, r.db, "levels", "specialty_id", filter, &rows)
	return rows, total, err
}

// FindLevel loads a level by id.
func (r *AcademicRepository) FindLevel(ctx context.Context, id string) (*models.Level, error) {
	var row models.Level
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM levels WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateLevel stores a new level.
func (r *AcademicRepository) CreateLevel(ctx context.Context, l *models.Level) error {
	stampNew(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	const query = `INSERT INTO levels (id, name, specialty_id, created_at, updated_at) VALUES (:id, :name, :specialty_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

// UpdateLevel modifies a level.
func (r *AcademicRepository) UpdateLevel(ctx context.Context, l *models.Level) error {
	l.UpdatedAt = time.Now().UTC()
	const query = `UPDATE levels SET name = :name, specialty_id = :specialty_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	return nil
}

// DeleteLevel removes a level by id.
func (r *AcademicRepository) DeleteLevel(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM levels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	return nil
}

// ListGroups returns groups, optionally scoped to a level.
func (r *AcademicRepository) ListGroups(ctx context.Context, filter models.NameFilter) ([]models.Group, int, error) {
	var rows []models.Group
	total, err := listNamed(ctx, r.db, "student_groups", "level_id", filter, &rows)
	return rows, total, err
}

// FindGroup loads a group by id.
func (r *AcademicRepository) FindGroup(ctx context.Context, id string) (*models.Group, error) {
	var row models.Group
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM student_groups WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// GroupNaming carries the inputs for generated group names.
type GroupNaming struct {
	SpecialtyName string `db:"specialty_name"`
	LevelName     string `db:"level_name"`
	GroupCount    int    `db:"group_count"`
}

// GroupNamingInfo resolves the specialty/level names and the current group
// count for a level, feeding the generated group name.
func (r *AcademicRepository) GroupNamingInfo(ctx context.Context, levelID string) (*GroupNaming, error) {
	const query = `SELECT sp.name AS specialty_name, l.name AS level_name,
(SELECT COUNT(*) FROM student_groups g WHERE g.level_id = l.id) AS group_count
FROM levels l
JOIN specialties sp ON sp.id = l.specialty_id
WHERE l.id = $1`
	var info GroupNaming
	if err := r.db.GetContext(ctx, &info, query, levelID); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateGroup stores a new group.
func (r *AcademicRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	stampNew(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	const query = `INSERT INTO student_groups (id, name, level_id, created_at, updated_at) VALUES (:id, :name, :level_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, g); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// UpdateGroup modifies a group.
func (r *AcademicRepository) UpdateGroup(ctx context.Context, g *models.Group) error {
	g.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_groups SET name = :name, level_id = :level_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, g); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// DeleteGroup removes a group by id.
func (r *AcademicRepository) DeleteGroup(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM student_groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func stampNew(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now
}
