package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scolara/scolara-api/internal/models"
)

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching the filter, scoped to a level when provided.
func (r *SubjectRepository) List(ctx context.Context, filter models.NameFilter) ([]models.Subject, int, error) {
	var rows []models.Subject
	total, err := listNamed(ctx, r.db, "subjects", "level_id", filter, &rows)
	return rows, total, err
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var row models.Subject
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// Create stores a new subject record.
func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	stampNew(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	const query = `INSERT INTO subjects (id, name, level_id, created_at, updated_at) VALUES (:id, :name, :level_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject record.
func (r *SubjectRepository) Update(ctx context.Context, s *models.Subject) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, level_id = :level_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject by id.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
