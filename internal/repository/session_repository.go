package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolara/scolara-api/internal/models"
)

const sessionColumns = "id, day_of_week, specific_date, start_time, end_time, room_id, subject_id, group_id, teacher_id, attendance_taken, created_by, created_at, updated_at"

const sessionViewColumns = `se.id, se.day_of_week, se.specific_date, se.start_time, se.end_time,
se.room_id, se.subject_id, se.group_id, se.teacher_id, se.attendance_taken, se.created_by, se.created_at, se.updated_at,
su.name AS subject_name, t.full_name AS teacher_name, r.name AS room_name, g.name AS group_name`

const sessionViewJoins = `FROM sessions se
JOIN subjects su ON su.id = se.subject_id
JOIN teachers t ON t.id = se.teacher_id
JOIN rooms r ON r.id = se.room_id
JOIN student_groups g ON g.id = se.group_id`

// SessionRepository provides persistence for class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions with optional filtering and pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	base := "FROM sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC NULLS LAST, start_time ASC LIMIT %d OFFSET %d", sessionColumns, base, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// findCandidates returns every stored session sharing the candidate's room,
// group or teacher on the same day. A recurring candidate also matches one-off
// sessions falling on that weekday and vice versa.
func (r *SessionRepository) findCandidates(ctx context.Context, q sqlx.QueryerContext, candidate *models.Session, excludeID string) ([]models.Session, error) {
	var dayClause string
	args := []interface{}{candidate.RoomID, candidate.GroupID, candidate.TeacherID}
	if candidate.SpecificDate != nil {
		dayClause = "(specific_date = $4 OR (specific_date IS NULL AND day_of_week = $5))"
		args = append(args, *candidate.SpecificDate, int(candidate.SpecificDate.Weekday()))
	} else {
		dayClause = "((specific_date IS NULL AND day_of_week = $4) OR (specific_date IS NOT NULL AND EXTRACT(DOW FROM specific_date)::int = $4))"
		args = append(args, *candidate.DayOfWeek)
	}
	query := fmt.Sprintf(`SELECT %s FROM sessions
WHERE (room_id = $1 OR group_id = $2 OR teacher_id = $3) AND %s`, sessionColumns, dayClause)
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}

	var sessions []models.Session
	if err := sqlx.SelectContext(ctx, q, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("find candidate sessions: %w", err)
	}
	return sessions, nil
}

// ConflictDetector inspects the stored sessions sharing a resource with the
// candidate and returns every collision found.
type ConflictDetector func(candidate *models.Session, existing []models.Session) []models.SessionConflict

// CreateChecked runs conflict detection and the insert inside one serializable
// transaction so two concurrent schedule edits cannot both pass the check.
func (r *SessionRepository) CreateChecked(ctx context.Context, session *models.Session, detect ConflictDetector) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin create session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := r.findCandidates(ctx, tx, session, "")
	if err != nil {
		return err
	}
	if conflicts := detect(session, existing); len(conflicts) > 0 {
		return &models.SessionConflictError{Conflicts: conflicts}
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, day_of_week, specific_date, start_time, end_time, room_id, subject_id, group_id, teacher_id, attendance_taken, created_by, created_at, updated_at)
VALUES (:id, :day_of_week, :specific_date, :start_time, :end_time, :room_id, :subject_id, :group_id, :teacher_id, :attendance_taken, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create session: %w", err)
	}
	return nil
}

// UpdateChecked updates a session after conflict detection, excluding the
// session itself from the candidate set. Same transaction guarantees as
// CreateChecked.
func (r *SessionRepository) UpdateChecked(ctx context.Context, session *models.Session, detect ConflictDetector) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin update session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := r.findCandidates(ctx, tx, session, session.ID)
	if err != nil {
		return err
	}
	if conflicts := detect(session, existing); len(conflicts) > 0 {
		return &models.SessionConflictError{Conflicts: conflicts}
	}

	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET day_of_week = :day_of_week, specific_date = :specific_date, start_time = :start_time, end_time = :end_time,
room_id = :room_id, subject_id = :subject_id, group_id = :group_id, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update session: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListByGroup returns the resolved weekly schedule for a group.
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID string) ([]models.SessionView, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE se.group_id = $1 ORDER BY se.day_of_week ASC NULLS LAST, se.start_time ASC`, sessionViewColumns, sessionViewJoins)
	var sessions []models.SessionView
	if err := r.db.SelectContext(ctx, &sessions, query, groupID); err != nil {
		return nil, fmt.Errorf("list sessions by group: %w", err)
	}
	return sessions, nil
}

// ListByTeacher returns the resolved weekly schedule for a teacher.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.SessionView, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE se.teacher_id = $1 ORDER BY se.day_of_week ASC NULLS LAST, se.start_time ASC`, sessionViewColumns, sessionViewJoins)
	var sessions []models.SessionView
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID); err != nil {
		return nil, fmt.Errorf("list sessions by teacher: %w", err)
	}
	return sessions, nil
}

// TodayByTeacher returns a teacher's sessions occurring on the given date,
// recurring or one-off.
func (r *SessionRepository) TodayByTeacher(ctx context.Context, teacherID string, date time.Time) ([]models.SessionView, error) {
	query := fmt.Sprintf(`SELECT %s %s
WHERE se.teacher_id = $1 AND ((se.specific_date IS NULL AND se.day_of_week = $2) OR se.specific_date = $3)
ORDER BY se.start_time ASC`, sessionViewColumns, sessionViewJoins)
	var sessions []models.SessionView
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, int(date.Weekday()), date); err != nil {
		return nil, fmt.Errorf("list today sessions: %w", err)
	}
	return sessions, nil
}
