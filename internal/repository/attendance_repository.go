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

// AttendanceRepository persists per-session attendance outcomes.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// MarkRoster upserts the full roster for one session occurrence and flags the
// session as taken, all in one transaction. Re-marking the same roster is
// idempotent: the (session, student, date) key makes repeats update in place.
func (r *AttendanceRepository) MarkRoster(ctx context.Context, sessionID string, date time.Time, entries []models.Attendance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark roster: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO attendances (id, session_id, student_id, date, status, justified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id, student_id, date)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range entries {
		rec := &entries[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.SessionID = sessionID
		rec.Date = date
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.SessionID, rec.StudentID, rec.Date, rec.Status, rec.Justified, now, now); err != nil {
			return fmt.Errorf("upsert attendance for student %s: %w", rec.StudentID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET attendance_taken = TRUE, updated_at = $2 WHERE id = $1`, sessionID, now); err != nil {
		return fmt.Errorf("flag session attendance taken: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark roster: %w", err)
	}
	return nil
}

// ListAbsences returns absence rows with session and subject context.
func (r *AttendanceRepository) ListAbsences(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceRecord, int, error) {
	base := `FROM attendances a
JOIN sessions se ON se.id = a.session_id
JOIN subjects su ON su.id = se.subject_id
JOIN teachers t ON t.id = se.teacher_id`
	where := []string{"a.status = 'absent'"}
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where = append(where, fmt.Sprintf("se.subject_id = $%d", len(args)))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		where = append(where, fmt.Sprintf("a.session_id = $%d", len(args)))
	}
	if filter.Justified != nil {
		args = append(args, *filter.Justified)
		where = append(where, fmt.Sprintf("a.justified = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.session_id, a.student_id, a.date, a.status, a.justified, a.created_at, a.updated_at,
se.subject_id, su.name AS subject_name, t.full_name AS teacher_name, se.start_time, se.end_time
%s WHERE %s ORDER BY a.date DESC, se.start_time ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var rows []models.AbsenceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absences: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count absences: %w", err)
	}
	return rows, total, nil
}

// StudentSubjectSummary aggregates a student's recorded sessions per subject.
// Total counts every recorded row; absences count rows with status 'absent'.
func (r *AttendanceRepository) StudentSubjectSummary(ctx context.Context, studentID string) ([]models.SubjectSummary, error) {
	const query = `SELECT se.subject_id, su.name AS subject_name,
COUNT(*) AS total_sessions,
SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END) AS absences
FROM attendances a
JOIN sessions se ON se.id = a.session_id
JOIN subjects su ON su.id = se.subject_id
WHERE a.student_id = $1
GROUP BY se.subject_id, su.name
ORDER BY su.name ASC`
	var rows []models.SubjectSummary
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("student subject summary: %w", err)
	}
	return rows, nil
}

// AtRisk returns (student, subject) pairs taught by the teacher whose absence
// count exceeds the threshold.
func (r *AttendanceRepository) AtRisk(ctx context.Context, teacherID string, threshold int) ([]models.AtRiskStudent, error) {
	const query = `SELECT a.student_id, st.full_name AS student_name,
se.subject_id, su.name AS subject_name, g.name AS group_name,
COUNT(*) AS absence_count
FROM attendances a
JOIN sessions se ON se.id = a.session_id
JOIN subjects su ON su.id = se.subject_id
JOIN students st ON st.id = a.student_id
JOIN student_groups g ON g.id = se.group_id
WHERE se.teacher_id = $1 AND a.status = 'absent'
GROUP BY a.student_id, st.full_name, se.subject_id, su.name, g.name
HAVING COUNT(*) > $2
ORDER BY absence_count DESC, student_name ASC`
	var rows []models.AtRiskStudent
	if err := r.db.SelectContext(ctx, &rows, query, teacherID, threshold); err != nil {
		return nil, fmt.Errorf("at-risk students: %w", err)
	}
	return rows, nil
}

// TeacherStatistics aggregates attendance per (subject, group) for a teacher.
func (r *AttendanceRepository) TeacherStatistics(ctx context.Context, teacherID string) ([]models.SubjectStatistics, error) {
	const query = `SELECT se.subject_id, su.name AS subject_name,
se.group_id, g.name AS group_name,
COUNT(DISTINCT a.student_id) AS total_students,
COUNT(DISTINCT (a.session_id, a.date)) AS total_sessions,
SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END) AS total_absences
FROM attendances a
JOIN sessions se ON se.id = a.session_id
JOIN subjects su ON su.id = se.subject_id
JOIN student_groups g ON g.id = se.group_id
WHERE se.teacher_id = $1
GROUP BY se.subject_id, su.name, se.group_id, g.name
ORDER BY su.name ASC, g.name ASC`
	var rows []models.SubjectStatistics
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher statistics: %w", err)
	}
	return rows, nil
}

// SetJustified updates the justified flag of a single absence row.
func (r *AttendanceRepository) SetJustified(ctx context.Context, id string, justified bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE attendances SET justified = $2, updated_at = $3 WHERE id = $1 AND status = 'absent'`, id, justified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set absence justified: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
