package models

import "time"

// Session is one scheduled class meeting. A session is either recurring
// (DayOfWeek set, 0=Sunday..6=Saturday) or one-off (SpecificDate set).
type Session struct {
	ID              string     `db:"id" json:"id"`
	DayOfWeek       *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	SpecificDate    *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	StartTime       string     `db:"start_time" json:"start_time"`
	EndTime         string     `db:"end_time" json:"end_time"`
	RoomID          string     `db:"room_id" json:"room_id"`
	SubjectID       string     `db:"subject_id" json:"subject_id"`
	GroupID         string     `db:"group_id" json:"group_id"`
	TeacherID       string     `db:"teacher_id" json:"teacher_id"`
	AttendanceTaken bool       `db:"attendance_taken" json:"attendance_taken"`
	CreatedBy       *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// SessionView joins a session with its display names for schedule responses.
type SessionView struct {
	Session
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	RoomName    string `db:"room_name" json:"room_name"`
	GroupName   string `db:"group_name" json:"group_name"`
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	GroupID   string
	TeacherID string
	RoomID    string
	SubjectID string
	DayOfWeek *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Conflict dimensions reported by the conflict detector.
const (
	ConflictRoom    = "room"
	ConflictGroup   = "group"
	ConflictTeacher = "teacher"
)

// SessionConflict describes an existing session colliding with a candidate on
// one dimension.
type SessionConflict struct {
	Dimension string `json:"dimension"`
	SessionID string `json:"session_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SessionConflictError carries every colliding dimension found for a
// candidate so callers can report all problems in one round trip.
type SessionConflictError struct {
	Conflicts []SessionConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *SessionConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return "no session conflicts"
	}
	return "session conflicts detected"
}
