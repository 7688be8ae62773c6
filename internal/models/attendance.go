package models

import "time"

// AttendanceStatus represents the recorded outcome for one student in one
// session. Every roster entry is recorded, present or absent, so that subject
// summaries can count total sessions from attendance rows alone.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Attendance is a single recorded outcome for (session, student, date).
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"session_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Justified bool             `db:"justified" json:"justified"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AbsenceRecord extends an attendance row with session and subject context for
// a student's absence history.
type AbsenceRecord struct {
	Attendance
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
}

// SubjectSummary aggregates a student's recorded sessions per subject.
// Eliminated is derived, never stored.
type SubjectSummary struct {
	SubjectID     string `db:"subject_id" json:"subject_id"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	TotalSessions int    `db:"total_sessions" json:"total_sessions"`
	Absences      int    `db:"absences" json:"absences"`
	Eliminated    bool   `db:"-" json:"eliminated"`
}

// AtRiskStudent is a (student, subject) pair over the absence threshold.
type AtRiskStudent struct {
	StudentID    string `db:"student_id" json:"student_id"`
	StudentName  string `db:"student_name" json:"student_name"`
	SubjectID    string `db:"subject_id" json:"subject_id"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	GroupName    string `db:"group_name" json:"group_name"`
	AbsenceCount int    `db:"absence_count" json:"absence_count"`
}

// SubjectStatistics aggregates attendance per (subject, group) for a teacher.
type SubjectStatistics struct {
	SubjectID     string `db:"subject_id" json:"subject_id"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	GroupID       string `db:"group_id" json:"group_id"`
	GroupName     string `db:"group_name" json:"group_name"`
	TotalStudents int    `db:"total_students" json:"total_students"`
	TotalSessions int    `db:"total_sessions" json:"total_sessions"`
	TotalAbsences int    `db:"total_absences" json:"total_absences"`
}

// AbsenceFilter scopes absence listing queries.
type AbsenceFilter struct {
	StudentID string
	SubjectID string
	SessionID string
	Justified *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
