package models

import "time"

// Department groups specialties under one administrative unit. HeadTeacherID
// optionally references the teacher chairing the department.
type Department struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	HeadTeacherID *string   `db:"head_teacher_id" json:"head_teacher_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Specialty is a program of study within a department.
type Specialty struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Level is an academic year within a specialty (e.g. "1st Year").
type Level struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SpecialtyID string    `db:"specialty_id" json:"specialty_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Group is a cohort of students within a level. Name is generated from the
// specialty name, the level initial and a per-level index.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LevelID   string    `db:"level_id" json:"level_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a taught course attached to a level.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LevelID   string    `db:"level_id" json:"level_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NameFilter is the shared listing filter for simple academic entities.
type NameFilter struct {
	Search    string
	ParentID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
