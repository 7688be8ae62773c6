package models

import "time"

// Student holds the student-specific row linked to a user account. Group and
// specialty are denormalized for fast schedule lookup and must stay consistent
// with the group's own level/specialty chain.
type Student struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	CIN         *string   `db:"cin" json:"cin,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	GroupID     *string   `db:"group_id" json:"group_id,omitempty"`
	SpecialtyID *string   `db:"specialty_id" json:"specialty_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	GroupID     string
	SpecialtyID string
	Active      *bool
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
