package models

import "time"

// RoomType enumerates the supported room categories.
type RoomType string

const (
	RoomTypeCourse RoomType = "cours"
	RoomTypeLab    RoomType = "tp"
	RoomTypeAmphi  RoomType = "amphi"
)

// Valid returns true when the room type is a supported value.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeCourse, RoomTypeLab, RoomTypeAmphi:
		return true
	default:
		return false
	}
}

// Room is a physical teaching room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Number    string    `db:"number" json:"number"`
	Name      string    `db:"name" json:"name"`
	Type      RoomType  `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter scopes room listing queries.
type RoomFilter struct {
	Type      *RoomType
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
