package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		input    string
		expected int
	}{
		{"08:30", 510},
		{"00:00", 0},
		{"23:59", 1439},
		{"10:15:45", 615},
		{"", 0},
		{"abc", 0},
		{"12", 0},
		{"xx:30", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, ToMinutes(tc.input), "input %q", tc.input)
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		startA, endA, startB, endB     string
		expected                       bool
	}{
		{"back to back", "09:00", "10:00", "10:00", "11:00", false},
		{"contained", "09:00", "12:00", "10:00", "11:00", true},
		{"partial", "08:30", "10:00", "09:00", "09:30", true},
		{"disjoint", "08:00", "09:00", "14:00", "15:00", false},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
		{"touching before", "10:00", "11:00", "09:00", "10:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Overlaps(tc.startA, tc.endA, tc.startB, tc.endB))
		})
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	pairs := [][4]string{
		{"09:00", "10:00", "09:30", "10:30"},
		{"09:00", "10:00", "10:00", "11:00"},
		{"08:00", "12:00", "09:00", "09:30"},
		{"07:00", "08:00", "20:00", "21:00"},
	}
	for _, p := range pairs {
		assert.Equal(t, Overlaps(p[0], p[1], p[2], p[3]), Overlaps(p[2], p[3], p[0], p[1]))
	}
}
