package timeslot

import (
	"strconv"
	"strings"
)

// ToMinutes converts a "HH:MM" or "HH:MM:SS" clock string into minutes since
// midnight. Seconds are ignored. Malformed or empty input yields 0.
func ToMinutes(t string) int {
	if t == "" {
		return 0
	}
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) intersect. Back-to-back slots sharing a boundary do not
// overlap.
func Overlaps(startA, endA, startB, endB string) bool {
	sa, ea := ToMinutes(startA), ToMinutes(endA)
	sb, eb := ToMinutes(startB), ToMinutes(endB)
	return sa < eb && sb < ea
}
