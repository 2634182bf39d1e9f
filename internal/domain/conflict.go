package domain

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] intersect using
// the standard interval rule: b.start < a.end && b.end > a.start. Intervals
// that merely touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return bStart.Before(aEnd) && bEnd.After(aStart)
}

// FindConflict returns the first non-cancelled reservation in existing that
// overlaps [start, end], skipping excludeID (the reservation being updated,
// uuid.Nil when creating).
func FindConflict(start, end time.Time, existing []Reservation, excludeID uuid.UUID) (Reservation, bool) {
	for _, r := range existing {
		if r.Status == StatusCancelled {
			continue
		}
		if excludeID != uuid.Nil && r.ID == excludeID {
			continue
		}
		if Overlaps(start, end, r.StartTime, r.EndTime) {
			return r, true
		}
	}
	return Reservation{}, false
}
