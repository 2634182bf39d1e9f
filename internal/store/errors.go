package store

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrProfessionalOverlap and ErrClientOverlap surface the database
	// exclusion constraints that backstop the check-then-act booking race.
	ErrProfessionalOverlap = errors.New("professional already booked for an overlapping interval")
	ErrClientOverlap       = errors.New("client already booked for an overlapping interval")

	// ErrDuplicateID reports an insert that collided on the primary key,
	// which for derived idempotency ids means a concurrent replay.
	ErrDuplicateID = errors.New("reservation id already exists")
)
