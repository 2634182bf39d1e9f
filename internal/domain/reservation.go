package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the reservation lifecycle state. Cancelled and completed are
// terminal; no transition leaves either.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus matches s against the known statuses, ignoring case.
func ParseStatus(s string) (Status, bool) {
	switch Status(normalizeKey(s)) {
	case StatusScheduled:
		return StatusScheduled, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID             uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	ClientID       uuid.UUID   `bun:"client_id,notnull,type:uuid" json:"client_id"`
	ProfessionalID uuid.UUID   `bun:"professional_id,notnull,type:uuid" json:"professional_id"`
	ServiceType    ServiceType `bun:"service_type,notnull" json:"service_type"`
	Description    string      `bun:"description" json:"description"`
	StartTime      time.Time   `bun:"start_time,notnull" json:"start_time"`
	EndTime        time.Time   `bun:"end_time,notnull" json:"end_time"`
	Price          float64     `bun:"price,notnull" json:"price"`
	Status         Status      `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time   `bun:"updated_at,notnull" json:"updated_at"`
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// TruncateToHour aligns t to the top of its hour in UTC. Idempotent.
func TruncateToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// ScheduleEnd derives the reservation end from an hour-aligned start: the
// full service duration minus one second, so back-to-back slots never touch
// at second granularity.
func ScheduleEnd(start time.Time, t ServiceType) time.Time {
	return start.Add(t.Duration() - time.Second)
}
