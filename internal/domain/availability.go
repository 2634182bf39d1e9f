package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Window is one working-hours interval within a day, both bounds inclusive,
// in 24h "HH:MM" wall-clock form.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeekSchedule maps a lowercase weekday name ("monday" ... "sunday") to that
// day's ordered working windows. Days without an entry are non-working days.
type WeekSchedule map[string][]Window

var weekdayKeys = map[string]struct{}{
	"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
	"thursday": {}, "friday": {}, "saturday": {},
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DayKey returns the WeekSchedule key for a weekday.
func DayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Validate checks day names and window clock formats. Window ordering and
// non-overlap within a day are the caller's responsibility and are not
// enforced here.
func (ws WeekSchedule) Validate() error {
	for day, windows := range ws {
		if _, ok := weekdayKeys[normalizeKey(day)]; !ok {
			return fmt.Errorf("unknown weekday %q", day)
		}
		for _, w := range windows {
			start, err := parseClock(w.Start)
			if err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			end, err := parseClock(w.End)
			if err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			if end <= start {
				return fmt.Errorf("%s: window %s-%s ends before it starts", day, w.Start, w.End)
			}
		}
	}
	return nil
}

// Normalize returns a copy with lowercased day keys and windows sorted by
// start time.
func (ws WeekSchedule) Normalize() WeekSchedule {
	out := make(WeekSchedule, len(ws))
	for day, windows := range ws {
		sorted := make([]Window, len(windows))
		copy(sorted, windows)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		out[normalizeKey(day)] = sorted
	}
	return out
}

// Covers reports whether the whole interval [start, end] fits inside one
// single window of the weekday start falls on. Both the start and the end
// time-of-day must land in the same window; an interval spanning the gap
// between two adjacent windows is not covered. Fails closed when start is
// after end or when the day has no windows. A stored window whose clock
// string cannot be parsed is an error, never plain unavailability.
func (ws WeekSchedule) Covers(start, end time.Time) (bool, error) {
	if start.After(end) {
		return false, nil
	}
	windows, ok := ws[DayKey(start.Weekday())]
	if !ok {
		return false, nil
	}

	startSec := secondOfDay(start)
	endSec := secondOfDay(end)
	for _, w := range windows {
		winStart, err := parseClock(w.Start)
		if err != nil {
			return false, fmt.Errorf("stored window: %w", err)
		}
		winEnd, err := parseClock(w.End)
		if err != nil {
			return false, fmt.Errorf("stored window: %w", err)
		}
		if startSec >= winStart && startSec <= winEnd && endSec >= winStart && endSec <= winEnd {
			return true, nil
		}
	}
	return false, nil
}

// parseClock converts "HH:MM" to seconds since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// Value serializes the schedule for the jsonb column.
func (ws WeekSchedule) Value() (driver.Value, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes the jsonb column. A decode failure propagates as a query
// error so a corrupt row is never mistaken for an empty schedule.
func (ws *WeekSchedule) Scan(value any) error {
	if value == nil {
		*ws = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("week schedule: unsupported column type %T", value)
	}
	return json.Unmarshal(data, ws)
}

// Availability is a professional's stored weekly schedule, one row per
// professional with create-or-replace semantics.
type Availability struct {
	bun.BaseModel `bun:"table:weekly_availability"`

	ProfessionalID uuid.UUID    `bun:"professional_id,pk,type:uuid"`
	Schedule       WeekSchedule `bun:"schedule,type:jsonb"`
	CreatedAt      time.Time    `bun:"created_at,notnull"`
	UpdatedAt      time.Time    `bun:"updated_at,notnull"`
}

func (a *Availability) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
