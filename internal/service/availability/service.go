package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Service manages professionals' weekly working-hour schedules and answers
// the scheduling engine's working-hours check.
type Service struct {
	repo store.AvailabilityRepository
	log  *slog.Logger
}

func NewService(repo store.AvailabilityRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "availability")),
	}
}

// Put replaces the professional's entire weekly schedule.
func (s *Service) Put(ctx context.Context, professionalID uuid.UUID, week domain.WeekSchedule) (domain.WeekSchedule, error) {
	if professionalID == uuid.Nil {
		return nil, validationError("professional_id is required")
	}
	if len(week) == 0 {
		return nil, validationError("schedule must have at least one working day")
	}
	normalized := week.Normalize()
	if err := normalized.Validate(); err != nil {
		return nil, validationError("invalid schedule: %v", err)
	}

	saved, err := s.repo.Save(ctx, domain.Availability{
		ProfessionalID: professionalID,
		Schedule:       normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("save weekly availability: %w", err)
	}

	s.log.Info("weekly availability replaced",
		slog.String("professional_id", professionalID.String()),
		slog.Int("working_days", len(saved.Schedule)),
	)
	return saved.Schedule, nil
}

// Get returns the professional's stored schedule; store.ErrNotFound when the
// professional never published one.
func (s *Service) Get(ctx context.Context, professionalID uuid.UUID) (domain.WeekSchedule, error) {
	a, err := s.repo.FindByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	return a.Schedule, nil
}

// WithinWorkingHours reports whether [start, end] fits inside one single
// working window on start's weekday. A professional with no published
// schedule is simply never available; a schedule that cannot be read is an
// error, kept distinct so storage trouble never reads as a rejection.
func (s *Service) WithinWorkingHours(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error) {
	if start.After(end) {
		return false, nil
	}
	a, err := s.repo.FindByProfessional(ctx, professionalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	covered, err := a.Schedule.Covers(start, end)
	if err != nil {
		return false, fmt.Errorf("stored schedule for %s: %w", professionalID, err)
	}
	return covered, nil
}
