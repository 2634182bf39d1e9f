package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inkstudio/internal/domain"
)

// ReservationPageFilter narrows and paginates a reservation listing. Zero
// values mean "no bound". Exactly one of ClientID / ProfessionalID is
// expected to be set by callers.
type ReservationPageFilter struct {
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	EndBefore      time.Time
	EndAtOrAfter   time.Time
	NewestFirst    bool
	Offset         int
	Limit          int
}

type ReservationRepository interface {
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	// FindByClient returns every reservation of the client, any status.
	FindByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error)
	// FindByProfessionalInRange returns the professional's reservations
	// whose interval intersects [from, to].
	FindByProfessionalInRange(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)
	Update(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListPage returns one page plus the total row count for the filter.
	ListPage(ctx context.Context, f ReservationPageFilter) ([]domain.Reservation, int, error)
}

type AvailabilityRepository interface {
	// Save upserts the professional's schedule; one row per professional.
	Save(ctx context.Context, a domain.Availability) (domain.Availability, error)
	FindByProfessional(ctx context.Context, professionalID uuid.UUID) (domain.Availability, error)
}

// UserDirectory supplies the entity existence checks the scheduling engine
// depends on. Identity resolution itself lives upstream.
type UserDirectory interface {
	FindUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindProfessional(ctx context.Context, id uuid.UUID) (domain.Professional, error)
}
