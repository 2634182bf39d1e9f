package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

// cancellationNotice is the minimum lead time before a scheduled reservation
// may still be cancelled.
const cancellationNotice = 72 * time.Hour

// professionalRangePadding widens the professional-side reservation fetch
// around the candidate slot. The overlap predicate re-checks exact bounds, so
// the padding only has to keep the candidate set complete.
const professionalRangePadding = time.Hour

const RoleAdmin = "admin"

const maxIdempotencyKeyLen = 128

// AvailabilityChecker answers whether [start, end] sits inside one of the
// professional's working windows. An error means the stored schedule could
// not be read and must not be treated as "unavailable".
type AvailabilityChecker interface {
	WithinWorkingHours(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error)
}

// Service is the scheduling engine: it owns reservation creation, update,
// removal, status transitions and the listing queries, composing the
// reservation store, the user directory and the availability check.
type Service struct {
	repo  store.ReservationRepository
	users store.UserDirectory
	avail AvailabilityChecker
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo store.ReservationRepository, users store.UserDirectory, avail AvailabilityChecker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		users: users,
		avail: avail,
		log:   log.With(slog.String("component", "scheduling")),
		now:   time.Now,
	}
}

// WithClock replaces the engine's time source. Tests use it to pin "now".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	ServiceType    string
	Description    string
	StartTime      time.Time
	Price          float64
	// IdempotencyKey, when set, makes retried creates land on the same
	// reservation instead of double-booking.
	IdempotencyKey string
}

// Create books a new reservation. Every validation is a hard stop, in order:
// entity existence, self-booking, same-day lockout, service type, client
// conflicts, working hours, professional conflicts. The insert itself runs
// under a per-professional lock with exclusion constraints as backstop.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Reservation, error) {
	client, err := s.users.FindUser(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, newError(KindNotFound, "client not found")
		}
		return domain.Reservation{}, storageError(err, "look up client")
	}

	prof, err := s.users.FindProfessional(ctx, in.ProfessionalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, newError(KindNotFound, "professional not found")
		}
		return domain.Reservation{}, storageError(err, "look up professional")
	}

	if client.ID == prof.OwnerUserID {
		return domain.Reservation{}, newError(KindSelfBooking, "professionals cannot book their own schedule")
	}

	var reservationID uuid.UUID
	if in.IdempotencyKey != "" {
		if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
			return domain.Reservation{}, newError(KindInvalidInput, "idempotency key too long")
		}
		reservationID = idempotentReservationID(in.ClientID, in.IdempotencyKey)
		existing, err := s.repo.FindByID(ctx, reservationID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, storageError(err, "load reservation")
		}
	}

	if err := s.checkBookableDate(in.StartTime); err != nil {
		return domain.Reservation{}, err
	}

	serviceType, err := domain.ResolveServiceType(in.ServiceType)
	if err != nil {
		return domain.Reservation{}, newError(KindInvalidInput, "invalid service type %q", in.ServiceType)
	}

	start := domain.TruncateToHour(in.StartTime)
	end := domain.ScheduleEnd(start, serviceType)

	if err := s.checkClientConflicts(ctx, in.ClientID, start, end, uuid.Nil); err != nil {
		return domain.Reservation{}, err
	}
	if err := s.checkWorkingHours(ctx, prof.ID, start, end); err != nil {
		return domain.Reservation{}, err
	}
	if err := s.checkProfessionalConflicts(ctx, prof.ID, start, end, uuid.Nil); err != nil {
		return domain.Reservation{}, err
	}

	created, err := s.repo.Create(ctx, domain.Reservation{
		ID:             reservationID,
		ClientID:       in.ClientID,
		ProfessionalID: in.ProfessionalID,
		ServiceType:    serviceType,
		Description:    in.Description,
		StartTime:      start,
		EndTime:        end,
		Price:          in.Price,
		Status:         domain.StatusScheduled,
	})
	if err != nil {
		// A concurrent create with the same key won the insert; serve
		// its row instead of failing the retry.
		if reservationID != uuid.Nil && errors.Is(err, store.ErrDuplicateID) {
			existing, findErr := s.repo.FindByID(ctx, reservationID)
			if findErr == nil {
				return existing, nil
			}
			return domain.Reservation{}, storageError(findErr, "load reservation")
		}
		return domain.Reservation{}, s.mapWriteError(err, start, end)
	}

	s.log.Info("reservation created",
		slog.String("reservation_id", created.ID.String()),
		slog.String("client_id", created.ClientID.String()),
		slog.String("professional_id", created.ProfessionalID.String()),
		slog.Time("start_time", created.StartTime),
		slog.Time("end_time", created.EndTime),
	)
	return created, nil
}

type UpdateInput struct {
	ReservationID uuid.UUID
	CallerUserID  uuid.UUID
	ServiceType   string
	Description   string
	StartTime     time.Time
}

// Update rewrites a reservation's service type, description and slot. Only
// the owning client may update. Conflict and availability checks rerun only
// when the derived (start, end) pair actually changed; a pure description
// edit skips them.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Reservation, error) {
	res, err := s.loadReservation(ctx, in.ReservationID)
	if err != nil {
		return domain.Reservation{}, err
	}

	if res.ClientID != in.CallerUserID {
		return domain.Reservation{}, newError(KindNotAuthorized, "only the booking client may update this reservation")
	}

	if err := s.checkBookableDate(in.StartTime); err != nil {
		return domain.Reservation{}, err
	}

	serviceType, err := domain.ResolveServiceType(in.ServiceType)
	if err != nil {
		return domain.Reservation{}, newError(KindInvalidInput, "invalid service type %q", in.ServiceType)
	}

	start := domain.TruncateToHour(in.StartTime)
	end := domain.ScheduleEnd(start, serviceType)

	slotChanged := !start.Equal(res.StartTime) || !end.Equal(res.EndTime)
	if slotChanged {
		if err := s.checkClientConflicts(ctx, res.ClientID, start, end, res.ID); err != nil {
			return domain.Reservation{}, err
		}
		if err := s.checkWorkingHours(ctx, res.ProfessionalID, start, end); err != nil {
			return domain.Reservation{}, err
		}
		if err := s.checkProfessionalConflicts(ctx, res.ProfessionalID, start, end, res.ID); err != nil {
			return domain.Reservation{}, err
		}
	}

	res.ServiceType = serviceType
	res.Description = in.Description
	res.StartTime = start
	res.EndTime = end

	updated, err := s.repo.Update(ctx, res)
	if err != nil {
		return domain.Reservation{}, s.mapWriteError(err, start, end)
	}
	return updated, nil
}

// Remove hard-deletes a reservation, bypassing the status state machine.
// Administrative use only.
func (s *Service) Remove(ctx context.Context, callerRoles []string, reservationID uuid.UUID) error {
	if !slices.Contains(callerRoles, RoleAdmin) {
		return newError(KindNotAuthorized, "removing reservations requires the admin role")
	}
	if _, err := s.loadReservation(ctx, reservationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reservationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "reservation not found")
		}
		return storageError(err, "delete reservation")
	}
	return nil
}

type StatusInput struct {
	ReservationID uuid.UUID
	CallerUserID  uuid.UUID
	CallerRoles   []string
	Status        string
}

// UpdateStatus performs an explicit lifecycle transition. Only cancelled and
// completed are accepted as targets. Cancelling requires the reservation to
// still be scheduled and to start at least three full days from now.
func (s *Service) UpdateStatus(ctx context.Context, in StatusInput) (domain.Reservation, error) {
	res, err := s.loadReservation(ctx, in.ReservationID)
	if err != nil {
		return domain.Reservation{}, err
	}

	authorized, err := s.callerMayTransition(ctx, res, in.CallerUserID, in.CallerRoles)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !authorized {
		return domain.Reservation{}, newError(KindNotAuthorized, "caller may not change this reservation's status")
	}

	target, ok := domain.ParseStatus(in.Status)
	if !ok || target == domain.StatusScheduled {
		return domain.Reservation{}, newError(KindInvalidInput, "invalid target status %q", in.Status)
	}

	if target == domain.StatusCancelled {
		if res.Status != domain.StatusScheduled {
			return domain.Reservation{}, newError(KindCancellationNotAllowed,
				"only scheduled reservations can be cancelled; current status is %s", res.Status)
		}
		if s.now().UTC().Add(cancellationNotice).After(res.StartTime) {
			return domain.Reservation{}, newError(KindCancellationWindowExpired,
				"cancellation requires at least 3 days notice before %s", res.StartTime.Format(time.RFC3339))
		}
	}

	res.Status = target
	updated, err := s.repo.Update(ctx, res)
	if err != nil {
		return domain.Reservation{}, storageError(err, "persist status change")
	}

	s.log.Info("reservation status changed",
		slog.String("reservation_id", updated.ID.String()),
		slog.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *Service) callerMayTransition(ctx context.Context, res domain.Reservation, callerID uuid.UUID, roles []string) (bool, error) {
	if slices.Contains(roles, RoleAdmin) {
		return true, nil
	}
	if callerID == res.ClientID {
		return true, nil
	}
	prof, err := s.users.FindProfessional(ctx, res.ProfessionalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, storageError(err, "look up professional")
	}
	return callerID == prof.OwnerUserID, nil
}

// idempotentReservationID derives a stable id from (client, key) so retries
// of the same create resolve to the same row.
func idempotentReservationID(clientID uuid.UUID, key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("inkstudio:create_reservation:"+clientID.String()+":"+key))
}

func (s *Service) loadReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, newError(KindNotFound, "reservation not found")
		}
		return domain.Reservation{}, storageError(err, "load reservation")
	}
	return res, nil
}

// checkBookableDate enforces the same-day lockout: a slot is bookable only
// when it starts strictly after the start of tomorrow.
func (s *Service) checkBookableDate(start time.Time) error {
	now := s.now().UTC()
	startOfTomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !start.UTC().After(startOfTomorrow) {
		return newError(KindInvalidDate, "reservations must be booked from tomorrow onwards")
	}
	return nil
}

// checkClientConflicts scans all of the client's reservations; the client
// side has no time-range pre-filter.
func (s *Service) checkClientConflicts(ctx context.Context, clientID uuid.UUID, start, end time.Time, excludeID uuid.UUID) error {
	existing, err := s.repo.FindByClient(ctx, clientID)
	if err != nil {
		return storageError(err, "load client reservations")
	}
	if hit, ok := domain.FindConflict(start, end, existing, excludeID); ok {
		return conflictError(KindClientConflict, "client", hit.StartTime, hit.EndTime)
	}
	return nil
}

func (s *Service) checkWorkingHours(ctx context.Context, professionalID uuid.UUID, start, end time.Time) error {
	ok, err := s.avail.WithinWorkingHours(ctx, professionalID, start, end)
	if err != nil {
		// A broken schedule read is a storage failure, not "unavailable".
		return storageError(err, "check working hours")
	}
	if !ok {
		return newError(KindProfessionalUnavailable, "professional is not available at the requested time")
	}
	return nil
}

func (s *Service) checkProfessionalConflicts(ctx context.Context, professionalID uuid.UUID, start, end time.Time, excludeID uuid.UUID) error {
	existing, err := s.repo.FindByProfessionalInRange(ctx, professionalID,
		start.Add(-professionalRangePadding), end.Add(professionalRangePadding))
	if err != nil {
		return storageError(err, "load professional reservations")
	}
	if hit, ok := domain.FindConflict(start, end, existing, excludeID); ok {
		return conflictError(KindProfessionalConflict, "professional", hit.StartTime, hit.EndTime)
	}
	return nil
}

// mapWriteError folds the storage-level overlap sentinels into the same
// business errors the pre-checks produce, so a lost race reads like an
// ordinary conflict.
func (s *Service) mapWriteError(err error, start, end time.Time) error {
	switch {
	case errors.Is(err, store.ErrClientOverlap):
		return conflictError(KindClientConflict, "client", start, end)
	case errors.Is(err, store.ErrProfessionalOverlap):
		return conflictError(KindProfessionalConflict, "professional", start, end)
	}
	return storageError(err, "persist reservation")
}
