package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

type fakeRepo struct {
	createFn    func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	findByIDFn  func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	byClientFn  func(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error)
	inRangeFn   func(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)
	updateFn    func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
	listPageFn  func(ctx context.Context, f store.ReservationPageFilter) ([]domain.Reservation, int, error)
	createCalls int
	updateCalls int
}

func (f *fakeRepo) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	f.createCalls++
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, r)
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	if f.findByIDFn == nil {
		panic("FindByID not configured")
	}
	return f.findByIDFn(ctx, id)
}

func (f *fakeRepo) FindByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error) {
	if f.byClientFn == nil {
		return nil, nil
	}
	return f.byClientFn(ctx, clientID)
}

func (f *fakeRepo) FindByProfessionalInRange(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
	if f.inRangeFn == nil {
		return nil, nil
	}
	return f.inRangeFn(ctx, professionalID, from, to)
}

func (f *fakeRepo) Update(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	f.updateCalls++
	if f.updateFn == nil {
		return r, nil
	}
	return f.updateFn(ctx, r)
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeRepo) ListPage(ctx context.Context, filter store.ReservationPageFilter) ([]domain.Reservation, int, error) {
	if f.listPageFn == nil {
		panic("ListPage not configured")
	}
	return f.listPageFn(ctx, filter)
}

type fakeDirectory struct {
	users         map[uuid.UUID]domain.User
	professionals map[uuid.UUID]domain.Professional
}

func (f *fakeDirectory) FindUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) FindProfessional(ctx context.Context, id uuid.UUID) (domain.Professional, error) {
	p, ok := f.professionals[id]
	if !ok {
		return domain.Professional{}, store.ErrNotFound
	}
	return p, nil
}

type fakeAvailability struct {
	withinFn func(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error)
	calls    int
}

func (f *fakeAvailability) WithinWorkingHours(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error) {
	f.calls++
	if f.withinFn == nil {
		return true, nil
	}
	return f.withinFn(ctx, professionalID, start, end)
}

var (
	clientID       = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	ownerID        = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	professionalID = uuid.MustParse("00000000-0000-0000-0000-0000000000f1")
	otherUserID    = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
	reservationID  = uuid.MustParse("00000000-0000-0000-0000-0000000000e1")
)

// testNow is a Monday morning; bookable slots start the next day.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[uuid.UUID]domain.User{
			clientID:    {ID: clientID, Name: "Ana Souza"},
			ownerID:     {ID: ownerID, Name: "Rafael Lima"},
			otherUserID: {ID: otherUserID, Name: "Marcos Dias"},
		},
		professionals: map[uuid.UUID]domain.Professional{
			professionalID: {ID: professionalID, OwnerUserID: ownerID, Name: "Rafael Lima"},
		},
	}
}

func newTestService(repo *fakeRepo, avail *fakeAvailability) *Service {
	return NewService(repo, newTestDirectory(), avail, nil).
		WithClock(func() time.Time { return testNow })
}

func TestCreate_TruncatesStartAndDerivesEnd(t *testing.T) {
	repo := &fakeRepo{
		createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			r.ID = reservationID
			return r, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	created, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		Description:    "fine line forearm",
		StartTime:      time.Date(2026, 3, 10, 14, 35, 0, 0, time.UTC),
		Price:          350,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	wantStart := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 10, 15, 59, 59, 0, time.UTC)
	if !created.StartTime.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", created.StartTime, wantStart)
	}
	if !created.EndTime.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", created.EndTime, wantEnd)
	}
	if created.Status != domain.StatusScheduled {
		t.Fatalf("status = %q, want %q", created.Status, domain.StatusScheduled)
	}
}

func TestCreate_IdempotentReplayReturnsExisting(t *testing.T) {
	key := "retry-1"
	existing := domain.Reservation{
		ID:             idempotentReservationID(clientID, key),
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    domain.ServiceSmall,
		StartTime:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, 3, 10, 15, 59, 59, 0, time.UTC),
		Status:         domain.StatusScheduled,
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			if id != existing.ID {
				return domain.Reservation{}, store.ErrNotFound
			}
			return existing, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	got, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		IdempotencyKey: key,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatalf("id = %s, want %s", got.ID, existing.ID)
	}
	if repo.createCalls != 0 {
		t.Fatalf("createCalls = %d, want 0 on replay", repo.createCalls)
	}
}

func TestCreate_IdempotencyKeyDerivesStableID(t *testing.T) {
	key := "retry-2"
	var inserted domain.Reservation
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return domain.Reservation{}, store.ErrNotFound
		},
		createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			inserted = r
			return r, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		IdempotencyKey: key,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if want := idempotentReservationID(clientID, key); inserted.ID != want {
		t.Fatalf("inserted id = %s, want %s", inserted.ID, want)
	}
}

func TestCreate_IdempotentInsertRaceReplays(t *testing.T) {
	key := "retry-3"
	id := idempotentReservationID(clientID, key)
	existing := domain.Reservation{
		ID:       id,
		ClientID: clientID,
		Status:   domain.StatusScheduled,
	}
	// Miss on the first lookup, then the concurrent winner's row is there.
	findCalls := 0
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, got uuid.UUID) (domain.Reservation, error) {
			findCalls++
			if findCalls == 1 {
				return domain.Reservation{}, store.ErrNotFound
			}
			if got != id {
				t.Fatalf("FindByID id = %s, want %s", got, id)
			}
			return existing, nil
		},
		createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			return domain.Reservation{}, store.ErrDuplicateID
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	got, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		IdempotencyKey: key,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != id {
		t.Fatalf("id = %s, want %s", got.ID, id)
	}
	if findCalls != 2 {
		t.Fatalf("findCalls = %d, want 2", findCalls)
	}
}

func TestCreate_IdempotencyKeyTooLong(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		IdempotencyKey: strings.Repeat("k", maxIdempotencyKeyLen+1),
	})
	if ErrorKind(err) != KindInvalidInput {
		t.Fatalf("kind = %v, want KindInvalidInput", ErrorKind(err))
	}
	if repo.createCalls != 0 {
		t.Fatalf("createCalls = %d, want 0", repo.createCalls)
	}
}

func TestCreate_ClientNotFound(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       uuid.MustParse("00000000-0000-0000-0000-00000000dead"),
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      testNow.AddDate(0, 0, 7),
	})
	if ErrorKind(err) != KindNotFound {
		t.Fatalf("kind = %v, want KindNotFound (err: %v)", ErrorKind(err), err)
	}
}

func TestCreate_SelfBookingWritesNothing(t *testing.T) {
	repo := &fakeRepo{}
	avail := &fakeAvailability{}
	svc := newTestService(repo, avail)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       ownerID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      testNow.AddDate(0, 0, 7),
	})
	if ErrorKind(err) != KindSelfBooking {
		t.Fatalf("kind = %v, want KindSelfBooking (err: %v)", ErrorKind(err), err)
	}
	if repo.createCalls != 0 || repo.updateCalls != 0 {
		t.Fatalf("self-booking must not write: creates=%d updates=%d", repo.createCalls, repo.updateCalls)
	}
}

func TestCreate_SameDayLockout(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeAvailability{})

	lockedOut := []time.Time{
		testNow.Add(2 * time.Hour),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), // exactly tomorrow midnight
		time.Date(2026, 2, 20, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC),
	}
	for _, start := range lockedOut {
		_, err := svc.Create(context.Background(), CreateInput{
			ClientID:       clientID,
			ProfessionalID: professionalID,
			ServiceType:    "small",
			StartTime:      start,
		})
		if ErrorKind(err) != KindInvalidDate {
			t.Fatalf("start %v: kind = %v, want KindInvalidDate (err: %v)", start, ErrorKind(err), err)
		}
	}

	// Tomorrow after midnight is bookable.
	repo := &fakeRepo{
		createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) { return r, nil },
	}
	svc = newTestService(repo, &fakeAvailability{})
	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_InvalidServiceType(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "sleeve",
		StartTime:      testNow.AddDate(0, 0, 7),
	})
	if ErrorKind(err) != KindInvalidInput {
		t.Fatalf("kind = %v, want KindInvalidInput (err: %v)", ErrorKind(err), err)
	}
}

func TestCreate_ClientConflict(t *testing.T) {
	existingStart := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		byClientFn: func(ctx context.Context, id uuid.UUID) ([]domain.Reservation, error) {
			return []domain.Reservation{{
				ID:        reservationID,
				ClientID:  clientID,
				StartTime: existingStart,
				EndTime:   domain.ScheduleEnd(existingStart, domain.ServiceSmall),
				Status:    domain.StatusScheduled,
			}}, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	})
	if ErrorKind(err) != KindClientConflict {
		t.Fatalf("kind = %v, want KindClientConflict (err: %v)", ErrorKind(err), err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("conflicting create must not persist")
	}
}

func TestCreate_CancelledReservationsDoNotConflict(t *testing.T) {
	existingStart := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		byClientFn: func(ctx context.Context, id uuid.UUID) ([]domain.Reservation, error) {
			return []domain.Reservation{{
				ID:        reservationID,
				ClientID:  clientID,
				StartTime: existingStart,
				EndTime:   domain.ScheduleEnd(existingStart, domain.ServiceSmall),
				Status:    domain.StatusCancelled,
			}}, nil
		},
		createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) { return r, nil },
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      existingStart,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_ProfessionalUnavailable(t *testing.T) {
	avail := &fakeAvailability{
		withinFn: func(ctx context.Context, id uuid.UUID, start, end time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(&fakeRepo{}, avail)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      testNow.AddDate(0, 0, 7),
	})
	if ErrorKind(err) != KindProfessionalUnavailable {
		t.Fatalf("kind = %v, want KindProfessionalUnavailable (err: %v)", ErrorKind(err), err)
	}
}

func TestCreate_AvailabilityStorageErrorIsNotUnavailable(t *testing.T) {
	broken := errors.New("corrupt schedule blob")
	avail := &fakeAvailability{
		withinFn: func(ctx context.Context, id uuid.UUID, start, end time.Time) (bool, error) {
			return false, broken
		},
	}
	svc := newTestService(&fakeRepo{}, avail)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      testNow.AddDate(0, 0, 7),
	})
	if ErrorKind(err) != KindStorageFailure {
		t.Fatalf("kind = %v, want KindStorageFailure (err: %v)", ErrorKind(err), err)
	}
	if !errors.Is(err, broken) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestCreate_ProfessionalConflictUsesPaddedRange(t *testing.T) {
	requestStart := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	requestEnd := domain.ScheduleEnd(requestStart, domain.ServiceSmall)

	var gotFrom, gotTo time.Time
	repo := &fakeRepo{
		inRangeFn: func(ctx context.Context, id uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
			gotFrom, gotTo = from, to
			return []domain.Reservation{{
				ID:             uuid.MustParse("00000000-0000-0000-0000-00000000aaaa"),
				ProfessionalID: professionalID,
				StartTime:      requestStart,
				EndTime:        requestEnd,
				Status:         domain.StatusScheduled,
			}}, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Create(context.Background(), CreateInput{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    "small",
		StartTime:      requestStart,
	})
	if ErrorKind(err) != KindProfessionalConflict {
		t.Fatalf("kind = %v, want KindProfessionalConflict (err: %v)", ErrorKind(err), err)
	}
	if !gotFrom.Equal(requestStart.Add(-time.Hour)) || !gotTo.Equal(requestEnd.Add(time.Hour)) {
		t.Fatalf("padded range = [%v, %v], want [%v, %v]",
			gotFrom, gotTo, requestStart.Add(-time.Hour), requestEnd.Add(time.Hour))
	}
}

func TestCreate_MapsStorageOverlapSentinels(t *testing.T) {
	tests := []struct {
		sentinel error
		want     Kind
	}{
		{store.ErrClientOverlap, KindClientConflict},
		{store.ErrProfessionalOverlap, KindProfessionalConflict},
	}
	for _, tc := range tests {
		repo := &fakeRepo{
			createFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
				return domain.Reservation{}, tc.sentinel
			},
		}
		svc := newTestService(repo, &fakeAvailability{})

		_, err := svc.Create(context.Background(), CreateInput{
			ClientID:       clientID,
			ProfessionalID: professionalID,
			ServiceType:    "small",
			StartTime:      testNow.AddDate(0, 0, 7),
		})
		if ErrorKind(err) != tc.want {
			t.Fatalf("%v: kind = %v, want %v", tc.sentinel, ErrorKind(err), tc.want)
		}
	}
}

func storedReservation() domain.Reservation {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return domain.Reservation{
		ID:             reservationID,
		ClientID:       clientID,
		ProfessionalID: professionalID,
		ServiceType:    domain.ServiceSmall,
		Description:    "fine line forearm",
		StartTime:      start,
		EndTime:        domain.ScheduleEnd(start, domain.ServiceSmall),
		Price:          350,
		Status:         domain.StatusScheduled,
	}
}

func TestUpdate_OnlyOwningClient(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Update(context.Background(), UpdateInput{
		ReservationID: reservationID,
		CallerUserID:  otherUserID,
		ServiceType:   "small",
		StartTime:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})
	if ErrorKind(err) != KindNotAuthorized {
		t.Fatalf("kind = %v, want KindNotAuthorized (err: %v)", ErrorKind(err), err)
	}
}

func TestUpdate_UnchangedSlotSkipsChecks(t *testing.T) {
	byClientCalled := false
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
		byClientFn: func(ctx context.Context, id uuid.UUID) ([]domain.Reservation, error) {
			byClientCalled = true
			return nil, nil
		},
	}
	avail := &fakeAvailability{}
	svc := newTestService(repo, avail)

	updated, err := svc.Update(context.Background(), UpdateInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		ServiceType:   "small",
		Description:   "added shading",
		StartTime:     time.Date(2026, 3, 10, 14, 20, 0, 0, time.UTC), // truncates to the stored hour
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if byClientCalled || avail.calls != 0 {
		t.Fatalf("unchanged slot must skip conflict and availability checks")
	}
	if updated.Description != "added shading" {
		t.Fatalf("description = %q, want %q", updated.Description, "added shading")
	}
}

func TestUpdate_DurationChangeTriggersChecks(t *testing.T) {
	avail := &fakeAvailability{}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
	}
	svc := newTestService(repo, avail)

	// Same start hour, longer service: end changes, so checks rerun.
	updated, err := svc.Update(context.Background(), UpdateInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		ServiceType:   "medium",
		StartTime:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if avail.calls != 1 {
		t.Fatalf("availability calls = %d, want 1", avail.calls)
	}
	wantEnd := time.Date(2026, 3, 10, 17, 59, 59, 0, time.UTC)
	if !updated.EndTime.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", updated.EndTime, wantEnd)
	}
}

func TestUpdate_ExcludesItselfFromConflicts(t *testing.T) {
	stored := storedReservation()
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return stored, nil
		},
		byClientFn: func(ctx context.Context, id uuid.UUID) ([]domain.Reservation, error) {
			return []domain.Reservation{stored}, nil
		},
		inRangeFn: func(ctx context.Context, id uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
			return []domain.Reservation{stored}, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.Update(context.Background(), UpdateInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		ServiceType:   "medium", // duration change forces the checks to run
		StartTime:     stored.StartTime,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestRemove_RequiresAdminRole(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	svc := newTestService(repo, &fakeAvailability{})

	err := svc.Remove(context.Background(), []string{"client"}, reservationID)
	if ErrorKind(err) != KindNotAuthorized {
		t.Fatalf("kind = %v, want KindNotAuthorized (err: %v)", ErrorKind(err), err)
	}

	if err := svc.Remove(context.Background(), []string{RoleAdmin}, reservationID); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
}

func TestUpdateStatus_CancelWithNotice(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil // starts 8 days out
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	updated, err := svc.UpdateStatus(context.Background(), StatusInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		Status:        "cancelled",
	})
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("status = %q, want %q", updated.Status, domain.StatusCancelled)
	}
}

func TestUpdateStatus_CancellationWindowExpired(t *testing.T) {
	stored := storedReservation()
	stored.StartTime = testNow.Add(48 * time.Hour) // under 3 days notice
	stored.EndTime = domain.ScheduleEnd(stored.StartTime, stored.ServiceType)
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	_, err := svc.UpdateStatus(context.Background(), StatusInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		Status:        "cancelled",
	})
	if ErrorKind(err) != KindCancellationWindowExpired {
		t.Fatalf("kind = %v, want KindCancellationWindowExpired (err: %v)", ErrorKind(err), err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expired cancellation must not persist")
	}
}

func TestUpdateStatus_CancelExactlyAtNoticeBoundary(t *testing.T) {
	stored := storedReservation()
	stored.StartTime = testNow.Add(cancellationNotice) // now+3d == start
	stored.EndTime = domain.ScheduleEnd(stored.StartTime, stored.ServiceType)
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	if _, err := svc.UpdateStatus(context.Background(), StatusInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		Status:        "cancelled",
	}); err != nil {
		t.Fatalf("cancel at exact boundary must succeed, got %v", err)
	}
}

func TestUpdateStatus_CannotCancelTerminal(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusCancelled, domain.StatusCompleted} {
		stored := storedReservation()
		stored.Status = status
		repo := &fakeRepo{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
				return stored, nil
			},
		}
		svc := newTestService(repo, &fakeAvailability{})

		_, err := svc.UpdateStatus(context.Background(), StatusInput{
			ReservationID: reservationID,
			CallerUserID:  clientID,
			Status:        "cancelled",
		})
		if ErrorKind(err) != KindCancellationNotAllowed {
			t.Fatalf("from %s: kind = %v, want KindCancellationNotAllowed (err: %v)", status, ErrorKind(err), err)
		}
	}
}

func TestUpdateStatus_InvalidTargets(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	for _, target := range []string{"scheduled", "pending", "done", ""} {
		_, err := svc.UpdateStatus(context.Background(), StatusInput{
			ReservationID: reservationID,
			CallerUserID:  clientID,
			Status:        target,
		})
		if ErrorKind(err) != KindInvalidInput {
			t.Fatalf("target %q: kind = %v, want KindInvalidInput (err: %v)", target, ErrorKind(err), err)
		}
	}
}

func TestUpdateStatus_CompleteHasNoNoticeRule(t *testing.T) {
	stored := storedReservation()
	stored.StartTime = testNow.Add(time.Hour)
	stored.EndTime = domain.ScheduleEnd(stored.StartTime, stored.ServiceType)
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	updated, err := svc.UpdateStatus(context.Background(), StatusInput{
		ReservationID: reservationID,
		CallerUserID:  clientID,
		Status:        "completed",
	})
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", updated.Status, domain.StatusCompleted)
	}
}

func TestUpdateStatus_Authorization(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
			return storedReservation(), nil
		},
	}
	svc := newTestService(repo, &fakeAvailability{})

	tests := []struct {
		name    string
		caller  uuid.UUID
		roles   []string
		allowed bool
	}{
		{"owning client", clientID, nil, true},
		{"professional owner", ownerID, nil, true},
		{"admin", otherUserID, []string{RoleAdmin}, true},
		{"stranger", otherUserID, nil, false},
	}
	for _, tc := range tests {
		_, err := svc.UpdateStatus(context.Background(), StatusInput{
			ReservationID: reservationID,
			CallerUserID:  tc.caller,
			CallerRoles:   tc.roles,
			Status:        "completed",
		})
		if tc.allowed && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.allowed && ErrorKind(err) != KindNotAuthorized {
			t.Fatalf("%s: kind = %v, want KindNotAuthorized (err: %v)", tc.name, ErrorKind(err), err)
		}
	}
}
