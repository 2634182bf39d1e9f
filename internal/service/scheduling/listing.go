package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

// ReservationSummary is the listing DTO: a reservation joined with the
// display names of both parties and the resolved service duration.
type ReservationSummary struct {
	ID               uuid.UUID          `json:"id"`
	ClientID         uuid.UUID          `json:"client_id"`
	ClientName       string             `json:"client_name"`
	ProfessionalID   uuid.UUID          `json:"professional_id"`
	ProfessionalName string             `json:"professional_name"`
	ServiceType      domain.ServiceType `json:"service_type"`
	DurationHours    int                `json:"duration_hours"`
	Description      string             `json:"description"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	Price            float64            `json:"price"`
	Status           domain.Status      `json:"status"`
}

// Page is one listing page plus the total row count for the filter.
type Page struct {
	Items []ReservationSummary `json:"items"`
	Total int                  `json:"total"`
}

// Get returns a single reservation summary.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (ReservationSummary, error) {
	res, err := s.loadReservation(ctx, id)
	if err != nil {
		return ReservationSummary{}, err
	}
	summaries, err := s.summarize(ctx, []domain.Reservation{res})
	if err != nil {
		return ReservationSummary{}, err
	}
	return summaries[0], nil
}

// ListClientUpcoming returns the client's reservations that have not yet
// ended, soonest first.
func (s *Service) ListClientUpcoming(ctx context.Context, clientID uuid.UUID, offset, limit int) (Page, error) {
	return s.list(ctx, store.ReservationPageFilter{
		ClientID:     clientID,
		EndAtOrAfter: s.now().UTC(),
		Offset:       offset,
		Limit:        limit,
	}, false)
}

// ListClientHistory returns the client's past reservations, newest first.
// Reading history completes any scheduled reservation whose end has passed.
func (s *Service) ListClientHistory(ctx context.Context, clientID uuid.UUID, offset, limit int) (Page, error) {
	return s.list(ctx, store.ReservationPageFilter{
		ClientID:    clientID,
		EndBefore:   s.now().UTC(),
		NewestFirst: true,
		Offset:      offset,
		Limit:       limit,
	}, true)
}

// ListProfessionalUpcoming returns the professional's reservations that have
// not yet ended, soonest first.
func (s *Service) ListProfessionalUpcoming(ctx context.Context, professionalID uuid.UUID, offset, limit int) (Page, error) {
	return s.list(ctx, store.ReservationPageFilter{
		ProfessionalID: professionalID,
		EndAtOrAfter:   s.now().UTC(),
		Offset:         offset,
		Limit:          limit,
	}, false)
}

// ListProfessionalHistory returns the professional's past engagements,
// newest first, applying the same lazy completion as the client history.
func (s *Service) ListProfessionalHistory(ctx context.Context, professionalID uuid.UUID, offset, limit int) (Page, error) {
	return s.list(ctx, store.ReservationPageFilter{
		ProfessionalID: professionalID,
		EndBefore:      s.now().UTC(),
		NewestFirst:    true,
		Offset:         offset,
		Limit:          limit,
	}, true)
}

func (s *Service) list(ctx context.Context, f store.ReservationPageFilter, completePast bool) (Page, error) {
	items, total, err := s.repo.ListPage(ctx, f)
	if err != nil {
		return Page{}, storageError(err, "list reservations")
	}

	if completePast {
		items = s.completeElapsed(ctx, items)
	}

	summaries, err := s.summarize(ctx, items)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: summaries, Total: total}, nil
}

// completeElapsed transitions scheduled reservations whose end has passed to
// completed, persisting each one. A failed persist is logged and the stale
// item returned as stored; a history read never fails because of it.
func (s *Service) completeElapsed(ctx context.Context, items []domain.Reservation) []domain.Reservation {
	now := s.now().UTC()
	out := make([]domain.Reservation, len(items))
	for i, res := range items {
		if res.Status == domain.StatusScheduled && res.EndTime.Before(now) {
			res.Status = domain.StatusCompleted
			updated, err := s.repo.Update(ctx, res)
			if err != nil {
				s.log.Warn("lazy completion persist failed",
					slog.String("reservation_id", res.ID.String()),
					slog.Any("err", err),
				)
				res.Status = domain.StatusScheduled
			} else {
				res = updated
			}
		}
		out[i] = res
	}
	return out
}

func (s *Service) summarize(ctx context.Context, items []domain.Reservation) ([]ReservationSummary, error) {
	clientNames := make(map[uuid.UUID]string)
	professionalNames := make(map[uuid.UUID]string)

	out := make([]ReservationSummary, 0, len(items))
	for _, res := range items {
		clientName, ok := clientNames[res.ClientID]
		if !ok {
			name, err := s.lookupClientName(ctx, res.ClientID)
			if err != nil {
				return nil, err
			}
			clientName = name
			clientNames[res.ClientID] = clientName
		}

		professionalName, ok := professionalNames[res.ProfessionalID]
		if !ok {
			name, err := s.lookupProfessionalName(ctx, res.ProfessionalID)
			if err != nil {
				return nil, err
			}
			professionalName = name
			professionalNames[res.ProfessionalID] = professionalName
		}

		out = append(out, ReservationSummary{
			ID:               res.ID,
			ClientID:         res.ClientID,
			ClientName:       clientName,
			ProfessionalID:   res.ProfessionalID,
			ProfessionalName: professionalName,
			ServiceType:      res.ServiceType,
			DurationHours:    res.ServiceType.DurationHours(),
			Description:      res.Description,
			StartTime:        res.StartTime,
			EndTime:          res.EndTime,
			Price:            res.Price,
			Status:           res.Status,
		})
	}
	return out, nil
}

func (s *Service) lookupClientName(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := s.users.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", storageError(err, "look up client")
	}
	return u.Name, nil
}

func (s *Service) lookupProfessionalName(ctx context.Context, id uuid.UUID) (string, error) {
	p, err := s.users.FindProfessional(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", storageError(err, "look up professional")
	}
	return p.Name, nil
}
