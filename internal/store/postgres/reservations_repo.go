package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// Create inserts the reservation inside a transaction serialized per
// professional. The advisory lock closes the window between the engine's
// conflict checks and the write; the exclusion constraints catch anything
// that still slips through.
func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.inProfessionalTx(ctx, res.ProfessionalID, func(ctx context.Context, tx bun.Tx) error {
		m := res
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return mapConstraintError(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func (r *ReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.NewSelect().
		Model(&res).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepo) FindByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Where("client_id = ?", clientID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) FindByProfessionalInRange(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Where("professional_id = ?", professionalID).
		Where("start_time <= ?", to).
		Where("end_time >= ?", from).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.inProfessionalTx(ctx, res.ProfessionalID, func(ctx context.Context, tx bun.Tx) error {
		m := res
		result, err := tx.NewUpdate().
			Model(&m).
			WherePK().
			Exec(ctx)
		if err != nil {
			return mapConstraintError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Reservation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) ListPage(ctx context.Context, f store.ReservationPageFilter) ([]domain.Reservation, int, error) {
	var rows []domain.Reservation
	q := r.db.NewSelect().Model(&rows)
	q = applyReservationFilter(q, f)

	if f.NewestFirst {
		q = q.OrderExpr("start_time DESC")
	} else {
		q = q.OrderExpr("start_time ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyReservationFilter(q *bun.SelectQuery, f store.ReservationPageFilter) *bun.SelectQuery {
	if f.ClientID != uuid.Nil {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.ProfessionalID != uuid.Nil {
		q = q.Where("professional_id = ?", f.ProfessionalID)
	}
	if !f.EndBefore.IsZero() {
		q = q.Where("end_time < ?", f.EndBefore)
	}
	if !f.EndAtOrAfter.IsZero() {
		q = q.Where("end_time >= ?", f.EndAtOrAfter)
	}
	return q
}

func (r *ReservationRepo) inProfessionalTx(ctx context.Context, professionalID uuid.UUID, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProfessionalCalendar(ctx, tx, professionalID); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func lockProfessionalCalendar(ctx context.Context, tx bun.Tx, professionalID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", professionalID.String()).Exec(ctx)
	return err
}

// mapConstraintError translates the overlap exclusion constraints into the
// store sentinels so the engine can tell which party is double-booked, and a
// primary-key collision into ErrDuplicateID so an idempotent create that lost
// an insert race can be replayed as a read.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23P01":
		switch pgErr.ConstraintName {
		case ConstraintProfessionalNoOverlap:
			return store.ErrProfessionalOverlap
		case ConstraintClientNoOverlap:
			return store.ErrClientOverlap
		}
	case "23505":
		if pgErr.ConstraintName == ConstraintReservationPK {
			return store.ErrDuplicateID
		}
	}
	return err
}
