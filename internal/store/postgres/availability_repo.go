package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

// Save replaces the professional's whole weekly schedule. One row per
// professional; a second save overwrites, it never appends.
func (r *AvailabilityRepo) Save(ctx context.Context, a domain.Availability) (domain.Availability, error) {
	m := a
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (professional_id) DO UPDATE").
		Set("schedule = EXCLUDED.schedule").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.Availability{}, err
	}
	return m, nil
}

func (r *AvailabilityRepo) FindByProfessional(ctx context.Context, professionalID uuid.UUID) (domain.Availability, error) {
	var a domain.Availability
	err := r.db.NewSelect().
		Model(&a).
		Where("professional_id = ?", professionalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{}, store.ErrNotFound
		}
		// A schedule blob that fails to decode lands here; it must stay a
		// storage error, never an empty schedule.
		return domain.Availability{}, fmt.Errorf("load weekly availability: %w", err)
	}
	return a, nil
}
