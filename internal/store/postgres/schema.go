package postgres

import (
	"context"

	"github.com/uptrace/bun"
)

// Constraint names checked by mapConstraintError. The primary key keeps its
// postgres default name.
const (
	ConstraintProfessionalNoOverlap = "reservations_professional_no_overlap"
	ConstraintClientNoOverlap       = "reservations_client_no_overlap"
	ConstraintReservationPK         = "reservations_pkey"
)

// The exclusion constraints use an inclusive tstzrange so they agree with the
// engine's [start, end] interval math, and skip cancelled rows so a cancelled
// slot can be rebooked.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		email text NOT NULL UNIQUE,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS professionals (
		id uuid PRIMARY KEY,
		owner_user_id uuid NOT NULL REFERENCES users (id),
		name text NOT NULL,
		studio text,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id uuid PRIMARY KEY,
		client_id uuid NOT NULL REFERENCES users (id),
		professional_id uuid NOT NULL REFERENCES professionals (id),
		service_type text NOT NULL,
		description text,
		start_time timestamptz NOT NULL,
		end_time timestamptz NOT NULL,
		price double precision NOT NULL,
		status text NOT NULL,
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL,
		CONSTRAINT reservations_professional_no_overlap EXCLUDE USING gist (
			professional_id WITH =,
			tstzrange(start_time, end_time, '[]') WITH &&
		) WHERE (status <> 'cancelled'),
		CONSTRAINT reservations_client_no_overlap EXCLUDE USING gist (
			client_id WITH =,
			tstzrange(start_time, end_time, '[]') WITH &&
		) WHERE (status <> 'cancelled')
	)`,

	`CREATE INDEX IF NOT EXISTS reservations_client_end_idx
		ON reservations (client_id, end_time)`,

	`CREATE INDEX IF NOT EXISTS reservations_professional_end_idx
		ON reservations (professional_id, end_time)`,

	`CREATE TABLE IF NOT EXISTS weekly_availability (
		professional_id uuid PRIMARY KEY REFERENCES professionals (id),
		schedule jsonb NOT NULL,
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL
	)`,
}

// EnsureSchema applies the schema idempotently at startup.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
