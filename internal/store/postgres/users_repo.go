package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

type UserDirectory struct {
	db *bun.DB
}

func NewUserDirectory(db *bun.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) FindUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := d.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (d *UserDirectory) FindProfessional(ctx context.Context, id uuid.UUID) (domain.Professional, error) {
	var p domain.Professional
	err := d.db.NewSelect().
		Model(&p).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Professional{}, store.ErrNotFound
		}
		return domain.Professional{}, err
	}
	return p, nil
}
