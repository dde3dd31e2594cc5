package sqlite

import (
	"context"

	"github.com/uptrace/bun"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *repository.User) error {
	_, err := r.db.NewInsert().Model(&userModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}).Exec(ctx)
	return mapDBError(err)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	var m userModel
	if err := r.db.NewSelect().Model(&m).Where("username = ?", username).Limit(1).Scan(ctx); err != nil {
		return nil, mapDBError(err)
	}
	return &repository.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}, nil
}
