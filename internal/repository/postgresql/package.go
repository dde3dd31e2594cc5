package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

const packageColumns = "id, name, status, date_of_creation, date_of_delivery"

type PackageRepo struct {
	db db.DB
}

func NewPackageRepo(db db.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) List(ctx context.Context) ([]*repository.Package, error) {
	var packages []*repository.Package
	err := r.db.Select(ctx, &packages, "SELECT "+packageColumns+" FROM packages ORDER BY date_of_creation, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

func (r *PackageRepo) GetByID(ctx context.Context, id string) (*repository.Package, error) {
	var p repository.Package
	err := r.db.Get(ctx, &p, "SELECT "+packageColumns+" FROM packages WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepo) Create(ctx context.Context, p *repository.Package) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO packages (
            id, name, status, date_of_creation, date_of_delivery
        ) VALUES ($1, $2, $3, $4, $5)
    `, p.ID, p.Name, p.Status, p.DateOfCreation, p.DateOfDelivery)
	return err
}

func (r *PackageRepo) Update(ctx context.Context, p *repository.Package) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE packages
        SET
            name = $1,
            status = $2,
            date_of_delivery = $3
        WHERE id = $4
    `, p.Name, p.Status, p.DateOfDelivery, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *PackageRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM packages WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
