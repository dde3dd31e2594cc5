package sqlite

import (
	"context"

	"github.com/uptrace/bun"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type PackageRepo struct {
	db *bun.DB
}

func NewPackageRepo(db *bun.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) List(ctx context.Context) ([]*repository.Package, error) {
	var models []packageModel
	if err := r.db.NewSelect().Model(&models).Order("date_of_creation ASC", "id ASC").Scan(ctx); err != nil {
		return nil, mapDBError(err)
	}

	packages := make([]*repository.Package, len(models))
	for i := range models {
		packages[i] = toRepoPackage(&models[i])
	}
	return packages, nil
}

func (r *PackageRepo) GetByID(ctx context.Context, id string) (*repository.Package, error) {
	var m packageModel
	if err := r.db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, mapDBError(err)
	}
	return toRepoPackage(&m), nil
}

func (r *PackageRepo) Create(ctx context.Context, p *repository.Package) error {
	_, err := r.db.NewInsert().Model(fromRepoPackage(p)).Exec(ctx)
	return mapDBError(err)
}

func (r *PackageRepo) Update(ctx context.Context, p *repository.Package) error {
	res, err := r.db.NewUpdate().
		Model(fromRepoPackage(p)).
		Column("name", "status", "date_of_delivery").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapDBError(err)
	}
	return rowsAffected(res)
}

func (r *PackageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*packageModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapDBError(err)
	}
	return rowsAffected(res)
}

func toRepoPackage(m *packageModel) *repository.Package {
	return &repository.Package{
		ID:             m.ID,
		Name:           m.Name,
		Status:         m.Status,
		DateOfCreation: m.DateOfCreation,
		DateOfDelivery: m.DateOfDelivery,
	}
}

func fromRepoPackage(p *repository.Package) *packageModel {
	return &packageModel{
		ID:             p.ID,
		Name:           p.Name,
		Status:         p.Status,
		DateOfCreation: p.DateOfCreation,
		DateOfDelivery: p.DateOfDelivery,
	}
}
