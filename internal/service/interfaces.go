//go:generate mockgen -source ./interfaces.go -destination=./mocks/service.go -package=mock_service
package service

import (
	"context"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type PackageRepository interface {
	List(ctx context.Context) ([]*repository.Package, error)
	GetByID(ctx context.Context, id string) (*repository.Package, error)
	Create(ctx context.Context, p *repository.Package) error
	Update(ctx context.Context, p *repository.Package) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *repository.User) error
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
}

type PackageValidator interface {
	ValidatePackage(p model.Package) map[string]string
}

type TokenIssuer interface {
	Issue(username string) (string, error)
	Verify(token string) (string, error)
}
