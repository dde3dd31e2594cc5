// Package memory keeps packages and users in process memory. Values are copied
// on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"sync"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type PackageRepo struct {
	mu    sync.RWMutex
	items map[string]*repository.Package
	order []string
}

func NewPackageRepo() *PackageRepo {
	return &PackageRepo{
		items: make(map[string]*repository.Package),
	}
}

func (r *PackageRepo) List(_ context.Context) ([]*repository.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	packages := make([]*repository.Package, 0, len(r.order))
	for _, id := range r.order {
		packages = append(packages, clonePackage(r.items[id]))
	}
	return packages, nil
}

func (r *PackageRepo) GetByID(_ context.Context, id string) (*repository.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, found := r.items[id]
	if !found {
		return nil, repository.ErrObjectNotFound
	}
	return clonePackage(p), nil
}

func (r *PackageRepo) Create(_ context.Context, p *repository.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.items[p.ID]; found {
		return repository.ErrDuplicate
	}
	r.items[p.ID] = clonePackage(p)
	r.order = append(r.order, p.ID)
	return nil
}

func (r *PackageRepo) Update(_ context.Context, p *repository.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, found := r.items[p.ID]
	if !found {
		return repository.ErrObjectNotFound
	}
	updated := clonePackage(p)
	updated.DateOfCreation = stored.DateOfCreation
	r.items[p.ID] = updated
	return nil
}

func (r *PackageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.items[id]; !found {
		return repository.ErrObjectNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func clonePackage(p *repository.Package) *repository.Package {
	c := *p
	if p.DateOfDelivery != nil {
		d := *p.DateOfDelivery
		c.DateOfDelivery = &d
	}
	return &c
}
