package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

// PackageService enforces the package lifecycle on top of a PackageRepository.
// Concurrent updates of the same package are last-write-wins.
type PackageService struct {
	repo      PackageRepository
	validator PackageValidator
	logger    *zap.Logger
	timeNow   func() time.Time
}

func NewPackageService(repo PackageRepository, validator PackageValidator, logger *zap.Logger) *PackageService {
	return &PackageService{
		repo:      repo,
		validator: validator,
		logger:    logger,
		timeNow:   time.Now,
	}
}

func (s *PackageService) GetAll(ctx context.Context) ([]model.Package, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("list_packages").Inc()
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	packages := make([]model.Package, 0, len(rows))
	for _, row := range rows {
		p, err := toModelPackage(row)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *p)
	}
	return packages, nil
}

func (s *PackageService) GetByID(ctx context.Context, id uuid.UUID) (*model.Package, error) {
	row, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}
	return toModelPackage(row)
}

// Add stores a new package. Caller-supplied id, status and creation date are replaced.
func (s *PackageService) Add(ctx context.Context, p model.Package) (*model.Package, error) {
	if problems := s.validator.ValidatePackage(p); problems != nil {
		return nil, &ValidationError{Fields: problems}
	}

	p.ID = uuid.New()
	p.Status = model.StatusInWarehouse
	p.DateOfCreation = s.now()

	if err := s.repo.Create(ctx, toRepoPackage(p)); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("add_package").Inc()
		return nil, fmt.Errorf("failed to add package: %w", err)
	}

	metrics.PackagesCreatedTotal.Inc()
	s.logger.Info("package created", zap.Stringer("package_id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

// Update applies name, status and delivery date to a package that has not been delivered yet.
func (s *PackageService) Update(ctx context.Context, id uuid.UUID, p model.Package) (*model.Package, error) {
	if problems := s.validator.ValidatePackage(p); problems != nil {
		return nil, &ValidationError{Fields: problems}
	}

	stored, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}

	if model.Status(stored.Status) == model.StatusDelivered {
		return nil, newError(ErrInvalidOperation,
			"You cannot update package details for a package that has already been delivered.")
	}

	if p.DateOfDelivery != nil && p.DateOfDelivery.Before(p.DateOfCreation) {
		return nil, newError(ErrInvalidArgument,
			"The package cannot be delivered before an order for it is placed.")
	}

	if !p.Status.Valid() {
		return nil, newError(ErrInvalidArgument, "%q is not a valid package status.", string(p.Status))
	}

	// Delivered requires the stored delivery date to have passed already.
	if p.Status == model.StatusDelivered {
		if stored.DateOfDelivery == nil || stored.DateOfDelivery.After(s.timeNow()) {
			return nil, newError(ErrInvalidArgument,
				"The package status cannot be set to %s if the package hasn't been delivered yet.", model.StatusDelivered)
		}
	}

	oldStatus := stored.Status
	stored.Name = p.Name
	stored.Status = string(p.Status)
	stored.DateOfDelivery = p.DateOfDelivery

	if err := s.repo.Update(ctx, stored); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, notFound(id)
		}
		metrics.OperationErrorsTotal.WithLabelValues("update_package").Inc()
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	metrics.PackagesUpdatedTotal.WithLabelValues(stored.Status).Inc()
	s.logger.Info("package updated",
		zap.Stringer("package_id", id),
		zap.String("old_status", oldStatus),
		zap.String("new_status", stored.Status),
	)
	return toModelPackage(stored)
}

func (s *PackageService) Delete(ctx context.Context, id uuid.UUID) (*model.Package, error) {
	stored, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id.String()); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, notFound(id)
		}
		metrics.OperationErrorsTotal.WithLabelValues("delete_package").Inc()
		return nil, fmt.Errorf("failed to delete package: %w", err)
	}

	metrics.PackagesDeletedTotal.Inc()
	s.logger.Info("package deleted", zap.Stringer("package_id", id))
	return toModelPackage(stored)
}

func (s *PackageService) getStored(ctx context.Context, id uuid.UUID) (*repository.Package, error) {
	row, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, notFound(id)
		}
		metrics.OperationErrorsTotal.WithLabelValues("get_package").Inc()
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return row, nil
}

// now is truncated to microseconds so every backend round-trips it unchanged.
func (s *PackageService) now() time.Time {
	return s.timeNow().UTC().Truncate(time.Microsecond)
}

func notFound(id uuid.UUID) error {
	return newError(ErrNotFound, "There is no package with the id of %s.", id)
}

func toRepoPackage(p model.Package) *repository.Package {
	return &repository.Package{
		ID:             p.ID.String(),
		Name:           p.Name,
		Status:         string(p.Status),
		DateOfCreation: p.DateOfCreation,
		DateOfDelivery: p.DateOfDelivery,
	}
}

func toModelPackage(row *repository.Package) (*model.Package, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("stored package has malformed id %q: %w", row.ID, err)
	}
	status, err := model.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("stored package %s: %w", row.ID, err)
	}
	return &model.Package{
		ID:             id,
		Name:           row.Name,
		Status:         status,
		DateOfCreation: row.DateOfCreation,
		DateOfDelivery: row.DateOfDelivery,
	}, nil
}
