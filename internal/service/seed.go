package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

func dateAt(year int, month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}

// SeedDemoPackages fills an empty store with the demo catalogue and returns how many were added.
func (s *PackageService) SeedDemoPackages(ctx context.Context) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing packages: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := s.now()
	demo := []repository.Package{
		{Name: "Chair", Status: string(model.StatusInWarehouse), DateOfCreation: now},
		{Name: "Table", Status: string(model.StatusInWarehouse), DateOfCreation: now},
		{Name: "Bed", Status: string(model.StatusInTransit), DateOfCreation: *dateAt(2024, 12, 14, 11, 50), DateOfDelivery: dateAt(2024, 12, 20, 14, 30)},
		{Name: "Lamp", Status: string(model.StatusInTransit), DateOfCreation: *dateAt(2024, 12, 13, 18, 25), DateOfDelivery: dateAt(2024, 12, 25, 15, 0)},
		{Name: "Book", Status: string(model.StatusDelivered), DateOfCreation: *dateAt(2024, 12, 10, 10, 45), DateOfDelivery: dateAt(2024, 12, 15, 12, 0)},
	}

	for i := range demo {
		demo[i].ID = uuid.NewString()
		if err := s.repo.Create(ctx, &demo[i]); err != nil {
			return i, fmt.Errorf("failed to seed package %s: %w", demo[i].Name, err)
		}
	}
	s.logger.Info("seeded demo packages", zap.Int("count", len(demo)))
	return len(demo), nil
}
