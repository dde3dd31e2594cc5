package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository/memory"
	mock_service "gitlab.ozon.dev/pupkingeorgij/packagesync/internal/service/mocks"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/validation"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type packageServiceFixture struct {
	svc       *PackageService
	repo      *mock_service.MockPackageRepository
	validator *mock_service.MockPackageValidator
}

func newPackageServiceFixture(t *testing.T) packageServiceFixture {
	ctrl := gomock.NewController(t)
	repo := mock_service.NewMockPackageRepository(ctrl)
	validator := mock_service.NewMockPackageValidator(ctrl)

	svc := NewPackageService(repo, validator, zaptest.NewLogger(t))
	svc.timeNow = func() time.Time { return fixedNow }

	return packageServiceFixture{svc: svc, repo: repo, validator: validator}
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestPackageService_Add(t *testing.T) {
	t.Run("assigns server-side fields", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		callerID := uuid.New()
		in := model.Package{
			ID:             callerID,
			Name:           "Chair",
			Status:         model.StatusDelivered,
			DateOfCreation: fixedNow.Add(-72 * time.Hour),
		}

		var stored *repository.Package
		f.validator.EXPECT().ValidatePackage(in).Return(nil)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *repository.Package) error {
				stored = p
				return nil
			})

		got, err := f.svc.Add(context.Background(), in)
		require.NoError(t, err)

		assert.NotEqual(t, callerID, got.ID)
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.Equal(t, model.StatusInWarehouse, got.Status)
		assert.Equal(t, fixedNow, got.DateOfCreation)
		assert.Nil(t, got.DateOfDelivery)
		assert.Equal(t, "Chair", got.Name)

		require.NotNil(t, stored)
		assert.Equal(t, got.ID.String(), stored.ID)
		assert.Equal(t, string(model.StatusInWarehouse), stored.Status)
	})

	t.Run("validation failure skips the store", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		problems := map[string]string{"Name": "Name is required."}
		f.validator.EXPECT().ValidatePackage(gomock.Any()).Return(problems)

		_, err := f.svc.Add(context.Background(), model.Package{})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, problems, verr.Fields)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		storeErr := errors.New("disk full")
		f.validator.EXPECT().ValidatePackage(gomock.Any()).Return(nil)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(storeErr)

		_, err := f.svc.Add(context.Background(), model.Package{Name: "Chair"})
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestPackageService_GetByID(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(&repository.Package{
			ID: id.String(), Name: "Lamp", Status: "InTransit", DateOfCreation: fixedNow,
		}, nil)

		got, err := f.svc.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, model.StatusInTransit, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(nil, repository.ErrObjectNotFound)

		_, err := f.svc.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "There is no package with the id of "+id.String()+".")
	})
}

func TestPackageService_GetAll(t *testing.T) {
	f := newPackageServiceFixture(t)
	rows := []*repository.Package{
		{ID: uuid.NewString(), Name: "Chair", Status: "InWarehouse", DateOfCreation: fixedNow},
		{ID: uuid.NewString(), Name: "Book", Status: "Delivered", DateOfCreation: fixedNow, DateOfDelivery: ptr(fixedNow)},
	}
	f.repo.EXPECT().List(gomock.Any()).Return(rows, nil)

	got, err := f.svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chair", got[0].Name)
	assert.Equal(t, model.StatusDelivered, got[1].Status)
}

func TestPackageService_Update(t *testing.T) {
	id := uuid.New()
	created := fixedNow.Add(-48 * time.Hour)

	storedWith := func(status model.Status, delivery *time.Time) *repository.Package {
		return &repository.Package{
			ID:             id.String(),
			Name:           "Table",
			Status:         string(status),
			DateOfCreation: created,
			DateOfDelivery: delivery,
		}
	}

	tests := []struct {
		name     string
		stored   *repository.Package
		storeErr error
		in       model.Package
		wantErr  error
		wantMsg  string
	}{
		{
			name:     "not found",
			storeErr: repository.ErrObjectNotFound,
			in:       model.Package{Name: "Table", Status: model.StatusInTransit},
			wantErr:  ErrNotFound,
			wantMsg:  "There is no package with the id of " + id.String() + ".",
		},
		{
			name:    "already delivered",
			stored:  storedWith(model.StatusDelivered, ptr(created.Add(time.Hour))),
			in:      model.Package{Name: "Table", Status: model.StatusInTransit},
			wantErr: ErrInvalidOperation,
			wantMsg: "You cannot update package details for a package that has already been delivered.",
		},
		{
			name:   "delivery before creation",
			stored: storedWith(model.StatusInWarehouse, nil),
			in: model.Package{
				Name:           "Table",
				Status:         model.StatusInTransit,
				DateOfCreation: fixedNow.Add(24 * time.Hour),
				DateOfDelivery: ptr(fixedNow.Add(time.Hour)),
			},
			wantErr: ErrInvalidArgument,
			wantMsg: "The package cannot be delivered before an order for it is placed.",
		},
		{
			name:    "delivered without delivery date",
			stored:  storedWith(model.StatusInTransit, nil),
			in:      model.Package{Name: "Table", Status: model.StatusDelivered},
			wantErr: ErrInvalidArgument,
			wantMsg: "The package status cannot be set to Delivered if the package hasn't been delivered yet.",
		},
		{
			name:    "delivered with future delivery date",
			stored:  storedWith(model.StatusInTransit, ptr(fixedNow.Add(time.Hour))),
			in:      model.Package{Name: "Table", Status: model.StatusDelivered},
			wantErr: ErrInvalidArgument,
			wantMsg: "The package status cannot be set to Delivered if the package hasn't been delivered yet.",
		},
		{
			name:    "unknown status",
			stored:  storedWith(model.StatusInTransit, nil),
			in:      model.Package{Name: "Table", Status: model.Status("Lost")},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPackageServiceFixture(t)
			f.validator.EXPECT().ValidatePackage(tc.in).Return(nil)
			f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(tc.stored, tc.storeErr)

			_, err := f.svc.Update(context.Background(), id, tc.in)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantMsg != "" {
				assert.EqualError(t, err, tc.wantMsg)
			}
		})
	}

	t.Run("delivered with past delivery date", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		delivered := fixedNow.Add(-time.Hour)
		in := model.Package{
			ID:             uuid.New(),
			Name:           "Renamed table",
			Status:         model.StatusDelivered,
			DateOfCreation: fixedNow.Add(time.Hour),
		}

		f.validator.EXPECT().ValidatePackage(in).Return(nil)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(storedWith(model.StatusInTransit, &delivered), nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *repository.Package) error {
				assert.Equal(t, id.String(), p.ID)
				assert.Equal(t, created, p.DateOfCreation)
				return nil
			})

		got, err := f.svc.Update(context.Background(), id, in)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Renamed table", got.Name)
		assert.Equal(t, model.StatusDelivered, got.Status)
		assert.Equal(t, created, got.DateOfCreation)
		assert.Nil(t, got.DateOfDelivery)
	})

	t.Run("delivered exactly now", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		in := model.Package{Name: "Table", Status: model.StatusDelivered}

		f.validator.EXPECT().ValidatePackage(in).Return(nil)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(storedWith(model.StatusInTransit, ptr(fixedNow)), nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.Update(context.Background(), id, in)
		assert.NoError(t, err)
	})

	t.Run("validation failure skips the store", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.validator.EXPECT().ValidatePackage(gomock.Any()).Return(map[string]string{"Name": "Name is required."})

		_, err := f.svc.Update(context.Background(), id, model.Package{})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestPackageService_Delete(t *testing.T) {
	id := uuid.New()

	t.Run("returns the removed package", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(&repository.Package{
			ID: id.String(), Name: "Bed", Status: "InTransit", DateOfCreation: fixedNow,
		}, nil)
		f.repo.EXPECT().Delete(gomock.Any(), id.String()).Return(nil)

		got, err := f.svc.Delete(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Bed", got.Name)
	})

	t.Run("not found", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(nil, repository.ErrObjectNotFound)

		_, err := f.svc.Delete(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("removed concurrently", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().GetByID(gomock.Any(), id.String()).Return(&repository.Package{
			ID: id.String(), Name: "Bed", Status: "InTransit",
		}, nil)
		f.repo.EXPECT().Delete(gomock.Any(), id.String()).Return(repository.ErrObjectNotFound)

		_, err := f.svc.Delete(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPackageService_Lifecycle(t *testing.T) {
	now := fixedNow
	clock := func() time.Time { return now }

	svc := NewPackageService(memory.NewPackageRepo(), validation.New(clock), zaptest.NewLogger(t))
	svc.timeNow = clock
	ctx := context.Background()

	added, err := svc.Add(ctx, model.Package{Name: "Chair"})
	require.NoError(t, err)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, *added, all[0])

	delivery := now.Add(time.Hour)
	_, err = svc.Update(ctx, added.ID, model.Package{
		Name:           "Chair",
		Status:         model.StatusInTransit,
		DateOfCreation: added.DateOfCreation,
		DateOfDelivery: &delivery,
	})
	require.NoError(t, err)

	// Too early: the stored delivery date is still ahead.
	_, err = svc.Update(ctx, added.ID, model.Package{Name: "Chair", Status: model.StatusDelivered, DateOfCreation: added.DateOfCreation})
	require.ErrorIs(t, err, ErrInvalidArgument)

	now = now.Add(2 * time.Hour)
	delivered, err := svc.Update(ctx, added.ID, model.Package{Name: "Chair", Status: model.StatusDelivered, DateOfCreation: added.DateOfCreation})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, delivered.Status)
	assert.Equal(t, added.DateOfCreation, delivered.DateOfCreation)

	_, err = svc.Update(ctx, added.ID, model.Package{Name: "Chair", Status: model.StatusInTransit})
	require.ErrorIs(t, err, ErrInvalidOperation)

	removed, err := svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, removed.ID)

	_, err = svc.GetByID(ctx, added.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackageService_SeedDemoPackages(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		svc := NewPackageService(memory.NewPackageRepo(), validation.New(time.Now), zaptest.NewLogger(t))

		n, err := svc.SeedDemoPackages(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		all, err := svc.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, model.StatusDelivered, all[4].Status)
	})

	t.Run("non-empty store is left alone", func(t *testing.T) {
		f := newPackageServiceFixture(t)
		f.repo.EXPECT().List(gomock.Any()).Return([]*repository.Package{{ID: uuid.NewString()}}, nil)

		n, err := f.svc.SeedDemoPackages(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
