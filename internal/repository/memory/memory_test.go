package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

func TestPackageRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepo()
	created := time.Date(2024, 12, 13, 18, 25, 0, 0, time.UTC)

	chair := &repository.Package{ID: "a", Name: "Chair", Status: "InWarehouse", DateOfCreation: created}
	table := &repository.Package{ID: "b", Name: "Table", Status: "InWarehouse", DateOfCreation: created}
	require.NoError(t, repo.Create(ctx, chair))
	require.NoError(t, repo.Create(ctx, table))
	assert.ErrorIs(t, repo.Create(ctx, chair), repository.ErrDuplicate)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Chair", all[0].Name)
	assert.Equal(t, "Table", all[1].Name)

	delivery := created.Add(48 * time.Hour)
	require.NoError(t, repo.Update(ctx, &repository.Package{
		ID:             "a",
		Name:           "Armchair",
		Status:         "InTransit",
		DateOfCreation: time.Now(),
		DateOfDelivery: &delivery,
	}))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Armchair", got.Name)
	assert.Equal(t, created, got.DateOfCreation, "creation date is immutable")
	require.NotNil(t, got.DateOfDelivery)
	assert.Equal(t, delivery, *got.DateOfDelivery)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), repository.ErrObjectNotFound)
	_, err = repo.GetByID(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	assert.ErrorIs(t, repo.Update(ctx, chair), repository.ErrObjectNotFound)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)
}

func TestPackageRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepo()
	delivery := time.Now()
	p := &repository.Package{ID: "a", Name: "Lamp", DateOfDelivery: &delivery}
	require.NoError(t, repo.Create(ctx, p))

	p.Name = "mutated"
	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	*got.DateOfDelivery = got.DateOfDelivery.Add(time.Hour)
	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, again.DateOfDelivery.Equal(delivery))
}

func TestPackageRepo_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewPackageRepo()
	require.NoError(t, repo.Create(ctx, &repository.Package{ID: "shared", Name: "Book"}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = repo.Update(ctx, &repository.Package{ID: "shared", Name: "Book", Status: "InTransit"})
		}()
		go func() {
			defer wg.Done()
			_, _ = repo.GetByID(ctx, "shared")
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "InTransit", got.Status)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo()

	require.NoError(t, repo.Create(ctx, &repository.User{ID: "1", Username: "Admin", PasswordHash: "hash"}))
	assert.ErrorIs(t, repo.Create(ctx, &repository.User{ID: "2", Username: "Admin"}), repository.ErrDuplicate)

	u, err := repo.GetByUsername(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrObjectNotFound)
}
