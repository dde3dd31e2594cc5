//go:build integration

package postgresql_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository/postgresql"
)

func startPostgres(t *testing.T) *db.Database {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping postgres integration tests: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/test?sslmode=disable", host, port.Port())
	database, err := db.NewDb(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, postgresql.EnsureSchema(ctx, database))
	return database
}

func TestPostgresRepos_Integration(t *testing.T) {
	database := startPostgres(t)
	ctx := context.Background()
	packages := postgresql.NewPackageRepo(database)
	users := postgresql.NewUserRepo(database)

	p := testPackage()
	require.NoError(t, packages.Create(ctx, p))

	got, err := packages.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.DateOfDelivery.Equal(*got.DateOfDelivery))

	p.Status = "Delivered"
	require.NoError(t, packages.Update(ctx, p))

	all, err := packages.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Delivered", all[0].Status)

	require.NoError(t, packages.Delete(ctx, p.ID))
	assert.ErrorIs(t, packages.Delete(ctx, p.ID), repository.ErrObjectNotFound)

	u := &repository.User{ID: "8d7c5f0e-1f3b-4c9a-a1e2-3b4c5d6e7f80", Username: "Admin", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, users.Create(ctx, u))
	dup := *u
	dup.ID = "9e8d6a1f-2a4c-4dab-b2f3-4c5d6e7f8091"
	assert.ErrorIs(t, users.Create(ctx, &dup), repository.ErrDuplicate)
}
