package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS packages (
        id UUID PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        status TEXT NOT NULL,
        date_of_creation TIMESTAMPTZ NOT NULL,
        date_of_delivery TIMESTAMPTZ NULL
    )`,
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`,
}

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, database db.DB) error {
	for _, stmt := range schema {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
