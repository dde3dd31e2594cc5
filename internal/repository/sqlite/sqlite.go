// Package sqlite stores packages and users through the Bun ORM on top of the
// pure-Go modernc SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository"
)

type packageModel struct {
	bun.BaseModel `bun:"table:packages"`

	ID             string     `bun:"id,pk"`
	Name           string     `bun:"name,notnull"`
	Status         string     `bun:"status,notnull"`
	DateOfCreation time.Time  `bun:"date_of_creation,notnull"`
	DateOfDelivery *time.Time `bun:"date_of_delivery"`
}

type userModel struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// Open opens the database at dsn and creates missing tables.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Every connection to ":memory:" gets its own database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	for _, model := range []any{(*packageModel)(nil), (*userModel)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			_ = bunDB.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	return bunDB, nil
}

// mapDBError maps driver constraint violations to repository sentinels.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrObjectNotFound
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique") {
		return repository.ErrDuplicate
	}
	return err
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
