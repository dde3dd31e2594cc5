package repository

import (
	"errors"
	"time"
)

var (
	ErrObjectNotFound = errors.New("not found")
	ErrDuplicate      = errors.New("duplicate record")
)

type Package struct {
	ID             string     `db:"id"`
	Name           string     `db:"name"`
	Status         string     `db:"status"`
	DateOfCreation time.Time  `db:"date_of_creation"`
	DateOfDelivery *time.Time `db:"date_of_delivery"`
}

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
