// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = errors.New("record already exists")

// Repository wraps GORM for database operations.
type Repository struct {
	db *gorm.DB
}

// New creates a new Repository instance.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying GORM DB for direct access.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn against a Repository bound to a database transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// wrapError converts GORM errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	// The SQLite driver reports constraint violations it cannot translate
	// as plain errors.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}
