// Package repository provides the GORM-backed ledger and position stores.
//
// The Registry is the single injectable store handle: components never reach
// for a global database object. Atomic runs a function against a
// transaction-scoped registry so a ledger write and its triggered position
// refresh commit or roll back together.
package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Registry bundles the stores sharing one database handle.
type Registry struct {
	db           *gorm.DB
	Transactions TransactionRepository
	Positions    PositionRepository
}

// NewRegistry creates a registry bound to the given database handle.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:           db,
		Transactions: NewTransactionRepository(db),
		Positions:    NewPositionRepository(db),
	}
}

// Atomic executes fn against a transaction-scoped registry. If fn returns an
// error every store mutation made through that registry is rolled back.
func (r *Registry) Atomic(ctx context.Context, fn func(*Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistry(tx))
	})
}

// LockTicker serializes writers of one ticker until the current transaction
// commits. It must be taken before reading the ticker's history inside a
// mutating unit of work; under read committed, two unserialized writers each
// fold a history missing the other's uncommitted row. On Postgres this is a
// transaction-scoped advisory lock keyed by the ticker; sqlite holds a
// database-level write lock and needs none.
func (r *Registry) LockTicker(ctx context.Context, ticker string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", strings.ToUpper(ticker)).Error
}
