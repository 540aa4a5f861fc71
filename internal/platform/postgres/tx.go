// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txKey is the context key type for the active transaction.
type txKey struct{}

// Executor is the subset of pgx shared by the pool and a transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx returns a new context carrying transaction.
func WithTx(ctx context.Context, transaction pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, transaction)
}

// TxFrom returns the transaction carried by ctx, if any.
func TxFrom(ctx context.Context) (pgx.Tx, bool) {
	transaction, ok := ctx.Value(txKey{}).(pgx.Tx)
	return transaction, ok
}

// Conn returns the context transaction when present, otherwise the pool.
//
// Repositories call this for every statement so they join a transaction
// opened by [Transactor.Run] without knowing about it.
func Conn(ctx context.Context, pool *pgxpool.Pool) Executor {
	if transaction, ok := TxFrom(ctx); ok {
		return transaction
	}
	return pool
}

// Transactor runs functions inside a PostgreSQL transaction.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor constructs a [Transactor] over pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Run executes fn within a transaction.
//
// If ctx already carries a transaction, fn joins it and commit or rollback is
// left to the outer call. Otherwise a new transaction is committed when fn
// returns nil and rolled back when it returns an error.
func (transactor *Transactor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return fn(ctx)
	}

	transaction, err := transactor.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}

	if err := fn(WithTx(ctx, transaction)); err != nil {
		if rollbackErr := transaction.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("postgres: rollback after %v: %w", err, rollbackErr)
		}
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}

	return nil
}
