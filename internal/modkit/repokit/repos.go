// Package repokit holds the types and helpers repository implementations share
package repokit

import (
	"context"

	"bioreactor/internal/platform/store"
)

type (
	// Queryer is the sql read and write surface
	Queryer = store.RowQuerier

	// TxRunner executes a function inside a transaction
	TxRunner = store.TxRunner

	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result
	Row = store.Row
)

// WithTx runs fn inside a transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
