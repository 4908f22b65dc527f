package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within
// a database transaction, passing the underlying transaction handle via `tx`.
//
// Keeps use-case interfaces clean: repositories accept `tx Tx` and detect the
// concrete handle (e.g. pgx.Tx) implementation-side, so a use case can group
// a usage insert and a counter increment into one atomic unit without knowing
// the storage backend. Repositories MUST gracefully accept a nil tx (the
// non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
