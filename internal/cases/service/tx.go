package service

import (
	"context"
	"database/sql"
	"sync"

	"aktivitetskrav/pkg/platform/tx"
)

// SQLTx runs service mutations inside one database transaction. Stores join it
// through the transaction placed in context.
type SQLTx struct {
	db *sql.DB
}

func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

func (t *SQLTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, t.db, fn)
}

// MemoryTx is the in-memory transactional boundary used with memory stores: a
// coarse lock standing in for serializable transactions in unit tests.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
