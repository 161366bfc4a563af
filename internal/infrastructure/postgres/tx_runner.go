package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
)

var _ appinventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED + bloqueos de fila).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallos de serialización o deadlock, incluso en el Commit, se devuelven como ErrConcurrencyConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(repos appinventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(txRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapErr("commit transaction", err)
	}
	return nil
}

// RunReadOnly abre una tx REPEATABLE READ de solo lectura: todas las consultas de fn ven la misma foto
// y no toman bloqueos de fila. Una escritura dentro de fn falla con error de PostgreSQL.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(repos appinventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()
	return fn(txRepos(tx))
}

func txRepos(tx pgx.Tx) appinventory.TxRepos {
	return appinventory.TxRepos{
		Stock:       NewStockRepository(tx),
		Ledger:      NewLedgerRepository(tx),
		Documents:   NewDocumentRepository(tx),
		Adjustments: NewAdjustmentRepository(tx),
	}
}
