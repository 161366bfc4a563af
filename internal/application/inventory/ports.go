package inventory

import (
	"context"

	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Stock       repository.StockRepository
	Ledger      repository.LedgerRepository
	Documents   repository.DocumentRepository
	Adjustments repository.AdjustmentRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y nada de lo escrito es visible; si no, Commit.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
	// RunReadOnly ejecuta fn sobre una foto consistente de los datos, sin bloqueos ni escrituras.
	// Para verificaciones que leen varias tablas y no deben competir con el motor.
	RunReadOnly(ctx context.Context, fn func(repos TxRepos) error) error
}

// DocumentLocker exclusión mutua entre instancias sobre un documento.
// Complementa el bloqueo de fila; no lo reemplaza.
type DocumentLocker interface {
	Lock(ctx context.Context, documentID string) (unlock func(context.Context) error, err error)
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// NopLocker locker que no bloquea (una sola instancia).
func NopLocker() DocumentLocker { return nopLocker{} }
