package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// Store agrupa los repositorios atados al pool (fuera de transacción) para el cableado de cmd/api.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore construye el Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Stock() repository.StockRepository { return NewStockRepository(s.pool) }
func (s *Store) Ledger() repository.LedgerRepository { return NewLedgerRepository(s.pool) }
func (s *Store) Documents() repository.DocumentRepository { return NewDocumentRepository(s.pool) }
func (s *Store) Adjustments() repository.AdjustmentRepository { return NewAdjustmentRepository(s.pool) }
func (s *Store) Products() repository.ProductRepository { return NewProductRepository(s.pool) }
func (s *Store) Warehouses() repository.WarehouseRepository { return NewWarehouseRepository(s.pool) }
func (s *Store) Sequences() *SequenceRepo { return NewSequenceRepository(s.pool) }

// TxRunner runner transaccional sobre el mismo pool.
func (s *Store) TxRunner() *TxRunner { return NewTxRunner(s.pool) }
