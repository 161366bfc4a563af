// Package memory implementa los puertos de persistencia en memoria, con transacciones de escritura
// escalonada: nada es visible hasta Commit. Los bloqueos son por celda (producto, bodega) y por documento.
// Sirve para STORAGE_BACKEND=memory y para las pruebas de los casos de uso.
package memory

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

// Store estado compartido. mu protege los mapas; locks serializa celdas y documentos entre transacciones.
type Store struct {
	mu          sync.RWMutex
	products    map[string]*entity.Product
	skus        map[string]string
	warehouses  map[string]*entity.Warehouse
	codes       map[string]string
	cells       map[entity.StockCell]decimal.Decimal
	totals      map[string]decimal.Decimal
	stockAt     map[string]time.Time
	ledger      []*entity.LedgerEntry
	ledgerSeq   int64
	docs        map[string]*entity.MovementDocument
	adjustments map[string]*entity.Adjustment
	numbers     map[string]string // número de documento -> id
	sequences   map[entity.DocumentType]int64

	locksMu sync.Mutex
	locks   map[string]*semaphore.Weighted
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:    map[string]*entity.Product{},
		skus:        map[string]string{},
		warehouses:  map[string]*entity.Warehouse{},
		codes:       map[string]string{},
		cells:       map[entity.StockCell]decimal.Decimal{},
		totals:      map[string]decimal.Decimal{},
		stockAt:     map[string]time.Time{},
		docs:        map[string]*entity.MovementDocument{},
		adjustments: map[string]*entity.Adjustment{},
		numbers:     map[string]string{},
		sequences:   map[entity.DocumentType]int64{},
		locks:       map[string]*semaphore.Weighted{},
	}
}

func (s *Store) lockFor(key string) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[key] = l
	}
	return l
}

// Repositorios fuera de transacción: cada escritura se confirma de inmediato.

// Stock repositorio de stock sin transacción (lecturas).
func (s *Store) Stock() repository.StockRepository { return stockRepo{s: s} }

// Ledger repositorio del libro sin transacción (lecturas).
func (s *Store) Ledger() repository.LedgerRepository { return ledgerRepo{s: s} }

// Documents repositorio de documentos sin transacción.
func (s *Store) Documents() repository.DocumentRepository { return docRepo{s: s} }

// Adjustments repositorio de ajustes sin transacción.
func (s *Store) Adjustments() repository.AdjustmentRepository { return adjRepo{s: s} }

// Products datos maestros de productos.
func (s *Store) Products() repository.ProductRepository { return productRepo{s: s} }

// Warehouses datos maestros de bodegas.
func (s *Store) Warehouses() repository.WarehouseRepository { return warehouseRepo{s: s} }

// Sequences contador de numeración.
func (s *Store) Sequences() repository.SequenceRepository { return sequenceRepo{s: s} }

// snapshot copia el estado confirmado. Las entidades se comparten: nadie las muta después de confirmar.
func (s *Store) snapshot() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := NewStore()
	maps.Copy(cp.products, s.products)
	maps.Copy(cp.skus, s.skus)
	maps.Copy(cp.warehouses, s.warehouses)
	maps.Copy(cp.codes, s.codes)
	maps.Copy(cp.cells, s.cells)
	maps.Copy(cp.totals, s.totals)
	maps.Copy(cp.stockAt, s.stockAt)
	maps.Copy(cp.docs, s.docs)
	maps.Copy(cp.adjustments, s.adjustments)
	maps.Copy(cp.numbers, s.numbers)
	maps.Copy(cp.sequences, s.sequences)
	cp.ledger = slices.Clone(s.ledger)
	cp.ledgerSeq = s.ledgerSeq
	return cp
}
