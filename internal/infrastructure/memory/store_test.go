package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/infrastructure/memory"
)

var cell = entity.StockCell{ProductID: "p1", WarehouseID: "w1"}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Tornillo"}))
	require.NoError(t, s.Warehouses().Create(context.Background(), &entity.Warehouse{ID: "w1", Code: "W1", Name: "Principal"}))
	return s
}

func TestTxRunner_RollbackDescartaTodo(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("falla a mitad de camino")

	err := memory.NewTxRunner(s).Run(ctx, func(r appinventory.TxRepos) error {
		_, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell})
		require.NoError(t, err)
		require.NoError(t, r.Stock.ApplyCellChanges(ctx, []entity.CellChange{{Cell: cell, Before: decimal.Zero, After: decimal.NewFromInt(7)}}))
		require.NoError(t, r.Ledger.AppendBatch(ctx, []*entity.LedgerEntry{{
			ID: "e1", ProductID: "p1", WarehouseID: "w1", MovementType: entity.MovementReceipt,
			QuantityBefore: decimal.Zero, QuantityChange: decimal.NewFromInt(7), QuantityAfter: decimal.NewFromInt(7),
		}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, err := s.Stock().GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, stock.TotalStock.IsZero())
	assert.Empty(t, stock.PerWarehouse)
	entries, err := s.Ledger().ListByCell(ctx, cell)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTxRunner_CommitAsignaSecuenciaYTotal(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := memory.NewTxRunner(s).Run(ctx, func(r appinventory.TxRepos) error {
		if _, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell}); err != nil {
			return err
		}
		if err := r.Stock.ApplyCellChanges(ctx, []entity.CellChange{{Cell: cell, Before: decimal.Zero, After: decimal.NewFromInt(50)}}); err != nil {
			return err
		}
		return r.Ledger.AppendBatch(ctx, []*entity.LedgerEntry{{
			ID: "e1", ProductID: "p1", WarehouseID: "w1", MovementType: entity.MovementReceipt,
			QuantityBefore: decimal.Zero, QuantityChange: decimal.NewFromInt(50), QuantityAfter: decimal.NewFromInt(50),
		}})
	})
	require.NoError(t, err)

	stock, err := s.Stock().GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, stock.TotalStock.Equal(decimal.NewFromInt(50)))
	assert.True(t, stock.Quantity("w1").Equal(decimal.NewFromInt(50)))

	entries, err := s.Ledger().ListByCell(ctx, cell)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].Sequence)
}

func TestGetCellsForUpdate_SerializaLaMismaCelda(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	runner := memory.NewTxRunner(s)

	holding := make(chan struct{})
	releaseFirst := make(chan struct{})
	var order []string
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = runner.Run(ctx, func(r appinventory.TxRepos) error {
			_, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell})
			close(holding)
			<-releaseFirst
			mu.Lock()
			order = append(order, "primero")
			mu.Unlock()
			return err
		})
	}()
	<-holding
	go func() {
		defer wg.Done()
		_ = runner.Run(ctx, func(r appinventory.TxRepos) error {
			_, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell})
			mu.Lock()
			order = append(order, "segundo")
			mu.Unlock()
			return err
		})
	}()
	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, []string{"primero", "segundo"}, order)
}

func TestGetCellsForUpdate_ContextoCanceladoNoBloquea(t *testing.T) {
	s := newStore(t)
	runner := memory.NewTxRunner(s)
	holding := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = runner.Run(context.Background(), func(r appinventory.TxRepos) error {
			_, err := r.Stock.GetCellsForUpdate(context.Background(), []entity.StockCell{cell})
			close(holding)
			<-done
			return err
		})
	}()
	<-holding
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := runner.Run(ctx, func(r appinventory.TxRepos) error {
		_, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell})
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDocuments_NumeroDuplicadoSeRechaza(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	doc := &entity.MovementDocument{ID: "d1", Number: "RCP000001", Type: entity.DocumentReceipt, Status: entity.StatusDraft}
	require.NoError(t, s.Documents().Create(ctx, doc))

	dup := &entity.MovementDocument{ID: "d2", Number: "RCP000001", Type: entity.DocumentReceipt, Status: entity.StatusDraft}
	assert.ErrorIs(t, s.Documents().Create(ctx, dup), domain.ErrDuplicateIdentifier)

	_, err := s.Documents().GetByID(ctx, "d2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_ListFiltraTrasladoPorAmbasBodegas(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Documents().Create(ctx, &entity.MovementDocument{
		ID: "t1", Number: "TRF000001", Type: entity.DocumentTransfer, Status: entity.StatusDraft,
		FromWarehouseID: "w1", ToWarehouseID: "w2", CreatedAt: now,
	}))
	require.NoError(t, s.Documents().Create(ctx, &entity.MovementDocument{
		ID: "r1", Number: "RCP000001", Type: entity.DocumentReceipt, Status: entity.StatusDraft,
		WarehouseID: "w3", CreatedAt: now.Add(time.Second),
	}))

	docs, err := s.Documents().List(ctx, entity.DocumentFilter{WarehouseID: "w2"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "t1", docs[0].ID)

	docs, err = s.Documents().List(ctx, entity.DocumentFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "r1", docs[0].ID, "más reciente primero")
}

func TestSequences_ConcurrentesSinDuplicados(t *testing.T) {
	s := memory.NewStore()
	seqs := s.Sequences()
	const n = 200
	got := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seqs.Next(context.Background(), entity.DocumentDelivery)
			assert.NoError(t, err)
			got <- v
		}()
	}
	wg.Wait()
	close(got)

	seen := map[int64]bool{}
	for v := range got {
		assert.False(t, seen[v], "secuencia repetida %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestMasterData_NoEncontrado(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Products().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Warehouses().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Stock().GetProductStock(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func receiveFifty(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	err := memory.NewTxRunner(s).Run(ctx, func(r appinventory.TxRepos) error {
		if _, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell}); err != nil {
			return err
		}
		if err := r.Stock.ApplyCellChanges(ctx, []entity.CellChange{{Cell: cell, Before: decimal.Zero, After: decimal.NewFromInt(50)}}); err != nil {
			return err
		}
		return r.Ledger.AppendBatch(ctx, []*entity.LedgerEntry{{
			ID: "e1", ProductID: "p1", WarehouseID: "w1", MovementType: entity.MovementReceipt,
			QuantityBefore: decimal.Zero, QuantityChange: decimal.NewFromInt(50), QuantityAfter: decimal.NewFromInt(50),
		}})
	})
	require.NoError(t, err)
}

func TestRunReadOnly_NoEsperaBloqueosNiFiltraEscrituras(t *testing.T) {
	s := newStore(t)
	receiveFifty(t, s)
	ctx := context.Background()
	runner := memory.NewTxRunner(s)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, func(r appinventory.TxRepos) error {
			if _, err := r.Stock.GetCellsForUpdate(ctx, []entity.StockCell{cell}); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	other := entity.StockCell{ProductID: "p1", WarehouseID: "w9"}
	readCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := runner.RunReadOnly(readCtx, func(r appinventory.TxRepos) error {
		stock, err := r.Stock.GetProductStock(readCtx, "p1")
		if err != nil {
			return err
		}
		assert.True(t, stock.Quantity("w1").Equal(decimal.NewFromInt(50)))
		entries, err := r.Ledger.ListByCell(readCtx, cell)
		if err != nil {
			return err
		}
		assert.Len(t, entries, 1)
		_, err = r.Stock.GetCellsForUpdate(readCtx, []entity.StockCell{other})
		return err
	})
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	stock, err := s.Stock().GetProductStock(ctx, "p1")
	require.NoError(t, err)
	_, created := stock.PerWarehouse["w9"]
	assert.False(t, created, "lo escrito en la foto no llega al Store")
}

func TestConsistencyChecker_DetectaCeldaManipulada(t *testing.T) {
	s := newStore(t)
	receiveFifty(t, s)
	ctx := context.Background()
	checker := appinventory.NewConsistencyChecker(memory.NewTxRunner(s), s.Stock(), s.Ledger(), nil)

	ok, err := checker.VerifyLedgerMatchesStock(ctx, "p1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	s.CorruptCell(cell, decimal.NewFromInt(51))

	ok, err = checker.VerifyProduct(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = checker.VerifyLedgerMatchesStock(ctx, "p1", "w1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = checker.VerifyLedgerChain(ctx, "p1", "w1")
	require.NoError(t, err)
	assert.True(t, ok, "el libro en sí sigue encadenado")

	report, err := checker.VerifyAll(ctx)
	require.NoError(t, err)
	assert.False(t, report.OK())
	checks := map[string]bool{}
	for _, issue := range report.Issues {
		checks[issue.Check] = true
	}
	assert.True(t, checks[appinventory.CheckTotals])
	assert.True(t, checks[appinventory.CheckLedgerMatch])
	assert.False(t, checks[appinventory.CheckLedgerChain])
}
