package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/stockmaster/internal/application/inventory"
	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/infrastructure/redis"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSequence_IncrementaPorTipo(t *testing.T) {
	_, rdb := newClient(t)
	seqs := redis.NewSequenceRepository(rdb)
	ctx := context.Background()

	v, err := seqs.Next(ctx, entity.DocumentReceipt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = seqs.Next(ctx, entity.DocumentReceipt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	v, err = seqs.Next(ctx, entity.DocumentDelivery)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "cada tipo tiene su propio contador")
}

func TestSequence_NumeracionConcurrenteUnica(t *testing.T) {
	_, rdb := newClient(t)
	numbering := appinventory.NewNumberingService(redis.NewSequenceRepository(rdb))

	const n = 300
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := numbering.Next(context.Background(), entity.DocumentAdjustment)
			assert.NoError(t, err)
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
	assert.True(t, seen["ADJ000300"])
}

func TestSequence_RedisCaidoDevuelveError(t *testing.T) {
	mr, rdb := newClient(t)
	mr.Close()
	_, err := redis.NewSequenceRepository(rdb).Next(context.Background(), entity.DocumentTransfer)
	assert.Error(t, err)
}

func TestSequence_SeedContinuaDesdeLoEmitido(t *testing.T) {
	mr, rdb := newClient(t)
	seqs := redis.NewSequenceRepository(rdb)
	ctx := context.Background()

	require.NoError(t, seqs.Seed(ctx, map[entity.DocumentType]int64{
		entity.DocumentReceipt:    41,
		entity.DocumentAdjustment: 7,
	}))
	v, err := seqs.Next(ctx, entity.DocumentReceipt)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	v, err = seqs.Next(ctx, entity.DocumentDelivery)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "tipos sin piso empiezan en 1")

	// nunca retrocede un contador que ya va más adelante
	require.NoError(t, seqs.Seed(ctx, map[entity.DocumentType]int64{entity.DocumentReceipt: 10}))
	v, err = seqs.Next(ctx, entity.DocumentReceipt)
	require.NoError(t, err)
	assert.Equal(t, int64(43), v)

	// tras vaciar Redis, volver a sembrar evita repetir números
	mr.FlushAll()
	require.NoError(t, seqs.Seed(ctx, map[entity.DocumentType]int64{entity.DocumentReceipt: 43}))
	v, err = seqs.Next(ctx, entity.DocumentReceipt)
	require.NoError(t, err)
	assert.Equal(t, int64(44), v)
	v, err = seqs.Next(ctx, entity.DocumentAdjustment)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestDocumentLocker_ExclusionMutua(t *testing.T) {
	_, rdb := newClient(t)
	locker := redis.NewDocumentLocker(rdb, 200*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict, "el segundo espera a lo sumo el TTL")

	other, err := locker.Lock(ctx, "doc-2")
	require.NoError(t, err, "otro documento no se ve afectado")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestDocumentLocker_ContencionSiempreEsConflicto(t *testing.T) {
	_, rdb := newClient(t)
	locker := redis.NewDocumentLocker(rdb, 120*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	for i := 0; i < 5; i++ {
		start := time.Now()
		_, err := locker.Lock(ctx, "doc-1")
		require.ErrorIs(t, err, domain.ErrConcurrencyConflict, "intento %d", i)
		assert.NotErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second, "la espera no pasa del TTL")
	}
}

func TestDocumentLocker_PlazoDelLlamadorNoEsConflicto(t *testing.T) {
	_, rdb := newClient(t)
	locker := redis.NewDocumentLocker(rdb, 2*time.Second)

	unlock, err := locker.Lock(context.Background(), "doc-1")
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestDocumentLocker_EsperaHastaQueSeLibera(t *testing.T) {
	_, rdb := newClient(t)
	locker := redis.NewDocumentLocker(rdb, 2*time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = unlock(context.Background())
	}()

	start := time.Now()
	second, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.NoError(t, second(ctx))
}

func TestDocumentLocker_LiberarBloqueoExpiradoNoFalla(t *testing.T) {
	mr, rdb := newClient(t)
	locker := redis.NewDocumentLocker(rdb, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doc-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	assert.NoError(t, unlock(ctx))
}
