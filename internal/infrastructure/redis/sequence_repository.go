package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador por tipo de documento con INCR: atómico entre todas las instancias.
type SequenceRepo struct {
	rdb goredis.Cmdable
}

// NewSequenceRepository construye el adaptador.
func NewSequenceRepository(rdb goredis.Cmdable) *SequenceRepo {
	return &SequenceRepo{rdb: rdb}
}

func sequenceKey(docType entity.DocumentType) string {
	return keyPrefix + "seq:" + string(docType)
}

// Next incrementa y devuelve el contador del tipo.
func (r *SequenceRepo) Next(ctx context.Context, docType entity.DocumentType) (int64, error) {
	v, err := r.rdb.Incr(ctx, sequenceKey(docType)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", docType, err)
	}
	return v, nil
}


// raiseScript sube el contador hasta ARGV[1] si está por debajo; nunca lo baja.
var raiseScript = goredis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return current`)

// Seed lleva cada contador al menos hasta el valor ya emitido por tipo. Se llama al arrancar: tras un
// FLUSH o contra datos existentes, INCR seguiría desde 1 y repetiría números.
func (r *SequenceRepo) Seed(ctx context.Context, floors map[entity.DocumentType]int64) error {
	for docType, floor := range floors {
		if err := raiseScript.Run(ctx, r.rdb, []string{sequenceKey(docType)}, floor).Err(); err != nil {
			return fmt.Errorf("redis seed %s: %w", docType, err)
		}
	}
	return nil
}
