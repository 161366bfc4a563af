package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockmaster/internal/domain/entity"
	"github.com/jhoicas/stockmaster/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador por tipo de documento. Usar con el pool: el incremento se confirma aparte de la
// transacción del documento, por eso un documento que falla deja un hueco en la numeración.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el contador en una sola sentencia (el UPSERT bloquea la fila del tipo).
func (r *SequenceRepo) Next(ctx context.Context, docType entity.DocumentType) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, last_value) VALUES ($1, 1)
		ON CONFLICT (doc_type) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, string(docType),
	).Scan(&v)
	if err != nil {
		return 0, mapErr("next document sequence", err)
	}
	return v, nil
}

// Floors devuelve, por tipo, el mayor valor ya emitido: el contador propio o el sufijo numérico más alto
// entre documentos y ajustes guardados. Sirve para sembrar un contador externo sin repetir números.
func (r *SequenceRepo) Floors(ctx context.Context) (map[entity.DocumentType]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT doc_type, max(v) FROM (
			SELECT doc_type, last_value AS v FROM document_sequences
			UNION ALL
			SELECT type, max(substring(number FROM 4)::bigint) FROM movement_documents GROUP BY type
			UNION ALL
			SELECT 'adjustment', max(substring(number FROM 4)::bigint) FROM adjustments
		) s
		WHERE v IS NOT NULL
		GROUP BY doc_type`)
	if err != nil {
		return nil, mapErr("read sequence floors", err)
	}
	defer rows.Close()
	out := map[entity.DocumentType]int64{}
	for rows.Next() {
		var t string
		var v int64
		if err := rows.Scan(&t, &v); err != nil {
			return nil, fmt.Errorf("scan sequence floor: %w", err)
		}
		out[entity.DocumentType(t)] = v
	}
	return out, rows.Err()
}
