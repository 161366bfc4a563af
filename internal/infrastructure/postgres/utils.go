package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stockmaster/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx: los repositorios funcionan con cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// mapErr traduce errores de pgx a errores de dominio conservando el original en el mensaje.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrDuplicateIdentifier, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrNotFound, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInsufficientStock, err)
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
