package inventory

import (
	"fmt"

	"github.com/jhoicas/stockmaster/internal/domain"
	"github.com/jhoicas/stockmaster/internal/domain/entity"
)

var prefixes = map[entity.DocumentType]string{
	entity.DocumentReceipt:    "RCP",
	entity.DocumentDelivery:   "DEL",
	entity.DocumentTransfer:   "TRF",
	entity.DocumentAdjustment: "ADJ",
}

// Prefix prefijo del número de documento para el tipo.
func Prefix(t entity.DocumentType) (string, error) {
	p, ok := prefixes[t]
	if !ok {
		return "", fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, t)
	}
	return p, nil
}

// FormatDocumentNumber arma <PREFIJO><secuencia de 6 dígitos con ceros>, p. ej. RCP000042.
func FormatDocumentNumber(t entity.DocumentType, seq int64) (string, error) {
	p, err := Prefix(t)
	if err != nil {
		return "", err
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: secuencia %d", domain.ErrInvalidInput, seq)
	}
	return fmt.Sprintf("%s%06d", p, seq), nil
}
