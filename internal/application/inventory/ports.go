package inventory

import (
	"context"

	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, con el repositorio de productos atado a ella.
// Si fn devuelve error no queda ningún cambio aplicado.
type TxRunner interface {
	Run(ctx context.Context, fn func(productRepo repository.ProductRepository) error) error
}
