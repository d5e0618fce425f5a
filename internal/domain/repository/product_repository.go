package repository

import (
	"context"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
//
// Los métodos de stock son escrituras condicionales de una sola sentencia: la precondición
// (stock suficiente) se evalúa al escribir, no en una lectura previa. Todos devuelven el
// producto ya actualizado. Si el producto no existe devuelven domain.ErrNotFound; si la
// precondición falla, domain.ErrInsufficientStock sin haber modificado nada.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el producto bloqueando la fila hasta el fin de la tx (nil, nil si no existe).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// ListByFranchiseAndIDs devuelve solo los productos de ids que pertenecen a la franquicia.
	ListByFranchiseAndIDs(ctx context.Context, franchiseID string, ids []string) ([]*entity.Product, error)

	// DecrementStock: stock -= qty, missing += qty si stock >= qty.
	DecrementStock(ctx context.Context, productID string, qty int) (*entity.Product, error)
	// Restock: stock += qty, missing = max(0, missing - qty).
	Restock(ctx context.Context, productID string, qty int) (*entity.Product, error)
	// CreditStock reversa de venta: stock += qty, missing = max(0, missing - qty).
	CreditStock(ctx context.Context, productID string, qty int) (*entity.Product, error)
	// AdjustStock: delta > 0 como Restock; delta < 0 exige stock >= |delta| y no toca missing.
	AdjustStock(ctx context.Context, productID string, delta int) (*entity.Product, error)
}
