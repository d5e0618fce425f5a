package inventory

import (
	"context"
	"math"
	"strings"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/access"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/pkg/logger"
)

// maxQty tope de cantidad por operación: stock y missing son INTEGER.
const maxQty = math.MaxInt32

// StockUseCase surtido y ajuste manual de inventario.
type StockUseCase struct {
	tx       TxRunner
	recorder *audit.Recorder
	log      *logger.Logger
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(tx TxRunner, recorder *audit.Recorder, log *logger.Logger) *StockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{tx: tx, recorder: recorder, log: log.Named("inventory")}
}

// StockChange resultado de una mutación de stock.
type StockChange struct {
	Product *entity.Product
	Delta   int
	Before  dto.StockLevels
	After   dto.StockLevels
}

// Response convierte el cambio en el DTO HTTP.
func (c *StockChange) Response() dto.StockChangeResponse {
	return dto.StockChangeResponse{
		Delta:   c.Delta,
		Before:  c.Before,
		After:   c.After,
		Product: dto.NewProductResponse(c.Product),
	}
}

// Restock suma qty al stock y descuenta hasta qty del contador missing.
func (uc *StockUseCase) Restock(ctx context.Context, actor entity.Actor, productID string, qty int) (*StockChange, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.Invalid("productId requerido")
	}
	if qty <= 0 || qty > maxQty {
		return nil, domain.Invalid("qty inválido (entero entre 1 y %d)", maxQty)
	}
	change, err := uc.mutate(ctx, actor, productID, qty, func(repo repository.ProductRepository) (*entity.Product, error) {
		return repo.Restock(ctx, productID, qty)
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, actor, audit.Entry{
		Action:      entity.AuditProductRestock,
		Entity:      entity.AuditEntityProduct,
		EntityID:    productID,
		FranchiseID: change.Product.FranchiseID,
		Payload: map[string]any{
			"qty":    qty,
			"before": change.Before,
			"after":  change.After,
		},
	})
	return change, nil
}

// AdjustStock corrección manual. delta > 0 se comporta como surtido; delta < 0 exige stock suficiente.
func (uc *StockUseCase) AdjustStock(ctx context.Context, actor entity.Actor, productID string, delta int, reason string) (*StockChange, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.Invalid("productId requerido")
	}
	if delta == 0 {
		return nil, domain.Invalid("stockDelta debe ser entero y diferente de 0")
	}
	if delta > maxQty || delta < -maxQty {
		return nil, domain.Invalid("stockDelta fuera de rango (|delta| <= %d)", maxQty)
	}
	change, err := uc.mutate(ctx, actor, productID, delta, func(repo repository.ProductRepository) (*entity.Product, error) {
		return repo.AdjustStock(ctx, productID, delta)
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, actor, audit.Entry{
		Action:      entity.AuditProductAdjust,
		Entity:      entity.AuditEntityProduct,
		EntityID:    productID,
		FranchiseID: change.Product.FranchiseID,
		Payload: map[string]any{
			"stockDelta": delta,
			"reason":     reason,
			"before":     change.Before,
			"after":      change.After,
		},
	})
	return change, nil
}

// mutate bloquea la fila, verifica alcance y aplica write dentro de una sola transacción.
func (uc *StockUseCase) mutate(
	ctx context.Context,
	actor entity.Actor,
	productID string,
	delta int,
	write func(repo repository.ProductRepository) (*entity.Product, error),
) (*StockChange, error) {
	if err := access.Authorize(actor, access.ActionStockMutate, ""); err != nil {
		return nil, err
	}
	var change *StockChange
	err := uc.tx.Run(ctx, func(productRepo repository.ProductRepository) error {
		current, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if err := access.Authorize(actor, access.ActionStockMutate, current.FranchiseID); err != nil {
			return err
		}
		updated, err := write(productRepo)
		if err != nil {
			return err
		}
		change = &StockChange{
			Product: updated,
			Delta:   delta,
			Before:  dto.StockLevels{Stock: current.Stock, Missing: current.Missing},
			After:   dto.StockLevels{Stock: updated.Stock, Missing: updated.Missing},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().
		Str("product_id", productID).
		Int("delta", delta).
		Int("stock", change.After.Stock).
		Int("missing", change.After.Missing).
		Msg("stock actualizado")
	return change, nil
}
