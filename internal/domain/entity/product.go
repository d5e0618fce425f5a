package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain"
)

// Product representa un producto del inventario de una franquicia.
// Stock son las unidades en anaquel; Missing las unidades retiradas (vendidas) desde el último surtido.
// FranchiseID no cambia después de crear el producto.
type Product struct {
	ID          string
	FranchiseID string
	Name        string
	SKU         string // opcional
	Price       decimal.Decimal
	Stock       int
	Missing     int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reglas del libro de inventario. Son la única definición del contador missing:
// sube con cada venta y baja (sin pasar de cero) con surtidos y reversas.
// El almacén en memoria las aplica tal cual; PostgreSQL las expresa como UPDATE condicional.

// ApplySale descuenta qty del stock y lo acumula en missing. Falla sin mutar si no alcanza.
func (p *Product) ApplySale(qty int) error {
	if qty <= 0 {
		return domain.Invalid("qty inválido (entero > 0)")
	}
	if p.Stock < qty {
		return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, p.ID)
	}
	p.Stock -= qty
	p.Missing += qty
	return nil
}

// ApplyRestock suma qty al stock y baja missing en min(missing, qty).
func (p *Product) ApplyRestock(qty int) error {
	if qty <= 0 {
		return domain.Invalid("qty inválido (entero > 0)")
	}
	p.Stock += qty
	p.Missing = floorZero(p.Missing - qty)
	return nil
}

// ApplyReversal devuelve al stock las unidades de una venta cancelada o reembolsada.
func (p *Product) ApplyReversal(qty int) error {
	if qty <= 0 {
		return domain.Invalid("qty inválido (entero > 0)")
	}
	p.Stock += qty
	p.Missing = floorZero(p.Missing - qty)
	return nil
}

// ApplyAdjustment ajuste libre: delta > 0 se comporta como surtido;
// delta < 0 exige stock suficiente y no toca missing.
func (p *Product) ApplyAdjustment(delta int) error {
	switch {
	case delta == 0:
		return domain.Invalid("stockDelta debe ser entero y diferente de 0")
	case delta > 0:
		return p.ApplyRestock(delta)
	}
	if p.Stock < -delta {
		return fmt.Errorf("%w: no hay stock suficiente para disminuir", domain.ErrInsufficientStock)
	}
	p.Stock += delta
	return nil
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
