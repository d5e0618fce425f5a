package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, franchise_id, name, COALESCE(sku, ''), price, stock, missing, is_active, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, franchise_id, name, sku, price, stock, missing, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.FranchiseID, p.Name, p.SKU, p.Price, p.Stock, p.Missing, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto con SELECT ... FOR UPDATE (solo tiene efecto dentro de una tx).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, query, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListByFranchiseAndIDs productos de ids que pertenecen a la franquicia.
func (r *ProductRepo) ListByFranchiseAndIDs(ctx context.Context, franchiseID string, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE franchise_id = $1 AND id = ANY($2::uuid[])`,
		franchiseID, ids,
	)
	if err != nil {
		if isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		if isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// DecrementStock descuenta solo si stock >= qty en el momento de escribir.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) (*entity.Product, error) {
	if qty <= 0 {
		return nil, domain.Invalid("qty inválido (entero > 0)")
	}
	return r.conditional(ctx, `
		UPDATE products SET stock = stock - $2, missing = missing + $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING `+productColumns, id, qty)
}

// Restock suma qty y baja missing sin pasar de cero.
func (r *ProductRepo) Restock(ctx context.Context, id string, qty int) (*entity.Product, error) {
	if qty <= 0 {
		return nil, domain.Invalid("qty inválido (entero > 0)")
	}
	return r.credit(ctx, id, qty)
}

// CreditStock devuelve al inventario las unidades de una venta reversada.
func (r *ProductRepo) CreditStock(ctx context.Context, id string, qty int) (*entity.Product, error) {
	if qty <= 0 {
		return nil, domain.Invalid("qty inválido (entero > 0)")
	}
	return r.credit(ctx, id, qty)
}

// AdjustStock delta > 0 como surtido; delta < 0 exige stock >= |delta| y no toca missing.
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int) (*entity.Product, error) {
	switch {
	case delta == 0:
		return nil, domain.Invalid("stockDelta debe ser entero y diferente de 0")
	case delta > 0:
		return r.credit(ctx, id, delta)
	}
	return r.conditional(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING `+productColumns, id, delta)
}

func (r *ProductRepo) credit(ctx context.Context, id string, qty int) (*entity.Product, error) {
	return r.conditional(ctx, `
		UPDATE products SET stock = stock + $2, missing = GREATEST(missing - $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, qty)
}

// conditional ejecuta un UPDATE ... RETURNING. Sin fila afectada distingue producto inexistente
// de precondición fallida.
func (r *ProductRepo) conditional(ctx context.Context, query, id string, n int) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, id, n))
	if err == nil {
		return p, nil
	}
	if isInvalidID(err) {
		return nil, domain.ErrNotFound
	}
	if isOutOfRange(err) {
		return nil, domain.Invalid("cantidad fuera de rango para producto %s", id)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, id)
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.FranchiseID, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.Missing,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
