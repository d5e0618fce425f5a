package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, franchise_id, seller_id, card_number, total, status, created_at,
	COALESCE(reversed_by, ''), COALESCE(reversal_reason, ''), reversed_at, refund_total`

// SaleRepo persistencia de ventas y sus líneas.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el repositorio. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas. Debe llamarse dentro de una tx para que sea atómico.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, franchise_id, seller_id, card_number, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.FranchiseID, s.SellerID, s.CardNumber, s.Total, string(s.Status), s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, it := range s.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, qty, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, s.ID, it.ProductID, it.Qty, it.Price, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas; nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if err := r.attachItems(ctx, []*entity.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// MarkReversed UPDATE condicionado a status = 'COMPLETED'.
func (r *SaleRepo) MarkReversed(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales
		SET status = $2, reversed_by = $3, reversal_reason = NULLIF($4, ''), reversed_at = $5, refund_total = $6
		WHERE id = $1 AND status = 'COMPLETED'`,
		s.ID, string(s.Status), s.ReversedBy, s.ReversalReason, s.ReversedAt, s.RefundTotal,
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check sale: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidSaleState
}

// List ventas filtradas, más recientes primero, con sus líneas.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	where, args := saleWhere(f)
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if err := r.attachItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Summary cuenta ventas, suma totales y unidades de la ventana filtrada.
func (r *SaleRepo) Summary(ctx context.Context, f repository.SaleFilter) (*repository.SalesSummary, error) {
	where, args := saleWhere(f)
	query := `
		WITH f AS (SELECT id, total FROM sales WHERE ` + where + `)
		SELECT
			(SELECT COUNT(*) FROM f),
			(SELECT COALESCE(SUM(total), 0) FROM f),
			(SELECT COALESCE(SUM(si.qty), 0) FROM sale_items si JOIN f ON f.id = si.sale_id)`
	var out repository.SalesSummary
	if err := r.q.QueryRow(ctx, query, args...).Scan(&out.SalesCount, &out.TotalSold, &out.ItemsQty); err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}
	return &out, nil
}

// DailyClose agregados de [from, to) por estado y top de productos de ventas COMPLETED.
func (r *SaleRepo) DailyClose(ctx context.Context, franchiseID string, from, to time.Time, topLimit int) (*repository.DailyCloseResult, error) {
	var res repository.DailyCloseResult
	err := r.q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COALESCE(SUM(total) FILTER (WHERE status = 'COMPLETED'), 0),
			COUNT(*) FILTER (WHERE status = 'REFUNDED'),
			COALESCE(SUM(refund_total) FILTER (WHERE status = 'REFUNDED'), 0),
			COUNT(*) FILTER (WHERE status = 'CANCELED')
		FROM sales
		WHERE franchise_id = $1 AND created_at >= $2 AND created_at < $3`,
		franchiseID, from, to,
	).Scan(&res.SalesCompleted, &res.TotalSold, &res.RefundsCount, &res.RefundsTotal, &res.CancelsCount)
	if err != nil {
		return nil, fmt.Errorf("daily close totals: %w", err)
	}

	err = r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(si.qty), 0)
		FROM sale_items si JOIN sales s ON s.id = si.sale_id
		WHERE s.franchise_id = $1 AND s.status = 'COMPLETED' AND s.created_at >= $2 AND s.created_at < $3`,
		franchiseID, from, to,
	).Scan(&res.ItemsQty)
	if err != nil {
		return nil, fmt.Errorf("daily close items: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT si.product_id, COALESCE(p.name, 'N/A'), COALESCE(p.sku, ''), SUM(si.qty), SUM(si.subtotal)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE s.franchise_id = $1 AND s.status = 'COMPLETED' AND s.created_at >= $2 AND s.created_at < $3
		GROUP BY si.product_id, p.name, p.sku
		ORDER BY SUM(si.qty) DESC, si.product_id
		LIMIT $4`,
		franchiseID, from, to, topLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("daily close top: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t repository.TopProductResult
		if err := rows.Scan(&t.ProductID, &t.Name, &t.SKU, &t.Qty, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		res.TopProducts = append(res.TopProducts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily close top: %w", err)
	}
	return &res, nil
}

// GlobalSummary totales COMPLETED por franquicia y top de productos por ingreso.
func (r *SaleRepo) GlobalSummary(ctx context.Context, from, to *time.Time, topLimit int) (*repository.GlobalSummaryResult, error) {
	conds := []string{"s.status = 'COMPLETED'"}
	var args []any
	if from != nil {
		args = append(args, *from)
		conds = append(conds, fmt.Sprintf("s.created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conds = append(conds, fmt.Sprintf("s.created_at <= $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	res := &repository.GlobalSummaryResult{
		ByFranchise: []repository.FranchiseTotal{},
		TopProducts: []repository.TopProductResult{},
	}
	rows, err := r.q.Query(ctx, `
		SELECT s.franchise_id, COUNT(*), COALESCE(SUM(s.total), 0)
		FROM sales s
		WHERE `+where+`
		GROUP BY s.franchise_id
		ORDER BY SUM(s.total) DESC, s.franchise_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("global summary by franchise: %w", err)
	}
	for rows.Next() {
		var ft repository.FranchiseTotal
		if err := rows.Scan(&ft.FranchiseID, &ft.SalesCount, &ft.TotalSold); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan franchise total: %w", err)
		}
		res.ByFranchise = append(res.ByFranchise, ft)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("global summary by franchise: %w", err)
	}

	args = append(args, topLimit)
	rows, err = r.q.Query(ctx, `
		SELECT si.product_id, COALESCE(p.name, 'N/A'), COALESCE(p.sku, ''), SUM(si.qty), SUM(si.subtotal)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		LEFT JOIN products p ON p.id = si.product_id
		WHERE `+where+`
		GROUP BY si.product_id, p.name, p.sku
		ORDER BY SUM(si.subtotal) DESC, si.product_id
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("global summary top: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t repository.TopProductResult
		if err := rows.Scan(&t.ProductID, &t.Name, &t.SKU, &t.Qty, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		res.TopProducts = append(res.TopProducts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("global summary top: %w", err)
	}
	return res, nil
}

// attachItems carga las líneas de todas las ventas en una sola consulta.
func (r *SaleRepo) attachItems(ctx context.Context, list []*entity.Sale) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	byID := make(map[string]*entity.Sale, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, qty, price, subtotal
		FROM sale_items WHERE sale_id = ANY($1::uuid[]) ORDER BY sale_id, id`, ids)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Qty, &it.Price, &it.Subtotal); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return rows.Err()
}

func saleWhere(f repository.SaleFilter) (string, []any) {
	conds := []string{"franchise_id = $1"}
	args := []any{f.FranchiseID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.SellerID != "" {
		add("seller_id = $%d", f.SellerID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	return strings.Join(conds, " AND "), args
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var status string
	if err := row.Scan(&s.ID, &s.FranchiseID, &s.SellerID, &s.CardNumber, &s.Total, &status, &s.CreatedAt,
		&s.ReversedBy, &s.ReversalReason, &s.ReversedAt, &s.RefundTotal); err != nil {
		return nil, err
	}
	s.Status = entity.SaleStatus(status)
	return &s, nil
}
