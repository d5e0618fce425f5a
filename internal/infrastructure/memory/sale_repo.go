package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

type saleRepo struct {
	s    *Store
	inTx bool
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.sales[sale.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.sales[sale.ID] = cloneSale(sale)
	r.s.saleOrder = append(r.s.saleOrder, sale.ID)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	defer r.s.lock(r.inTx)()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, nil
	}
	return cloneSale(sale), nil
}

func (r *saleRepo) MarkReversed(_ context.Context, sale *entity.Sale) error {
	defer r.s.lock(r.inTx)()
	cur, ok := r.s.sales[sale.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != entity.SaleStatusCompleted {
		return domain.ErrInvalidSaleState
	}
	next := cloneSale(cur)
	next.Status = sale.Status
	next.ReversedBy = sale.ReversedBy
	next.ReversalReason = sale.ReversalReason
	next.ReversedAt = sale.ReversedAt
	next.RefundTotal = sale.RefundTotal
	r.s.sales[sale.ID] = cloneSale(next)
	return nil
}

func (r *saleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	defer r.s.lock(r.inTx)()
	return r.filter(f), nil
}

func (r *saleRepo) Summary(_ context.Context, f repository.SaleFilter) (*repository.SalesSummary, error) {
	defer r.s.lock(r.inTx)()
	out := &repository.SalesSummary{TotalSold: decimal.Zero}
	for _, sale := range r.filter(f) {
		out.SalesCount++
		out.TotalSold = out.TotalSold.Add(sale.Total)
		out.ItemsQty += sale.UnitCount()
	}
	return out, nil
}

func (r *saleRepo) DailyClose(_ context.Context, franchiseID string, from, to time.Time, topLimit int) (*repository.DailyCloseResult, error) {
	defer r.s.lock(r.inTx)()
	res := &repository.DailyCloseResult{TotalSold: decimal.Zero, RefundsTotal: decimal.Zero}
	type agg struct {
		qty     int
		revenue decimal.Decimal
	}
	byProduct := map[string]*agg{}
	for _, sale := range r.s.sales {
		if sale.FranchiseID != franchiseID || sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		switch sale.Status {
		case entity.SaleStatusCompleted:
			res.SalesCompleted++
			res.TotalSold = res.TotalSold.Add(sale.Total)
			for _, it := range sale.Items {
				res.ItemsQty += it.Qty
				a, ok := byProduct[it.ProductID]
				if !ok {
					a = &agg{revenue: decimal.Zero}
					byProduct[it.ProductID] = a
				}
				a.qty += it.Qty
				a.revenue = a.revenue.Add(it.Subtotal)
			}
		case entity.SaleStatusRefunded:
			res.RefundsCount++
			if sale.RefundTotal != nil {
				res.RefundsTotal = res.RefundsTotal.Add(*sale.RefundTotal)
			}
		case entity.SaleStatusCanceled:
			res.CancelsCount++
		}
	}
	for id, a := range byProduct {
		top := repository.TopProductResult{ProductID: id, Name: "N/A", Qty: a.qty, Revenue: a.revenue}
		if p, ok := r.s.products[id]; ok {
			top.Name = p.Name
			top.SKU = p.SKU
		}
		res.TopProducts = append(res.TopProducts, top)
	}
	sort.Slice(res.TopProducts, func(i, j int) bool {
		a, b := res.TopProducts[i], res.TopProducts[j]
		if a.Qty != b.Qty {
			return a.Qty > b.Qty
		}
		return a.ProductID < b.ProductID
	})
	if topLimit > 0 && len(res.TopProducts) > topLimit {
		res.TopProducts = res.TopProducts[:topLimit]
	}
	return res, nil
}

func (r *saleRepo) GlobalSummary(_ context.Context, from, to *time.Time, topLimit int) (*repository.GlobalSummaryResult, error) {
	defer r.s.lock(r.inTx)()
	byFranchise := map[string]*repository.FranchiseTotal{}
	byProduct := map[string]*repository.TopProductResult{}
	for _, sale := range r.s.sales {
		if sale.Status != entity.SaleStatusCompleted {
			continue
		}
		if (from != nil && sale.CreatedAt.Before(*from)) || (to != nil && sale.CreatedAt.After(*to)) {
			continue
		}
		ft, ok := byFranchise[sale.FranchiseID]
		if !ok {
			ft = &repository.FranchiseTotal{FranchiseID: sale.FranchiseID, TotalSold: decimal.Zero}
			byFranchise[sale.FranchiseID] = ft
		}
		ft.SalesCount++
		ft.TotalSold = ft.TotalSold.Add(sale.Total)
		for _, it := range sale.Items {
			tp, ok := byProduct[it.ProductID]
			if !ok {
				tp = &repository.TopProductResult{ProductID: it.ProductID, Name: "N/A", Revenue: decimal.Zero}
				if p, found := r.s.products[it.ProductID]; found {
					tp.Name, tp.SKU = p.Name, p.SKU
				}
				byProduct[it.ProductID] = tp
			}
			tp.Qty += it.Qty
			tp.Revenue = tp.Revenue.Add(it.Subtotal)
		}
	}

	res := &repository.GlobalSummaryResult{
		ByFranchise: make([]repository.FranchiseTotal, 0, len(byFranchise)),
		TopProducts: make([]repository.TopProductResult, 0, len(byProduct)),
	}
	for _, ft := range byFranchise {
		res.ByFranchise = append(res.ByFranchise, *ft)
	}
	sort.Slice(res.ByFranchise, func(i, j int) bool {
		a, b := res.ByFranchise[i], res.ByFranchise[j]
		if !a.TotalSold.Equal(b.TotalSold) {
			return a.TotalSold.GreaterThan(b.TotalSold)
		}
		return a.FranchiseID < b.FranchiseID
	})
	for _, tp := range byProduct {
		res.TopProducts = append(res.TopProducts, *tp)
	}
	sort.Slice(res.TopProducts, func(i, j int) bool {
		a, b := res.TopProducts[i], res.TopProducts[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.ProductID < b.ProductID
	})
	if topLimit > 0 && len(res.TopProducts) > topLimit {
		res.TopProducts = res.TopProducts[:topLimit]
	}
	return res, nil
}

// filter devuelve copias de las ventas que cumplen f, más recientes primero.
func (r *saleRepo) filter(f repository.SaleFilter) []*entity.Sale {
	var out []*entity.Sale
	for i := len(r.s.saleOrder) - 1; i >= 0; i-- {
		sale := r.s.sales[r.s.saleOrder[i]]
		if sale.FranchiseID != f.FranchiseID {
			continue
		}
		if f.SellerID != "" && sale.SellerID != f.SellerID {
			continue
		}
		if f.Status != "" && sale.Status != f.Status {
			continue
		}
		if f.From != nil && sale.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && sale.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, cloneSale(sale))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
