// Package memory implementa los repositorios en memoria para desarrollo local y tests.
// Las transacciones se serializan con un mutex del store y se deshacen restaurando una copia.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/franquicias-pos/internal/application/inventory"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ sales.TxRunner     = (*Store)(nil)
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu        sync.Mutex
	products  map[string]entity.Product
	sales     map[string]*entity.Sale
	saleOrder []string
	auditLogs []entity.AuditLog
	closes    map[string]entity.DailyClose
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products: map[string]entity.Product{},
		sales:    map[string]*entity.Sale{},
		closes:   map[string]entity.DailyClose{},
	}
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s: s} }

// AuditLogs repositorio de bitácora.
func (s *Store) AuditLogs() repository.AuditLogRepository { return &auditRepo{s: s} }

// DailyCloses repositorio de cierres de día.
func (s *Store) DailyCloses() repository.DailyCloseRepository { return &dailyCloseRepo{s: s} }

// Run ejecuta fn con el store bloqueado; si fn falla se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(productRepo repository.ProductRepository) error) error {
	return s.inTx(ctx, func() error {
		return fn(&productRepo{s: s, inTx: true})
	})
}

// RunSales como Run, con repositorios de productos y ventas.
func (s *Store) RunSales(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return s.inTx(ctx, func() error {
		return fn(&productRepo{s: s, inTx: true}, &saleRepo{s: s, inTx: true})
	})
}

func (s *Store) inTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	products  map[string]entity.Product
	sales     map[string]*entity.Sale
	saleOrder []string
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:  make(map[string]entity.Product, len(s.products)),
		sales:     make(map[string]*entity.Sale, len(s.sales)),
		saleOrder: append([]string(nil), s.saleOrder...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = cloneSale(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.sales = snap.sales
	s.saleOrder = snap.saleOrder
}

// lock toma el mutex salvo que la llamada ya corra dentro de una transacción.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func cloneSale(in *entity.Sale) *entity.Sale {
	out := *in
	out.Items = append([]entity.SaleItem(nil), in.Items...)
	if in.ReversedAt != nil {
		t := *in.ReversedAt
		out.ReversedAt = &t
	}
	if in.RefundTotal != nil {
		r := *in.RefundTotal
		out.RefundTotal = &r
	}
	return &out
}
