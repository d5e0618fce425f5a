package memory

import (
	"context"
	"time"

	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

type productRepo struct {
	s    *Store
	inTx bool
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetForUpdate equivale a GetByID: dentro de la transacción el store completo ya está bloqueado.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) ListByFranchiseAndIDs(_ context.Context, franchiseID string, ids []string) ([]*entity.Product, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*entity.Product, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		p, ok := r.s.products[id]
		if !ok || p.FranchiseID != franchiseID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, &p)
	}
	return out, nil
}

func (r *productRepo) DecrementStock(_ context.Context, id string, qty int) (*entity.Product, error) {
	return r.apply(id, func(p *entity.Product) error { return p.ApplySale(qty) })
}

func (r *productRepo) Restock(_ context.Context, id string, qty int) (*entity.Product, error) {
	return r.apply(id, func(p *entity.Product) error { return p.ApplyRestock(qty) })
}

func (r *productRepo) CreditStock(_ context.Context, id string, qty int) (*entity.Product, error) {
	return r.apply(id, func(p *entity.Product) error { return p.ApplyReversal(qty) })
}

func (r *productRepo) AdjustStock(_ context.Context, id string, delta int) (*entity.Product, error) {
	return r.apply(id, func(p *entity.Product) error { return p.ApplyAdjustment(delta) })
}

// apply muta una copia y solo la guarda si la regla del libro no falló.
func (r *productRepo) apply(id string, rule func(p *entity.Product) error) (*entity.Product, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := rule(&p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return &p, nil
}
