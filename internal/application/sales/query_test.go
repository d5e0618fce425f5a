package sales_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

// mapCache caché versionada en memoria que cuenta accesos e invalidaciones.
// beforeSet corre entre el cálculo del resumen y su escritura.
type mapCache struct {
	data          map[string]*repository.SalesSummary
	versions      map[string]int
	hits, sets    int
	invalidations []string
	beforeSet     func()
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]*repository.SalesSummary{}, versions: map[string]int{}}
}

func (c *mapCache) Get(_ context.Context, fid, key string) (*repository.SalesSummary, string, bool, error) {
	ticket := fmt.Sprintf("%s|v%d|%s", fid, c.versions[fid], key)
	s, ok := c.data[ticket]
	if ok {
		c.hits++
	}
	return s, ticket, ok, nil
}

func (c *mapCache) Set(_ context.Context, ticket string, s *repository.SalesSummary) error {
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}
	c.sets++
	c.data[ticket] = s
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, fid string) error {
	c.invalidations = append(c.invalidations, fid)
	c.versions[fid]++
	return nil
}

type stubRenderer struct {
	gotSale     *entity.Sale
	gotProducts map[string]*entity.Product
	err         error
}

func (r *stubRenderer) Render(s *entity.Sale, products map[string]*entity.Product) ([]byte, error) {
	r.gotSale, r.gotProducts = s, products
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4"), nil
}

func sell(t *testing.T, f *fixture, actor entity.Actor, items ...sales.ItemInput) *entity.Sale {
	t.Helper()
	s, err := f.uc.CreateSale(context.Background(), actor, sales.CreateSaleInput{Items: items, CardNumber: card})
	require.NoError(t, err)
	return s
}

func TestSalesSummary_CacheAsideAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	f := newFixture(t, sales.WithSummaryCache(cache))
	query := sales.NewQueryUseCase(f.store.Sales(), f.store.Products(), cache, nil, nil)
	f.addProduct(t, "P", franchiseA, "2.50", 20)

	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 2})
	require.Equal(t, []string{franchiseA}, cache.invalidations)

	sum, err := query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SalesCount)
	assert.True(t, decimal.NewFromInt(5).Equal(sum.TotalSold))
	assert.Equal(t, 2, sum.ItemsQty)
	assert.Nil(t, sum.From)
	assert.Equal(t, 1, cache.sets)

	_, err = query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	// una venta nueva invalida y el siguiente resumen la incluye
	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})
	sum, err = query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.SalesCount)
	assert.Equal(t, 3, sum.ItemsQty)
}

// Una venta que se confirma mientras se calcula el resumen no deja el valor viejo en caché.
func TestSalesSummary_InvalidateBetweenReadAndWrite(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	f := newFixture(t, sales.WithSummaryCache(cache))
	query := sales.NewQueryUseCase(f.store.Sales(), f.store.Products(), cache, nil, nil)
	f.addProduct(t, "P", franchiseA, "2.00", 20)
	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})

	cache.beforeSet = func() { sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 4}) }
	first, err := query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.SalesCount, "calculado antes de la segunda venta")

	next, err := query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, next.SalesCount)
	assert.Equal(t, 5, next.ItemsQty)
	assert.True(t, decimal.NewFromInt(10).Equal(next.TotalSold))
	assert.Equal(t, 0, cache.hits, "la entrada vieja quedó en la versión anterior")
}

func TestSalesSummary_StatusFilterAndScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 20)
	f.addProduct(t, "Q", franchiseB, "10", 20)

	s1 := sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})
	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 2})
	_, err := f.uc.CancelSale(ctx, managerA, s1.ID, "")
	require.NoError(t, err)

	all, err := f.query.SalesSummary(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.SalesCount, "sin filtro cuenta todos los estados")

	completed, err := f.query.SalesSummary(ctx, managerA, dto.SalesQuery{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, 1, completed.SalesCount)
	assert.True(t, decimal.NewFromInt(20).Equal(completed.TotalSold))

	_, err = f.query.SalesSummary(ctx, managerA, dto.SalesQuery{Status: "PENDING"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.query.SalesSummary(ctx, managerA, dto.SalesQuery{FranchiseID: franchiseB})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.query.SalesSummary(ctx, orgOwner, dto.SalesQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden, "OWNER debe enviar franquicia")

	other, err := f.query.SalesSummary(ctx, orgOwner, dto.SalesQuery{FranchiseID: franchiseB})
	require.NoError(t, err)
	assert.Equal(t, 0, other.SalesCount)
	assert.True(t, decimal.Zero.Equal(other.TotalSold))
}

func TestListSales_Filters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "1", 20)
	other := entity.Actor{UserID: "seller-2", Role: entity.RoleSeller, FranchiseID: franchiseA}

	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})
	sell(t, f, other, sales.ItemInput{ProductID: "P", Qty: 1})

	list, err := f.query.ListSales(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.query.ListSales(ctx, managerA, dto.SalesQuery{SellerID: "seller-2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "seller-2", list[0].SellerID)

	list, err = f.query.ListSales(ctx, managerA, dto.SalesQuery{From: "2026-03-11"})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.query.ListSales(ctx, managerA, dto.SalesQuery{From: "2026-03-10", To: "2026-03-10"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.query.ListSales(ctx, managerA, dto.SalesQuery{From: "2026-03-12", To: "2026-03-10"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.query.ListSales(ctx, managerA, dto.SalesQuery{From: "ayer"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetSale_CrossTenantForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "1", 5)
	s := sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})

	got, err := f.query.GetSale(ctx, seller, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = f.query.GetSale(ctx, managerB, s.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.query.GetSale(ctx, orgOwner, s.ID)
	assert.NoError(t, err)

	_, err = f.query.GetSale(ctx, seller, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 50)
	f.addProduct(t, "Q", franchiseA, "3", 50)

	sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 2}, sales.ItemInput{ProductID: "Q", Qty: 5})
	refunded := sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})
	canceled := sell(t, f, seller, sales.ItemInput{ProductID: "Q", Qty: 1})
	_, err := f.uc.RefundSale(ctx, managerA, refunded.ID, "")
	require.NoError(t, err)
	_, err = f.uc.CancelSale(ctx, managerA, canceled.ID, "")
	require.NoError(t, err)

	res, err := f.query.DailyClose(ctx, managerA, "", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, franchiseA, res.FranchiseID)
	assert.Equal(t, "2026-03-10", res.Day)
	assert.Equal(t, 1, res.SalesCompleted)
	assert.True(t, decimal.NewFromInt(35).Equal(res.TotalSold))
	assert.Equal(t, 7, res.ItemsQty)
	assert.Equal(t, 1, res.RefundsCount)
	assert.True(t, decimal.NewFromInt(10).Equal(res.RefundsTotal))
	assert.Equal(t, 1, res.CancelsCount)
	require.Len(t, res.TopProducts, 2)
	assert.Equal(t, "Q", res.TopProducts[0].ProductID)
	assert.Equal(t, 5, res.TopProducts[0].Qty)
	assert.Equal(t, "Producto Q", res.TopProducts[0].Name)

	empty, err := f.query.DailyClose(ctx, managerA, "", "2026-03-11")
	require.NoError(t, err)
	assert.Zero(t, empty.SalesCompleted)
	assert.Empty(t, empty.TopProducts)

	_, err = f.query.DailyClose(ctx, managerA, "", "10/03/2026")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.query.DailyClose(ctx, managerB, franchiseA, "2026-03-10")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 5)
	s := sell(t, f, seller, sales.ItemInput{ProductID: "P", Qty: 1})

	renderer := &stubRenderer{}
	query := sales.NewQueryUseCase(f.store.Sales(), f.store.Products(), nil, renderer, nil)

	pdf, got, err := query.Receipt(ctx, seller, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, s.ID, got.ID)
	require.Contains(t, renderer.gotProducts, "P")
	assert.Equal(t, "Producto P", renderer.gotProducts["P"].Name)

	_, _, err = query.Receipt(ctx, managerB, s.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	renderer.err = errors.New("fuente faltante")
	_, _, err = query.Receipt(ctx, seller, s.ID)
	assert.Error(t, err)

	_, _, err = f.query.Receipt(ctx, seller, s.ID)
	assert.Error(t, err, "sin generador configurado")
}
