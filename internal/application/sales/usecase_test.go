package sales_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/franquicias-pos/internal/application/audit"
	"github.com/jhoicas/franquicias-pos/internal/application/dto"
	"github.com/jhoicas/franquicias-pos/internal/application/inventory"
	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain"
	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
	"github.com/jhoicas/franquicias-pos/internal/infrastructure/memory"
)

const (
	franchiseA = "F-A"
	franchiseB = "F-B"
	card       = "123456789012"
)

var (
	seller     = entity.Actor{UserID: "seller-1", Role: entity.RoleSeller, FranchiseID: franchiseA}
	managerA   = entity.Actor{UserID: "manager-a", Role: entity.RoleFranchiseOwner, FranchiseID: franchiseA}
	managerB   = entity.Actor{UserID: "manager-b", Role: entity.RoleFranchiseOwner, FranchiseID: franchiseB}
	orgOwner   = entity.Actor{UserID: "owner", Role: entity.RoleOwner}
	fixedClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sales.SaleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev sales.SaleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, sales.SaleEvent) error {
	return errors.New("broker caído")
}

// lockOrderTx registra el orden en que la transacción toca el stock.
type lockOrderTx struct {
	inner       sales.TxRunner
	mu          sync.Mutex
	decremented []string
	credited    []string
}

func (tx *lockOrderTx) RunSales(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	return tx.inner.RunSales(ctx, func(p repository.ProductRepository, s repository.SaleRepository) error {
		return fn(&lockOrderRepo{ProductRepository: p, tx: tx}, s)
	})
}

type lockOrderRepo struct {
	repository.ProductRepository
	tx *lockOrderTx
}

func (r *lockOrderRepo) DecrementStock(ctx context.Context, id string, qty int) (*entity.Product, error) {
	r.tx.mu.Lock()
	r.tx.decremented = append(r.tx.decremented, id)
	r.tx.mu.Unlock()
	return r.ProductRepository.DecrementStock(ctx, id, qty)
}

func (r *lockOrderRepo) CreditStock(ctx context.Context, id string, qty int) (*entity.Product, error) {
	r.tx.mu.Lock()
	r.tx.credited = append(r.tx.credited, id)
	r.tx.mu.Unlock()
	return r.ProductRepository.CreditStock(ctx, id, qty)
}

type fixture struct {
	store *memory.Store
	uc    *sales.UseCase
	query *sales.QueryUseCase
	stock *inventory.StockUseCase
	pub   *recordingPublisher
}

func newFixture(t *testing.T, opts ...sales.Option) *fixture {
	t.Helper()
	st := memory.NewStore()
	pub := &recordingPublisher{}
	recorder := audit.NewRecorder(st.AuditLogs(), nil)
	opts = append([]sales.Option{sales.WithPublisher(pub), sales.WithClock(func() time.Time { return fixedClock })}, opts...)
	return &fixture{
		store: st,
		uc:    sales.NewUseCase(st, recorder, nil, opts...),
		query: sales.NewQueryUseCase(st.Sales(), st.Products(), nil, nil, nil),
		stock: inventory.NewStockUseCase(st, recorder, nil),
		pub:   pub,
	}
}

func (f *fixture) addProduct(t *testing.T, id, franchise string, price string, stock int) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID:          id,
		FranchiseID: franchise,
		Name:        "Producto " + id,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsActive:    true,
	}))
}

func (f *fixture) product(t *testing.T, id string) *entity.Product {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	list, _, err := f.store.AuditLogs().List(context.Background(), repository.AuditLogFilter{})
	require.NoError(t, err)
	var out []string
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i].Action)
	}
	return out
}

func TestScenarios_SaleRestockCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "100", 10)

	// A: venta de 4 unidades
	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 4}},
		CardNumber: card,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCompleted, sale.Status)
	assert.True(t, decimal.NewFromInt(400).Equal(sale.Total))
	assert.Equal(t, franchiseA, sale.FranchiseID)
	assert.Equal(t, seller.UserID, sale.SellerID)
	p := f.product(t, "P")
	assert.Equal(t, 6, p.Stock)
	assert.Equal(t, 4, p.Missing)

	// B: surtido de 2 baja missing en min(4, 2)
	change, err := f.stock.Restock(ctx, managerA, "P", 2)
	require.NoError(t, err)
	assert.Equal(t, 6, change.Before.Stock)
	assert.Equal(t, 4, change.Before.Missing)
	assert.Equal(t, 8, change.After.Stock)
	assert.Equal(t, 2, change.After.Missing)

	// C: cancelar la venta de A no deja missing negativo
	canceled, err := f.uc.CancelSale(ctx, managerA, sale.ID, "error de caja")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCanceled, canceled.Status)
	assert.Equal(t, managerA.UserID, canceled.ReversedBy)
	assert.Equal(t, "error de caja", canceled.ReversalReason)
	require.NotNil(t, canceled.ReversedAt)
	p = f.product(t, "P")
	assert.Equal(t, 12, p.Stock)
	assert.Equal(t, 0, p.Missing)

	assert.Equal(t, []string{entity.AuditSaleCreate, entity.AuditProductRestock, entity.AuditSaleCancel}, f.auditActions(t))
	require.Len(t, f.pub.events, 2)
	assert.Equal(t, sales.EventSaleCreated, f.pub.events[0].Type)
	assert.Equal(t, sales.EventSaleCanceled, f.pub.events[1].Type)
}

func TestCreateSale_ConcurrentLastUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
				Items:      []sales.ItemInput{{ProductID: "P", Qty: 3}},
				CardNumber: card,
			})
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 2, f.product(t, "P").Stock)

	list, err := f.query.ListSales(ctx, seller, dto.SalesQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.SaleStatusCompleted, list[0].Status)
}

func TestCreateSale_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "A", franchiseA, "5", 10)
	f.addProduct(t, "B", franchiseA, "7", 1)
	f.addProduct(t, "C", franchiseA, "1", 10)

	_, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items: []sales.ItemInput{
			{ProductID: "A", Qty: 2},
			{ProductID: "B", Qty: 2},
			{ProductID: "C", Qty: 3},
		},
		CardNumber: card,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	for _, id := range []string{"A", "B", "C"} {
		p := f.product(t, id)
		assert.Equal(t, 0, p.Missing, id)
	}
	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Equal(t, 1, f.product(t, "B").Stock)
	assert.Equal(t, 10, f.product(t, "C").Stock)

	list, err := f.query.ListSales(ctx, seller, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.auditActions(t), "una venta fallida no se audita")
	assert.Empty(t, f.pub.events)
}

func TestCreateSale_Total(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "A", franchiseA, "2.50", 10)
	f.addProduct(t, "B", franchiseA, "1.10", 10)

	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items: []sales.ItemInput{
			{ProductID: "B", Qty: 5},
			{ProductID: "A", Qty: 1},
		},
		CardNumber: "4111111111111111",
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, "B", sale.Items[0].ProductID, "conserva el orden pedido")
	assert.True(t, decimal.RequireFromString("5.50").Equal(sale.Items[0].Subtotal))
	assert.True(t, decimal.RequireFromString("8.00").Equal(sale.Total))
	assert.True(t, sale.ItemsTotal().Equal(sale.Total))
	assert.Equal(t, 5, f.product(t, "B").Missing)

	stored, err := f.query.GetSale(ctx, seller, sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.ItemsTotal().Equal(stored.Total))
}

func TestCreateSale_RepeatedProductRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "A", franchiseA, "2.50", 10)
	f.addProduct(t, "B", franchiseA, "1.10", 10)

	_, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items: []sales.ItemInput{
			{ProductID: "B", Qty: 3},
			{ProductID: "A", Qty: 1},
			{ProductID: " B", Qty: 2},
		},
		CardNumber: card,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Equal(t, 10, f.product(t, "B").Stock)
	assert.Equal(t, 0, f.product(t, "B").Missing)

	list, err := f.query.ListSales(ctx, managerA, dto.SalesQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.auditActions(t))
}

func TestCreateSale_PriceIsSnapshotted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "A", franchiseA, "3", 10)

	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "A", Qty: 2}},
		CardNumber: card,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(sale.Items[0].Price))
	assert.True(t, decimal.NewFromInt(6).Equal(sale.Items[0].Subtotal))
	assert.Equal(t, sale.ID, sale.Items[0].SaleID)
	assert.Equal(t, fixedClock, sale.CreatedAt)
}

func TestCreateSale_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "A", franchiseA, "1", 10)
	f.addProduct(t, "X", franchiseB, "1", 10)
	require.NoError(t, f.store.Products().Create(ctx, &entity.Product{
		ID: "OFF", FranchiseID: franchiseA, Name: "Inactivo", Price: decimal.NewFromInt(1), Stock: 5,
	}))

	tests := []struct {
		name    string
		actor   entity.Actor
		in      sales.CreateSaleInput
		wantErr error
	}{
		{name: "sin items", actor: seller, in: sales.CreateSaleInput{CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "qty cero", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A"}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "qty negativa", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: -1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "qty sobre el tope", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: math.MaxInt32 + 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "producto repetido", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: 1}, {ProductID: "A", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "sin productId", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{Qty: 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "tarjeta corta", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: 1}}, CardNumber: "12345"}, wantErr: domain.ErrInvalidInput},
		{name: "tarjeta con letras", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: 1}}, CardNumber: "1234abcd90123"}, wantErr: domain.ErrInvalidInput},
		{name: "producto de otra franquicia", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "X", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "producto inexistente", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "nope", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "producto inactivo", actor: seller, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "OFF", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrInvalidInput},
		{name: "vendedor en otra franquicia", actor: seller, in: sales.CreateSaleInput{FranchiseID: franchiseB, Items: []sales.ItemInput{{ProductID: "X", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrForbidden},
		{name: "owner sin franquicia", actor: orgOwner, in: sales.CreateSaleInput{Items: []sales.ItemInput{{ProductID: "A", Qty: 1}}, CardNumber: card}, wantErr: domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateSale(ctx, tt.actor, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Equal(t, 10, f.product(t, "X").Stock)
}

func TestCreateSale_OwnerWithExplicitFranchise(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "X", franchiseB, "4", 2)

	sale, err := f.uc.CreateSale(context.Background(), orgOwner, sales.CreateSaleInput{
		FranchiseID: franchiseB,
		Items:       []sales.ItemInput{{ProductID: "X", Qty: 2}},
		CardNumber:  card,
	})
	require.NoError(t, err)
	assert.Equal(t, franchiseB, sale.FranchiseID)
	assert.Equal(t, orgOwner.UserID, sale.SellerID)
	assert.Equal(t, 0, f.product(t, "X").Stock)
}

func TestReverse_Guard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 5)

	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 2}},
		CardNumber: card,
	})
	require.NoError(t, err)

	refunded, err := f.uc.RefundSale(ctx, managerA, sale.ID, "producto dañado")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundTotal)
	assert.True(t, refunded.Total.Equal(*refunded.RefundTotal))
	after := f.product(t, "P")
	assert.Equal(t, 5, after.Stock)
	assert.Equal(t, 0, after.Missing)

	for _, reverse := range []func(context.Context, entity.Actor, string, string) (*entity.Sale, error){
		f.uc.CancelSale, f.uc.RefundSale,
	} {
		_, err := reverse(ctx, managerA, sale.ID, "otra vez")
		assert.ErrorIs(t, err, domain.ErrInvalidSaleState)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	stored, err := f.query.GetSale(ctx, managerA, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusRefunded, stored.Status)
	assert.Equal(t, "producto dañado", stored.ReversalReason)
	assert.Equal(t, 5, f.product(t, "P").Stock, "una reversa rechazada no acredita stock")
}

// Venta y reversa bloquean filas en el mismo orden (por id), sin importar el orden de las líneas.
func TestCreateSaleAndReverse_SameLockOrder(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	tx := &lockOrderTx{inner: st}
	uc := sales.NewUseCase(tx, audit.NewRecorder(st.AuditLogs(), nil), nil)
	for _, id := range []string{"C", "A", "B"} {
		require.NoError(t, st.Products().Create(ctx, &entity.Product{
			ID: id, FranchiseID: franchiseA, Name: id, Price: decimal.NewFromInt(1), Stock: 10, IsActive: true,
		}))
	}

	sale, err := uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "C", Qty: 1}, {ProductID: "A", Qty: 2}, {ProductID: "B", Qty: 3}},
		CardNumber: card,
	})
	require.NoError(t, err)
	assert.Equal(t, "C", sale.Items[0].ProductID)

	_, err = uc.CancelSale(ctx, managerA, sale.ID, "cliente se arrepiente")
	require.NoError(t, err)

	want := []string{"A", "B", "C"}
	assert.Equal(t, want, tx.decremented)
	assert.Equal(t, want, tx.credited)
	assert.True(t, sort.StringsAreSorted(tx.credited))
	for _, id := range want {
		p, err := st.Products().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 10, p.Stock)
	}
}

func TestReverse_ConcurrentOnlyOneCredits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 4)
	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 4}},
		CardNumber: card,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = f.uc.CancelSale(ctx, managerA, sale.ID, "")
			} else {
				_, errs[i] = f.uc.RefundSale(ctx, managerA, sale.ID, "")
			}
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidSaleState)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, f.product(t, "P").Stock)
}

func TestReverse_NotFoundAndScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 5)
	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 1}},
		CardNumber: card,
	})
	require.NoError(t, err)

	_, err = f.uc.CancelSale(ctx, managerA, "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.CancelSale(ctx, managerB, sale.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.RefundSale(ctx, seller, sale.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden, "el vendedor no puede reversar")

	_, err = f.uc.CancelSale(ctx, orgOwner, sale.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, f.product(t, "P").Stock)
}

func TestCreateSale_AuditPayloadRedactsCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "P", franchiseA, "10", 5)
	_, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 1}},
		CardNumber: "4000123412341234",
	})
	require.NoError(t, err)

	list, _, err := f.store.AuditLogs().List(ctx, repository.AuditLogFilter{Action: entity.AuditSaleCreate})
	require.NoError(t, err)
	require.Len(t, list, 1)
	payload := string(list[0].Payload)
	assert.Contains(t, payload, `"cardLast4":"1234"`)
	assert.NotContains(t, payload, "4000123412341234")
	assert.Equal(t, seller.UserID, list[0].UserID)
	assert.Equal(t, entity.RoleSeller, list[0].Role)
	assert.Equal(t, franchiseA, list[0].FranchiseID)
}

func TestCreateSale_PublisherFailureDoesNotFailSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sales.WithPublisher(failingPublisher{}))
	f.addProduct(t, "P", franchiseA, "10", 5)

	sale, err := f.uc.CreateSale(ctx, seller, sales.CreateSaleInput{
		Items:      []sales.ItemInput{{ProductID: "P", Qty: 1}},
		CardNumber: card,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, 4, f.product(t, "P").Stock)
}
