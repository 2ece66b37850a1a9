// Package storetest holds the behaviour every store backend must share. Each
// backend's tests call Run with a constructor for an empty store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

// Backend is a complete store.
type Backend interface {
	order.Store
	Users() user.Repository
}

// Opener returns an empty, ready to use backend for one test.
type Opener func(t *testing.T) Backend

var errAbort = errors.New("abort")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

// Run executes the shared suite against backends produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("Products", func(t *testing.T) { testProducts(t, open(t)) })
	t.Run("OrderCreateAndGet", func(t *testing.T) { testOrderCreateAndGet(t, open(t)) })
	t.Run("OrderNumbering", func(t *testing.T) { testOrderNumbering(t, open(t)) })
	t.Run("OrderNumberSeededFromExisting", func(t *testing.T) { testOrderNumberSeededFromExisting(t, open(t)) })
	t.Run("DuplicateNumber", func(t *testing.T) { testDuplicateNumber(t, open(t)) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("MissingProductRollsBack", func(t *testing.T) { testMissingProduct(t, open(t)) })
	t.Run("OrderUpdateAndList", func(t *testing.T) { testOrderUpdateAndList(t, open(t)) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, open(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
}

func mustProduct(t *testing.T, b Backend, name, price, cost string, active bool) *catalog.Product {
	t.Helper()
	p, err := b.Products().Create(context.Background(), catalog.Input{Name: name, SalePrice: dec(price), UnitCost: dec(cost), Active: active})
	require.NoError(t, err)
	return p
}

func newOrder(t *testing.T, number string, created time.Time, lines ...order.Line) *order.Order {
	t.Helper()
	o := &order.Order{
		ID:           uuid.Must(uuid.NewV4()),
		Number:       number,
		Status:       order.StatusInProduction,
		ShippingCost: decimal.Zero,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, l := range lines {
		l.ID = uuid.Must(uuid.NewV4())
		l.OrderID = o.ID
		o.Lines = append(o.Lines, l)
	}
	return o
}

func mustCreateOrder(t *testing.T, b Backend, o *order.Order) {
	t.Helper()
	err := b.WithinTx(context.Background(), func(ctx context.Context, tx order.Tx) error {
		return tx.Orders().Create(ctx, o)
	})
	require.NoError(t, err)
}

func testProducts(t *testing.T, b Backend) {
	ctx := context.Background()

	n, err := b.Products().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	p1 := mustProduct(t, b, "SUPORTE_PEQUENO", "20.00", "8.00", true)
	p2 := mustProduct(t, b, "SUPORTE_GRANDE", "35.00", "15.00", true)
	p3 := mustProduct(t, b, "SUPORTE_ANTIGO", "10", "4", false)
	require.Greater(t, p2.ID, p1.ID)
	require.Greater(t, p3.ID, p2.ID)

	active, err := b.Products().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, p1.ID, active[0].ID)
	assert.Equal(t, p2.ID, active[1].ID)

	got, err := b.Products().GetByID(ctx, p3.ID)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(p3, got))

	updated, err := b.Products().Update(ctx, p1.ID, catalog.Input{Name: "SUPORTE_P", SalePrice: dec("22.50"), UnitCost: dec("8.00"), Active: false})
	require.NoError(t, err)
	assert.Equal(t, "SUPORTE_P", updated.Name)

	got, err = b.Products().GetByID(ctx, p1.ID)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(updated, got))

	active, err = b.Products().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = b.Products().GetByID(ctx, p3.ID+100)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	_, err = b.Products().Update(ctx, p3.ID+100, catalog.Input{Name: "x"})
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	n, err = b.Products().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func testOrderCreateAndGet(t *testing.T, b Backend) {
	ctx := context.Background()
	p1 := mustProduct(t, b, "P1", "20.00", "8.00", true)
	p2 := mustProduct(t, b, "P2", "35.00", "15.00", true)

	o := newOrder(t, "2025-0001", at(10, 9),
		order.Line{ProductID: p2.ID, Quantity: dec("1.5"), UnitPrice: dec("30")},
		order.Line{ProductID: p1.ID, Quantity: dec("3"), UnitPrice: dec("20.00")},
	)
	o.CustomerName = strPtr("Loja Centro")
	mustCreateOrder(t, b, o)

	got, err := b.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)

	want := *o
	want.Lines = []order.Line{o.Lines[0], o.Lines[1]}
	want.Lines[0].Product = p2
	want.Lines[1].Product = p1
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("GetByID mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Total().Equal(dec("105")))

	err = b.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		locked, err := tx.Orders().GetForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		require.Empty(t, cmp.Diff(got, locked))
		return nil
	})
	require.NoError(t, err)

	_, err = b.Orders().GetByID(ctx, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func testOrderNumbering(t *testing.T, b Backend) {
	p := mustProduct(t, b, "P1", "20", "8", true)

	var numbers []string
	for i := 0; i < 3; i++ {
		err := b.WithinTx(context.Background(), func(ctx context.Context, tx order.Tx) error {
			number, err := tx.Orders().NextNumber(ctx, 2025)
			if err != nil {
				return err
			}
			numbers = append(numbers, number)
			return tx.Orders().Create(ctx, newOrder(t, number, at(10+i, 9), order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")}))
		})
		require.NoError(t, err)
	}
	require.Equal(t, []string{"2025-0001", "2025-0002", "2025-0003"}, numbers)

	err := b.WithinTx(context.Background(), func(ctx context.Context, tx order.Tx) error {
		number, err := tx.Orders().NextNumber(ctx, 2026)
		require.NoError(t, err)
		require.Equal(t, "2026-0001", number)
		return nil
	})
	require.NoError(t, err)
}

func testOrderNumberSeededFromExisting(t *testing.T, b Backend) {
	mustCreateOrder(t, b, newOrder(t, "2025-0007", at(10, 9)))

	err := b.WithinTx(context.Background(), func(ctx context.Context, tx order.Tx) error {
		number, err := tx.Orders().NextNumber(ctx, 2025)
		require.NoError(t, err)
		require.Equal(t, "2025-0008", number)
		return nil
	})
	require.NoError(t, err)
}

func testDuplicateNumber(t *testing.T, b Backend) {
	mustCreateOrder(t, b, newOrder(t, "2025-0001", at(10, 9)))

	err := b.WithinTx(context.Background(), func(ctx context.Context, tx order.Tx) error {
		return tx.Orders().Create(ctx, newOrder(t, "2025-0001", at(10, 10)))
	})
	require.ErrorIs(t, err, order.ErrDuplicateNumber)

	orders, err := b.Orders().List(context.Background(), order.Filter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func testRollback(t *testing.T, b Backend) {
	ctx := context.Background()
	p := mustProduct(t, b, "P1", "20", "8", true)
	o := newOrder(t, "", at(10, 9), order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")})

	err := b.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		number, err := tx.Orders().NextNumber(ctx, 2025)
		if err != nil {
			return err
		}
		o.Number = number
		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		if err := tx.Ledger().Create(ctx, &ledger.Entry{
			ID:       uuid.Must(uuid.NewV4()),
			Kind:     ledger.KindOutflow,
			Category: ledger.CategoryProductionCost,
			Amount:   dec("8"),
			Date:     at(10, 9),
			OrderID:  &o.ID,
		}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = b.Orders().GetByID(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
	entries, err := b.Ledger().List(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)

	err = b.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		number, err := tx.Orders().NextNumber(ctx, 2025)
		require.NoError(t, err)
		require.Equal(t, "2025-0001", number, "a rolled back allocation is released")
		return nil
	})
	require.NoError(t, err)
}

func testMissingProduct(t *testing.T, b Backend) {
	ctx := context.Background()
	p := mustProduct(t, b, "P1", "20", "8", true)
	o := newOrder(t, "2025-0001", at(10, 9),
		order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")},
		order.Line{ProductID: p.ID + 100, Quantity: dec("1"), UnitPrice: dec("20")},
	)

	err := b.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		return tx.Orders().Create(ctx, o)
	})
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = b.Orders().GetByID(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func testOrderUpdateAndList(t *testing.T, b Backend) {
	ctx := context.Background()
	p := mustProduct(t, b, "P1", "20", "8", true)
	line := order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")}

	a := newOrder(t, "2025-0001", at(1, 10), line)
	bb := newOrder(t, "2025-0002", at(5, 10), line)
	c := newOrder(t, "2025-0003", at(9, 10), line)
	for _, o := range []*order.Order{a, bb, c} {
		mustCreateOrder(t, b, o)
	}

	err := b.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, bb.ID)
		if err != nil {
			return err
		}
		o.Status = order.StatusShipped
		o.TrackingCode = strPtr("BR123")
		o.ShippingCost = dec("5.00")
		o.UpdatedAt = at(6, 8)
		return tx.Orders().Update(ctx, o)
	})
	require.NoError(t, err)

	got, err := b.Orders().GetByID(ctx, bb.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, "BR123", *got.TrackingCode)
	assert.True(t, got.ShippingCost.Equal(dec("5")))
	assert.True(t, got.UpdatedAt.Equal(at(6, 8)))
	assert.True(t, got.CreatedAt.Equal(at(5, 10)))

	missing := newOrder(t, "2025-0099", at(1, 1))
	require.ErrorIs(t, b.Orders().Update(ctx, missing), order.ErrOrderNotFound)

	numbers := func(f order.Filter) []string {
		t.Helper()
		orders, err := b.Orders().List(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			require.Len(t, o.Lines, 1)
			require.NotNil(t, o.Lines[0].Product)
			out = append(out, o.Number)
		}
		return out
	}

	inProduction := order.StatusInProduction
	start, end := at(1, 10), at(5, 10)

	assert.Equal(t, []string{"2025-0003", "2025-0002", "2025-0001"}, numbers(order.Filter{}))
	assert.Equal(t, []string{"2025-0003", "2025-0001"}, numbers(order.Filter{Status: &inProduction}))
	assert.Equal(t, []string{"2025-0002", "2025-0001"}, numbers(order.Filter{Start: &start, End: &end}))
	assert.Equal(t, []string{"2025-0001"}, numbers(order.Filter{Status: &inProduction, End: &end}))
}

func testLedger(t *testing.T, b Backend) {
	ctx := context.Background()
	p := mustProduct(t, b, "P1", "20", "8", true)
	o1 := newOrder(t, "2025-0001", at(1, 9), order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")})
	o2 := newOrder(t, "2025-0002", at(1, 9), order.Line{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("20")})
	mustCreateOrder(t, b, o1)
	mustCreateOrder(t, b, o2)

	entry := func(kind ledger.Kind, category, amount string, date time.Time, orderID *uuid.UUID) *ledger.Entry {
		return &ledger.Entry{
			ID:       uuid.Must(uuid.NewV4()),
			Kind:     kind,
			Category: category,
			Amount:   dec(amount),
			Date:     date,
			OrderID:  orderID,
		}
	}

	cost1 := entry(ledger.KindOutflow, ledger.CategoryProductionCost, "24.00", at(1, 9), &o1.ID)
	freight1 := entry(ledger.KindOutflow, ledger.CategoryFreight, "5.00", at(3, 9), &o1.ID)
	revenue1 := entry(ledger.KindInflow, ledger.CategorySaleRevenue, "60.00", at(5, 9), &o1.ID)
	cost2 := entry(ledger.KindOutflow, ledger.CategoryProductionCost, "8", at(2, 9), &o2.ID)
	rent := entry(ledger.KindOutflow, "Rent", "100", at(4, 9), nil)
	rent.Receipt = strPtr("https://example.com/receipt.png")

	for _, e := range []*ledger.Entry{cost1, freight1, revenue1, cost2, rent} {
		require.NoError(t, b.Ledger().Create(ctx, e))
	}

	orphan := entry(ledger.KindInflow, "Sale Revenue", "1", at(1, 9), ptr(uuid.Must(uuid.NewV4())))
	require.ErrorIs(t, b.Ledger().Create(ctx, orphan), ledger.ErrOrderReferenceNotFound)

	all, err := b.Ledger().List(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	wantOrder := []uuid.UUID{revenue1.ID, rent.ID, freight1.ID, cost2.ID, cost1.ID}
	for i, id := range wantOrder {
		assert.Equal(t, id, all[i].ID, "position %d", i)
	}
	require.Empty(t, cmp.Diff(*rent, all[1]))

	start, end := at(2, 9), at(4, 9)
	ranged, err := b.Ledger().List(ctx, ledger.Filter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, ranged, 3, "bounds are inclusive")

	byOrder, err := b.Ledger().List(ctx, ledger.Filter{OrderID: &o1.ID})
	require.NoError(t, err)
	require.Len(t, byOrder, 3)

	sum, err := b.Ledger().Totals(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, sum.Inflows.Equal(dec("60")), "inflows %s", sum.Inflows)
	assert.True(t, sum.Outflows.Equal(dec("137")), "outflows %s", sum.Outflows)

	sum, err = b.Ledger().Totals(ctx, ledger.Filter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.True(t, sum.Inflows.IsZero())
	assert.True(t, sum.Outflows.Equal(dec("113")), "outflows %s", sum.Outflows)

	removed, err := b.Ledger().DeleteByOrderID(ctx, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	rest, err := b.Ledger().List(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.ElementsMatch(t, []uuid.UUID{rent.ID, cost2.ID}, []uuid.UUID{rest[0].ID, rest[1].ID})

	removed, err = b.Ledger().DeleteByOrderID(ctx, o1.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func testUsers(t *testing.T, b Backend) {
	ctx := context.Background()

	n, err := b.Users().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	admin, err := b.Users().Create(ctx, user.CreateInput{Name: "maria", Role: user.RoleAdmin})
	require.NoError(t, err)
	regular, err := b.Users().Create(ctx, user.CreateInput{Name: "joao", Role: user.RoleRegularUser})
	require.NoError(t, err)
	require.Greater(t, regular.ID, admin.ID)

	_, err = b.Users().Create(ctx, user.CreateInput{Name: "maria", Role: user.RoleRegularUser})
	require.ErrorIs(t, err, user.ErrNameTaken)

	got, err := b.Users().GetByName(ctx, "joao")
	require.NoError(t, err)
	require.Equal(t, regular, got)

	_, err = b.Users().GetByName(ctx, "nobody")
	require.ErrorIs(t, err, user.ErrUserNotFound)

	users, err := b.Users().List(ctx)
	require.NoError(t, err)
	require.Equal(t, []user.User{*admin, *regular}, users)

	n, err = b.Users().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func ptr[T any](v T) *T { return &v }
