package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
)

func TestOrderService_RegisterPayment_Partial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createSimple(t, "3")

	receipt := "data:image/png;base64,iVBORw0KGgo="
	res, err := f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("25"), Receipt: &receipt})
	require.NoError(t, err)
	require.Equal(t, order.StatusInProduction, res.Order.Status)
	require.NotNil(t, res.Entry)
	require.Equal(t, ledger.KindInflow, res.Entry.Kind)
	require.Equal(t, ledger.CategorySaleRevenue, res.Entry.Category)
	require.Equal(t, receipt, *res.Entry.Receipt)
	requireDecimal(t, "60", res.Status.Total)
	requireDecimal(t, "25", res.Status.Paid)
	requireDecimal(t, "35", res.Status.Remaining)
	require.Len(t, res.Status.Entries, 1)

	status, err := f.svc.PaymentStatus(ctx, o.ID)
	require.NoError(t, err)
	requireDecimal(t, "35", status.Remaining)
}

func TestOrderService_RegisterPayment_BackdatedDate(t *testing.T) {
	f := newFixture(t)
	o := f.createSimple(t, "1")

	paidAt := time.Date(2025, 2, 28, 15, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	res, err := f.svc.RegisterPayment(context.Background(), o.ID, order.PaymentInput{Amount: dec("5"), Date: &paidAt})
	require.NoError(t, err)
	require.True(t, res.Entry.Date.Equal(paidAt))
	require.Equal(t, time.UTC, res.Entry.Date.Location())
}

func TestOrderService_RegisterPayment_SettlingShippedOrderCompletesIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createSimple(t, "3")

	_, err := f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("20")})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{TrackingCode: strPtr("BR123"), ShippingCost: decPtr("5")})
	require.NoError(t, err)

	res, err := f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("40")})
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, res.Order.Status)
	requireDecimal(t, "0", res.Status.Remaining)

	var revenue []ledger.Entry
	for _, e := range f.entriesOf(t, o.ID) {
		if e.Category == ledger.CategorySaleRevenue {
			revenue = append(revenue, e)
		}
	}
	require.Len(t, revenue, 2, "completion through payment adds no extra revenue entry")

	summary, err := ledger.NewService(f.store.Ledger()).Summary(ctx, ledger.Filter{})
	require.NoError(t, err)
	requireDecimal(t, "31", summary.Balance)
}

func TestOrderService_RegisterPayment_InProductionStaysOpenWhenSettled(t *testing.T) {
	f := newFixture(t)
	o := f.createSimple(t, "1")

	res, err := f.svc.RegisterPayment(context.Background(), o.ID, order.PaymentInput{Amount: dec("20")})
	require.NoError(t, err)
	require.Equal(t, order.StatusInProduction, res.Order.Status)
	requireDecimal(t, "0", res.Status.Remaining)
}

func TestOrderService_Complete_BooksOnlyOutstandingRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createSimple(t, "3")

	_, err := f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("15")})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{TrackingCode: strPtr("BR1")})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, o.ID, order.StatusCompleted, order.TransitionInput{})
	require.NoError(t, err)

	status, err := f.svc.PaymentStatus(ctx, o.ID)
	require.NoError(t, err)
	requireDecimal(t, "60", status.Paid)
	require.Len(t, status.Entries, 2)
}

func TestOrderService_RegisterPayment_Rejected(t *testing.T) {
	t.Run("non_positive_amount", func(t *testing.T) {
		f := newFixture(t)
		o := f.createSimple(t, "1")

		_, err := f.svc.RegisterPayment(context.Background(), o.ID, order.PaymentInput{Amount: dec("0")})
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		require.Contains(t, ve.Fields, "amount")
	})

	t.Run("exceeds_remaining", func(t *testing.T) {
		f := newFixture(t)
		o := f.createSimple(t, "1")

		_, err := f.svc.RegisterPayment(context.Background(), o.ID, order.PaymentInput{Amount: dec("20.01")})
		require.ErrorIs(t, err, apperr.ErrValidation)
		require.Len(t, f.entriesOf(t, o.ID), 1)
	})

	t.Run("completed_order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		o := f.createSimple(t, "1")
		_, err := f.svc.Transition(ctx, o.ID, order.StatusShipped, order.TransitionInput{TrackingCode: strPtr("BR1")})
		require.NoError(t, err)
		_, err = f.svc.Transition(ctx, o.ID, order.StatusCompleted, order.TransitionInput{})
		require.NoError(t, err)

		_, err = f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("1")})
		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("cancelled_order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		o := f.createSimple(t, "1")
		_, err := f.svc.Transition(ctx, o.ID, order.StatusCancelled, order.TransitionInput{})
		require.NoError(t, err)

		_, err = f.svc.RegisterPayment(ctx, o.ID, order.PaymentInput{Amount: dec("1")})
		require.ErrorIs(t, err, order.ErrInvalidTransition)
		require.Empty(t, f.entriesOf(t, o.ID))
	})

	t.Run("missing_order", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RegisterPayment(context.Background(), uuid.Must(uuid.NewV4()), order.PaymentInput{Amount: dec("1")})
		require.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}
