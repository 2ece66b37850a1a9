package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/store/memory"
	"github.com/vasiliy-maslov/production-orders/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Backend {
		st := memory.New()
		t.Cleanup(func() { require.NoError(t, st.Close()) })
		return st
	})
}

func TestWithinTx_PanicDiscardsWrites(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	require.Panics(t, func() {
		_ = st.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
			_, err := tx.Products().Create(ctx, catalog.Input{Name: "P1"})
			require.NoError(t, err)
			panic("boom")
		})
	})

	n, err := st.Products().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = st.Products().Create(ctx, catalog.Input{Name: "P2"})
	require.NoError(t, err, "the store lock is released after a panic")
}

func TestWithinTx_CancelledContext(t *testing.T) {
	st := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := st.WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		called = true
		return nil
	})
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, called)
}

func TestReadsReturnCopies(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	p, err := st.Products().Create(ctx, catalog.Input{Name: "P1", Active: true})
	require.NoError(t, err)
	p.Name = "changed"

	got, err := st.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "P1", got.Name)
}
