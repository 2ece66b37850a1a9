package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

type ledgerRepository struct {
	repos
}

func (r ledgerRepository) List(ctx context.Context, f ledger.Filter) ([]ledger.Entry, error) {
	defer r.lock()()
	return r.matching(f), nil
}

func (r ledgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	defer r.lock()()

	st := r.st()
	if e.OrderID != nil {
		if _, ok := st.orders[*e.OrderID]; !ok {
			return ledger.ErrOrderReferenceNotFound
		}
	}
	st.entries[e.ID] = *e
	return nil
}

func (r ledgerRepository) Totals(ctx context.Context, f ledger.Filter) (ledger.Summary, error) {
	defer r.lock()()
	return ledger.Summarize(r.matching(f)), nil
}

func (r ledgerRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	defer r.lock()()

	st := r.st()
	var removed int64
	for id, e := range st.entries {
		if e.OrderID != nil && *e.OrderID == orderID {
			delete(st.entries, id)
			removed++
		}
	}
	return removed, nil
}

// matching returns entries passing f, newest first. Callers hold the lock.
func (r ledgerRepository) matching(f ledger.Filter) []ledger.Entry {
	entries := make([]ledger.Entry, 0)
	for _, e := range r.st().entries {
		if f.Matches(e) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries
}
