package sqlite

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

type ledgerRepository struct {
	q sqlx.ExtContext
}

const entryColumns = `id, kind, category, amount, entry_date, order_id, receipt`

func entryFilter(f ledger.Filter) *where {
	w := &where{}
	if f.Start != nil {
		w.add("entry_date >= ?", f.Start.UTC())
	}
	if f.End != nil {
		w.add("entry_date <= ?", f.End.UTC())
	}
	if f.OrderID != nil {
		w.add("order_id = ?", *f.OrderID)
	}
	return w
}

func (r *ledgerRepository) List(ctx context.Context, f ledger.Filter) ([]ledger.Entry, error) {
	w := entryFilter(f)
	entries := make([]ledger.Entry, 0)
	query := `SELECT ` + entryColumns + ` FROM ledger_entries` + w.String() + ` ORDER BY entry_date DESC, id`
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, w.args...); err != nil {
		return nil, fmt.Errorf("repository: failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Category, e.Amount, e.Date.UTC(), e.OrderID, e.Receipt,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return ledger.ErrOrderReferenceNotFound
		}
		return fmt.Errorf("repository: failed to insert ledger entry: %w", err)
	}
	return nil
}

// Totals sums in Go: amounts are stored as decimal text, which SQL SUM would
// turn into floating point.
func (r *ledgerRepository) Totals(ctx context.Context, f ledger.Filter) (ledger.Summary, error) {
	entries, err := r.List(ctx, f)
	if err != nil {
		return ledger.Summary{}, err
	}
	return ledger.Summarize(entries), nil
}

func (r *ledgerRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to delete ledger entries of order %s: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("repository: failed to read affected rows: %w", err)
	}
	return n, nil
}
