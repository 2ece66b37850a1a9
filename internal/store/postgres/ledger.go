package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

type ledgerRepository struct {
	db querier
}

const entryColumns = `id, kind, category, amount, entry_date, order_id, receipt`

func entryFilter(f ledger.Filter) *where {
	w := &where{}
	if f.Start != nil {
		w.add("entry_date >= $%d", *f.Start)
	}
	if f.End != nil {
		w.add("entry_date <= $%d", *f.End)
	}
	if f.OrderID != nil {
		w.add("order_id = $%d", *f.OrderID)
	}
	return w
}

func scanEntry(row pgx.Row) (ledger.Entry, error) {
	var (
		e       ledger.Entry
		orderID uuid.NullUUID
	)
	if err := row.Scan(&e.ID, &e.Kind, &e.Category, &e.Amount, &e.Date, &orderID, &e.Receipt); err != nil {
		return ledger.Entry{}, err
	}
	e.Date = e.Date.UTC()
	if orderID.Valid {
		e.OrderID = &orderID.UUID
	}
	return e, nil
}

func (r *ledgerRepository) List(ctx context.Context, f ledger.Filter) ([]ledger.Entry, error) {
	w := entryFilter(f)
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries`+w.String()+` ORDER BY entry_date DESC, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]ledger.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating ledger entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, string(e.Kind), e.Category, e.Amount, e.Date, e.OrderID, e.Receipt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ledger.ErrOrderReferenceNotFound
		}
		return fmt.Errorf("repository: failed to insert ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) Totals(ctx context.Context, f ledger.Filter) (ledger.Summary, error) {
	w := entryFilter(f)
	var s ledger.Summary
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE kind = 'Inflow'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'Outflow'), 0)
		FROM ledger_entries`+w.String(), w.args...).Scan(&s.Inflows, &s.Outflows)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("repository: failed to sum ledger entries: %w", err)
	}
	s.Balance = s.Inflows.Sub(s.Outflows)
	return s, nil
}

func (r *ledgerRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM ledger_entries WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to delete ledger entries of order %s: %w", orderID, err)
	}
	return cmdTag.RowsAffected(), nil
}
