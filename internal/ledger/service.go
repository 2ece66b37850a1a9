package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)
	CreateEntry(ctx context.Context, in EntryInput) (*Entry, error)
	Summary(ctx context.Context, f Filter) (Summary, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	entries, err := s.repo.List(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list ledger entries")
		return nil, fmt.Errorf("service: failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// CreateEntry records a manual cash movement. Amount and kind are checked by the
// caller at the request boundary.
func (s *service) CreateEntry(ctx context.Context, in EntryInput) (*Entry, error) {
	e, err := NewEntry(in, s.now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, ErrOrderReferenceNotFound) {
			return nil, ErrOrderReferenceNotFound
		}
		log.Error().Err(err).Str("category", in.Category).Msg("service: failed to create ledger entry")
		return nil, fmt.Errorf("service: failed to create ledger entry: %w", err)
	}

	log.Info().
		Stringer("entry_id", e.ID).
		Stringer("kind", e.Kind).
		Str("category", e.Category).
		Str("amount", e.Amount.StringFixed(2)).
		Msg("service: ledger entry created")
	return e, nil
}

func (s *service) Summary(ctx context.Context, f Filter) (Summary, error) {
	sum, err := s.repo.Totals(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to sum ledger entries")
		return Summary{}, fmt.Errorf("service: failed to summarize ledger: %w", err)
	}
	sum.Balance = sum.Inflows.Sub(sum.Outflows)
	return sum, nil
}

// NewEntry builds an entry with a fresh id, defaulting the date to now (UTC).
func NewEntry(in EntryInput, now func() time.Time) (*Entry, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to generate entry id: %w", err)
	}

	date := now().UTC()
	if in.Date != nil {
		date = in.Date.UTC()
	}

	return &Entry{
		ID:       id,
		Kind:     in.Kind,
		Category: in.Category,
		Amount:   in.Amount,
		Date:     date,
		OrderID:  in.OrderID,
		Receipt:  in.Receipt,
	}, nil
}
