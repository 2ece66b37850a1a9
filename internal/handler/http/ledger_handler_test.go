package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/vasiliy-maslov/production-orders/internal/handler/http"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

func newLedgerHandler() (*handler.LedgerHandler, *MockLedgerService) {
	svc := new(MockLedgerService)
	return handler.NewLedgerHandler(svc, handler.NewAuth(new(MockUserService), false)), svc
}

func TestLedgerHandler_handleListEntries_Filters(t *testing.T) {
	h, svc := newLedgerHandler()
	orderID := uuid.Must(uuid.NewV4())
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	entry := ledger.Entry{
		ID:       uuid.Must(uuid.NewV4()),
		Kind:     ledger.KindOutflow,
		Category: ledger.CategoryFreight,
		Amount:   decimal.NewFromInt(5),
		Date:     start.Add(time.Hour),
		OrderID:  &orderID,
	}
	svc.On("ListEntries", mock.Anything, mock.MatchedBy(func(f ledger.Filter) bool {
		return f.Start != nil && f.Start.Equal(start) && f.End == nil &&
			f.OrderID != nil && *f.OrderID == orderID
	})).Return([]ledger.Entry{entry}, nil).Once()

	rr := serve(t, h, nil, jsonRequest(t, http.MethodGet, "/caixa/lancamentos?start=2025-03-01T07:00:00-03:00&orderId="+orderID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	entries := decodeBody[[]map[string]interface{}](t, rr)
	require.Len(t, entries, 1)
	assert.Equal(t, "Outflow", entries[0]["kind"])
	assert.Equal(t, "Freight", entries[0]["category"])
	assert.Equal(t, "5", entries[0]["amount"])
	assert.Equal(t, orderID.String(), entries[0]["orderId"])
	svc.AssertExpectations(t)
}

func TestLedgerHandler_handleListEntries_BadOrderID(t *testing.T) {
	h, svc := newLedgerHandler()

	rr := serve(t, h, nil, jsonRequest(t, http.MethodGet, "/caixa/lancamentos?orderId=123", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything)
}

func TestLedgerHandler_handleCreateEntry(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, svc := newLedgerHandler()
		created := &ledger.Entry{
			ID:       uuid.Must(uuid.NewV4()),
			Kind:     ledger.KindOutflow,
			Category: "Rent",
			Amount:   decimal.RequireFromString("1200.50"),
			Date:     time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		}
		svc.On("CreateEntry", mock.Anything, mock.MatchedBy(func(in ledger.EntryInput) bool {
			return in.Kind == ledger.KindOutflow && in.Category == "Rent" &&
				in.Amount.Equal(decimal.RequireFromString("1200.50")) &&
				in.Date != nil && in.Date.Equal(created.Date) && in.OrderID == nil
		})).Return(created, nil).Once()

		body := `{"kind":"Outflow","category":"Rent","amount":"1200.50","date":"2025-03-05"}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/caixa/lancamentos", body))
		require.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		h, svc := newLedgerHandler()

		body := `{"kind":"Sideways","category":"","amount":-3}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/caixa/lancamentos", body))
		require.Equal(t, http.StatusBadRequest, rr.Code)

		errorResponse := decodeBody[validationErrorBody](t, rr)
		assert.Contains(t, errorResponse.Details, "kind")
		assert.Contains(t, errorResponse.Details, "category")
		assert.Contains(t, errorResponse.Details, "amount")
		svc.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
	})

	t.Run("unknown_order", func(t *testing.T) {
		h, svc := newLedgerHandler()
		svc.On("CreateEntry", mock.Anything, mock.Anything).Return(nil, ledger.ErrOrderReferenceNotFound).Once()

		body := `{"kind":"Inflow","category":"Sale Revenue","amount":10,"orderId":"` + uuid.Must(uuid.NewV4()).String() + `"}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/caixa/lancamentos", body))
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLedgerHandler_handleSummary(t *testing.T) {
	h, svc := newLedgerHandler()
	end := time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC)

	svc.On("Summary", mock.Anything, mock.MatchedBy(func(f ledger.Filter) bool {
		return f.Start == nil && f.End != nil && f.End.Equal(end)
	})).Return(ledger.Summary{
		Inflows:  decimal.NewFromInt(60),
		Outflows: decimal.NewFromInt(29),
		Balance:  decimal.NewFromInt(31),
	}, nil).Once()

	rr := serve(t, h, nil, jsonRequest(t, http.MethodGet, "/caixa/resumo?end=2025-03-31", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"inflows":"60","outflows":"29","balance":"31"}`, rr.Body.String())
	svc.AssertExpectations(t)
}
