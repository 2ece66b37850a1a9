package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
)

type CreateEntryRequest struct {
	Kind     ledger.Kind     `json:"kind" validate:"required,oneof=Inflow Outflow"`
	Category string          `json:"category" validate:"required,max=100"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Date     string          `json:"date,omitempty"`
	OrderID  *uuid.UUID      `json:"orderId,omitempty"`
	Receipt  *string         `json:"receipt,omitempty"`
}

type LedgerHandler struct {
	service  ledger.Service
	auth     *Auth
	validate *validator.Validate
}

func NewLedgerHandler(service ledger.Service, auth *Auth) *LedgerHandler {
	return &LedgerHandler{
		service:  service,
		auth:     auth,
		validate: newValidator(),
	}
}

func (h *LedgerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/caixa/lancamentos", h.handleListEntries)
	router.Post("/caixa/lancamentos", h.handleCreateEntry)
	router.Get("/caixa/resumo", h.handleSummary)
}

func (h *LedgerHandler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list ledger entries")
		return
	}
	f := ledger.Filter{Start: start, End: end}

	if raw := r.URL.Query().Get("orderId"); raw != "" {
		orderID, err := uuid.FromString(raw)
		if err != nil {
			respondWithServiceError(w, apperr.Validation("orderId", "must be a UUID"), "Failed to list ledger entries")
			return
		}
		f.OrderID = &orderID
	}

	entries, err := h.service.ListEntries(r.Context(), f)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list ledger entries")
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *LedgerHandler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.requireUser(r); err != nil {
		respondWithServiceError(w, err, "Failed to create ledger entry")
		return
	}

	var requestPayload CreateEntryRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	date, err := parseDate(requestPayload.Date, false)
	if err != nil {
		respondWithServiceError(w, apperr.Validation("date", "must be an RFC3339 timestamp or YYYY-MM-DD date"), "Failed to create ledger entry")
		return
	}

	created, err := h.service.CreateEntry(r.Context(), ledger.EntryInput{
		Kind:     requestPayload.Kind,
		Category: requestPayload.Category,
		Amount:   requestPayload.Amount,
		Date:     date,
		OrderID:  requestPayload.OrderID,
		Receipt:  requestPayload.Receipt,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create ledger entry")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *LedgerHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to summarize ledger")
		return
	}

	summary, err := h.service.Summary(r.Context(), ledger.Filter{Start: start, End: end})
	if err != nil {
		respondWithServiceError(w, err, "Failed to summarize ledger")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}
