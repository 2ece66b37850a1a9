package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
)

type CreateOrderLineRequest struct {
	ProductID int64            `json:"productId" validate:"required,gt=0"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName *string                  `json:"customerName,omitempty" validate:"omitempty,max=200"`
	Lines        []CreateOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type TransitionRequest struct {
	TrackingCode *string          `json:"trackingCode,omitempty"`
	ShippingCost *decimal.Decimal `json:"shippingCost,omitempty"`
}

type PaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"gt=0"`
	Receipt *string         `json:"receipt,omitempty"`
	Date    string          `json:"date,omitempty"`
}

type OrderLineResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID int64            `json:"productId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	LineTotal decimal.Decimal  `json:"lineTotal"`
	Product   *ProductResponse `json:"product,omitempty"`
}

type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Number       string              `json:"number"`
	CustomerName *string             `json:"customerName,omitempty"`
	Status       order.Status        `json:"status"`
	TrackingCode *string             `json:"trackingCode,omitempty"`
	ShippingCost decimal.Decimal     `json:"shippingCost"`
	Total        decimal.Decimal     `json:"total"`
	Lines        []OrderLineResponse `json:"lines"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		line := OrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.Total(),
		}
		if l.Product != nil {
			p := newProductResponse(l.Product)
			line.Product = &p
		}
		lines = append(lines, line)
	}

	return OrderResponse{
		ID:           o.ID,
		Number:       o.Number,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		TrackingCode: o.TrackingCode,
		ShippingCost: o.ShippingCost,
		Total:        o.Total(),
		Lines:        lines,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

type PaymentStatusResponse struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Entries   []ledger.Entry  `json:"entries"`
}

type PaymentResponse struct {
	Entry    *ledger.Entry         `json:"entry"`
	Order    OrderResponse         `json:"order"`
	Payments PaymentStatusResponse `json:"payments"`
}

func newPaymentStatusResponse(s *order.PaymentStatus) PaymentStatusResponse {
	entries := s.Entries
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return PaymentStatusResponse{
		Total:     s.Total,
		Paid:      s.Paid,
		Remaining: s.Remaining,
		Entries:   entries,
	}
}

type OrderHandler struct {
	service  order.Service
	auth     *Auth
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, auth *Auth) *OrderHandler {
	return &OrderHandler{
		service:  service,
		auth:     auth,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/pedidos", h.handleListOrders)
	router.Post("/pedidos", h.handleCreateOrder)
	router.Get("/pedidos/{id}", h.handleGetOrder)
	router.Post("/pedidos/{id}/status", h.handleTransition)
	router.Get("/pedidos/{id}/pagamentos", h.handlePaymentStatus)
	router.Post("/pedidos/{id}/pagamentos", h.handleRegisterPayment)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.requireUser(r); err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}

	var requestPayload CreateOrderRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	in := order.CreateInput{CustomerName: requestPayload.CustomerName}
	for _, l := range requestPayload.Lines {
		in.Lines = append(in.Lines, order.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	created, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}
	respondWithJSON(w, http.StatusCreated, newOrderResponse(created))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var f order.Filter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			respondWithServiceError(w, err, "Failed to list orders")
			return
		}
		f.Status = &status
	}

	start, end, err := parseRange(r)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	f.Start, f.End = start, end

	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, newOrderResponse(&orders[i]))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *OrderHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("novo")
	target, err := order.ParseStatus(raw)
	if err != nil {
		log.Warn().Str("novo", raw).Msg("Failed to parse target status")
		respondWithServiceError(w, apperr.Validation("novo", "must be one of InProduction, Shipped, Completed, Cancelled"), "Failed to update order status")
		return
	}

	authErr := h.auth.requireUser(r)
	if target == order.StatusCancelled {
		authErr = h.auth.requireAdmin(r)
	}
	if authErr != nil {
		respondWithServiceError(w, authErr, "Failed to update order status")
		return
	}

	var requestPayload TransitionRequest
	if err := decodeJSON(r, &requestPayload, true); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updated, err := h.service.Transition(r.Context(), id, target, order.TransitionInput{
		TrackingCode: requestPayload.TrackingCode,
		ShippingCost: requestPayload.ShippingCost,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, newOrderResponse(updated))
}

func (h *OrderHandler) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.requireUser(r); err != nil {
		respondWithServiceError(w, err, "Failed to register payment")
		return
	}

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload PaymentRequest
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
		respondWithServiceError(w, apperr.Validation("date", "must be an RFC3339 timestamp or YYYY-MM-DD date"), "Failed to register payment")
		return
	}

	res, err := h.service.RegisterPayment(r.Context(), id, order.PaymentInput{
		Amount:  requestPayload.Amount,
		Receipt: requestPayload.Receipt,
		Date:    date,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to register payment")
		return
	}

	respondWithJSON(w, http.StatusCreated, PaymentResponse{
		Entry:    res.Entry,
		Order:    newOrderResponse(res.Order),
		Payments: newPaymentStatusResponse(&res.Status),
	})
}

func (h *OrderHandler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.service.PaymentStatus(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get payment status")
		return
	}
	respondWithJSON(w, http.StatusOK, newPaymentStatusResponse(status))
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}
