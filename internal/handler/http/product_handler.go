package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type ProductRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	SalePrice decimal.Decimal `json:"salePrice" validate:"gte=0"`
	UnitCost  decimal.Decimal `json:"unitCost" validate:"gte=0"`
	Active    *bool           `json:"active,omitempty"`
}

type ProductResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"salePrice"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	Margin    decimal.Decimal `json:"margin"`
	Active    bool            `json:"active"`
}

func newProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		SalePrice: p.SalePrice,
		UnitCost:  p.UnitCost,
		Margin:    p.Margin(),
		Active:    p.Active,
	}
}

type ProductHandler struct {
	service  catalog.Service
	auth     *Auth
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service, auth *Auth) *ProductHandler {
	return &ProductHandler{
		service:  service,
		auth:     auth,
		validate: newValidator(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/produtos", h.handleListProducts)
	router.Get("/produtos/{id}", h.handleGetProduct)
	router.Post("/produtos", h.handleCreateProduct)
	router.Put("/produtos/{id}", h.handleUpdateProduct)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListActiveProducts(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for i := range products {
		response = append(response, newProductResponse(&products[i]))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.requireUser(r); err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}

	var requestPayload ProductRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), requestPayload.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, newProductResponse(created))
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.requireUser(r); err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}

	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload ProductRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), id, requestPayload.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, newProductResponse(updated))
}

// input defaults Active to true when the field is omitted.
func (p ProductRequest) input() catalog.Input {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return catalog.Input{
		Name:      p.Name,
		SalePrice: p.SalePrice,
		UnitCost:  p.UnitCost,
		Active:    active,
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str("product_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}
