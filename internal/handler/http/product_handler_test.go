package http_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	handler "github.com/vasiliy-maslov/production-orders/internal/handler/http"
)

func newProductHandler(required bool) (*handler.ProductHandler, *MockCatalogService, *handler.Auth, *MockUserService) {
	svc := new(MockCatalogService)
	users := new(MockUserService)
	auth := handler.NewAuth(users, required)
	return handler.NewProductHandler(svc, auth), svc, auth, users
}

func TestProductHandler_handleListProducts_Success(t *testing.T) {
	h, svc, _, _ := newProductHandler(false)

	svc.On("ListActiveProducts", mock.Anything).Return([]catalog.Product{
		{ID: 1, Name: "SUPORTE_PEQUENO", SalePrice: decimal.RequireFromString("20.00"), UnitCost: decimal.RequireFromString("8.00"), Active: true},
	}, nil).Once()

	rr := serve(t, h, nil, jsonRequest(t, http.MethodGet, "/produtos", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	products := decodeBody[[]handler.ProductResponse](t, rr)
	require.Len(t, products, 1)
	assert.Equal(t, "SUPORTE_PEQUENO", products[0].Name)
	assert.True(t, decimal.RequireFromString("12").Equal(products[0].Margin), "margin mismatch: %s", products[0].Margin)
	svc.AssertExpectations(t)
}

func TestProductHandler_handleCreateProduct_Success(t *testing.T) {
	h, svc, _, _ := newProductHandler(false)

	svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in catalog.Input) bool {
		return in.Name == "SUPORTE_MEDIO" &&
			in.SalePrice.Equal(decimal.RequireFromString("27.5")) &&
			in.UnitCost.Equal(decimal.RequireFromString("11")) &&
			in.Active
	})).Return(&catalog.Product{
		ID:        3,
		Name:      "SUPORTE_MEDIO",
		SalePrice: decimal.RequireFromString("27.5"),
		UnitCost:  decimal.RequireFromString("11"),
		Active:    true,
	}, nil).Once()

	body := `{"name":"SUPORTE_MEDIO","salePrice":27.5,"unitCost":"11"}`
	rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/produtos", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	created := decodeBody[map[string]interface{}](t, rr)
	assert.Equal(t, float64(3), created["id"])
	assert.Equal(t, "27.5", created["salePrice"], "decimals are serialized as strings")
	assert.Equal(t, "16.5", created["margin"])
	svc.AssertExpectations(t)
}

func TestProductHandler_handleCreateProduct_ValidationError(t *testing.T) {
	h, svc, _, _ := newProductHandler(false)

	body := `{"name":"","salePrice":-1,"unitCost":2}`
	rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/produtos", body))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	errorResponse := decodeBody[validationErrorBody](t, rr)
	assert.Equal(t, "Validation failed", errorResponse.Error)
	assert.Contains(t, errorResponse.Details, "name")
	assert.Contains(t, errorResponse.Details, "salePrice")
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestProductHandler_handleCreateProduct_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"name": "P" "salePrice": 1}`},
		{name: "unknown_field", body: `{"name":"P","salePrice":1,"unitCost":1,"color":"red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, _, _ := newProductHandler(false)

			rr := serve(t, h, nil, jsonRequest(t, http.MethodPost, "/produtos", tt.body))
			require.Equal(t, http.StatusBadRequest, rr.Code)

			errorResponse := decodeBody[map[string]string](t, rr)
			assert.Contains(t, errorResponse["error"], "Invalid request payload")
			svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestProductHandler_handleUpdateProduct(t *testing.T) {
	t.Run("deactivate", func(t *testing.T) {
		h, svc, _, _ := newProductHandler(false)

		svc.On("UpdateProduct", mock.Anything, int64(1), mock.MatchedBy(func(in catalog.Input) bool {
			return !in.Active
		})).Return(&catalog.Product{ID: 1, Name: "P1", SalePrice: decimal.NewFromInt(20), UnitCost: decimal.NewFromInt(8)}, nil).Once()

		body := `{"name":"P1","salePrice":20,"unitCost":8,"active":false}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPut, "/produtos/1", body))
		require.Equal(t, http.StatusOK, rr.Code)

		updated := decodeBody[handler.ProductResponse](t, rr)
		assert.False(t, updated.Active)
		svc.AssertExpectations(t)
	})

	t.Run("not_found", func(t *testing.T) {
		h, svc, _, _ := newProductHandler(false)

		svc.On("UpdateProduct", mock.Anything, int64(99), mock.Anything).Return(nil, catalog.ErrProductNotFound).Once()

		body := `{"name":"P1","salePrice":20,"unitCost":8}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPut, "/produtos/99", body))
		require.Equal(t, http.StatusNotFound, rr.Code)

		errorResponse := decodeBody[map[string]string](t, rr)
		assert.Equal(t, "product not found", errorResponse["error"])
		svc.AssertExpectations(t)
	})

	t.Run("invalid_id", func(t *testing.T) {
		h, svc, _, _ := newProductHandler(false)

		body := `{"name":"P1","salePrice":20,"unitCost":8}`
		rr := serve(t, h, nil, jsonRequest(t, http.MethodPut, "/produtos/abc", body))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProductHandler_handleGetProduct_NotFound(t *testing.T) {
	h, svc, _, _ := newProductHandler(false)

	svc.On("GetProduct", mock.Anything, int64(7)).Return(nil, catalog.ErrProductNotFound).Once()

	rr := serve(t, h, nil, jsonRequest(t, http.MethodGet, "/produtos/7", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertExpectations(t)
}

func TestProductHandler_handleCreateProduct_RequiresActor(t *testing.T) {
	h, svc, auth, _ := newProductHandler(true)

	body := `{"name":"P","salePrice":1,"unitCost":1}`
	rr := serve(t, h, auth.Middleware, jsonRequest(t, http.MethodPost, "/produtos", body))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}
