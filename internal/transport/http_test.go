package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
	"github.com/vasiliy-maslov/production-orders/internal/ledger"
	"github.com/vasiliy-maslov/production-orders/internal/order"
	"github.com/vasiliy-maslov/production-orders/internal/store/memory"
	"github.com/vasiliy-maslov/production-orders/internal/transport"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

func newServer(t *testing.T, authRequired bool) *httptest.Server {
	t.Helper()

	st := memory.New()
	products := catalog.NewService(st.Products())
	require.NoError(t, products.SeedDefaults(context.Background()))

	srv := httptest.NewServer(transport.NewRouter(transport.Services{
		Catalog: products,
		Orders:  order.NewService(st),
		Ledger:  ledger.NewService(st.Ledger()),
		Users:   user.NewService(st.Users()),
	}, authRequired))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, actor string, body string) (int, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-User-Name", actor)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func TestRouter_Health(t *testing.T) {
	srv := newServer(t, false)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_OrderLifecycle(t *testing.T) {
	srv := newServer(t, false)

	status, created := call(t, srv, http.MethodPost, "/api/pedidos", "", `{"customerName":"Maria","lines":[{"productId":1,"quantity":3}]}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "60", created["total"])
	assert.Equal(t, "InProduction", created["status"])
	id := created["id"].(string)

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Completed", "", "")
	require.Equal(t, http.StatusBadRequest, status, "InProduction cannot jump to Completed")

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Shipped", "", `{"shippingCost":5}`)
	require.Equal(t, http.StatusBadRequest, status, "shipping requires a tracking code")

	status, shipped := call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Shipped", "", `{"trackingCode":"BR123","shippingCost":5}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BR123", shipped["trackingCode"])

	status, completed := call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Completed", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Completed", completed["status"])

	status, summary := call(t, srv, http.MethodGet, "/api/caixa/resumo", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "60", summary["inflows"])
	assert.Equal(t, "29", summary["outflows"])
	assert.Equal(t, "31", summary["balance"])

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Cancelled", "", "")
	require.Equal(t, http.StatusBadRequest, status, "Completed is terminal")
}

func TestRouter_CancelRemovesLedgerEntries(t *testing.T) {
	srv := newServer(t, false)

	status, created := call(t, srv, http.MethodPost, "/api/pedidos", "", `{"lines":[{"productId":2,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, status)
	id := created["id"].(string)

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Cancelled", "", "")
	require.Equal(t, http.StatusOK, status)

	status, summary := call(t, srv, http.MethodGet, "/api/caixa/resumo", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", summary["balance"])
}

func TestRouter_AuthRequired(t *testing.T) {
	srv := newServer(t, true)

	status, _ := call(t, srv, http.MethodPost, "/api/usuarios", "", `{"name":"ana","role":"Admin"}`)
	require.Equal(t, http.StatusCreated, status, "the first user is created without an actor")

	status, _ = call(t, srv, http.MethodPost, "/api/usuarios", "", `{"name":"joao","role":"RegularUser"}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, srv, http.MethodPost, "/api/usuarios", "ana", `{"name":"joao","role":"RegularUser"}`)
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos", "", `{"lines":[{"productId":1,"quantity":1}]}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, created := call(t, srv, http.MethodPost, "/api/pedidos", "joao", `{"lines":[{"productId":1,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, status)
	id := created["id"].(string)

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Cancelled", "joao", "")
	require.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, srv, http.MethodPost, "/api/pedidos/"+id+"/status?novo=Cancelled", "ana", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/api/produtos", "", "")
	require.Equal(t, http.StatusOK, status, "reads stay open")
}
