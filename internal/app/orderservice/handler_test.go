package orderservice

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.platform.alem.school/amibragim/quickserve/internal/app/factory"
	"git.platform.alem.school/amibragim/quickserve/internal/app/orchestrator"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/memory"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.NewLoggerWithWriter("test", io.Discard, logger.LevelError)
	repo := memory.NewOrdersRepo()
	registry := factory.NewDefaultRegistry(factory.NewTableAllocator(5), factory.NewLaneAllocator(2))
	orc := orchestrator.New(registry, repo, log)

	mux := http.NewServeMux()
	NewHandler(orc, repo, log).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createDineIn(t *testing.T, srv *httptest.Server) orderResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/orders", map[string]any{
		"channel":     "dine_in",
		"customer_id": "cust-1",
		"party_size":  2,
		"items": []map[string]any{
			{"name": "Burger", "quantity": 2, "unit_price": 4.50},
			{"name": "Fries", "quantity": 1, "unit_price": 1.00},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[orderResponse](t, resp)
}

func TestHandleCreate(t *testing.T) {
	srv := testServer(t)

	order := createDineIn(t, srv)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "dine_in", order.Channel)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "10.00", order.Subtotal)
	assert.Equal(t, "0.80", order.TaxAmount)
	assert.Equal(t, "10.80", order.Total)
	assert.Equal(t, 12, order.PrepTimeMin)
}

func TestHandleCreate_UnknownChannel(t *testing.T) {
	srv := testServer(t)

	resp := postJSON(t, srv.URL+"/orders", map[string]any{
		"channel": "pigeon",
		"items":   []map[string]any{{"name": "Burger", "quantity": 1, "unit_price": 4.50}},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreate_RejectsUnknownFields(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/orders", "application/json",
		bytes.NewReader([]byte(`{"channel":"takeout","surprise":true}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreate_RejectsWrongContentType(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/orders", "text/plain", bytes.NewReader([]byte("channel=takeout")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestHandleGet(t *testing.T) {
	srv := testServer(t)
	created := createDineIn(t, srv)

	resp, err := http.Get(srv.URL + "/orders/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[orderResponse](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Total, got.Total)
}

func TestHandleGet_NotFound(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/orders/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleAdvance(t *testing.T) {
	srv := testServer(t)
	created := createDineIn(t, srv)

	resp := postJSON(t, srv.URL+"/orders/"+created.ID+"/advance", map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[orderResponse](t, resp)
	assert.Equal(t, "confirmed", got.Status)
}

func TestHandleAdvance_IllegalTransition(t *testing.T) {
	srv := testServer(t)
	created := createDineIn(t, srv)

	resp := postJSON(t, srv.URL+"/orders/"+created.ID+"/advance", map[string]any{"status": "ready"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandleCancel(t *testing.T) {
	srv := testServer(t)
	created := createDineIn(t, srv)

	resp := postJSON(t, srv.URL+"/orders/"+created.ID+"/cancel", map[string]any{"reason": "changed mind"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[orderResponse](t, resp)
	assert.Equal(t, "cancelled", got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestHandleHistory(t *testing.T) {
	srv := testServer(t)
	created := createDineIn(t, srv)

	resp := postJSON(t, srv.URL+"/orders/"+created.ID+"/advance", map[string]any{"status": "confirmed"})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/orders/" + created.ID + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	type entry struct {
		Status    string `json:"status"`
		ChangedAt string `json:"changed_at"`
	}
	history := decodeBody[[]entry](t, resp)
	require.Len(t, history, 2)
	assert.Equal(t, "created", history[0].Status)
	assert.Equal(t, "confirmed", history[1].Status)
}
