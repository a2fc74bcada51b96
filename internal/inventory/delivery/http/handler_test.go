package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tair/supply-ledger/internal/inventory/ledger"
	"github.com/tair/supply-ledger/internal/inventory/repository"
	"github.com/tair/supply-ledger/internal/inventory/usecase/command"
	"github.com/tair/supply-ledger/internal/inventory/usecase/query"
	"github.com/tair/supply-ledger/pkg/auth"
)

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memoryIdempotency) Claim(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[scope+"/"+key] {
		return false, nil
	}
	m.keys[scope+"/"+key] = true
	return true, nil
}

func (m *memoryIdempotency) Forget(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+"/"+key)
	return nil
}

type testServer struct {
	handler  *InventoryHandler
	router   *mux.Router
	tokens   *auth.TokenManager
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repository.NewMemoryRepository()
	engine := ledger.New(repo)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	reg := prometheus.NewRegistry()

	h := NewInventoryHandler(
		Commands{
			CreateItem:       command.NewCreateItemHandler(engine),
			UpdateItem:       command.NewUpdateItemHandler(engine),
			DeactivateItem:   command.NewDeactivateItemHandler(engine),
			ApplyTransaction: command.NewApplyTransactionHandler(engine),
			CreateCategory:   command.NewCreateCategoryHandler(repo),
		},
		Queries{
			GetItem:            query.NewGetItemHandler(repo),
			ListItems:          query.NewListItemsHandler(repo),
			ListTransactions:   query.NewListTransactionsHandler(repo),
			ListCategories:     query.NewListCategoriesHandler(repo),
			InventorySummary:   query.NewInventorySummaryHandler(repo),
			TransactionSummary: query.NewTransactionSummaryHandler(repo),
			LowStock:           query.NewLowStockHandler(repo),
			CategoryRollup:     query.NewCategoryRollupHandler(repo),
			ClassifyStock:      query.NewClassifyStockHandler(),
		},
		tokens,
		&memoryIdempotency{keys: map[string]bool{}},
		nil,
		reg,
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	h.RegisterHealthCheck(router, repo)
	return &testServer{handler: h, router: router, tokens: tokens, registry: reg}
}

func (s *testServer) token(t *testing.T, tenant, role string) string {
	t.Helper()
	tok, err := s.tokens.GenerateToken("user-"+role, role, tenant, role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return tok
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	headers map[string]string
}

type decoded struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, c call) (int, decoded) {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp decoded
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func (s *testServer) createItem(t *testing.T, token string, quantity int) string {
	t.Helper()
	code, resp := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/inventory/items",
		token:  token,
		body: map[string]interface{}{
			"name":          "Pencil",
			"quantity":      quantity,
			"min_threshold": 5,
			"max_threshold": 100,
			"unit_cost":     "0.50",
		},
	})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, resp.Error)
	}

	var data struct {
		Item struct {
			ID string `json:"id"`
		} `json:"item"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}
	return data.Item.ID
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"forged token", "not-a-jwt", http.StatusUnauthorized},
		{"valid token", s.token(t, "school-1", auth.RoleStaff), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items", token: tt.token})
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestListItemsPaging(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	for i := 0; i < 3; i++ {
		s.createItem(t, staff, 1)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?limit=2", 2},
		{"?limit=9223372036854775807&offset=1", 2},
		{"?limit=-1&offset=-4", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, resp := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items" + tt.query, token: staff})
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", code, resp.Error)
			}
			var items []json.RawMessage
			if err := json.Unmarshal(resp.Data, &items); err != nil {
				t.Fatalf("failed to decode items: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(items))
			}
		})
	}

	code, _ := s.do(t, call{method: http.MethodGet, path: "/api/inventory/transactions?limit=9223372036854775807&offset=1", token: staff})
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		raw           string
		limit, offset int
	}{
		{"", maxPageSize, 0},
		{"limit=10&offset=20", 10, 20},
		{"limit=100000", maxPageSize, 0},
		{"limit=abc&offset=-3", maxPageSize, 0},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.raw)
		limit, offset := pageParams(q)
		if limit != tt.limit || offset != tt.offset {
			t.Errorf("pageParams(%q) = %d, %d; want %d, %d", tt.raw, limit, offset, tt.limit, tt.offset)
		}
	}
}

func TestCreateAndGetItem(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	id := s.createItem(t, staff, 3)

	code, resp := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items/" + id, token: staff})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var view struct {
		Quantity    int    `json:"quantity"`
		StockStatus string `json:"stock_status"`
		TotalValue  string `json:"total_value"`
	}
	if err := json.Unmarshal(resp.Data, &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Quantity != 3 || view.StockStatus != "low_stock" || view.TotalValue != "1.5" {
		t.Errorf("unexpected view: %+v", view)
	}

	// other tenants cannot see the item
	other := s.token(t, "school-2", auth.RoleStaff)
	if code, _ := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items/" + id, token: other}); code != http.StatusNotFound {
		t.Errorf("expected 404 across tenants, got %d", code)
	}
}

func TestApplyTransactionErrors(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	id := s.createItem(t, staff, 4)
	path := "/api/inventory/items/" + id + "/transactions"

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		want int
	}{
		{"check-out within stock", path, map[string]interface{}{"type": "check-out", "quantity": 3}, http.StatusCreated},
		{"invalid type", path, map[string]interface{}{"type": "borrow", "quantity": 1}, http.StatusBadRequest},
		{"zero quantity", path, map[string]interface{}{"type": "check-in", "quantity": 0}, http.StatusBadRequest},
		{"unknown item", "/api/inventory/items/missing/transactions", map[string]interface{}{"type": "check-in", "quantity": 1}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := s.do(t, call{method: http.MethodPost, path: tt.path, token: staff, body: tt.body})
			if code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, code, resp.Error)
			}
		})
	}
}

func TestApplyTransactionInsufficientStock(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	id := s.createItem(t, staff, 4)

	code, resp := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/inventory/items/" + id + "/transactions",
		token:  staff,
		body:   map[string]interface{}{"type": "check-out", "quantity": 6},
	})
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}

	var data struct {
		Available int `json:"available"`
		Requested int `json:"requested"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Available != 4 || data.Requested != 6 {
		t.Errorf("expected available 4 requested 6, got %+v", data)
	}
}

func TestApplyTransactionIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	id := s.createItem(t, staff, 10)
	path := "/api/inventory/items/" + id + "/transactions"

	send := func(key string, quantity int) int {
		code, _ := s.do(t, call{
			method:  http.MethodPost,
			path:    path,
			token:   staff,
			body:    map[string]interface{}{"type": "check-out", "quantity": quantity},
			headers: map[string]string{"Idempotency-Key": key},
		})
		return code
	}

	if code := send("k1", 1); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := send("k1", 1); code != http.StatusConflict {
		t.Errorf("expected duplicate to be rejected, got %d", code)
	}

	// a failed attempt does not burn its key
	if code := send("k2", 50); code != http.StatusConflict {
		t.Fatalf("expected insufficient stock, got %d", code)
	}
	if code := send("k2", 1); code != http.StatusCreated {
		t.Errorf("expected retry with same key to succeed, got %d", code)
	}

	_, resp := s.do(t, call{method: http.MethodGet, path: "/api/inventory/items/" + id, token: staff})
	var view struct {
		Quantity int `json:"quantity"`
	}
	json.Unmarshal(resp.Data, &view)
	if view.Quantity != 8 {
		t.Errorf("expected quantity 8, got %d", view.Quantity)
	}
}

func TestDeactivateRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	teacher := s.token(t, "school-1", auth.RoleTeacher)
	admin := s.token(t, "school-1", auth.RoleAdmin)
	id := s.createItem(t, admin, 1)

	if code, _ := s.do(t, call{method: http.MethodDelete, path: "/api/inventory/items/" + id, token: teacher}); code != http.StatusForbidden {
		t.Errorf("expected 403 for teacher, got %d", code)
	}
	if code, _ := s.do(t, call{method: http.MethodDelete, path: "/api/inventory/items/" + id, token: admin}); code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", code)
	}
	// inactive items reject further movements
	code, _ := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/inventory/items/" + id + "/transactions",
		token:  admin,
		body:   map[string]interface{}{"type": "check-in", "quantity": 1},
	})
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for inactive item, got %d", code)
	}
}

func TestUpdateItemRejectsBadThresholds(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	id := s.createItem(t, staff, 10)

	code, _ := s.do(t, call{
		method: http.MethodPatch,
		path:   "/api/inventory/items/" + id,
		token:  staff,
		body:   map[string]interface{}{"min_threshold": 50, "max_threshold": 10},
	})
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}

	code, resp := s.do(t, call{
		method: http.MethodPatch,
		path:   "/api/inventory/items/" + id,
		token:  staff,
		body:   map[string]interface{}{"quantity": 7},
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var result struct {
		Transaction struct {
			Type     string `json:"type"`
			Quantity int    `json:"quantity"`
		} `json:"transaction"`
	}
	json.Unmarshal(resp.Data, &result)
	if result.Transaction.Type != "adjustment" || result.Transaction.Quantity != -3 {
		t.Errorf("unexpected adjustment: %+v", result.Transaction)
	}
}

func TestListTransactionsRejectsBadRange(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)

	code, _ := s.do(t, call{method: http.MethodGet, path: "/api/inventory/transactions?from=yesterday", token: staff})
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestClassifyStock(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)

	tests := []struct {
		query string
		code  int
		want  string
	}{
		{"quantity=0&min=5&max=100", http.StatusOK, "out_of_stock"},
		{"quantity=5&min=5&max=100", http.StatusOK, "low_stock"},
		{"quantity=50&min=5&max=100", http.StatusOK, "in_stock"},
		{"quantity=100&min=5&max=100", http.StatusOK, "overstock"},
		{"quantity=abc&min=5&max=100", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, resp := s.do(t, call{method: http.MethodGet, path: "/api/inventory/classify?" + tt.query, token: staff})
			if code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, code)
			}
			if tt.want == "" {
				return
			}
			var data struct {
				Status string `json:"status"`
			}
			json.Unmarshal(resp.Data, &data)
			if data.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, data.Status)
			}
		})
	}
}

func TestReportsEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	s.createItem(t, staff, 2)

	for _, path := range []string{
		"/api/inventory/reports/summary",
		"/api/inventory/reports/transactions",
		"/api/inventory/reports/low-stock",
		"/api/inventory/reports/categories",
	} {
		t.Run(path, func(t *testing.T) {
			code, resp := s.do(t, call{method: http.MethodGet, path: path, token: staff})
			if code != http.StatusOK || !resp.Success {
				t.Errorf("expected 200, got %d: %s", code, resp.Error)
			}
		})
	}
}

func TestRequestMetrics(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(t, "school-1", auth.RoleStaff)
	s.do(t, call{method: http.MethodGet, path: "/api/inventory/items/nope", token: staff})

	counter := s.handler.metrics.requestCounter.WithLabelValues(http.MethodGet, "/api/inventory/items/{id}", "404")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Errorf("expected one 404 on the route template, got %v", got)
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, call{method: http.MethodGet, path: "/health"}); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}

	h := &InventoryHandler{}
	router := mux.NewRouter()
	h.RegisterHealthCheck(router, downStore{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
