package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PosTerminal/app/config"
	"PosTerminal/app/database"
	"PosTerminal/app/models"
	"PosTerminal/app/services"
)

type testEnv struct {
	store   *database.Store
	server  *Server
	http    *httptest.Server
	auth    *services.AuthService
	kitchen *services.KitchenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "pos.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := database.SeedInitialData(conn); err != nil {
		t.Fatalf("SeedInitialData: %v", err)
	}
	store := database.NewStore(conn)

	base := services.NewBaseService(nil, nil)
	categories := services.NewCategoryService(store, base)
	products := services.NewProductService(store, categories, base, 10)
	kitchen := services.NewKitchenService(store, base)
	auth := services.NewAuthService(store, base, "test-secret", time.Hour)

	server := NewServer(0, false)
	server.SetRESTHandlers(NewRESTHandlers(categories, products, kitchen, auth))
	kitchen.SetBroadcaster(server)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &testEnv{store: store, server: server, http: ts, auth: auth, kitchen: kitchen}
}

func (e *testEnv) token(t *testing.T, username, password string) string {
	t.Helper()
	session, err := e.auth.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	return session.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.http.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func categoryIDs(categories []models.Category) string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return strings.Join(ids, ",")
}

func TestGetCategoriesReturnsDisplayOrderWithCounts(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/categories", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q", got)
	}

	categories := decode[[]models.Category](t, resp)
	if got := categoryIDs(categories); got != "1,2,3,4,5" {
		t.Fatalf("order = %s, want 1,2,3,4,5", got)
	}
	if categories[0].Count != 3 || categories[1].Count != 1 || categories[2].Count != 0 {
		t.Errorf("counts = %d,%d,%d, want 3,1,0", categories[0].Count, categories[1].Count, categories[2].Count)
	}
}

func TestReorderRequiresCatalogPermission(t *testing.T) {
	env := newTestEnv(t)
	body := ReorderRequest{IDs: []string{"5", "4", "3", "2", "1"}}

	if resp := env.do(t, http.MethodPost, "/api/categories/reorder", "", body); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", resp.StatusCode)
	}
	cashier := env.token(t, "cashier", "cashier123")
	if resp := env.do(t, http.MethodPost, "/api/categories/reorder", cashier, body); resp.StatusCode != http.StatusForbidden {
		t.Errorf("cashier status = %d, want 403", resp.StatusCode)
	}

	admin := env.token(t, "admin", "admin123")
	resp := env.do(t, http.MethodPost, "/api/categories/reorder", admin, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", resp.StatusCode)
	}
	if got := categoryIDs(decode[[]models.Category](t, resp)); got != "5,4,3,2,1" {
		t.Errorf("response order = %s", got)
	}

	stored, err := env.store.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if got := categoryIDs(stored); got != "5,4,3,2,1" {
		t.Errorf("stored order = %s, want 5,4,3,2,1", got)
	}
}

func TestReorderRejectsPartialPermutation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin", "admin123")
	resp := env.do(t, http.MethodPost, "/api/categories/reorder", admin, ReorderRequest{IDs: []string{"2", "1"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetProductsFiltersByCategory(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", 4},
		{"?category=1", 3},
		{"?category=2", 1},
		{"?category=3", 0},
		{"?q=cf0", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/products"+tt.query, "", nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if got := len(decode[[]models.Product](t, resp)); got != tt.want {
				t.Errorf("got %d products, want %d", got, tt.want)
			}
		})
	}
}

func checkout(t *testing.T, env *testEnv) *models.Order {
	t.Helper()
	ctx := context.Background()
	product, err := env.store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	cart := services.NewCartService(services.DefaultTaxRate)
	cart.AddToCart(*product)
	order, err := env.kitchen.Checkout(ctx, cart, "T1", "2")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	return order
}

func TestAdvanceOrderOverREST(t *testing.T) {
	env := newTestEnv(t)
	order := checkout(t, env)
	path := "/api/kitchen/orders/" + order.ID + "/advance"

	cashier := env.token(t, "cashier", "cashier123")
	if resp := env.do(t, http.MethodPost, path, cashier, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("cashier status = %d, want 403", resp.StatusCode)
	}

	cook := env.token(t, "kitchen", "kitchen123")
	resp := env.do(t, http.MethodPost, path, cook, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("kitchen status = %d, want 200", resp.StatusCode)
	}
	if got := decode[models.Order](t, resp).Status; got != models.OrderStatusPreparing {
		t.Errorf("status = %s, want preparing", got)
	}

	board := decode[services.KitchenBoard](t, env.do(t, http.MethodGet, "/api/kitchen/orders", "", nil))
	if len(board.Pending) != 0 || len(board.Preparing) != 1 {
		t.Errorf("board = %d pending / %d preparing, want 0 / 1", len(board.Pending), len(board.Preparing))
	}

	if resp := env.do(t, http.MethodPost, "/api/kitchen/orders/missing/advance", cook, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown order status = %d, want 404", resp.StatusCode)
	}
}

func TestOrderQRIsPNG(t *testing.T) {
	env := newTestEnv(t)
	order := checkout(t, env)

	resp := env.do(t, http.MethodGet, "/api/kitchen/orders/"+order.ID+"/qr?size=128", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Identifier: "admin@pos.com", Password: "admin123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	session := decode[services.Session](t, resp)
	if _, err := env.auth.ParseToken(session.Token); err != nil {
		t.Errorf("returned token does not parse: %v", err)
	}

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Identifier: "admin", Password: "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", resp.StatusCode)
	}
}

func TestPreflight(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodOptions, "/api/categories/reorder", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("allow headers = %q", got)
	}
}
