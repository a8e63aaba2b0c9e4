// README: HTTP-level tests for the order endpoints against in-memory stores.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"homely/internal/config"
	httptransport "homely/internal/http"
	"homely/internal/modules/bidding"
	"homely/internal/modules/catalog"
	"homely/internal/modules/order"
	"homely/internal/modules/pricing"
	"homely/internal/modules/provider"
	"homely/internal/types"
)

type stubCatalog struct{}

func (stubCatalog) Get(_ context.Context, id types.ID) (catalog.Service, error) {
	if id != "svc1" {
		return catalog.Service{}, catalog.ErrNotFound
	}
	return catalog.Service{
		ID:              "svc1",
		Name:            "deep cleaning",
		BasePrice:       types.Cents(150_00),
		DurationMinutes: 120,
		AllowBidding:    true,
	}, nil
}

type stubProviders struct{}

func (stubProviders) Get(_ context.Context, id types.ID) (provider.Provider, error) {
	return provider.Provider{ID: id, InterventionRadiusKm: 10, PricePerExtraKm: types.Cents(5_00)}, nil
}

func (stubProviders) SetAvailability(context.Context, types.ID, bool) error { return nil }

func (stubProviders) IncrementCancellations(context.Context, types.ID) error { return nil }

func (stubProviders) NearbyAvailable(context.Context, types.Point, float64) ([]types.ID, error) {
	return nil, nil
}

type stubGeo struct{ km float64 }

func (g stubGeo) DistanceKm(context.Context, types.Point, types.Point) (float64, error) {
	return g.km, nil
}

func buildTestRouter() http.Handler {
	orderStore := order.NewMemStore()
	orderSvc := order.NewService(orderStore, order.Deps{
		Catalog:   stubCatalog{},
		Providers: stubProviders{},
		Rates:     pricing.NewService(nil),
		Geo:       stubGeo{km: 15},
		Cancel:    config.CancelPolicy{FreeBeforeHours: 4},
	})
	bidStore := bidding.NewMemStore(orderStore)
	biddingSvc := bidding.NewService(bidStore, orderSvc, orderSvc)
	return httptransport.NewRouter(httptransport.RouterDeps{
		Order:     orderSvc,
		Bidding:   biddingSvc,
		Pricing:   pricing.NewService(nil),
		Providers: stubProviders{},
		Log:       zap.NewNop(),
	})
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func scheduledAt() string {
	return time.Date(2030, 6, 12, 14, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/orders", map[string]any{
		"client_id":      "c1",
		"service_id":     "svc1",
		"city":           "lyon",
		"lat":            45.75,
		"lng":            4.85,
		"scheduled_at":   scheduledAt(),
		"formula":        "urgent",
		"payment_method": "card",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	orderID, _ := decodeJSON(t, w)["order_id"].(string)
	if orderID == "" {
		t.Fatal("create response missing order_id")
	}

	steps := []struct {
		path string
		body map[string]any
		want int
	}{
		{"/accept", map[string]any{"provider_id": "p1"}, http.StatusOK},
		{"/depart", map[string]any{"provider_id": "p1"}, http.StatusOK},
		{"/arrive", map[string]any{"client_id": "c1"}, http.StatusOK},
		{"/complete", map[string]any{"provider_id": "p1"}, http.StatusOK},
		{"/finalize", map[string]any{"client_id": "c1", "tip_cents": 0}, http.StatusOK},
	}
	for _, step := range steps {
		w = doRequest(t, r, http.MethodPost, "/api/orders/"+orderID+step.path, step.body)
		if w.Code != step.want {
			t.Fatalf("%s: expected %d, got %d: %s", step.path, step.want, w.Code, w.Body.String())
		}
	}

	w = doRequest(t, r, http.MethodGet, "/api/orders/"+orderID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	resp := decodeJSON(t, w)
	if resp["status"] != string(order.StatusCompleted) {
		t.Errorf("status = %v, want completed", resp["status"])
	}
	// base 150 + urgent 50 + extra 5km at 5/km = 225; 20% commission.
	breakdown, _ := resp["breakdown"].(map[string]any)
	total, _ := breakdown["total"].(map[string]any)
	if total["cents"] != float64(225_00) {
		t.Errorf("total = %v, want 22500", total["cents"])
	}
	commission, _ := resp["commission"].(map[string]any)
	if commission["cents"] != float64(45_00) {
		t.Errorf("commission = %v, want 4500", commission["cents"])
	}
}

func TestOrderErrorMapping(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(t, r, http.MethodGet, "/api/orders/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown order: expected 404, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/orders", map[string]any{
		"client_id":    "c1",
		"service_id":   "svc1",
		"city":         "lyon",
		"scheduled_at": scheduledAt(),
		"formula":      "gold",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown formula: expected 400, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/orders", map[string]any{
		"client_id":    "c1",
		"service_id":   "svc1",
		"city":         "lyon",
		"scheduled_at": "tomorrow",
		"formula":      "standard",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timestamp: expected 400, got %d", w.Code)
	}

	// Double accept: the second provider hits the conflict path.
	w = doRequest(t, r, http.MethodPost, "/api/orders", map[string]any{
		"client_id":      "c1",
		"service_id":     "svc1",
		"city":           "lyon",
		"scheduled_at":   scheduledAt(),
		"formula":        "standard",
		"payment_method": "card",
	})
	orderID, _ := decodeJSON(t, w)["order_id"].(string)
	w = doRequest(t, r, http.MethodPost, "/api/orders/"+orderID+"/accept", map[string]any{"provider_id": "p1"})
	if w.Code != http.StatusOK {
		t.Fatalf("first accept: expected 200, got %d", w.Code)
	}
	w = doRequest(t, r, http.MethodPost, "/api/orders/"+orderID+"/accept", map[string]any{"provider_id": "p2"})
	if w.Code != http.StatusConflict {
		t.Errorf("second accept: expected 409, got %d", w.Code)
	}
}

func TestBiddingFlowOverHTTP(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/orders/bidding", map[string]any{
		"client_id":            "c1",
		"service_id":           "svc1",
		"city":                 "lyon",
		"scheduled_at":         scheduledAt(),
		"formula":              "standard",
		"proposed_price_cents": 100_00,
		"bid_expiry_hours":     24,
		"payment_method":       "card",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create bidding order: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	orderID, _ := decodeJSON(t, w)["order_id"].(string)

	w = doRequest(t, r, http.MethodPost, "/api/orders/"+orderID+"/bids", map[string]any{
		"provider_id":          "p1",
		"proposed_price_cents": 90_00,
		"eta_minutes":          45,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("place bid: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	bidID, _ := decodeJSON(t, w)["bid_id"].(string)

	w = doRequest(t, r, http.MethodPost, "/api/bids/"+bidID+"/accept", map[string]any{"client_id": "c1"})
	if w.Code != http.StatusOK {
		t.Fatalf("accept bid: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodGet, "/api/orders/"+orderID, nil)
	resp := decodeJSON(t, w)
	if resp["status"] != string(order.StatusAccepted) {
		t.Errorf("order status = %v, want accepted", resp["status"])
	}
	if resp["provider_id"] != "p1" {
		t.Errorf("provider_id = %v, want p1", resp["provider_id"])
	}
}

func TestQuotePreview(t *testing.T) {
	r := buildTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/quotes", map[string]any{
		"city":             "lyon",
		"base_price_cents": 150_00,
		"formula":          "premium",
		"scheduled_at":     scheduledAt(),
		"duration_minutes": 120,
		"distance_km":      15,
		"distance_known":   true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("quote: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeJSON(t, w)
	total, _ := resp["total"].(map[string]any)
	// base 150 + 30% premium 45 + 5 extra km at the default 5/km = 220.
	if total["cents"] != float64(220_00) {
		t.Errorf("total = %v, want 22000", total["cents"])
	}
}
