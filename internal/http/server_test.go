package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/02loveslollipop/parkwatch/internal/config"
	"github.com/02loveslollipop/parkwatch/internal/db"
	"github.com/02loveslollipop/parkwatch/internal/models"
	"github.com/02loveslollipop/parkwatch/internal/query"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type downStore struct{}

func (downStore) ZonesInBBox(context.Context, models.BBox, int) ([]models.Zone, error) {
	return nil, errors.New("pool closed")
}

func (downStore) LatestOverallUpdate(context.Context) (*time.Time, error) {
	return nil, errors.New("pool closed")
}

func (downStore) CountWithKnownAvailability(context.Context) (int, error) {
	return 0, errors.New("pool closed")
}

func (downStore) Revision(context.Context) (int64, error) {
	return 0, errors.New("pool closed")
}

func newTestServer(t *testing.T, store query.Reader, now time.Time) *Server {
	t.Helper()
	svc := query.NewService(store, query.WithClock(func() time.Time { return now }))
	return New(config.Config{Port: 0}, svc)
}

func do(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: decode %q: %v", target, rec.Body.String(), err)
	}
	return rec, body
}

func seeded(t *testing.T) *db.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	if err := store.UpsertStatic(ctx, "7001", models.ZoneAttrs{
		StreetName: ptr("Collins St"), Lat: ptr(-37.82), Lon: ptr(144.95), TotalSpots: ptr(12),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDynamic(ctx, "7001", 4, t0); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertStatic(ctx, "7002", models.ZoneAttrs{Lat: ptr(-37.81), Lon: ptr(144.96)}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestZonesEndpoint(t *testing.T) {
	s := newTestServer(t, seeded(t), t0)

	rec, body := do(t, s, "/api/zones?bbox=144.9,-37.83,145.0,-37.80")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results: got %v, want 2 entries", body["results"])
	}

	first := results[0].(map[string]any)
	if first["zone_id"] != "7001" || first["street"] != "Collins St" {
		t.Errorf("first: got %v", first)
	}
	if first["available_spots"] != float64(4) || first["total_spots"] != float64(12) {
		t.Errorf("first counts: got %v", first)
	}
	if first["latest_update"] != "2024-03-01T10:00:00Z" {
		t.Errorf("latest_update: got %v, want RFC 3339", first["latest_update"])
	}
	coords := first["coords"].(map[string]any)
	if coords["lat"] != -37.82 || coords["lon"] != 144.95 {
		t.Errorf("coords: got %v", coords)
	}

	second := results[1].(map[string]any)
	for _, key := range []string{"street", "total_spots", "available_spots", "latest_update"} {
		v, present := second[key]
		if !present || v != nil {
			t.Errorf("7002 %s: got %v (present=%v), want explicit null", key, v, present)
		}
	}
}

func TestZonesEndpointEmptyBox(t *testing.T) {
	s := newTestServer(t, seeded(t), t0)
	rec, body := do(t, s, "/api/zones?bbox=144.0,-38.0,144.5,-37.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if results := body["results"].([]any); len(results) != 0 {
		t.Errorf("results: got %v, want empty list", results)
	}
}

func TestZonesEndpointRejectsBadBBox(t *testing.T) {
	store := seeded(t)
	s := newTestServer(t, store, t0)

	cases := map[string]string{
		"/api/zones":                        "bbox required",
		"/api/zones?bbox=":                  "bbox required",
		"/api/zones?bbox=abc":               "invalid bbox",
		"/api/zones?bbox=144.9,-37.83,145.0": "invalid bbox",
	}
	for target, wantErr := range cases {
		rec, body := do(t, s, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status %d, want 400", target, rec.Code)
		}
		if body["error"] != wantErr {
			t.Errorf("GET %s: error %v, want %q", target, body["error"], wantErr)
		}
	}

	n, _ := store.CountWithKnownAvailability(context.Background())
	z, _ := store.Get("7001")
	if n != 1 || *z.AvailableSpots != 4 {
		t.Errorf("store changed by rejected queries: count=%d available=%d", n, *z.AvailableSpots)
	}
}

func TestZonesEndpointStoreFailure(t *testing.T) {
	s := newTestServer(t, downStore{}, t0)
	rec, _ := do(t, s, "/api/zones?bbox=1,2,3,4")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestStatusEndpointBeforeSync(t *testing.T) {
	s := newTestServer(t, db.NewMemoryStore(), t0)

	rec, body := do(t, s, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if v, ok := body["latest_update_in_db"]; !ok || v != nil {
		t.Errorf("latest_update_in_db: got %v, want null", v)
	}
	if body["zones_with_data"] != float64(0) {
		t.Errorf("zones_with_data: got %v, want 0", body["zones_with_data"])
	}
	if body["server_time"] != "2024-03-01T10:00:00Z" {
		t.Errorf("server_time: got %v", body["server_time"])
	}
}

func TestStatusEndpointAfterSync(t *testing.T) {
	s := newTestServer(t, seeded(t), t0.Add(time.Minute))

	_, body := do(t, s, "/api/status")
	if body["latest_update_in_db"] != "2024-03-01T10:00:00Z" {
		t.Errorf("latest_update_in_db: got %v", body["latest_update_in_db"])
	}
	if body["zones_with_data"] != float64(1) {
		t.Errorf("zones_with_data: got %v, want 1", body["zones_with_data"])
	}
	if body["staleness_seconds"] != float64(60) {
		t.Errorf("staleness_seconds: got %v, want 60", body["staleness_seconds"])
	}
}

func TestStatusEndpointStoreFailure(t *testing.T) {
	s := newTestServer(t, downStore{}, t0)
	rec, _ := do(t, s, "/api/status")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t, db.NewMemoryStore(), t0)

	rec, body := do(t, s, "/healthz")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: got %d %v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "parkwatch_") {
		t.Errorf("metrics: got %d without parkwatch collectors", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, db.NewMemoryStore(), t0)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/zones", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS: got %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}
