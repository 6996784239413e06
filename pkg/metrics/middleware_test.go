package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareRecordsRequest(t *testing.T) {
	a, _ := newTestAggregator()
	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("middleware altered status: %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"not found"}` {
		t.Fatalf("middleware altered body: %s", rec.Body.String())
	}

	snap := a.Snapshot()
	if snap.TotalRequests != 1 || snap.ActiveRequests != 0 || snap.ErrorCount != 1 {
		t.Fatalf("unexpected counters: total=%d active=%d errors=%d", snap.TotalRequests, snap.ActiveRequests, snap.ErrorCount)
	}
	entry := snap.Endpoints[EndpointKey{Method: "GET", Path: "/api/missing"}]
	if entry.Count != 1 {
		t.Fatalf("expected endpoint entry, got %+v", entry)
	}
}

func TestMiddlewareDefaultsUnwrittenStatusTo200(t *testing.T) {
	a, _ := newTestAggregator()
	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/noop", nil))

	snap := a.Snapshot()
	if snap.ErrorCount != 0 {
		t.Fatalf("implicit 200 must not count as error, got %d", snap.ErrorCount)
	}
	if snap.Endpoints[EndpointKey{Method: "GET", Path: "/noop"}].Count != 1 {
		t.Fatal("expected completion recorded")
	}
}
