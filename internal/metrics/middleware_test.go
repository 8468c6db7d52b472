package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newInstrumentedRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/catalog/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"outcomes":[]}`))
	})
	r.Post("/v1/orders/preview", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return r
}

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	r := newInstrumentedRouter()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/catalog/search", "200"))

	req := httptest.NewRequest("POST", "/v1/catalog/search", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/catalog/search", "200"))
	if after != before+1 {
		t.Errorf("expected requests_total to grow by 1, got %f -> %f", before, after)
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_LabelsStatusCode(t *testing.T) {
	r := newInstrumentedRouter()

	tests := []struct {
		method string
		path   string
		status string
	}{
		{"POST", "/v1/orders/preview", "400"},
		{"GET", "/healthz", "503"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))

			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if after != before+1 {
				t.Errorf("expected %s %s status %s count to grow by 1, got %f -> %f",
					tc.method, tc.path, tc.status, before, after)
			}
		})
	}
}

func TestNormalizePath_EmptyPattern(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q, want %q", got, "unknown")
	}
	if got := normalizePath("/healthz"); got != "/healthz" {
		t.Errorf("normalizePath(/healthz) = %q, want /healthz", got)
	}
}
