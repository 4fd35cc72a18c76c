package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		wantLabel  string
		statusCode int
	}{
		{
			name:       "labels asset paths by route",
			method:     http.MethodGet,
			path:       "/api/v1/assets/FA-1001/schedule",
			wantLabel:  "/api/v1/assets/{id}/schedule",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "labels posting by route",
			method:     http.MethodPost,
			path:       "/api/v1/entities/co1/depreciation/2025-08/post",
			wantLabel:  "/api/v1/entities/{entity}/depreciation/{period}/post",
			statusCode: http.StatusCreated,
		},
		{
			name:       "groups unknown paths",
			method:     http.MethodGet,
			path:       "/nope",
			wantLabel:  "unmatched",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			httpRequestsTotal.Reset()
			httpRequestDuration.Reset()
			httpRequestsInFlight.Set(0)

			handlerCalled := false
			next := func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			}

			r := chi.NewRouter()
			r.Use(Metrics)
			r.Get("/api/v1/assets/{id}/schedule", next)
			r.Post("/api/v1/entities/{entity}/depreciation/{period}/post", next)
			r.NotFound(next)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.wantLabel, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected request counter to be 1, got %v", got)
			}
		})
	}
}
