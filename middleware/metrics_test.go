// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	ok := m.Instrument("GET /things", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	missing := m.Instrument("GET /things", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 3; i++ {
		ok(httptest.NewRecorder(), httptest.NewRequest("GET", "/things", nil))
	}
	missing(httptest.NewRecorder(), httptest.NewRequest("GET", "/things", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET /things", "200")); got != 3 {
		t.Errorf("Expected 3 requests with 200, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET /things", "404")); got != 1 {
		t.Errorf("Expected 1 request with 404, got %v", got)
	}
	if n := testutil.CollectAndCount(reg, "surveystore_http_request_duration_seconds"); n != 1 {
		t.Errorf("Expected one duration series, got %d", n)
	}
}
