package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusCollector_Collect(t *testing.T) {
	r := NewRegistry()
	r.Counter("test.bridge.counter").Add(3)
	r.Gauge("test.bridge.gauge").Set(7)
	h := r.Histogram("test.bridge.hist")
	h.Observe(10)
	h.Observe(20)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(r, "units").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"units_test_bridge_counter",
		"units_test_bridge_gauge",
		"units_test_bridge_hist_count",
		"units_test_bridge_hist_mean",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("response missing %q, body:\n%s", want, body)
		}
	}
}

func TestPrometheusCollector_EmptyRegistry(t *testing.T) {
	r := NewRegistry()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(r, "units").ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
