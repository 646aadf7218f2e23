package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type fakeSource struct {
	snapshot goGuard.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() goGuard.MetricsSnapshot { return f.snapshot }

func scrape(t *testing.T, collectors ...prom.Collector) string {
	t.Helper()
	reg := prom.NewRegistry()
	for _, c := range collectors {
		reg.MustRegister(c)
	}
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	if got := scrape(t, c); strings.Contains(got, "goguard_") {
		t.Fatalf("expected no goguard series for disabled metrics, got:\n%s", got)
	}
}

func TestCollectIncludesCounterAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricLoginSuccess: 7,
				goGuard.MetricAuditDropped: 2,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricProviderLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := scrape(t, c)
	for _, want := range []string{
		"goguard_login_success_total 7",
		"goguard_audit_dropped_total 2",
		"goguard_signup_success_total 0",
		`goguard_provider_latency_seconds_bucket{le="0.005"} 1`,
		`goguard_provider_latency_seconds_bucket{le="0.5"} 28`,
		`goguard_provider_latency_seconds_bucket{le="+Inf"} 36`,
		"goguard_provider_latency_seconds_count 36",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCollectSkipsHistogramWhenLatencyDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{goGuard.MetricLoginFailure: 1},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	out := scrape(t, c)
	if strings.Contains(out, "goguard_provider_latency_seconds") {
		t.Fatalf("unexpected histogram in output:\n%s", out)
	}
	if !strings.Contains(out, "goguard_login_failure_total 1") {
		t.Fatalf("expected login failure counter, got:\n%s", out)
	}
}

func TestHTTPMetricsLabelsByPattern(t *testing.T) {
	m := NewHTTPMetrics()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Instrument(mux)

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := scrape(t, m)
	if !strings.Contains(out, `goguard_http_requests_total{route="GET /items/{id}",status="418"} 2`) {
		t.Fatalf("expected pattern-labelled counter, got:\n%s", out)
	}
	if !strings.Contains(out, `goguard_http_requests_total{route="unmatched",status="404"} 1`) {
		t.Fatalf("expected unmatched counter, got:\n%s", out)
	}
}
