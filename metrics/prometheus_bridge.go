package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector adapts a Registry to prometheus.Collector, for nodes
// that want to expose metrics to a real Prometheus scrape endpoint.
// Histograms are exported as their summary
// statistics (count/sum/min/max/mean) rather than as a native Prometheus
// histogram, since Registry doesn't bucket observations.
type PrometheusCollector struct {
	registry *Registry
	subsys   string
}

// NewPrometheusCollector wraps registry for scraping. subsys prefixes every
// exported metric name (e.g. "units") to avoid collisions with other
// collectors registered in the same process.
func NewPrometheusCollector(registry *Registry, subsys string) *PrometheusCollector {
	return &PrometheusCollector{registry: registry, subsys: subsys}
}

// Describe is a no-op: metric names are dynamic (created on first use by
// the Registry), so descriptors are emitted only from Collect.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector by snapshotting the wrapped
// Registry and emitting one gauge per counter/gauge and five gauges per
// histogram (count, sum, min, max, mean).
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for name, v := range c.registry.Snapshot() {
		fqName := c.fqName(name)
		switch val := v.(type) {
		case int64:
			ch <- prometheus.MustNewConstMetric(
				prometheus.NewDesc(fqName, "UNITS metric "+name, nil, nil),
				prometheus.GaugeValue, float64(val),
			)
		case map[string]interface{}:
			for field, fv := range val {
				f, ok := fv.(float64)
				if !ok {
					if i, ok := fv.(int64); ok {
						f = float64(i)
					}
				}
				ch <- prometheus.MustNewConstMetric(
					prometheus.NewDesc(fqName+"_"+field, "UNITS histogram "+name+" "+field, nil, nil),
					prometheus.GaugeValue, f,
				)
			}
		}
	}
}

// Handler returns an http.Handler serving registry's metrics in native
// Prometheus exposition format via client_golang's promhttp.
func Handler(registry *Registry, subsys string) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewPrometheusCollector(registry, subsys))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (c *PrometheusCollector) fqName(name string) string {
	sanitized := strings.ReplaceAll(name, ".", "_")
	if c.subsys == "" {
		return sanitized
	}
	return c.subsys + "_" + sanitized
}
