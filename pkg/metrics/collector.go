package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bridges the aggregator to a prometheus registry so a local
// /metrics endpoint can mirror the cumulative counters. It reads without
// draining, leaving the push batch of latency samples untouched.
type Collector struct {
	agg *Aggregator
}

var (
	descRequestsTotal  = prometheus.NewDesc("slice_http_requests_total", "Count of HTTP requests received", nil, nil)
	descRequestsActive = prometheus.NewDesc("slice_http_requests_active", "Requests currently in flight", nil, nil)
	descErrorsTotal    = prometheus.NewDesc("slice_http_errors_total", "Responses with status >= 400", nil, nil)
	descEndpointCount  = prometheus.NewDesc("slice_endpoint_requests_total", "Requests per endpoint", []string{"method", "path"}, nil)
	descEndpointTimeMS = prometheus.NewDesc("slice_endpoint_time_ms_total", "Total handling time per endpoint in milliseconds", []string{"method", "path"}, nil)
	descAuthTotal      = prometheus.NewDesc("slice_auth_attempts_total", "Authentication attempts by result", []string{"result"}, nil)
	descUsersNew       = prometheus.NewDesc("slice_users_new_total", "Registered users", nil, nil)
	descUsersActive    = prometheus.NewDesc("slice_users_active", "Distinct users seen since start", nil, nil)
	descPurchases      = prometheus.NewDesc("slice_purchases_total", "Purchase attempts by result", []string{"result"}, nil)
	descPizzasSold     = prometheus.NewDesc("slice_pizzas_sold_total", "Pizzas sold", nil, nil)
	descRevenue        = prometheus.NewDesc("slice_revenue_total", "Accumulated revenue", nil, nil)
)

// NewCollector wraps the aggregator for prometheus registration.
func NewCollector(agg *Aggregator) *Collector {
	return &Collector{agg: agg}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range []*prometheus.Desc{
		descRequestsTotal, descRequestsActive, descErrorsTotal,
		descEndpointCount, descEndpointTimeMS,
		descAuthTotal, descUsersNew, descUsersActive,
		descPurchases, descPizzasSold, descRevenue,
	} {
		ch <- desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	view := c.agg.capture(false)
	ch <- prometheus.MustNewConstMetric(descRequestsTotal, prometheus.CounterValue, float64(view.TotalRequests))
	ch <- prometheus.MustNewConstMetric(descRequestsActive, prometheus.GaugeValue, float64(view.ActiveRequests))
	ch <- prometheus.MustNewConstMetric(descErrorsTotal, prometheus.CounterValue, float64(view.ErrorCount))
	for key, entry := range view.Endpoints {
		ch <- prometheus.MustNewConstMetric(descEndpointCount, prometheus.CounterValue, float64(entry.Count), key.Method, key.Path)
		ch <- prometheus.MustNewConstMetric(descEndpointTimeMS, prometheus.CounterValue, float64(entry.TotalTimeMS), key.Method, key.Path)
	}
	ch <- prometheus.MustNewConstMetric(descAuthTotal, prometheus.CounterValue, float64(view.AuthSuccess), "success")
	ch <- prometheus.MustNewConstMetric(descAuthTotal, prometheus.CounterValue, float64(view.AuthFailure), "failure")
	ch <- prometheus.MustNewConstMetric(descUsersNew, prometheus.CounterValue, float64(view.NewUsers))
	ch <- prometheus.MustNewConstMetric(descUsersActive, prometheus.GaugeValue, float64(view.ActiveUsers))
	ch <- prometheus.MustNewConstMetric(descPurchases, prometheus.CounterValue, float64(view.PurchaseSuccess), "success")
	ch <- prometheus.MustNewConstMetric(descPurchases, prometheus.CounterValue, float64(view.PurchaseFailure), "failure")
	ch <- prometheus.MustNewConstMetric(descPizzasSold, prometheus.CounterValue, float64(view.PizzasSold))
	ch <- prometheus.MustNewConstMetric(descRevenue, prometheus.CounterValue, view.TotalRevenue)
}
