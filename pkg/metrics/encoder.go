package metrics

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Encoder renders a snapshot into an export wire format.
type Encoder interface {
	Encode(snap Snapshot, source string) ([]byte, error)
	ContentType() string
}

// gaugePoint is one flat metric row shared by the encoder strategies. All
// numeric values are carried as float64 and all attribute values as strings.
type gaugePoint struct {
	name  string
	unit  string
	value float64
	attrs []attr
}

type attr struct {
	key   string
	value string
}

// collectGauges flattens a snapshot into the ordered gauge list both wire
// formats render.
func collectGauges(snap Snapshot) []gaugePoint {
	points := []gaugePoint{
		{name: "cpu_usage", unit: "%", value: parsePercent(snap.CPUPercent)},
		{name: "memory_usage", unit: "%", value: parsePercent(snap.MemoryPercent)},
		{name: "http_requests_total", unit: "1", value: float64(snap.TotalRequests)},
		{name: "http_requests_active", unit: "1", value: float64(snap.ActiveRequests)},
		{name: "http_errors_total", unit: "1", value: float64(snap.ErrorCount)},
	}

	keys := make([]EndpointKey, 0, len(snap.Endpoints))
	for key := range snap.Endpoints {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		return keys[i].Path < keys[j].Path
	})
	for _, key := range keys {
		entry := snap.Endpoints[key]
		tags := []attr{{key: "method", value: key.Method}, {key: "path", value: key.Path}}
		mean := float64(0)
		if entry.Count > 0 {
			mean = float64(entry.TotalTimeMS) / float64(entry.Count)
		}
		points = append(points,
			gaugePoint{name: "endpoint_requests", unit: "1", value: float64(entry.Count), attrs: tags},
			gaugePoint{name: "endpoint_latency_mean", unit: "ms", value: mean, attrs: tags},
		)
	}

	points = append(points,
		gaugePoint{name: "auth_success_total", unit: "1", value: float64(snap.AuthSuccess)},
		gaugePoint{name: "auth_failure_total", unit: "1", value: float64(snap.AuthFailure)},
		gaugePoint{name: "users_new_total", unit: "1", value: float64(snap.NewUsers)},
		gaugePoint{name: "users_active", unit: "1", value: float64(snap.ActiveUsers)},
		gaugePoint{name: "purchase_attempts_total", unit: "1", value: float64(snap.PurchaseAttempts)},
		gaugePoint{name: "purchase_success_total", unit: "1", value: float64(snap.PurchaseSuccess)},
		gaugePoint{name: "purchase_failure_total", unit: "1", value: float64(snap.PurchaseFailure)},
		gaugePoint{name: "pizzas_sold_total", unit: "1", value: float64(snap.PizzasSold)},
		gaugePoint{name: "revenue_total", unit: "usd", value: snap.TotalRevenue},
	)

	for _, latency := range snap.SuccessLatenciesMS {
		points = append(points, gaugePoint{
			name: "purchase_latency", unit: "ms", value: float64(latency),
			attrs: []attr{{key: "status", value: "success"}},
		})
	}
	for _, latency := range snap.FailureLatenciesMS {
		points = append(points, gaugePoint{
			name: "purchase_latency", unit: "ms", value: float64(latency),
			attrs: []attr{{key: "status", value: "fail"}},
		})
	}
	return points
}

func parsePercent(s string) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return value
}

// GaugeEncoder renders the canonical structured gauge document: a JSON body
// of resourceMetrics -> scopeMetrics -> metrics, one gauge data point per row,
// every point tagged with the source attribute.
type GaugeEncoder struct{}

func (GaugeEncoder) ContentType() string { return "application/json" }

func (GaugeEncoder) Encode(snap Snapshot, source string) ([]byte, error) {
	ts := strconv.FormatInt(snap.TakenAt.UnixNano(), 10)
	points := collectGauges(snap)
	metricDocs := make([]map[string]any, 0, len(points))
	for _, point := range points {
		attributes := []map[string]any{attributeDoc("source", source)}
		for _, tag := range point.attrs {
			attributes = append(attributes, attributeDoc(tag.key, tag.value))
		}
		metricDocs = append(metricDocs, map[string]any{
			"name": point.name,
			"unit": point.unit,
			"gauge": map[string]any{
				"dataPoints": []map[string]any{{
					"asDouble":     point.value,
					"timeUnixNano": ts,
					"attributes":   attributes,
				}},
			},
		})
	}
	doc := map[string]any{
		"resourceMetrics": []map[string]any{{
			"scopeMetrics": []map[string]any{{
				"metrics": metricDocs,
			}},
		}},
	}
	return json.Marshal(doc)
}

func attributeDoc(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"value": map[string]any{"stringValue": value},
	}
}
