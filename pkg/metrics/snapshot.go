package metrics

import "time"

// Snapshot is an immutable view of the aggregator captured for one export.
// Cumulative counters report all-time totals; the latency sample sequences
// are a since-last-snapshot batch, drained from the aggregator at capture.
type Snapshot struct {
	TakenAt time.Time

	TotalRequests  int64
	ActiveRequests int64
	ErrorCount     int64
	Endpoints      map[EndpointKey]EndpointStats

	AuthSuccess int64
	AuthFailure int64

	NewUsers    int64
	ActiveUsers int64

	PurchaseAttempts int64
	PurchaseSuccess  int64
	PurchaseFailure  int64
	TotalRevenue     float64
	PizzasSold       int64

	SuccessLatenciesMS []int64
	FailureLatenciesMS []int64

	CPUPercent    string
	MemoryPercent string
}

// Snapshot captures all counters, the endpoint map, and the host gauges.
// The purchase latency sequences are drained: each sample is exported exactly
// once. Counters are never reset.
func (a *Aggregator) Snapshot() Snapshot {
	snap := a.capture(true)
	snap.CPUPercent = a.CPUUsagePercent()
	snap.MemoryPercent = a.MemoryUsagePercent()
	return snap
}

// capture copies the counter state under the lock. When drain is set the
// latency sequences transfer into the snapshot and reset; otherwise they are
// left untouched and omitted from the result.
func (a *Aggregator) capture(drain bool) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	endpoints := make(map[EndpointKey]EndpointStats, len(a.endpoints))
	for key, entry := range a.endpoints {
		endpoints[key] = *entry
	}

	snap := Snapshot{
		TakenAt:          a.now(),
		TotalRequests:    a.totalRequests,
		ActiveRequests:   a.activeRequests,
		ErrorCount:       a.errorCount,
		Endpoints:        endpoints,
		AuthSuccess:      a.authSuccess,
		AuthFailure:      a.authFailure,
		NewUsers:         a.newUsers,
		ActiveUsers:      int64(len(a.activeUsers)),
		PurchaseAttempts: a.purchaseAttempts,
		PurchaseSuccess:  a.purchaseSuccess,
		PurchaseFailure:  a.purchaseFailure,
		TotalRevenue:     a.totalRevenue,
		PizzasSold:       a.pizzasSold,
	}
	if drain {
		snap.SuccessLatenciesMS = a.successLatencies
		snap.FailureLatenciesMS = a.failureLatencies
		a.successLatencies = nil
		a.failureLatencies = nil
	}
	return snap
}
