package metrics

import (
	"sync"
	"time"
)

// EndpointKey identifies one row of per-endpoint statistics. Matching is an
// exact, case-sensitive comparison of method and path.
type EndpointKey struct {
	Method string
	Path   string
}

// EndpointStats accumulates request count and total handling time for one endpoint.
type EndpointStats struct {
	Count       int64
	TotalTimeMS int64
}

// Aggregator owns all process-wide telemetry counters. One instance is
// constructed at startup and shared by reference with the routing layer;
// all mutation goes through the Record methods.
type Aggregator struct {
	mu    sync.Mutex
	now   func() time.Time
	probe hostProbe

	totalRequests  int64
	activeRequests int64
	errorCount     int64
	endpoints      map[EndpointKey]*EndpointStats

	authSuccess int64
	authFailure int64

	newUsers    int64
	activeUsers map[string]struct{}

	purchaseAttempts int64
	purchaseSuccess  int64
	purchaseFailure  int64
	totalRevenue     float64
	pizzasSold       int64
	successLatencies []int64
	failureLatencies []int64
}

// New constructs an empty Aggregator backed by the host probe.
func New() *Aggregator {
	return &Aggregator{
		now:         time.Now,
		probe:       defaultProbe(),
		endpoints:   make(map[EndpointKey]*EndpointStats),
		activeUsers: make(map[string]struct{}),
	}
}

// RequestTimer tracks one in-flight request from start to completion.
type RequestTimer struct {
	agg   *Aggregator
	key   EndpointKey
	start time.Time
}

// RecordRequestStart registers an inbound request and returns a timer whose
// Finish must be called exactly once when the response completes.
func (a *Aggregator) RecordRequestStart(method, path string) *RequestTimer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalRequests++
	a.activeRequests++
	key := EndpointKey{Method: method, Path: path}
	if _, ok := a.endpoints[key]; !ok {
		a.endpoints[key] = &EndpointStats{}
	}
	return &RequestTimer{agg: a, key: key, start: a.now()}
}

// Finish records the completion of the request. Calling it more than once per
// timer double-counts; pairing is the caller's responsibility.
func (t *RequestTimer) Finish(status int) {
	a := t.agg
	elapsed := a.now().Sub(t.start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	entry := a.endpoints[t.key]
	if entry == nil {
		entry = &EndpointStats{}
		a.endpoints[t.key] = entry
	}
	entry.Count++
	entry.TotalTimeMS += elapsed
	a.activeRequests--
	if status >= 400 {
		a.errorCount++
	}
}

// RecordAuth counts an authentication attempt. A successful attempt with a
// non-empty userID also marks that user active.
func (a *Aggregator) RecordAuth(success bool, userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if success {
		a.authSuccess++
		if userID != "" {
			a.activeUsers[userID] = struct{}{}
		}
		return
	}
	a.authFailure++
}

// RecordNewUser counts a registration and marks the user active.
func (a *Aggregator) RecordNewUser(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newUsers++
	if userID != "" {
		a.activeUsers[userID] = struct{}{}
	}
}

// RecordPurchase counts a purchase attempt. Successful purchases accumulate
// pizzas and revenue and append latencyMS to the success sample sequence;
// failures append to the failure sequence.
func (a *Aggregator) RecordPurchase(success bool, latencyMS int64, pizzas int, revenue float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purchaseAttempts++
	if success {
		a.purchaseSuccess++
		a.pizzasSold += int64(pizzas)
		a.totalRevenue += revenue
		a.successLatencies = append(a.successLatencies, latencyMS)
		return
	}
	a.purchaseFailure++
	a.failureLatencies = append(a.failureLatencies, latencyMS)
}
