package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/slice/pkg/logship"
	"github.com/splax/slice/pkg/metrics"
)

// Router is a demo storefront standing in for the real routing layer: its
// handlers are stubs whose only job is to exercise the telemetry surface.
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	logger  *slog.Logger
	agg     *metrics.Aggregator
	shipper *logship.Shipper

	mu    sync.Mutex
	users map[string]storeUser
	menu  []menuItem
}

type storeUser struct {
	ID       string
	Password string
}

type menuItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// NewRouter assembles the demo routes wrapped in both telemetry interceptors.
func NewRouter(logger *slog.Logger, agg *metrics.Aggregator, shipper *logship.Shipper) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		agg:     agg,
		shipper: shipper,
		users:   make(map[string]storeUser),
		menu: []menuItem{
			{ID: "margherita", Title: "Margherita", Price: 8.99},
			{ID: "pepperoni", Title: "Pepperoni", Price: 10.49},
			{ID: "veggie", Title: "Veggie", Price: 9.99},
		},
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(agg))

	r.mux.HandleFunc("/healthz", r.handleHealthz)
	r.mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.mux.HandleFunc("/api/auth/register", r.handleRegister)
	r.mux.HandleFunc("/api/auth/login", r.handleLogin)
	r.mux.HandleFunc("/api/menu", r.handleMenu)
	r.mux.HandleFunc("/api/orders", r.handleOrder)

	r.handler = agg.Middleware()(shipper.Middleware()(r.recovered(r.mux)))
	return r
}

// recovered converts handler panics into 500s and reports them as exception
// events.
func (r *Router) recovered(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if cause := recover(); cause != nil {
				stack := string(debug.Stack())
				r.logger.Error("handler panicked", "cause", cause, "path", req.URL.Path)
				r.shipper.SendException(fmt.Sprint(cause), stack, map[string]any{
					"method": req.Method,
					"path":   req.URL.Path,
				})
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// ServeHTTP delegates to the instrumented handler chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}
	r.mu.Lock()
	if _, exists := r.users[payload.Email]; exists {
		r.mu.Unlock()
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	user := storeUser{ID: uuid.NewString(), Password: payload.Password}
	r.users[payload.Email] = user
	r.mu.Unlock()

	r.agg.RecordNewUser(user.ID)
	r.shipper.SendQuery("INSERT INTO users (id, email) VALUES ($1, $2)", []any{user.ID, payload.Email})
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": payload.Email})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	r.mu.Lock()
	user, exists := r.users[payload.Email]
	r.mu.Unlock()
	if !exists || user.Password != payload.Password {
		r.agg.RecordAuth(false, "")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	r.agg.RecordAuth(true, user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"id": user.ID})
}

func (r *Router) handleMenu(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, r.menu)
}

func (r *Router) handleOrder(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	start := time.Now()
	var payload struct {
		Items []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	total := 0.0
	count := 0
	for _, item := range payload.Items {
		price, ok := r.price(item.ID)
		if !ok || item.Quantity <= 0 {
			r.agg.RecordPurchase(false, time.Since(start).Milliseconds(), 0, 0)
			writeError(w, http.StatusUnprocessableEntity, "unknown menu item")
			return
		}
		total += price * float64(item.Quantity)
		count += item.Quantity
	}
	if count == 0 {
		r.agg.RecordPurchase(false, time.Since(start).Milliseconds(), 0, 0)
		writeError(w, http.StatusBadRequest, "empty order")
		return
	}
	orderID := uuid.NewString()
	r.shipper.SendQuery("INSERT INTO orders (id, pizzas, total) VALUES ($1, $2, $3)", []any{orderID, count, total})
	r.agg.RecordPurchase(true, time.Since(start).Milliseconds(), count, total)
	writeJSON(w, http.StatusCreated, map[string]any{"order_id": orderID, "pizzas": count, "total": total})
}

func (r *Router) price(id string) (float64, bool) {
	for _, item := range r.menu {
		if item.ID == id {
			return item.Price, true
		}
	}
	return 0, false
}
