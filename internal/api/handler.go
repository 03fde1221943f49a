package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/manager"
	"github.com/safar/go-order-engine/internal/metrics"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/store"
)

const ownerHeader = "X-Owner-ID"

type OrderService interface {
	PlaceOrder(ctx context.Context, req manager.PlaceOrderRequest) (*manager.PlaceOrderResult, error)
	ConfirmOrder(ctx context.Context, tokenID uuid.UUID) (*models.Order, error)
	ProcessOrder(ctx context.Context, req manager.ProcessOrderRequest) (*models.Order, error)
	CancelOrderPublic(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, ownerID uuid.UUID, reason string) (*models.Order, error)
	FilterOrders(ctx context.Context, req filter.OrderRequest, pageSize, pageNumber int) (*store.Page[*models.Order], error)
	GetOrder(ctx context.Context, id, ownerID uuid.UUID) (*models.Order, error)
	RestaurantOrders(ctx context.Context, restaurantID, ownerID uuid.UUID) ([]*models.Order, error)
	OrderFeed(ctx context.Context, ownerID uuid.UUID, cursor string, limit int) (*store.CursorPage[*models.Order], error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*models.OrderStats, error)
}

type CatalogService interface {
	FilterRestaurants(ctx context.Context, req filter.RestaurantRequest, pageSize, pageNumber int) (*store.Page[*models.Restaurant], error)
	Menu(ctx context.Context, restaurantID uuid.UUID, req filter.ProductRequest, pageSize, pageNumber int) (*store.Page[*models.Product], error)
}

type Handler struct {
	orders  OrderService
	catalog CatalogService
}

// NewRouter wires all routes. m and gatherer may be nil, which disables
// request metrics and the /metrics endpoint.
func NewRouter(orders OrderService, catalog CatalogService, m *metrics.Metrics, gatherer prometheus.Gatherer) *chi.Mux {
	h := &Handler{orders: orders, catalog: catalog}

	r := chi.NewRouter()
	r.Use(requestLogger(m))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Post("/orders", h.placeOrder)
	r.Post("/orders/confirm/{token}", h.confirmOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrderPublic)

	r.Get("/restaurants", h.listRestaurants)
	r.Get("/restaurants/{id}/products", h.listMenu)

	r.Route("/owner", func(r chi.Router) {
		r.Use(ownerOnly)

		r.Get("/orders", h.filterOrders)
		r.Get("/orders/feed", h.orderFeed)
		r.Get("/orders/stats", h.orderStats)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/process", h.processOrder)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
		r.Get("/restaurants/{id}/orders", h.restaurantOrders)
	})

	return r
}

type ownerKey struct{}

// ownerOnly reads the caller's owner id from the X-Owner-ID header.
func ownerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := uuid.Parse(r.Header.Get(ownerHeader))
		if err != nil || ownerID == uuid.Nil {
			respondError(w, http.StatusUnauthorized, "missing or invalid "+ownerHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, ownerID)))
	})
}

func ownerFrom(r *http.Request) uuid.UUID {
	ownerID, _ := r.Context().Value(ownerKey{}).(uuid.UUID)
	return ownerID
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// decodeCancel accepts an empty body as "no reason given".
func decodeCancel(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	return req.Reason, true
}
