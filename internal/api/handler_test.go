package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/manager"
	"github.com/safar/go-order-engine/internal/metrics"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderService struct {
	err error

	placed    manager.PlaceOrderRequest
	processed manager.ProcessOrderRequest
	filtered  filter.OrderRequest
	pageSize  int
	cursor    string
	reason    string
	ownerID   uuid.UUID
	withToken bool
}

func (f *fakeOrderService) PlaceOrder(_ context.Context, req manager.PlaceOrderRequest) (*manager.PlaceOrderResult, error) {
	f.placed = req
	if f.err != nil {
		return nil, f.err
	}
	res := &manager.PlaceOrderResult{TotalAmount: decimal.RequireFromString("24.50")}
	id := uuid.New()
	if f.withToken {
		res.ConfirmationToken = &id
	} else {
		res.OrderID = &id
		res.OrderNumber = "ORD-20240310-ABCDEF12"
	}
	return res, nil
}

func (f *fakeOrderService) ConfirmOrder(_ context.Context, tokenID uuid.UUID) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: tokenID}, nil
}

func (f *fakeOrderService) ProcessOrder(_ context.Context, req manager.ProcessOrderRequest) (*models.Order, error) {
	f.processed = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: req.OrderID, Status: req.Status}, nil
}

func (f *fakeOrderService) CancelOrderPublic(_ context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	f.reason = reason
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: orderID, Status: models.OrderStatusCancelled}, nil
}

func (f *fakeOrderService) CancelOrder(_ context.Context, orderID, ownerID uuid.UUID, reason string) (*models.Order, error) {
	f.ownerID = ownerID
	f.reason = reason
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: orderID, OwnerID: ownerID, Status: models.OrderStatusCancelled}, nil
}

func (f *fakeOrderService) FilterOrders(_ context.Context, req filter.OrderRequest, pageSize, _ int) (*store.Page[*models.Order], error) {
	f.filtered = req
	f.pageSize = pageSize
	if f.err != nil {
		return nil, f.err
	}
	return &store.Page[*models.Order]{Items: []*models.Order{}, PageNumber: 1, PageSize: pageSize}, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, id, ownerID uuid.UUID) (*models.Order, error) {
	f.ownerID = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: id, OwnerID: ownerID}, nil
}

func (f *fakeOrderService) RestaurantOrders(_ context.Context, _, ownerID uuid.UUID) ([]*models.Order, error) {
	f.ownerID = ownerID
	return []*models.Order{}, f.err
}

func (f *fakeOrderService) OrderFeed(_ context.Context, ownerID uuid.UUID, cursor string, _ int) (*store.CursorPage[*models.Order], error) {
	f.ownerID = ownerID
	f.cursor = cursor
	if f.err != nil {
		return nil, f.err
	}
	return &store.CursorPage[*models.Order]{Items: []*models.Order{}}, nil
}

func (f *fakeOrderService) Stats(_ context.Context, ownerID uuid.UUID) (*models.OrderStats, error) {
	f.ownerID = ownerID
	return &models.OrderStats{Counts: map[models.OrderStatus]int64{}}, f.err
}

type fakeCatalogService struct {
	products    filter.ProductRequest
	restaurants filter.RestaurantRequest
	menuOf      uuid.UUID
}

func (f *fakeCatalogService) FilterRestaurants(_ context.Context, req filter.RestaurantRequest, pageSize, pageNumber int) (*store.Page[*models.Restaurant], error) {
	f.restaurants = req
	return &store.Page[*models.Restaurant]{Items: []*models.Restaurant{}, PageNumber: pageNumber, PageSize: pageSize}, nil
}

func (f *fakeCatalogService) Menu(_ context.Context, restaurantID uuid.UUID, req filter.ProductRequest, pageSize, pageNumber int) (*store.Page[*models.Product], error) {
	f.menuOf = restaurantID
	f.products = req
	return &store.Page[*models.Product]{Items: []*models.Product{}, PageNumber: pageNumber, PageSize: pageSize}, nil
}

func serve(h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ownerHeaders(ownerID uuid.UUID) http.Header {
	return http.Header{ownerHeader: []string{ownerID.String()}}
}

func TestHealth(t *testing.T) {
	router := NewRouter(&fakeOrderService{}, &fakeCatalogService{}, nil, nil)

	rec := serve(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPlaceOrderHandler(t *testing.T) {
	body := `{"restaurant_id":"` + uuid.NewString() + `","client_name":"Ann","client_email":"ann@example.com",` +
		`"delivery_address":{"street":"Main 1","city":"Springfield"},"items":[{"product_id":"` + uuid.NewString() + `","quantity":2}]}`

	t.Run("immediate order is created", func(t *testing.T) {
		orders := &fakeOrderService{}
		router := NewRouter(orders, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders", body, nil)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Ann", orders.placed.ClientName)
		require.Len(t, orders.placed.Items, 1)
		assert.Equal(t, 2, orders.placed.Items[0].Quantity)

		var res manager.PlaceOrderResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotNil(t, res.OrderID)
		assert.True(t, decimal.RequireFromString("24.50").Equal(res.TotalAmount))
	})

	t.Run("confirmation flow is accepted", func(t *testing.T) {
		router := NewRouter(&fakeOrderService{withToken: true}, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders", body, nil)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "confirmation_token")
	})

	t.Run("malformed body", func(t *testing.T) {
		router := NewRouter(&fakeOrderService{}, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders", "{", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("field errors are listed", func(t *testing.T) {
		var errs apperr.FieldErrors
		errs.Add("client_email", "must be a valid email address")
		errs.Add("items", "must not be empty")
		router := NewRouter(&fakeOrderService{err: errs}, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders", body, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var res fieldErrorsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res.Fields, 2)
		assert.Equal(t, "client_email", res.Fields[0].Field)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"not found", apperr.NotFound("order not found"), http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("not your restaurant"), http.StatusForbidden},
		{"invalid transition", apperr.InvalidTransition("cannot go from New to Finished"), http.StatusConflict},
		{"invalid operation", apperr.InvalidOperation("order is already finished"), http.StatusConflict},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	ownerID := uuid.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&fakeOrderService{err: tt.err}, &fakeCatalogService{}, nil, nil)

			rec := serve(router, http.MethodGet, "/owner/orders/"+uuid.NewString(), "", ownerHeaders(ownerID))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "deadline")
			}
		})
	}
}

func TestOwnerRoutesRequireHeader(t *testing.T) {
	router := NewRouter(&fakeOrderService{}, &fakeCatalogService{}, nil, nil)

	tests := []struct {
		name   string
		header http.Header
	}{
		{"missing", nil},
		{"not a uuid", http.Header{ownerHeader: []string{"alice"}}},
		{"nil uuid", http.Header{ownerHeader: []string{uuid.Nil.String()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/owner/orders", "", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestProcessOrderHandler(t *testing.T) {
	orders := &fakeOrderService{}
	router := NewRouter(orders, &fakeCatalogService{}, nil, nil)
	ownerID, orderID, restaurantID := uuid.New(), uuid.New(), uuid.New()

	body := `{"restaurant_id":"` + restaurantID.String() + `","status":1,"preparation_minutes":20}`
	rec := serve(router, http.MethodPost, "/owner/orders/"+orderID.String()+"/process", body, ownerHeaders(ownerID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orderID, orders.processed.OrderID)
	assert.Equal(t, ownerID, orders.processed.OwnerID)
	assert.Equal(t, restaurantID, orders.processed.RestaurantID)
	assert.Equal(t, models.OrderStatusAccepted, orders.processed.Status)
	assert.Equal(t, 20, orders.processed.PreparationMinutes)
}

func TestProcessOrderHandlerIgnoresOwnerInBody(t *testing.T) {
	orders := &fakeOrderService{}
	router := NewRouter(orders, &fakeCatalogService{}, nil, nil)
	ownerID := uuid.New()

	body := `{"owner_id":"` + uuid.NewString() + `","status":1}`
	serve(router, http.MethodPost, "/owner/orders/"+uuid.NewString()+"/process", body, ownerHeaders(ownerID))

	assert.Equal(t, ownerID, orders.processed.OwnerID)
}

func TestCancelHandlers(t *testing.T) {
	t.Run("public cancel without body", func(t *testing.T) {
		orders := &fakeOrderService{}
		router := NewRouter(orders, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, orders.reason)
	})

	t.Run("owner cancel with reason", func(t *testing.T) {
		orders := &fakeOrderService{}
		router := NewRouter(orders, &fakeCatalogService{}, nil, nil)
		ownerID := uuid.New()

		rec := serve(router, http.MethodPost, "/owner/orders/"+uuid.NewString()+"/cancel",
			`{"reason":"out of dough"}`, ownerHeaders(ownerID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "out of dough", orders.reason)
		assert.Equal(t, ownerID, orders.ownerID)
	})

	t.Run("cancelling a finished order conflicts", func(t *testing.T) {
		router := NewRouter(&fakeOrderService{err: apperr.InvalidOperation("order is already Finished")}, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", "", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		router := NewRouter(&fakeOrderService{}, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodPost, "/orders/not-an-id/cancel", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFilterOrdersHandler(t *testing.T) {
	ownerID, restaurantID := uuid.New(), uuid.New()

	t.Run("query is parsed", func(t *testing.T) {
		orders := &fakeOrderService{}
		router := NewRouter(orders, &fakeCatalogService{}, nil, nil)

		target := "/owner/orders?restaurant_id=" + restaurantID.String() +
			"&status=Delivery&from=2024-03-10T00:00:00Z&search=ann&page_size=5"
		rec := serve(router, http.MethodGet, target, "", ownerHeaders(ownerID))

		require.Equal(t, http.StatusOK, rec.Code)
		got := orders.filtered
		assert.Equal(t, ownerID, got.OwnerID)
		require.NotNil(t, got.RestaurantID)
		assert.Equal(t, restaurantID, *got.RestaurantID)
		require.NotNil(t, got.Status)
		assert.Equal(t, models.OrderStatusDelivery, *got.Status)
		require.NotNil(t, got.From)
		assert.Nil(t, got.To)
		require.NotNil(t, got.SearchKey)
		assert.Equal(t, "ann", *got.SearchKey)
		assert.Equal(t, 5, orders.pageSize)
	})

	t.Run("every malformed parameter is reported", func(t *testing.T) {
		orders := &fakeOrderService{}
		router := NewRouter(orders, &fakeCatalogService{}, nil, nil)

		rec := serve(router, http.MethodGet, "/owner/orders?restaurant_id=x&status=Lost&from=yesterday&page=two",
			"", ownerHeaders(ownerID))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var res fieldErrorsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Len(t, res.Fields, 4)
	})
}

func TestOrderFeedHandler(t *testing.T) {
	orders := &fakeOrderService{}
	router := NewRouter(orders, &fakeCatalogService{}, nil, nil)
	ownerID := uuid.New()

	rec := serve(router, http.MethodGet, "/owner/orders/feed?cursor=abc&limit=10", "", ownerHeaders(ownerID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", orders.cursor)
	assert.Equal(t, ownerID, orders.ownerID)
}

func TestMenuHandler(t *testing.T) {
	catalog := &fakeCatalogService{}
	router := NewRouter(&fakeOrderService{}, catalog, nil, nil)
	restaurantID := uuid.New()

	rec := serve(router, http.MethodGet, "/restaurants/"+restaurantID.String()+"/products?min_price=2.50&max_price=10", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, restaurantID, catalog.menuOf)
	require.NotNil(t, catalog.products.MinPrice)
	assert.True(t, decimal.RequireFromString("2.5").Equal(*catalog.products.MinPrice))
	assert.Nil(t, catalog.products.SearchKey)

	rec = serve(router, http.MethodGet, "/restaurants/"+restaurantID.String()+"/products?min_price=cheap", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRestaurantsHandler(t *testing.T) {
	catalog := &fakeCatalogService{}
	router := NewRouter(&fakeOrderService{}, catalog, nil, nil)

	rec := serve(router, http.MethodGet, "/restaurants?city=Springfield", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, catalog.restaurants.City)
	assert.Equal(t, "Springfield", *catalog.restaurants.City)
}

func TestRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(&fakeOrderService{}, &fakeCatalogService{}, m, reg)

	serve(router, http.MethodGet, "/owner/orders/"+uuid.NewString(), "", ownerHeaders(uuid.New()))
	rec := serve(router, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/owner/orders/{id}",status="200"`)
}
