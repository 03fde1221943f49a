package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/store"
)

type fakeRestaurants struct {
	items map[uuid.UUID]*models.Restaurant
	where *database.Where
}

func (f *fakeRestaurants) GetByID(_ context.Context, id, ownerID uuid.UUID) (*models.Restaurant, error) {
	r, ok := f.items[id]
	if !ok || r.OwnerID != ownerID {
		return nil, database.ErrRestaurantNotFound
	}
	return r, nil
}

func (f *fakeRestaurants) GetByIDPublic(_ context.Context, id uuid.UUID) (*models.Restaurant, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, database.ErrRestaurantNotFound
	}
	return r, nil
}

func (f *fakeRestaurants) Filter(_ context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Restaurant], error) {
	f.where = where
	return &store.Page[*models.Restaurant]{Items: []*models.Restaurant{}, PageSize: pageSize, PageNumber: pageNumber}, nil
}

type fakeProducts struct {
	items map[uuid.UUID]*models.Product
	where *database.Where
}

func (f *fakeProducts) GetByIDPublic(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Filter(_ context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Product], error) {
	f.where = where
	return &store.Page[*models.Product]{Items: []*models.Product{}, PageSize: pageSize, PageNumber: pageNumber}, nil
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.StatusHistory = append([]models.StatusEntry(nil), o.StatusHistory...)
	cp.LineItems = append([]models.LineItem(nil), o.LineItems...)
	return &cp
}

type fakeOrders struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*models.Order
	addErrs    []error
	updateErr  error
	where      *database.Where
	cursorSeen string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{items: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrders) GetByID(_ context.Context, id, ownerID uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok || o.OwnerID != ownerID {
		return nil, database.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByIDPublic(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByRestaurantID(_ context.Context, restaurantID uuid.UUID) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.items {
		if o.RestaurantID == restaurantID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (f *fakeOrders) Add(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.addErrs) > 0 {
		err := f.addErrs[0]
		f.addErrs = f.addErrs[1:]
		return err
	}
	order.Version = 1
	f.items[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeOrders) Update(_ context.Context, id, ownerID uuid.UUID, order *models.Order) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	stored, ok := f.items[id]
	if !ok || stored.OwnerID != ownerID {
		return nil, database.ErrOrderNotFound
	}
	if stored.Version != order.Version {
		return nil, database.ErrOptimisticLockFailed
	}
	order.Version++
	f.items[id] = cloneOrder(order)
	return order, nil
}

func (f *fakeOrders) Filter(_ context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Order], error) {
	f.where = where
	return &store.Page[*models.Order]{Items: []*models.Order{}, PageSize: pageSize, PageNumber: pageNumber}, nil
}

func (f *fakeOrders) ListCursor(_ context.Context, _ uuid.UUID, cursor string, _ int) (*store.CursorPage[*models.Order], error) {
	f.cursorSeen = cursor
	return &store.CursorPage[*models.Order]{Items: []*models.Order{}}, nil
}

func (f *fakeOrders) Stats(_ context.Context, _ uuid.UUID) (*models.OrderStats, error) {
	return &models.OrderStats{Counts: map[models.OrderStatus]int64{}}, nil
}

type fakeTokens struct {
	items  map[uuid.UUID]*models.ConfirmationToken
	orders *fakeOrders
}

func (f *fakeTokens) Add(_ context.Context, token *models.ConfirmationToken) error {
	cp := *token
	f.items[token.ID] = &cp
	return nil
}

func (f *fakeTokens) GetByID(_ context.Context, id uuid.UUID) (*models.ConfirmationToken, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, database.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) Redeem(ctx context.Context, tokenID uuid.UUID, order *models.Order) error {
	t, ok := f.items[tokenID]
	if !ok {
		return database.ErrTokenNotFound
	}
	if t.Used {
		return database.ErrTokenAlreadyUsed
	}
	if err := f.orders.Add(ctx, order); err != nil {
		return err
	}
	t.Used = true
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	fail error
}

func (f *fakeNotifier) Notify(_ context.Context, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, orderID)
	return f.fail
}
