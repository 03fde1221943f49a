// Package manager validates requests, enforces the cross-entity rules of
// order placement and drives the processing engine against persistence.
package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/notify"
	"github.com/safar/go-order-engine/internal/processing"
	"github.com/safar/go-order-engine/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultConfirmationTTL = 30 * time.Minute

	orderNumberAttempts = 3
)

type LineItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type PlaceOrderRequest struct {
	RestaurantID        uuid.UUID         `json:"restaurant_id"`
	ClientName          string            `json:"client_name"`
	ClientEmail         string            `json:"client_email"`
	DeliveryAddress     models.Address    `json:"delivery_address"`
	Items               []LineItemRequest `json:"items"`
	RequireConfirmation bool              `json:"require_confirmation"`
}

// PlaceOrderResult carries OrderID when the order was stored right away and
// ConfirmationToken when it waits for the guest to confirm.
type PlaceOrderResult struct {
	OrderID           *uuid.UUID      `json:"order_id,omitempty"`
	OrderNumber       string          `json:"order_number,omitempty"`
	ConfirmationToken *uuid.UUID      `json:"confirmation_token,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

type ProcessOrderRequest struct {
	OrderID            uuid.UUID          `json:"-"`
	OwnerID            uuid.UUID          `json:"-"`
	RestaurantID       uuid.UUID          `json:"restaurant_id"`
	Status             models.OrderStatus `json:"status"`
	PreparationMinutes int                `json:"preparation_minutes"`
	Notes              string             `json:"notes"`
}

type Options struct {
	Now             func() time.Time
	Location        *time.Location
	ConfirmationTTL time.Duration
	NotifyFailures  prometheus.Counter
}

type Orders struct {
	restaurants RestaurantReader
	products    ProductReader
	orders      OrderRepository
	tokens      TokenRepository
	notifier    notify.Notifier
	engine      *processing.Engine

	now             func() time.Time
	location        *time.Location
	confirmationTTL time.Duration
	notifyFailures  prometheus.Counter
}

func NewOrders(
	restaurants RestaurantReader,
	products ProductReader,
	orders OrderRepository,
	tokens TokenRepository,
	notifier notify.Notifier,
	opts Options,
) *Orders {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ConfirmationTTL <= 0 {
		opts.ConfirmationTTL = DefaultConfirmationTTL
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Orders{
		restaurants:     restaurants,
		products:        products,
		orders:          orders,
		tokens:          tokens,
		notifier:        notifier,
		engine:          processing.NewWithClock(opts.Now),
		now:             opts.Now,
		location:        opts.Location,
		confirmationTTL: opts.ConfirmationTTL,
		notifyFailures:  opts.NotifyFailures,
	}
}

// NewOrderNumber formats ORD-YYYYMMDD-XXXXXXXX with the date in loc and eight
// random hex digits.
func NewOrderNumber(now time.Time, loc *time.Location) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.In(loc).Format("20060102"), suffix)
}

func (m *Orders) notify(ctx context.Context, orderID uuid.UUID) {
	if err := m.notifier.Notify(ctx, orderID); err != nil {
		zap.L().Warn("failed to notify order update",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		if m.notifyFailures != nil {
			m.notifyFailures.Inc()
		}
	}
}

// priceItems snapshots the current product prices into line items. Later
// price changes never touch an order built from the result.
func (m *Orders) priceItems(ctx context.Context, restaurant *models.Restaurant, items []LineItemRequest) ([]models.LineItem, decimal.Decimal, error) {
	lineItems := make([]models.LineItem, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		product, err := m.products.GetByIDPublic(ctx, item.ProductID)
		if err != nil {
			return nil, decimal.Zero, translate(err)
		}
		if product.RestaurantID != restaurant.ID {
			return nil, decimal.Zero, apperr.Validation("product %s does not belong to restaurant %s", product.Name, restaurant.Name)
		}
		if !product.Enabled {
			return nil, decimal.Zero, apperr.Validation("product %s is not available", product.Name)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)

		lineItems = append(lineItems, models.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			VATRate:   product.VATRate,
			LineTotal: lineTotal,
			ImageRef:  product.ImageRef,
		})
	}

	return lineItems, total, nil
}

func (m *Orders) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	restaurant, err := m.restaurants.GetByIDPublic(ctx, req.RestaurantID)
	if err != nil {
		return nil, translate(err)
	}
	if !restaurant.Enabled {
		return nil, apperr.Validation("restaurant %s is not accepting orders", restaurant.Name)
	}

	now := m.now()
	if !restaurant.IsOpenAt(now.In(m.location)) {
		return nil, apperr.Validation("restaurant %s is closed, opening hours are %s-%s",
			restaurant.Name, restaurant.OpeningTime, restaurant.ClosingTime)
	}

	lineItems, total, err := m.priceItems(ctx, restaurant, req.Items)
	if err != nil {
		return nil, err
	}

	if req.RequireConfirmation {
		token := &models.ConfirmationToken{
			ID:              uuid.New(),
			RestaurantID:    restaurant.ID,
			OwnerID:         restaurant.OwnerID,
			ClientName:      strings.TrimSpace(req.ClientName),
			ClientEmail:     strings.TrimSpace(req.ClientEmail),
			DeliveryAddress: req.DeliveryAddress,
			LineItems:       lineItems,
			Total:           total,
			ExpiresAt:       now.Add(m.confirmationTTL),
			CreatedAt:       now,
		}
		if err := m.tokens.Add(ctx, token); err != nil {
			return nil, fmt.Errorf("store confirmation token: %w", err)
		}

		zap.L().Info("order awaiting confirmation",
			zap.String("token_id", token.ID.String()),
			zap.String("restaurant_id", restaurant.ID.String()))

		return &PlaceOrderResult{
			ConfirmationToken: &token.ID,
			ExpiresAt:         &token.ExpiresAt,
			TotalAmount:       total,
		}, nil
	}

	order := &models.Order{
		RestaurantID:    restaurant.ID,
		OwnerID:         restaurant.OwnerID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		DeliveryAddress: req.DeliveryAddress,
		LineItems:       lineItems,
		Total:           total,
	}
	if err := m.insert(ctx, order, m.orders.Add); err != nil {
		return nil, err
	}

	m.notify(ctx, order.ID)

	return &PlaceOrderResult{
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: total,
	}, nil
}

// insert starts the order and stores it with add, drawing a new order number
// when the generated one collides.
func (m *Orders) insert(ctx context.Context, order *models.Order, add func(context.Context, *models.Order) error) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.ID = uuid.New()
		m.engine.Start(order, processing.NotesPlaced)
		order.OrderNumber = NewOrderNumber(order.CreatedAt, m.location)

		err = add(ctx, order)
		if err == nil {
			zap.L().Info("order placed",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber),
				zap.String("total", order.Total.String()))
			return nil
		}
		if !database.IsUniqueViolation(err) {
			return translate(err)
		}
	}
	return fmt.Errorf("generate unique order number: %w", err)
}

func (m *Orders) ConfirmOrder(ctx context.Context, tokenID uuid.UUID) (*models.Order, error) {
	token, err := m.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return nil, translate(err)
	}
	if token.Used {
		return nil, apperr.InvalidOperation("confirmation token has already been used")
	}
	if token.IsExpired(m.now()) {
		return nil, apperr.InvalidOperation("confirmation token expired at %s", token.ExpiresAt.Format(time.RFC3339))
	}

	order := &models.Order{
		RestaurantID:    token.RestaurantID,
		OwnerID:         token.OwnerID,
		ClientName:      token.ClientName,
		ClientEmail:     token.ClientEmail,
		DeliveryAddress: token.DeliveryAddress,
		LineItems:       token.LineItems,
		Total:           token.Total,
	}
	redeem := func(ctx context.Context, o *models.Order) error {
		return m.tokens.Redeem(ctx, token.ID, o)
	}
	if err := m.insert(ctx, order, redeem); err != nil {
		return nil, err
	}

	m.notify(ctx, order.ID)
	return order, nil
}

func (m *Orders) ProcessOrder(ctx context.Context, req ProcessOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := m.orders.GetByID(ctx, req.OrderID, req.OwnerID)
	if err != nil {
		return nil, translate(err)
	}
	if order.RestaurantID != req.RestaurantID {
		return nil, apperr.Unauthorized("order %s does not belong to restaurant %s", order.OrderNumber, req.RestaurantID)
	}

	from := order.Status
	if err := m.engine.Advance(order, req.Status, req.PreparationMinutes, req.Notes); err != nil {
		return nil, err
	}

	updated, err := m.orders.Update(ctx, order.ID, order.OwnerID, order)
	if err != nil {
		return nil, translate(err)
	}

	zap.L().Info("order advanced",
		zap.String("order_id", order.ID.String()),
		zap.Stringer("from", from),
		zap.Stringer("to", updated.Status))

	m.notify(ctx, order.ID)
	return updated, nil
}

func (m *Orders) cancel(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if order.Status.IsTerminal() {
		return nil, apperr.InvalidOperation("order %s is already %s", order.OrderNumber, order.Status)
	}
	if err := m.engine.Cancel(order, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}

	updated, err := m.orders.Update(ctx, order.ID, order.OwnerID, order)
	if err != nil {
		return nil, translate(err)
	}

	zap.L().Info("order cancelled", zap.String("order_id", order.ID.String()))

	m.notify(ctx, order.ID)
	return updated, nil
}

// CancelOrderPublic is the guest path: the order is looked up without owner
// scoping.
func (m *Orders) CancelOrderPublic(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := m.orders.GetByIDPublic(ctx, orderID)
	if err != nil {
		return nil, translate(err)
	}
	return m.cancel(ctx, order, reason)
}

func (m *Orders) CancelOrder(ctx context.Context, orderID, ownerID uuid.UUID, reason string) (*models.Order, error) {
	order, err := m.orders.GetByID(ctx, orderID, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return m.cancel(ctx, order, reason)
}

func (m *Orders) FilterOrders(ctx context.Context, req filter.OrderRequest, pageSize, pageNumber int) (*store.Page[*models.Order], error) {
	if err := validateOrderRequest(req, pageSize, pageNumber); err != nil {
		return nil, err
	}

	f := filter.Orders(req)
	page, err := m.orders.Filter(ctx, f.Where, pageSize, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	return page, nil
}

func (m *Orders) GetOrder(ctx context.Context, id, ownerID uuid.UUID) (*models.Order, error) {
	order, err := m.orders.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

func (m *Orders) RestaurantOrders(ctx context.Context, restaurantID, ownerID uuid.UUID) ([]*models.Order, error) {
	if _, err := m.restaurants.GetByID(ctx, restaurantID, ownerID); err != nil {
		return nil, translate(err)
	}

	orders, err := m.orders.GetByRestaurantID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("restaurant orders: %w", err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (m *Orders) OrderFeed(ctx context.Context, ownerID uuid.UUID, cursor string, limit int) (*store.CursorPage[*models.Order], error) {
	if _, _, err := store.DecodeCursor(cursor); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, err, "invalid cursor")
	}

	page, err := m.orders.ListCursor(ctx, ownerID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("order feed: %w", err)
	}
	return page, nil
}

func (m *Orders) Stats(ctx context.Context, ownerID uuid.UUID) (*models.OrderStats, error) {
	stats, err := m.orders.Stats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}
