package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Enabled     bool      `json:"enabled"`
	OpeningTime ClockTime `json:"opening_time"`
	ClosingTime ClockTime `json:"closing_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// IsOpenAt reports whether t falls into [OpeningTime, ClosingTime). A window
// whose closing time is before its opening time spans midnight. Equal times
// make an empty window.
func (r *Restaurant) IsOpenAt(t time.Time) bool {
	now := ClockOf(t)
	if r.ClosingTime == r.OpeningTime {
		return false
	}
	if r.ClosingTime > r.OpeningTime {
		return now >= r.OpeningTime && now < r.ClosingTime
	}
	return now >= r.OpeningTime || now < r.ClosingTime
}

type Product struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	ImageRef     string          `json:"image_ref,omitempty"`
	Enabled      bool            `json:"enabled"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LineItem is a copy of the product as it was when the order was placed.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VATRate   decimal.Decimal `json:"vat_rate"`
	LineTotal decimal.Decimal `json:"line_total"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Notes     string      `json:"notes,omitempty"`
}

type Order struct {
	ID                  uuid.UUID       `json:"id"`
	RestaurantID        uuid.UUID       `json:"restaurant_id"`
	OwnerID             uuid.UUID       `json:"owner_id"`
	OrderNumber         string          `json:"order_number"`
	Status              OrderStatus     `json:"status"`
	StatusHistory       []StatusEntry   `json:"status_history,omitempty"`
	ClientName          string          `json:"client_name"`
	ClientEmail         string          `json:"client_email"`
	DeliveryAddress     Address         `json:"delivery_address"`
	LineItems           []LineItem      `json:"line_items,omitempty"`
	Total               decimal.Decimal `json:"total"`
	PreparationDeadline *time.Time      `json:"preparation_deadline,omitempty"`
	DeliveryDeadline    *time.Time      `json:"delivery_deadline,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// AppendStatus moves the order to status and records it in the history.
func (o *Order) AppendStatus(status OrderStatus, at time.Time, notes string) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		Status:    status,
		Timestamp: at,
		Notes:     notes,
	})
}

// ConfirmationToken holds a guest checkout until the emailed link is visited.
type ConfirmationToken struct {
	ID              uuid.UUID       `json:"id"`
	RestaurantID    uuid.UUID       `json:"restaurant_id"`
	OwnerID         uuid.UUID       `json:"owner_id"`
	ClientName      string          `json:"client_name"`
	ClientEmail     string          `json:"client_email"`
	DeliveryAddress Address         `json:"delivery_address"`
	LineItems       []LineItem      `json:"line_items"`
	Total           decimal.Decimal `json:"total"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Used            bool            `json:"used"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (t *ConfirmationToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

type OrderStats struct {
	Counts         map[OrderStatus]int64 `json:"counts"`
	TotalOrders    int64                 `json:"total_orders"`
	FinishedAmount decimal.Decimal       `json:"finished_amount"`
}
