// Package filtertest holds order fixtures shared by the in-memory filter
// tests and the PostgreSQL store tests, so both evaluate the same cases.
package filtertest

import (
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/shopspring/decimal"
)

var (
	OwnerU = uuid.MustParse("8f1c1f39-4d8e-4f43-9a53-2f6d5c1b0a01")
	OwnerV = uuid.MustParse("2b7e0c55-9f4a-4b1e-8c0d-6a3e1f2d9b02")

	RestaurantU1 = uuid.MustParse("c3d2a1b0-1111-4a2b-9c3d-000000000001")
	RestaurantU2 = uuid.MustParse("c3d2a1b0-2222-4a2b-9c3d-000000000002")
	RestaurantV1 = uuid.MustParse("c3d2a1b0-3333-4a2b-9c3d-000000000003")

	Base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
)

func order(number string, owner, restaurant uuid.UUID, status models.OrderStatus, client, email string, created time.Time) *models.Order {
	o := &models.Order{
		ID:           uuid.New(),
		RestaurantID: restaurant,
		OwnerID:      owner,
		OrderNumber:  number,
		ClientName:   client,
		ClientEmail:  email,
		DeliveryAddress: models.Address{
			Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		LineItems: []models.LineItem{{
			ProductID: uuid.New(),
			Name:      "Margherita",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(10),
			VATRate:   decimal.NewFromFloat(0.1),
			LineTotal: decimal.NewFromInt(10),
		}},
		Total:     decimal.NewFromInt(10),
		CreatedAt: created,
		UpdatedAt: created,
		Version:   1,
	}
	for s := models.OrderStatusNew; ; {
		o.AppendStatus(s, created, "")
		if s == status {
			break
		}
		if status == models.OrderStatusCancelled {
			s = models.OrderStatusCancelled
			continue
		}
		s, _ = s.Next()
	}
	return o
}

// SmithOrders are three orders matched by searching for "smith".
func SmithOrders() []*models.Order {
	return []*models.Order{
		order("ORD-E-001", OwnerU, RestaurantU1, models.OrderStatusAccepted, "John Smith", "john@example.com", Base),
		order("ORD-E-002", OwnerU, RestaurantU1, models.OrderStatusNew, "Jane Smith", "jane@example.com", Base),
		order("ORD-E-003", OwnerV, RestaurantV1, models.OrderStatusAccepted, "Ann Smith", "ann@example.com", Base),
	}
}

// Orders is a broader data set spanning owners, restaurants, statuses and days.
func Orders() []*models.Order {
	return []*models.Order{
		order("ORD-F-001", OwnerU, RestaurantU1, models.OrderStatusNew, "Alice Cooper", "alice@example.com", Base.Add(-48*time.Hour)),
		order("ORD-F-002", OwnerU, RestaurantU1, models.OrderStatusAccepted, "Bob Marley", "bob@reggae.org", Base.Add(-24*time.Hour)),
		order("ORD-F-003", OwnerU, RestaurantU2, models.OrderStatusDelivery, "Carol King", "carol@example.com", Base),
		order("ORD-F-004", OwnerU, RestaurantU2, models.OrderStatusFinished, "Dave Grohl", "DAVE@FOO.IO", Base.Add(24*time.Hour)),
		order("ORD-F-005", OwnerU, RestaurantU1, models.OrderStatusCancelled, "Eve Smith", "eve@example.com", Base.Add(48*time.Hour)),
		order("ORD-F-006", OwnerV, RestaurantV1, models.OrderStatusNew, "Alice Smith", "alice@other.org", Base),
	}
}

type Case struct {
	Name    string
	Request filter.OrderRequest
	Want    []string
}

func ptr[T any](v T) *T { return &v }

// SmithCase is the owner + status + search key combination.
func SmithCase() Case {
	return Case{
		Name: "owner status and search",
		Request: filter.OrderRequest{
			OwnerID:   OwnerU,
			Status:    ptr(models.OrderStatusAccepted),
			SearchKey: ptr("smith"),
		},
		Want: []string{"ORD-E-001"},
	}
}

// Cases run against Orders(); Want lists order numbers in fixture order.
func Cases() []Case {
	return []Case{
		{
			Name:    "owner only",
			Request: filter.OrderRequest{OwnerID: OwnerU},
			Want:    []string{"ORD-F-001", "ORD-F-002", "ORD-F-003", "ORD-F-004", "ORD-F-005"},
		},
		{
			Name:    "restaurant",
			Request: filter.OrderRequest{OwnerID: OwnerU, RestaurantID: ptr(RestaurantU2)},
			Want:    []string{"ORD-F-003", "ORD-F-004"},
		},
		{
			Name:    "other owner's restaurant is empty",
			Request: filter.OrderRequest{OwnerID: OwnerU, RestaurantID: ptr(RestaurantV1)},
			Want:    nil,
		},
		{
			Name:    "status cancelled",
			Request: filter.OrderRequest{OwnerID: OwnerU, Status: ptr(models.OrderStatusCancelled)},
			Want:    []string{"ORD-F-005"},
		},
		{
			Name:    "inclusive date range",
			Request: filter.OrderRequest{OwnerID: OwnerU, From: ptr(Base.Add(-24 * time.Hour)), To: ptr(Base.Add(24 * time.Hour))},
			Want:    []string{"ORD-F-002", "ORD-F-003", "ORD-F-004"},
		},
		{
			Name:    "open lower bound",
			Request: filter.OrderRequest{OwnerID: OwnerU, To: ptr(Base)},
			Want:    []string{"ORD-F-001", "ORD-F-002", "ORD-F-003"},
		},
		{
			Name:    "open upper bound",
			Request: filter.OrderRequest{OwnerID: OwnerU, From: ptr(Base)},
			Want:    []string{"ORD-F-003", "ORD-F-004", "ORD-F-005"},
		},
		{
			Name:    "inverted range is empty",
			Request: filter.OrderRequest{OwnerID: OwnerU, From: ptr(Base.Add(time.Hour)), To: ptr(Base.Add(-time.Hour))},
			Want:    nil,
		},
		{
			Name:    "search is case insensitive over email",
			Request: filter.OrderRequest{OwnerID: OwnerU, SearchKey: ptr("foo.io")},
			Want:    []string{"ORD-F-004"},
		},
		{
			Name:    "search over order number",
			Request: filter.OrderRequest{OwnerID: OwnerU, SearchKey: ptr("f-00")},
			Want:    []string{"ORD-F-001", "ORD-F-002", "ORD-F-003", "ORD-F-004", "ORD-F-005"},
		},
		{
			Name:    "blank search is ignored",
			Request: filter.OrderRequest{OwnerID: OwnerU, SearchKey: ptr("   ")},
			Want:    []string{"ORD-F-001", "ORD-F-002", "ORD-F-003", "ORD-F-004", "ORD-F-005"},
		},
		{
			Name: "all fields",
			Request: filter.OrderRequest{
				OwnerID:      OwnerU,
				RestaurantID: ptr(RestaurantU1),
				Status:       ptr(models.OrderStatusAccepted),
				From:         ptr(Base.Add(-72 * time.Hour)),
				To:           ptr(Base),
				SearchKey:    ptr("MARLEY"),
			},
			Want: []string{"ORD-F-002"},
		},
	}
}
