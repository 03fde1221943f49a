package filter

import (
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/models"
)

// OrderRequest lists an owner's orders. Nil fields do not constrain the result.
type OrderRequest struct {
	OwnerID      uuid.UUID
	RestaurantID *uuid.UUID
	Status       *models.OrderStatus
	From         *time.Time
	To           *time.Time
	SearchKey    *string
}

func Orders(req OrderRequest) Filter[*models.Order] {
	owner := req.OwnerID
	b := newBuilder(func(o *models.Order) bool { return o.OwnerID == owner },
		"owner_id = ?", owner)

	if req.RestaurantID != nil {
		restaurantID := *req.RestaurantID
		b.and(func(o *models.Order) bool { return o.RestaurantID == restaurantID },
			"restaurant_id = ?", restaurantID)
	}

	if req.Status != nil {
		status := *req.Status
		b.and(func(o *models.Order) bool { return o.Status == status },
			"status = ?", int(status))
	}

	if req.From != nil {
		from := *req.From
		b.and(func(o *models.Order) bool { return !o.CreatedAt.Before(from) },
			"created_at >= ?", from)
	}

	if req.To != nil {
		to := *req.To
		b.and(func(o *models.Order) bool { return !o.CreatedAt.After(to) },
			"created_at <= ?", to)
	}

	if term, ok := searchTerm(req.SearchKey); ok {
		cond, args := ilikeAny(term, "order_number", "client_name", "client_email")
		b.and(func(o *models.Order) bool {
			return containsAny(term, o.OrderNumber, o.ClientName, o.ClientEmail)
		}, cond, args...)
	}

	return b.build()
}
