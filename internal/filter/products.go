package filter

import (
	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/shopspring/decimal"
)

// ProductRequest lists products. A nil OwnerID selects the public view, which
// only shows enabled products of any owner.
type ProductRequest struct {
	OwnerID      *uuid.UUID
	RestaurantID *uuid.UUID
	SearchKey    *string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
}

func Products(req ProductRequest) Filter[*models.Product] {
	var b *builder[*models.Product]
	if req.OwnerID != nil {
		owner := *req.OwnerID
		b = newBuilder(func(p *models.Product) bool { return p.OwnerID == owner },
			"owner_id = ?", owner)
	} else {
		b = newBuilder(func(p *models.Product) bool { return p.Enabled },
			"enabled = TRUE")
	}

	if req.RestaurantID != nil {
		restaurantID := *req.RestaurantID
		b.and(func(p *models.Product) bool { return p.RestaurantID == restaurantID },
			"restaurant_id = ?", restaurantID)
	}

	if term, ok := searchTerm(req.SearchKey); ok {
		cond, args := ilikeAny(term, "name")
		b.and(func(p *models.Product) bool { return containsFold(p.Name, term) },
			cond, args...)
	}

	if req.MinPrice != nil {
		lo := *req.MinPrice
		b.and(func(p *models.Product) bool { return p.Price.GreaterThanOrEqual(lo) },
			"price >= ?", lo)
	}

	if req.MaxPrice != nil {
		hi := *req.MaxPrice
		b.and(func(p *models.Product) bool { return p.Price.LessThanOrEqual(hi) },
			"price <= ?", hi)
	}

	return b.build()
}
