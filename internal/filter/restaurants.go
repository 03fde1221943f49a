package filter

import (
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/models"
)

// RestaurantRequest lists restaurants; nil OwnerID means the public,
// enabled-only listing.
type RestaurantRequest struct {
	OwnerID   *uuid.UUID
	City      *string
	SearchKey *string
}

func Restaurants(req RestaurantRequest) Filter[*models.Restaurant] {
	var b *builder[*models.Restaurant]
	if req.OwnerID != nil {
		owner := *req.OwnerID
		b = newBuilder(func(r *models.Restaurant) bool { return r.OwnerID == owner },
			"owner_id = ?", owner)
	} else {
		b = newBuilder(func(r *models.Restaurant) bool { return r.Enabled },
			"enabled = TRUE")
	}

	if city, ok := searchTerm(req.City); ok {
		b.and(func(r *models.Restaurant) bool { return strings.EqualFold(r.City, city) },
			"LOWER(city) = LOWER(?)", city)
	}

	if term, ok := searchTerm(req.SearchKey); ok {
		cond, args := ilikeAny(term, "name", "description", "address", "city")
		b.and(func(r *models.Restaurant) bool {
			return containsAny(term, r.Name, r.Description, r.Address, r.City)
		}, cond, args...)
	}

	return b.build()
}
