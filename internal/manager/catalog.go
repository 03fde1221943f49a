package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/store"
)

// Catalog serves restaurant and product listings.
type Catalog struct {
	restaurants RestaurantReader
	products    ProductReader
}

func NewCatalog(restaurants RestaurantReader, products ProductReader) *Catalog {
	return &Catalog{restaurants: restaurants, products: products}
}

func (c *Catalog) FilterRestaurants(ctx context.Context, req filter.RestaurantRequest, pageSize, pageNumber int) (*store.Page[*models.Restaurant], error) {
	if err := validateRestaurantRequest(req, pageSize, pageNumber); err != nil {
		return nil, err
	}

	page, err := c.restaurants.Filter(ctx, filter.Restaurants(req).Where, pageSize, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("filter restaurants: %w", err)
	}
	return page, nil
}

func (c *Catalog) FilterProducts(ctx context.Context, req filter.ProductRequest, pageSize, pageNumber int) (*store.Page[*models.Product], error) {
	if err := validateProductRequest(req, pageSize, pageNumber); err != nil {
		return nil, err
	}

	page, err := c.products.Filter(ctx, filter.Products(req).Where, pageSize, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("filter products: %w", err)
	}
	return page, nil
}

// Menu lists the enabled products of one restaurant, which must exist.
func (c *Catalog) Menu(ctx context.Context, restaurantID uuid.UUID, req filter.ProductRequest, pageSize, pageNumber int) (*store.Page[*models.Product], error) {
	if _, err := c.restaurants.GetByIDPublic(ctx, restaurantID); err != nil {
		return nil, translate(err)
	}

	req.OwnerID = nil
	req.RestaurantID = &restaurantID
	return c.FilterProducts(ctx, req, pageSize, pageNumber)
}
