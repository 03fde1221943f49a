package api

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/shopspring/decimal"
)

// queryParser reads optional query parameters and collects every malformed
// one instead of stopping at the first.
type queryParser struct {
	values url.Values
	errs   apperr.FieldErrors
}

func newQueryParser(values url.Values) *queryParser {
	return &queryParser{values: values}
}

func (p *queryParser) integer(name string) int {
	raw := p.values.Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs.Add(name, "must be an integer")
	}
	return n
}

func (p *queryParser) id(name string) *uuid.UUID {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		p.errs.Add(name, "must be a UUID")
		return nil
	}
	return &id
}

func (p *queryParser) timestamp(name string) *time.Time {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		p.errs.Add(name, "must be an RFC 3339 timestamp")
		return nil
	}
	return &t
}

func (p *queryParser) amount(name string) *decimal.Decimal {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs.Add(name, "must be a decimal number")
		return nil
	}
	return &d
}

func (p *queryParser) status(name string) *models.OrderStatus {
	raw := p.values.Get(name)
	if raw == "" {
		return nil
	}
	s, err := models.ParseOrderStatus(raw)
	if err != nil {
		p.errs.Add(name, err.Error())
		return nil
	}
	return &s
}

func (p *queryParser) text(name string) *string {
	if !p.values.Has(name) {
		return nil
	}
	s := p.values.Get(name)
	return &s
}

func (p *queryParser) err() error {
	return p.errs.Err()
}

type paging struct {
	pageSize   int
	pageNumber int
}

func (p *queryParser) paging() paging {
	return paging{pageSize: p.integer("page_size"), pageNumber: p.integer("page")}
}

func (p *queryParser) orderRequest(ownerID uuid.UUID) filter.OrderRequest {
	return filter.OrderRequest{
		OwnerID:      ownerID,
		RestaurantID: p.id("restaurant_id"),
		Status:       p.status("status"),
		From:         p.timestamp("from"),
		To:           p.timestamp("to"),
		SearchKey:    p.text("search"),
	}
}

func (p *queryParser) productRequest() filter.ProductRequest {
	return filter.ProductRequest{
		SearchKey: p.text("search"),
		MinPrice:  p.amount("min_price"),
		MaxPrice:  p.amount("max_price"),
	}
}

func (p *queryParser) restaurantRequest() filter.RestaurantRequest {
	return filter.RestaurantRequest{
		City:      p.text("city"),
		SearchKey: p.text("search"),
	}
}
