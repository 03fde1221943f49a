package manager

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/filter"
	"github.com/safar/go-order-engine/internal/store"
)

const maxQuantity = 100

func (r PlaceOrderRequest) Validate() error {
	var errs apperr.FieldErrors

	if r.RestaurantID == uuid.Nil {
		errs.Add("restaurant_id", "is required")
	}
	if strings.TrimSpace(r.ClientName) == "" {
		errs.Add("client_name", "is required")
	}
	if strings.TrimSpace(r.ClientEmail) == "" {
		errs.Add("client_email", "is required")
	} else if _, err := mail.ParseAddress(r.ClientEmail); err != nil {
		errs.Add("client_email", "is not a valid email address")
	}
	if strings.TrimSpace(r.DeliveryAddress.Street) == "" {
		errs.Add("delivery_address.street", "is required")
	}
	if strings.TrimSpace(r.DeliveryAddress.City) == "" {
		errs.Add("delivery_address.city", "is required")
	}

	if len(r.Items) == 0 {
		errs.Add("items", "at least one item is required")
	}
	for i, item := range r.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID == uuid.Nil {
			errs.Add(field+".product_id", "is required")
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			errs.Add(field+".quantity", fmt.Sprintf("must be between 1 and %d", maxQuantity))
		}
	}

	return errs.Err()
}

func (r ProcessOrderRequest) Validate() error {
	var errs apperr.FieldErrors

	if r.OrderID == uuid.Nil {
		errs.Add("order_id", "is required")
	}
	if r.RestaurantID == uuid.Nil {
		errs.Add("restaurant_id", "is required")
	}
	if !r.Status.Valid() {
		errs.Add("status", fmt.Sprintf("unknown status %d", int(r.Status)))
	}

	return errs.Err()
}

func validatePaging(errs *apperr.FieldErrors, pageSize, pageNumber int) {
	if pageNumber < 0 {
		errs.Add("page", "must not be negative")
	}
	if pageSize < 0 || pageSize > store.MaxPageSize {
		errs.Add("page_size", fmt.Sprintf("must be between 1 and %d", store.MaxPageSize))
	}
}

func validateOrderRequest(req filter.OrderRequest, pageSize, pageNumber int) error {
	var errs apperr.FieldErrors

	if req.OwnerID == uuid.Nil {
		errs.Add("owner_id", "is required")
	}
	if req.Status != nil && !req.Status.Valid() {
		errs.Add("status", fmt.Sprintf("unknown status %d", int(*req.Status)))
	}
	validatePaging(&errs, pageSize, pageNumber)

	return errs.Err()
}

func validateProductRequest(req filter.ProductRequest, pageSize, pageNumber int) error {
	var errs apperr.FieldErrors

	if req.MinPrice != nil && req.MinPrice.IsNegative() {
		errs.Add("min_price", "must not be negative")
	}
	if req.MaxPrice != nil && req.MaxPrice.IsNegative() {
		errs.Add("max_price", "must not be negative")
	}
	validatePaging(&errs, pageSize, pageNumber)

	return errs.Err()
}

func validateRestaurantRequest(_ filter.RestaurantRequest, pageSize, pageNumber int) error {
	var errs apperr.FieldErrors
	validatePaging(&errs, pageSize, pageNumber)
	return errs.Err()
}
