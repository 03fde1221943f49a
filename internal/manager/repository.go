package manager

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/store"
)

type RestaurantReader interface {
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Restaurant, error)
	GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Restaurant], error)
}

type ProductReader interface {
	GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Product], error)
}

type OrderRepository interface {
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Order, error)
	GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByRestaurantID(ctx context.Context, restaurantID uuid.UUID) ([]*models.Order, error)
	Add(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, id, ownerID uuid.UUID, order *models.Order) (*models.Order, error)
	Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*store.Page[*models.Order], error)
	ListCursor(ctx context.Context, ownerID uuid.UUID, cursor string, limit int) (*store.CursorPage[*models.Order], error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*models.OrderStats, error)
}

type TokenRepository interface {
	Add(ctx context.Context, token *models.ConfirmationToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ConfirmationToken, error)
	Redeem(ctx context.Context, tokenID uuid.UUID, order *models.Order) error
}

// translate maps persistence errors onto the error kinds callers act on.
// Anything unknown is returned unchanged and treated as internal.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrRestaurantNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrTokenNotFound):
		return apperr.Wrap(apperr.ErrNotFound, err, err.Error())
	case errors.Is(err, database.ErrOptimisticLockFailed):
		return apperr.Wrap(apperr.ErrInvalidOperation, err, "order was modified concurrently, reload and retry")
	case errors.Is(err, database.ErrTokenAlreadyUsed):
		return apperr.Wrap(apperr.ErrInvalidOperation, err, "confirmation token has already been used")
	default:
		return err
	}
}
