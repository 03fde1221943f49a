package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
)

// UnitOfWork opens one transaction per Do call for the background sweeps.
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(*Scope) error) error {
	return database.WithTransaction(ctx, u.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return fn(&Scope{tx: tx})
	})
}

// Scope exposes the sweep queries bound to one transaction. Selected rows are
// locked with SKIP LOCKED so concurrent sweepers never handle the same row.
type Scope struct {
	tx *sql.Tx
}

func (s *Scope) ExpiredTokens(ctx context.Context, now time.Time) ([]*models.ConfirmationToken, error) {
	return expiredTokens(ctx, s.tx, now, true)
}

func (s *Scope) DeleteTokens(ctx context.Context, tokens []*models.ConfirmationToken) (bool, error) {
	return deleteTokens(ctx, s.tx, tokens)
}

func (s *Scope) overdue(ctx context.Context, status models.OrderStatus, deadlineColumn string, now time.Time) ([]*models.Order, error) {
	rows, err := s.tx.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE status = $1
		   AND `+deadlineColumn+` IS NOT NULL
		   AND `+deadlineColumn+` < $2
		 ORDER BY `+deadlineColumn+`
		 FOR UPDATE SKIP LOCKED`,
		int(status), now)
	if err != nil {
		return nil, fmt.Errorf("list overdue %s orders: %w", status, err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := loadHistory(ctx, s.tx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Scope) OverdueDeliveries(ctx context.Context, now time.Time) ([]*models.Order, error) {
	return s.overdue(ctx, models.OrderStatusDelivery, "delivery_deadline", now)
}

func (s *Scope) OverduePreparations(ctx context.Context, now time.Time) ([]*models.Order, error) {
	return s.overdue(ctx, models.OrderStatusAccepted, "preparation_deadline", now)
}

func (s *Scope) SaveOrder(ctx context.Context, order *models.Order) error {
	return saveOrder(ctx, s.tx, order)
}
