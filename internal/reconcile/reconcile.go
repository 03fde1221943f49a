// Package reconcile runs the periodic sweeps that expire confirmation tokens,
// finish delivered orders and push back overdue preparation deadlines.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/safar/go-order-engine/internal/notify"
	"go.uber.org/zap"
)

const (
	TokenCleanupInterval       = 10 * time.Minute
	DeliveryCompletionInterval = time.Minute
	PreparationCheckInterval   = time.Minute

	PreparationExtension = 15 * time.Minute

	NotesDelivered = "Delivery window elapsed"
)

// Scope is one transaction's view of the records the sweeps touch.
type Scope interface {
	ExpiredTokens(ctx context.Context, now time.Time) ([]*models.ConfirmationToken, error)
	DeleteTokens(ctx context.Context, tokens []*models.ConfirmationToken) (bool, error)
	OverdueDeliveries(ctx context.Context, now time.Time) ([]*models.Order, error)
	OverduePreparations(ctx context.Context, now time.Time) ([]*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(Scope) error) error
}

// UnitOfWorkFunc adapts a function to UnitOfWork.
type UnitOfWorkFunc func(ctx context.Context, fn func(Scope) error) error

func (f UnitOfWorkFunc) Do(ctx context.Context, fn func(Scope) error) error {
	return f(ctx, fn)
}

// Job is a single sweep iteration. It returns how many records it changed.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) (int, error)
}

type Sweeper struct {
	uow            UnitOfWork
	notifier       notify.Notifier
	notifyFailures prometheus.Counter
}

// NewSweeper builds the sweeps. notifyFailures may be nil.
func NewSweeper(uow UnitOfWork, notifier notify.Notifier, notifyFailures prometheus.Counter) *Sweeper {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Sweeper{uow: uow, notifier: notifier, notifyFailures: notifyFailures}
}

func (s *Sweeper) Jobs() []Job {
	return []Job{
		{Name: "token_cleanup", Interval: TokenCleanupInterval, Run: s.CleanupTokens},
		{Name: "delivery_completion", Interval: DeliveryCompletionInterval, Run: s.CompleteDeliveries},
		{Name: "preparation_extension", Interval: PreparationCheckInterval, Run: s.ExtendPreparations},
	}
}

// CleanupTokens deletes unused tokens that expired before now.
func (s *Sweeper) CleanupTokens(ctx context.Context, now time.Time) (int, error) {
	var deleted int
	err := s.uow.Do(ctx, func(scope Scope) error {
		tokens, err := scope.ExpiredTokens(ctx, now)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			return nil
		}

		if _, err := scope.DeleteTokens(ctx, tokens); err != nil {
			return err
		}
		deleted = len(tokens)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}

	if deleted > 0 {
		zap.L().Info("deleted expired confirmation tokens", zap.Int("count", deleted))
	}
	return deleted, nil
}

// CompleteDeliveries finishes orders whose delivery window has passed. The
// status is forced without going through the processing engine, but the
// history still records the change.
func (s *Sweeper) CompleteDeliveries(ctx context.Context, now time.Time) (int, error) {
	var finished []uuid.UUID
	err := s.uow.Do(ctx, func(scope Scope) error {
		finished = finished[:0]

		orders, err := scope.OverdueDeliveries(ctx, now)
		if err != nil {
			return err
		}

		for _, order := range orders {
			order.AppendStatus(models.OrderStatusFinished, now, NotesDelivered)
			if err := scope.SaveOrder(ctx, order); err != nil {
				return fmt.Errorf("finish order %s: %w", order.OrderNumber, err)
			}
			finished = append(finished, order.ID)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("complete deliveries: %w", err)
	}

	for _, id := range finished {
		if err := s.notifier.Notify(ctx, id); err != nil {
			zap.L().Warn("failed to notify order update",
				zap.String("order_id", id.String()),
				zap.Error(err))
			if s.notifyFailures != nil {
				s.notifyFailures.Inc()
			}
		}
	}

	if len(finished) > 0 {
		zap.L().Info("finished delivered orders", zap.Int("count", len(finished)))
	}
	return len(finished), nil
}

// ExtendPreparations pushes overdue preparation deadlines back by
// PreparationExtension. There is no upper bound on how often an order is
// extended.
func (s *Sweeper) ExtendPreparations(ctx context.Context, now time.Time) (int, error) {
	var extended int
	err := s.uow.Do(ctx, func(scope Scope) error {
		extended = 0

		orders, err := scope.OverduePreparations(ctx, now)
		if err != nil {
			return err
		}

		for _, order := range orders {
			deadline := order.PreparationDeadline.Add(PreparationExtension)
			order.PreparationDeadline = &deadline
			if err := scope.SaveOrder(ctx, order); err != nil {
				return fmt.Errorf("extend order %s: %w", order.OrderNumber, err)
			}
			extended++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("extend preparations: %w", err)
	}

	if extended > 0 {
		zap.L().Info("extended overdue preparation deadlines", zap.Int("count", extended))
	}
	return extended, nil
}
