// Package processing enforces the order status state machine. It only mutates
// the order it is given; persistence is the caller's job.
package processing

import (
	"time"

	"github.com/safar/go-order-engine/internal/apperr"
	"github.com/safar/go-order-engine/internal/models"
)

const (
	DeliveryWindow = 15 * time.Minute

	NotesCreated   = "Order created"
	NotesPlaced    = "Order placed, awaiting confirmation"
	NotesCancelled = "Order cancelled by customer"
)

type Engine struct {
	now func() time.Time
}

func New() *Engine {
	return &Engine{now: time.Now}
}

// NewWithClock is used by tests and sweeps that need a fixed notion of now.
func NewWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Advance moves the order exactly one step along New, Accepted, Delivery,
// Finished. preparationMinutes is only read when entering Accepted.
func (e *Engine) Advance(order *models.Order, next models.OrderStatus, preparationMinutes int, notes string) error {
	if next == models.OrderStatusCancelled {
		return apperr.InvalidTransition("order %s: cancellation must use cancel, not advance", order.OrderNumber)
	}

	expected, ok := order.Status.Next()
	if !ok {
		return apperr.InvalidTransition("order %s is %s and cannot advance", order.OrderNumber, order.Status)
	}
	if next != expected {
		return apperr.InvalidTransition("order %s cannot move from %s to %s", order.OrderNumber, order.Status, next)
	}

	now := e.now()

	switch next {
	case models.OrderStatusAccepted:
		if preparationMinutes <= 0 {
			return apperr.Validation("preparation time must be positive, got %d minutes", preparationMinutes)
		}
		deadline := now.Add(time.Duration(preparationMinutes) * time.Minute)
		order.PreparationDeadline = &deadline
	case models.OrderStatusDelivery:
		deadline := now.Add(DeliveryWindow)
		order.DeliveryDeadline = &deadline
	}

	order.AppendStatus(next, now, notes)
	return nil
}

// Cancel is the side exit available from any non-terminal status. An empty
// reason is recorded as a customer cancellation.
func (e *Engine) Cancel(order *models.Order, reason string) error {
	if order.Status == models.OrderStatusCancelled {
		return apperr.InvalidTransition("order %s is already cancelled", order.OrderNumber)
	}
	if order.Status.IsTerminal() {
		return apperr.InvalidTransition("order %s is %s and cannot be cancelled", order.OrderNumber, order.Status)
	}

	if reason == "" {
		reason = NotesCancelled
	}
	order.AppendStatus(models.OrderStatusCancelled, e.now(), reason)
	return nil
}

// Start puts a freshly built order into New with its first history entry.
func (e *Engine) Start(order *models.Order, notes string) {
	if notes == "" {
		notes = NotesCreated
	}
	now := e.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.StatusHistory = nil
	order.AppendStatus(models.OrderStatusNew, now, notes)
}
