package models

import (
	"fmt"
	"strconv"
)

// OrderStatus values are persisted and sent over the wire as integers. The
// numbering must not change: New..Finished is the linear path and Cancelled
// is the side exit.
type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusAccepted
	OrderStatusDelivery
	OrderStatusFinished
	OrderStatusCancelled
)

var statusNames = [...]string{"New", "Accepted", "Delivery", "Finished", "Cancelled"}

func (s OrderStatus) String() string {
	if s.Valid() {
		return statusNames[s]
	}
	return "OrderStatus(" + strconv.Itoa(int(s)) + ")"
}

func (s OrderStatus) Valid() bool {
	return s >= OrderStatusNew && s <= OrderStatusCancelled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFinished || s == OrderStatusCancelled
}

// Next returns the successor on the New..Finished path.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusNew, OrderStatusAccepted, OrderStatusDelivery:
		return s + 1, true
	default:
		return s, false
	}
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	n, err := strconv.Atoi(raw)
	if err == nil {
		s := OrderStatus(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown order status %d", n)
		}
		return s, nil
	}
	for i, name := range statusNames {
		if name == raw {
			return OrderStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", raw)
}
