package models

import (
	"errors"
	"fmt"
)

// OrderStatus is the order-level lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"

	// Only ever produced by aggregation on zone main orders.
	StatusPartiallyReady     OrderStatus = "partially_ready"
	StatusPartiallyCompleted OrderStatus = "partially_completed"
)

var (
	// ErrInvalidTransition is returned when a status change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus is returned when a status string is not recognised.
	ErrUnknownStatus = errors.New("unknown status")
)

// lifecycleRank orders the forward path. Statuses outside the path have no rank.
var lifecycleRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusCompleted: 4,
}

// ParseOrderStatus validates s against every known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted,
		StatusCancelled, StatusRefunded, StatusPartiallyReady, StatusPartiallyCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

// IsAggregateOnly reports whether s may only be assigned by aggregation.
func (s OrderStatus) IsAggregateOnly() bool {
	return s == StatusPartiallyReady || s == StatusPartiallyCompleted
}

// ValidateTransition checks an externally requested status change.
// Forward moves along pending → confirmed → preparing → ready → completed may skip stages.
// Cancellation is allowed from any non-terminal state. Refunds need a payment reversal.
func ValidateTransition(from, to OrderStatus, paymentReversed bool) error {
	if to.IsAggregateOnly() {
		return fmt.Errorf("%w: %s is derived from shop orders", ErrInvalidTransition, to)
	}

	switch to {
	case StatusRefunded:
		if from != StatusCompleted && from != StatusCancelled {
			return fmt.Errorf("%w: cannot refund a %s order", ErrInvalidTransition, from)
		}
		if !paymentReversed {
			return fmt.Errorf("%w: refund requires a payment reversal", ErrInvalidTransition)
		}
		return nil
	case StatusCancelled:
		if from.IsTerminal() {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
		}
		return nil
	}

	fromRank, fromOK := lifecycleRank[from]
	toRank, toOK := lifecycleRank[to]
	if !fromOK || !toOK || from.IsTerminal() || toRank <= fromRank {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ItemStatus is the per-line-item preparation state.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemConfirmed ItemStatus = "confirmed"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

var itemRank = map[ItemStatus]int{
	ItemPending:   0,
	ItemConfirmed: 1,
	ItemPreparing: 2,
	ItemReady:     3,
	ItemServed:    4,
}

// ParseItemStatus validates s.
func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if _, ok := itemRank[st]; !ok {
		return "", fmt.Errorf("%w: item status %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Before reports whether s comes strictly earlier than other.
func (s ItemStatus) Before(other ItemStatus) bool {
	return itemRank[s] < itemRank[other]
}

// ItemStatusFor maps an order status onto the item status it implies, if any.
func ItemStatusFor(s OrderStatus) (ItemStatus, bool) {
	switch s {
	case StatusConfirmed:
		return ItemConfirmed, true
	case StatusPreparing:
		return ItemPreparing, true
	case StatusReady:
		return ItemReady, true
	case StatusCompleted:
		return ItemServed, true
	}
	return "", false
}
