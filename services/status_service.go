package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/notifications"
)

// StatusUpdate is a status change requested by a shop terminal or a payment webhook.
type StatusUpdate struct {
	OrderID         uint
	Status          models.OrderStatus
	Actor           string
	Notes           string
	PaymentReversed bool
}

// StatusUpdateResult carries the updated order and, for shop orders, the recomputed main order.
// MainOrder is nil when the recompute failed; the status change itself still stands.
type StatusUpdateResult struct {
	Order     *models.Order `json:"order"`
	MainOrder *models.Order `json:"main_order,omitempty"`
}

// ItemStatusUpdate moves one line item of an order.
type ItemStatusUpdate struct {
	OrderID   uint
	ItemIndex int
	Status    models.ItemStatus
	Actor     string
}

// StatusService applies externally requested status changes.
type StatusService struct {
	store       OrderStore
	aggregation *AggregationEngine
	notifier    notifications.Notifier
	maxAttempts int
	now         func() time.Time
}

// NewStatusService creates a status service that recomputes main orders through aggregation.
func NewStatusService(deps Deps, aggregation *AggregationEngine) *StatusService {
	deps = deps.withDefaults()
	return &StatusService{
		store:       deps.Store,
		aggregation: aggregation,
		notifier:    deps.Notifier,
		maxAttempts: deps.RecomputeMaxAttempts,
		now:         deps.Now,
	}
}

// UpdateShopOrderStatus moves a shop or single order to a new status. Zone main orders are
// rejected because their status is derived. After a shop order changes, its main order is
// recomputed before returning; a failed recompute is logged and left to the next trigger.
func (s *StatusService) UpdateShopOrderStatus(ctx context.Context, update StatusUpdate) (*StatusUpdateResult, error) {
	var (
		order    *models.Order
		previous models.OrderStatus
	)
	for attempt := 1; ; attempt++ {
		var err error
		order, err = s.store.GetOrder(ctx, update.OrderID)
		if err != nil {
			return nil, err
		}
		if order.OrderType.IsZoneMain() {
			return nil, fmt.Errorf("%w: %s", ErrDerivedStatus, order.OrderNumber)
		}
		if err := models.ValidateTransition(order.Status, update.Status, update.PaymentReversed); err != nil {
			return nil, fmt.Errorf("order %s: %w", order.OrderNumber, err)
		}

		previous = order.Status
		order.RecordStatus(update.Status, actorOrSystem(update.Actor), update.Notes, false, s.now())
		order.AdvanceItems(update.Status)

		err = s.store.UpdateOrder(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= s.maxAttempts {
			return nil, err
		}
		log.Printf("Status update of %s lost a write race (attempt %d/%d)", order.OrderNumber, attempt, s.maxAttempts)
	}

	log.Printf("Order %s: %s → %s by %s", order.OrderNumber, previous, order.Status, actorOrSystem(update.Actor))
	notifications.Dispatch(ctx, s.notifier, notifications.CustomerChannel(order.CustomerID), notifications.Payload{
		Event:       notifications.EventOrderStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Message:     fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status),
		Data:        map[string]any{"previous_status": string(previous)},
	})

	result := &StatusUpdateResult{Order: order}
	if order.OrderType.IsZoneShop() && order.ParentOrderID != nil {
		main, err := s.aggregation.RecomputeMainStatus(ctx, *order.ParentOrderID)
		if err != nil {
			log.Printf("Error: recompute of main order %d after %s changed: %v", *order.ParentOrderID, order.OrderNumber, err)
		} else {
			result.MainOrder = main
		}
	}
	return result, nil
}

// UpdateItemStatus moves one item forward. Items never move backwards and items of
// finished orders are frozen.
func (s *StatusService) UpdateItemStatus(ctx context.Context, update ItemStatusUpdate) (*models.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.store.GetOrder(ctx, update.OrderID)
		if err != nil {
			return nil, err
		}
		if update.ItemIndex < 0 || update.ItemIndex >= len(order.Items) {
			return nil, fmt.Errorf("%w: %s has no item %d", ErrItemNotFound, order.OrderNumber, update.ItemIndex)
		}
		if order.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: order %s is %s", models.ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		item := &order.Items[update.ItemIndex]
		if !item.Status.Before(update.Status) {
			return nil, fmt.Errorf("%w: item %d of %s is already %s",
				models.ErrInvalidTransition, update.ItemIndex, order.OrderNumber, item.Status)
		}
		previous := item.Status
		item.Status = update.Status

		err = s.store.UpdateOrder(ctx, order)
		if err == nil {
			log.Printf("Order %s item %d: %s → %s by %s",
				order.OrderNumber, update.ItemIndex, previous, update.Status, actorOrSystem(update.Actor))
			return order, nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= s.maxAttempts {
			return nil, err
		}
	}
}
