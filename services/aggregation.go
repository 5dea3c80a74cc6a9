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

const systemActor = "system"

// StatusTally counts shop order statuses. Refunded orders count as cancelled; pending ones
// only count toward Total.
type StatusTally struct {
	Total     int
	Completed int
	Ready     int
	Preparing int
	Confirmed int
	Cancelled int
}

// TallyStatuses counts statuses.
func TallyStatuses(statuses []models.OrderStatus) StatusTally {
	t := StatusTally{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case models.StatusCompleted:
			t.Completed++
		case models.StatusReady:
			t.Ready++
		case models.StatusPreparing:
			t.Preparing++
		case models.StatusConfirmed:
			t.Confirmed++
		case models.StatusCancelled, models.StatusRefunded:
			t.Cancelled++
		}
	}
	return t
}

// InProgress is the preparing/confirmed bucket.
func (t StatusTally) InProgress() int {
	return t.Preparing + t.Confirmed
}

// Summary is the tally in the shape cached on the main order.
func (t StatusTally) Summary() models.ShopOrderSummary {
	return models.ShopOrderSummary{
		TotalShops:     t.Total,
		CompletedShops: t.Completed,
		ReadyShops:     t.Ready,
		PreparingShops: t.InProgress(),
		CancelledShops: t.Cancelled,
	}
}

func (t StatusTally) String() string {
	return fmt.Sprintf("%d shops: %d completed, %d ready, %d preparing, %d cancelled",
		t.Total, t.Completed, t.Ready, t.InProgress(), t.Cancelled)
}

// DeriveMainStatus maps a tally of shop order statuses onto the main order status.
// Rules are checked in order and the first match wins. The single-shop rules come first so a
// lone shop order always drags its main order through every stage.
func DeriveMainStatus(t StatusTally) models.OrderStatus {
	if t.Total == 0 {
		return models.StatusConfirmed
	}
	if t.Total == 1 {
		switch {
		case t.Completed == 1:
			return models.StatusCompleted
		case t.Ready == 1:
			return models.StatusReady
		case t.Preparing == 1:
			return models.StatusPreparing
		case t.Confirmed == 1:
			return models.StatusConfirmed
		case t.Cancelled == 1:
			return models.StatusCancelled
		}
	}

	if t.Completed == t.Total {
		return models.StatusCompleted
	}
	if t.Cancelled == t.Total {
		return models.StatusCancelled
	}

	active := t.Total - t.Cancelled
	// Also covers every completed+cancelled mix, so partially_completed is never derived.
	if active > 0 && t.Completed == active {
		return models.StatusCompleted
	}
	if active > 0 && t.Ready+t.Completed == active {
		if t.Completed > 0 {
			return models.StatusPartiallyReady
		}
		return models.StatusReady
	}
	if t.Ready+t.Completed > 0 {
		return models.StatusPartiallyReady
	}
	if t.InProgress() > 0 {
		return models.StatusPreparing
	}
	return models.StatusConfirmed
}

// AggregationEngine derives zone main order statuses from their shop orders.
type AggregationEngine struct {
	store       OrderStore
	notifier    notifications.Notifier
	maxAttempts int
	now         func() time.Time
}

// NewAggregationEngine creates an engine on deps.
func NewAggregationEngine(deps Deps) *AggregationEngine {
	deps = deps.withDefaults()
	return &AggregationEngine{
		store:       deps.Store,
		notifier:    deps.Notifier,
		maxAttempts: deps.RecomputeMaxAttempts,
		now:         deps.Now,
	}
}

// RecomputeMainStatus re-reads the main order and all of its shop orders and writes the
// derived status back. It is idempotent: without a shop order change in between, a second
// call adds no history and sends no notification.
//
// Every cycle ends in a write guarded by the version read at its start, including a bare
// version bump when nothing changed. A cycle that read shop orders older than a concurrent
// cycle's therefore loses its write and starts over, and the main order converges on the
// status of the latest shop order multiset.
func (e *AggregationEngine) RecomputeMainStatus(ctx context.Context, mainOrderID uint) (*models.Order, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		main, err := e.store.GetOrder(ctx, mainOrderID)
		if err != nil {
			return nil, err
		}
		if !main.OrderType.IsZoneMain() {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotZoneMain, main.OrderNumber, main.OrderType)
		}

		children, err := e.store.ListChildOrders(ctx, main.ID)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return main, nil
		}

		statuses := make([]models.OrderStatus, len(children))
		for i := range children {
			statuses[i] = children[i].Status
		}
		tally := TallyStatuses(statuses)
		summary := tally.Summary()
		previous := main.Status
		next := DeriveMainStatus(tally)

		switch {
		case next != previous:
			main.ShopOrderSummary = summary
			main.RecordStatus(next, systemActor, "Derived from "+tally.String(), true, e.now())
			err = e.store.UpdateOrder(ctx, main)
		case main.ShopOrderSummary != summary:
			main.ShopOrderSummary = summary
			err = e.store.UpdateOrder(ctx, main)
		default:
			if err = e.store.TouchOrder(ctx, main.ID, main.Version); err == nil {
				main.Version++
			}
		}
		if errors.Is(err, ErrVersionConflict) {
			log.Printf("Recompute of %s lost a write race (attempt %d/%d)", main.OrderNumber, attempt, e.maxAttempts)
			continue
		}
		if err != nil {
			return nil, err
		}

		if next != previous {
			log.Printf("Main order %s: %s → %s (%s)", main.OrderNumber, previous, next, tally)
			e.notifyChange(ctx, main, previous)
		}
		return main, nil
	}

	log.Printf("Error: giving up recompute of main order %d after %d attempts", mainOrderID, e.maxAttempts)
	return nil, fmt.Errorf("%w: order %d after %d attempts", ErrRecomputeConflict, mainOrderID, e.maxAttempts)
}

func (e *AggregationEngine) notifyChange(ctx context.Context, main *models.Order, previous models.OrderStatus) {
	payload := notifications.Payload{
		Event:       notifications.EventMainStatusChanged,
		OrderID:     main.ID,
		OrderNumber: main.OrderNumber,
		Status:      string(main.Status),
		Message:     fmt.Sprintf("Order %s is now %s", main.OrderNumber, main.Status),
		Data: map[string]any{
			"previous_status":    string(previous),
			"shop_order_summary": main.ShopOrderSummary,
		},
	}
	if main.ZoneID != nil {
		notifications.Dispatch(ctx, e.notifier, notifications.ZoneAdminChannel(*main.ZoneID), payload)
	}
	notifications.Dispatch(ctx, e.notifier, notifications.CustomerChannel(main.CustomerID), payload)
}
