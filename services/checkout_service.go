package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/notifications"
	"github.com/kendall-kelly/zone-orders-api/utils"
	"github.com/shopspring/decimal"
)

// ZoneCheckout is one customer checkout spanning the shops of a zone.
type ZoneCheckout struct {
	ZoneID     uint
	CustomerID string
	Items      []models.OrderItem
	Discount   decimal.Decimal
	Tip        decimal.Decimal
	// InitialStatus is pending or confirmed. Empty means confirmed.
	InitialStatus models.OrderStatus
	PlacedBy      string
}

// ZoneOrderResult is the main order and the shop orders split from it.
type ZoneOrderResult struct {
	MainOrder  *models.Order   `json:"main_order"`
	ShopOrders []*models.Order `json:"shop_orders"`
}

// SingleCheckout is a checkout served entirely by one shop.
type SingleCheckout struct {
	ShopID        uint
	CustomerID    string
	Items         []models.OrderItem
	Discount      decimal.Decimal
	Tip           decimal.Decimal
	InitialStatus models.OrderStatus
	PlacedBy      string
}

// CheckoutService turns checkouts into persisted orders.
type CheckoutService struct {
	store       OrderStore
	catalog     Catalog
	numbers     *OrderNumberGenerator
	partitioner *ShopPartitioner
	notifier    notifications.Notifier
	receipts    ReceiptArchive
	pricing     utils.PricingPolicy
	maxAttempts int
	maxWrites   int
	now         func() time.Time
}

// NewCheckoutService creates a checkout service on deps.
func NewCheckoutService(deps Deps) *CheckoutService {
	deps = deps.withDefaults()
	numbers := NewOrderNumberGenerator(deps.Store, deps.OrderNumberMaxAttempts)
	numbers.now = deps.Now
	return &CheckoutService{
		store:       deps.Store,
		catalog:     deps.Catalog,
		numbers:     numbers,
		partitioner: NewShopPartitioner(deps.Catalog, deps.DefaultPrepTime),
		notifier:    deps.Notifier,
		receipts:    deps.Receipts,
		pricing:     deps.Pricing,
		maxAttempts: deps.OrderNumberMaxAttempts,
		maxWrites:   deps.RecomputeMaxAttempts,
		now:         deps.Now,
	}
}

// ProcessZoneOrder splits a zone checkout into a main order and one order per shop.
//
// Validation failures return before anything is written. Once the main order exists nothing
// is rolled back: a later failure returns whatever was created together with an error
// wrapping ErrPartialCreation.
func (s *CheckoutService) ProcessZoneOrder(ctx context.Context, checkout ZoneCheckout) (*ZoneOrderResult, error) {
	initial, err := checkoutStatus(checkout.InitialStatus)
	if err != nil {
		return nil, err
	}
	if err := validateCheckout(checkout.CustomerID, checkout.Items, checkout.Discount, checkout.Tip); err != nil {
		return nil, err
	}

	exists, err := s.catalog.ZoneExists(ctx, checkout.ZoneID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrZoneNotFound, checkout.ZoneID)
	}

	groups, err := s.partitioner.Partition(ctx, checkout.Items, checkout.ZoneID)
	if err != nil {
		return nil, err
	}

	var accepted []models.OrderItem
	for _, g := range groups {
		accepted = append(accepted, g.Items...)
	}

	now := s.now()
	zoneID := checkout.ZoneID
	main := &models.Order{
		OrderType:     models.OrderTypeZoneMain,
		ZoneID:        &zoneID,
		CustomerID:    checkout.CustomerID,
		ChildOrderIDs: []uint{},
		Items:         []models.OrderItem{},
		Pricing:       utils.ComputePricing(accepted, s.pricing, checkout.Discount, checkout.Tip),
	}
	main.RecordStatus(initial, actorOrSystem(checkout.PlacedBy),
		fmt.Sprintf("Zone order placed across %d shops", len(groups)), false, now)

	err = s.createNumbered(ctx, main, func(ctx context.Context) (string, error) {
		number, code, err := s.numbers.GenerateMainOrderNumber(ctx)
		main.Traceability = models.Traceability{UniqueTraceCode: code}
		return number, err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Created zone main order %s (id %d) for zone %d with %d shops",
		main.OrderNumber, main.ID, zoneID, len(groups))

	result := &ZoneOrderResult{MainOrder: main, ShopOrders: make([]*models.Order, 0, len(groups))}
	partial := func(err error) (*ZoneOrderResult, error) {
		log.Printf("Error: zone order %s partially created (%d of %d shop orders): %v",
			main.OrderNumber, len(result.ShopOrders), len(groups), err)
		return result, fmt.Errorf("%w: main order %s: %w", ErrPartialCreation, main.OrderNumber, err)
	}

	for i, group := range groups {
		child, err := s.createShopOrder(ctx, main, group, i+1, initial, checkout.PlacedBy, now)
		if err != nil {
			return partial(err)
		}
		result.ShopOrders = append(result.ShopOrders, child)

		err = s.updateMain(ctx, main, func(m *models.Order) {
			if !m.HasChild(child.ID) {
				m.ChildOrderIDs = append(m.ChildOrderIDs, child.ID)
			}
		})
		if err != nil {
			return partial(err)
		}

		notifications.Dispatch(ctx, s.notifier, notifications.ShopChannel(group.ShopID), notifications.Payload{
			Event:       notifications.EventShopOrderCreated,
			OrderID:     child.ID,
			OrderNumber: child.OrderNumber,
			Status:      string(child.Status),
			Message:     fmt.Sprintf("New order %s (%d items)", child.OrderNumber, len(child.Items)),
			Data: map[string]any{
				"parent_order_number": main.OrderNumber,
				"shop_sequence":       child.Traceability.ShopSequence,
				"estimated_time":      child.EstimatedTime,
			},
		})
	}

	estimate := 0
	statuses := make([]models.OrderStatus, 0, len(result.ShopOrders))
	for _, child := range result.ShopOrders {
		estimate = max(estimate, child.EstimatedTime)
		statuses = append(statuses, child.Status)
	}
	summary := TallyStatuses(statuses).Summary()
	err = s.updateMain(ctx, main, func(m *models.Order) {
		m.EstimatedTime = estimate
		m.ShopOrderSummary = summary
	})
	if err != nil {
		return partial(err)
	}

	shopNumbers := make([]string, 0, len(result.ShopOrders))
	for _, child := range result.ShopOrders {
		shopNumbers = append(shopNumbers, child.OrderNumber)
	}
	created := notifications.Payload{
		Event:       notifications.EventZoneOrderCreated,
		OrderID:     main.ID,
		OrderNumber: main.OrderNumber,
		Status:      string(main.Status),
		Message:     fmt.Sprintf("Order %s split into %d shop orders", main.OrderNumber, len(shopNumbers)),
		Data: map[string]any{
			"shop_order_numbers": shopNumbers,
			"estimated_time":     main.EstimatedTime,
			"total":              main.Pricing.Total.StringFixed(2),
		},
	}
	notifications.Dispatch(ctx, s.notifier, notifications.ZoneAdminChannel(zoneID), created)
	notifications.Dispatch(ctx, s.notifier, notifications.CustomerChannel(main.CustomerID), created)

	s.archive(ctx, main)
	for _, child := range result.ShopOrders {
		s.archive(ctx, child)
	}

	return result, nil
}

func (s *CheckoutService) createShopOrder(ctx context.Context, main *models.Order, group ShopGroup, sequence int,
	initial models.OrderStatus, placedBy string, now time.Time) (*models.Order, error) {
	shopID, parentID := group.ShopID, main.ID
	child := &models.Order{
		OrderType:     models.OrderTypeZoneShop,
		ZoneID:        main.ZoneID,
		ShopID:        &shopID,
		CustomerID:    main.CustomerID,
		ParentOrderID: &parentID,
		Traceability: models.Traceability{
			ParentOrderNumber: main.OrderNumber,
			UniqueTraceCode:   main.Traceability.UniqueTraceCode,
			ShopSequence:      sequence,
		},
		Items:         freshItems(group.Items),
		Pricing:       utils.ComputePricing(group.Items, s.pricing, decimal.Zero, decimal.Zero),
		EstimatedTime: group.EstimatedTime,
	}
	child.RecordStatus(initial, actorOrSystem(placedBy),
		fmt.Sprintf("Split from zone order %s", main.OrderNumber), false, now)
	child.AdvanceItems(initial)

	err := s.createNumbered(ctx, child, func(ctx context.Context) (string, error) {
		return s.numbers.GenerateShopOrderNumber(ctx, main.Traceability.UniqueTraceCode)
	})
	if err != nil {
		return nil, fmt.Errorf("shop %d: %w", group.ShopID, err)
	}
	log.Printf("Created shop order %s (id %d) for shop %d under %s",
		child.OrderNumber, child.ID, group.ShopID, main.OrderNumber)
	return child, nil
}

// CreateSingleOrder places an order with one shop outside any zone split.
func (s *CheckoutService) CreateSingleOrder(ctx context.Context, checkout SingleCheckout) (*models.Order, error) {
	initial, err := checkoutStatus(checkout.InitialStatus)
	if err != nil {
		return nil, err
	}
	if err := validateCheckout(checkout.CustomerID, checkout.Items, checkout.Discount, checkout.Tip); err != nil {
		return nil, err
	}

	shop, err := s.catalog.GetShop(ctx, checkout.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.Active {
		return nil, fmt.Errorf("%w: shop %d is inactive", ErrShopUnavailable, shop.ShopID)
	}
	for _, item := range checkout.Items {
		owner, err := s.catalog.ResolveShop(ctx, item.MenuItemID)
		if err != nil {
			return nil, err
		}
		if owner != shop.ShopID {
			return nil, fmt.Errorf("%w: menu item %d belongs to shop %d", ErrItemShopMismatch, item.MenuItemID, owner)
		}
	}

	shopID := shop.ShopID
	order := &models.Order{
		OrderType:     models.OrderTypeSingle,
		ShopID:        &shopID,
		CustomerID:    checkout.CustomerID,
		Items:         freshItems(checkout.Items),
		Pricing:       utils.ComputePricing(checkout.Items, s.pricing, checkout.Discount, checkout.Tip),
		EstimatedTime: s.partitioner.prepTime(*shop),
	}
	if shop.ZoneID != 0 {
		zoneID := shop.ZoneID
		order.ZoneID = &zoneID
	}
	order.RecordStatus(initial, actorOrSystem(checkout.PlacedBy), "Order placed", false, s.now())
	order.AdvanceItems(initial)

	if err := s.createNumbered(ctx, order, s.numbers.GenerateSingleOrderNumber); err != nil {
		return nil, err
	}
	log.Printf("Created single order %s (id %d) for shop %d", order.OrderNumber, order.ID, shopID)

	payload := notifications.Payload{
		Event:       notifications.EventOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Message:     fmt.Sprintf("New order %s (%d items)", order.OrderNumber, len(order.Items)),
		Data:        map[string]any{"estimated_time": order.EstimatedTime},
	}
	notifications.Dispatch(ctx, s.notifier, notifications.ShopChannel(shopID), payload)
	notifications.Dispatch(ctx, s.notifier, notifications.CustomerChannel(order.CustomerID), payload)
	s.archive(ctx, order)

	return order, nil
}

// createNumbered inserts order under a freshly generated number. The generator's existence
// check can race with another insert, so a unique-index rejection draws a new number.
func (s *CheckoutService) createNumbered(ctx context.Context, order *models.Order, next func(context.Context) (string, error)) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		number, err := next(ctx)
		if err != nil {
			return err
		}
		order.ID = 0
		order.OrderNumber = number
		err = s.store.CreateOrder(ctx, order)
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			return err
		}
		log.Printf("Order number %s was taken at insert (attempt %d/%d)", number, attempt, s.maxAttempts)
	}
	return fmt.Errorf("%w after %d inserts", ErrOrderNumberExhausted, s.maxAttempts)
}

// updateMain applies mutate and writes main, reloading and reapplying on version conflicts.
func (s *CheckoutService) updateMain(ctx context.Context, main *models.Order, mutate func(*models.Order)) error {
	for attempt := 1; ; attempt++ {
		mutate(main)
		err := s.store.UpdateOrder(ctx, main)
		if err == nil || !errors.Is(err, ErrVersionConflict) || attempt >= s.maxWrites {
			return err
		}
		fresh, err := s.store.GetOrder(ctx, main.ID)
		if err != nil {
			return err
		}
		*main = *fresh
	}
}

func (s *CheckoutService) archive(ctx context.Context, order *models.Order) {
	if s.receipts == nil {
		return
	}
	if _, err := s.receipts.PutReceipt(ctx, order); err != nil {
		log.Printf("warning: failed to archive receipt for %s: %v", order.OrderNumber, err)
	}
}

func checkoutStatus(status models.OrderStatus) (models.OrderStatus, error) {
	switch status {
	case "":
		return models.StatusConfirmed, nil
	case models.StatusPending, models.StatusConfirmed:
		return status, nil
	}
	return "", fmt.Errorf("%w: orders cannot be placed as %s", ErrInvalidCheckout, status)
}

func validateCheckout(customerID string, items []models.OrderItem, discount, tip decimal.Decimal) error {
	if customerID == "" {
		return fmt.Errorf("%w: customer is required", ErrInvalidCheckout)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidCheckout)
	}
	if discount.IsNegative() || tip.IsNegative() {
		return fmt.Errorf("%w: discount and tip must not be negative", ErrInvalidCheckout)
	}
	for i, item := range items {
		if item.MenuItemID == 0 {
			return fmt.Errorf("%w: item %d has no menu item", ErrInvalidCheckout, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidCheckout, i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidCheckout, i)
		}
		for _, m := range item.Modifiers {
			if m.Price.IsNegative() {
				return fmt.Errorf("%w: item %d modifier %q price must not be negative", ErrInvalidCheckout, i, m.Name)
			}
		}
	}
	return nil
}

// freshItems copies items with their status reset to pending.
func freshItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, item := range items {
		item.Modifiers = append([]models.Modifier(nil), item.Modifiers...)
		item.Status = models.ItemPending
		out[i] = item
	}
	return out
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}
