package services

import "errors"

var (
	// ErrZoneNotFound indicates the checkout's zone does not exist or is inactive.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrNoValidShops indicates no item resolved to an active shop of the zone.
	ErrNoValidShops = errors.New("no valid shops for these items")
	// ErrInvalidCheckout signals malformed checkout input.
	ErrInvalidCheckout = errors.New("invalid checkout")
	// ErrInvalidTraceCode indicates a trace code that is not three alphanumeric characters.
	ErrInvalidTraceCode = errors.New("invalid trace code")
	// ErrShopUnavailable indicates the shop of a single order is missing or inactive.
	ErrShopUnavailable = errors.New("shop not available")
	// ErrItemShopMismatch indicates a single-order item that belongs to another shop.
	ErrItemShopMismatch = errors.New("item does not belong to shop")
	// ErrMenuItemNotFound indicates the catalog has no such menu item.
	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrPartialCreation indicates the main order exists but the split did not finish.
	ErrPartialCreation = errors.New("zone order partially created")
	// ErrOrderNumberExhausted indicates every generated order number collided.
	ErrOrderNumberExhausted = errors.New("order number generation exhausted")
	// ErrDuplicateOrderNumber indicates an insert lost a race for an order number.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")

	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order not found")
	// ErrItemNotFound indicates an item index outside the order's items.
	ErrItemNotFound = errors.New("order item not found")
	// ErrVersionConflict indicates the order changed since it was read.
	ErrVersionConflict = errors.New("order was modified concurrently")
	// ErrRecomputeConflict indicates aggregation kept losing the write race.
	ErrRecomputeConflict = errors.New("main order recomputation conflict")
	// ErrDerivedStatus indicates a direct status change on a zone main order.
	ErrDerivedStatus = errors.New("zone main order status is derived from its shop orders")
	// ErrNotZoneMain indicates an aggregation request for an order that has no shop orders.
	ErrNotZoneMain = errors.New("order is not a zone main order")
)
