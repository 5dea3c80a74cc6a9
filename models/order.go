package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInvalidOrder is returned by Validate for orders that must not be persisted.
var ErrInvalidOrder = errors.New("invalid order")

// Modifier is an add-on priced on top of a line item.
type Modifier struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderItem is one line of an order. Its status moves independently of the order status.
type OrderItem struct {
	MenuItemID uint            `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Modifiers  []Modifier      `json:"modifiers,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Status     ItemStatus      `json:"status"`
}

// LineTotal is (price + modifiers) * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	unit := i.Price
	for _, m := range i.Modifiers {
		unit = unit.Add(m.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Traceability lets support staff reconstruct parent/child links from an order number alone.
type Traceability struct {
	ParentOrderNumber string `gorm:"size:16" json:"parent_order_number,omitempty"`
	UniqueTraceCode   string `gorm:"size:3;index" json:"unique_trace_code,omitempty"`
	ShopSequence      int    `json:"shop_sequence,omitempty"`
}

// ShopOrderSummary caches the last aggregation tally on a zone main order.
// It is never read back as input to aggregation.
type ShopOrderSummary struct {
	TotalShops     int `json:"total_shops"`
	CompletedShops int `json:"completed_shops"`
	ReadyShops     int `json:"ready_shops"`
	PreparingShops int `json:"preparing_shops"`
	CancelledShops int `json:"cancelled_shops"`
}

// StatusHistoryEntry is one append-only record of a status change.
type StatusHistoryEntry struct {
	Status          OrderStatus `json:"status"`
	Timestamp       time.Time   `json:"timestamp"`
	UpdatedBy       string      `json:"updated_by"`
	Notes           string      `json:"notes,omitempty"`
	AutomaticUpdate bool        `json:"automatic_update"`
}

// Pricing holds the monetary breakdown of an order.
type Pricing struct {
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Tax        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	ServiceFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"service_fee"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Tip        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tip"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
}

// Order is a standalone order, a zone main order, or a zone shop order.
type Order struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber      string               `gorm:"size:16;uniqueIndex;not null" json:"order_number"`
	OrderType        OrderType            `gorm:"size:16;not null;index" json:"order_type"`
	ZoneID           *uint                `gorm:"index" json:"zone_id,omitempty"`
	ShopID           *uint                `gorm:"index" json:"shop_id,omitempty"`
	CustomerID       string               `gorm:"not null;index" json:"customer_id"`
	ParentOrderID    *uint                `gorm:"index" json:"parent_order_id,omitempty"`
	ChildOrderIDs    []uint               `gorm:"type:text;serializer:json" json:"child_order_ids,omitempty"`
	Traceability     Traceability         `gorm:"embedded;embeddedPrefix:trace_" json:"traceability"`
	Items            []OrderItem          `gorm:"type:text;serializer:json" json:"items"`
	Status           OrderStatus          `gorm:"size:24;not null;default:'pending'" json:"status"`
	ShopOrderSummary ShopOrderSummary     `gorm:"embedded;embeddedPrefix:summary_" json:"shop_order_summary"`
	StatusHistory    []StatusHistoryEntry `gorm:"type:text;serializer:json" json:"status_history"`
	Pricing          Pricing              `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	EstimatedTime    int                  `gorm:"not null;default:0" json:"estimated_time"` // minutes

	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	PreparingStartedAt *time.Time `json:"preparing_started_at,omitempty"`
	ReadyAt            *time.Time `json:"ready_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`

	Version   uint           `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Validate checks the structural invariants that must hold before any write.
func (o *Order) Validate() error {
	if o.OrderNumber == "" {
		return fmt.Errorf("%w: order number is required", ErrInvalidOrder)
	}
	if !o.OrderType.Writable() {
		return fmt.Errorf("%w: order type %q cannot be written", ErrInvalidOrder, o.OrderType)
	}
	switch o.OrderType {
	case OrderTypeZoneShop:
		if o.ParentOrderID == nil {
			return fmt.Errorf("%w: shop order %s has no parent", ErrInvalidOrder, o.OrderNumber)
		}
		if len(o.ChildOrderIDs) > 0 {
			return fmt.Errorf("%w: shop order %s cannot own children", ErrInvalidOrder, o.OrderNumber)
		}
	case OrderTypeZoneMain:
		if o.ParentOrderID != nil {
			return fmt.Errorf("%w: main order %s cannot have a parent", ErrInvalidOrder, o.OrderNumber)
		}
	default:
		if o.ParentOrderID != nil || len(o.ChildOrderIDs) > 0 {
			return fmt.Errorf("%w: single order %s cannot be linked", ErrInvalidOrder, o.OrderNumber)
		}
	}
	if o.Status.IsAggregateOnly() && !o.OrderType.IsZoneMain() {
		return fmt.Errorf("%w: status %s is reserved for main orders", ErrInvalidOrder, o.Status)
	}
	return nil
}

// HasChild reports whether id is already linked as a child.
func (o *Order) HasChild(id uint) bool {
	for _, c := range o.ChildOrderIDs {
		if c == id {
			return true
		}
	}
	return false
}

// RecordStatus moves the order to status, appends a history entry and stamps the
// timing field for status if it has never been set.
func (o *Order) RecordStatus(status OrderStatus, updatedBy, notes string, automatic bool, at time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:          status,
		Timestamp:       at,
		UpdatedBy:       updatedBy,
		Notes:           notes,
		AutomaticUpdate: automatic,
	})
	o.stampTiming(status, at)
}

func (o *Order) stampTiming(status OrderStatus, at time.Time) {
	var field **time.Time
	switch status {
	case StatusConfirmed:
		field = &o.ConfirmedAt
	case StatusPreparing:
		field = &o.PreparingStartedAt
	case StatusReady:
		field = &o.ReadyAt
	case StatusCompleted:
		field = &o.CompletedAt
	case StatusCancelled:
		field = &o.CancelledAt
	case StatusRefunded:
		field = &o.RefundedAt
	default:
		return
	}
	if *field == nil {
		t := at
		*field = &t
	}
}

// AdvanceItems moves every item that is behind status up to the matching item status.
// Items already further along are left untouched.
func (o *Order) AdvanceItems(status OrderStatus) {
	target, ok := ItemStatusFor(status)
	if !ok {
		return
	}
	for i := range o.Items {
		if o.Items[i].Status == "" || o.Items[i].Status.Before(target) {
			o.Items[i].Status = target
		}
	}
}
