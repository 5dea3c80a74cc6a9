package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTableName(t *testing.T) {
	order := Order{}
	assert.Equal(t, "orders", order.TableName(), "Table name should be 'orders'")
}

func TestOrderTypeLegacyVariants(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		canonical OrderType
		legacy    bool
		writable  bool
	}{
		{"single", "single", OrderTypeSingle, false, true},
		{"zone main", "zone_main", OrderTypeZoneMain, false, true},
		{"zone shop", "zone_shop", OrderTypeZoneShop, false, true},
		{"legacy zone split", "zone_split", OrderTypeZoneMain, true, false},
		{"legacy shop split", "shop_split", OrderTypeZoneShop, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseOrderType(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, parsed.Canonical())
			assert.Equal(t, tt.legacy, parsed.IsLegacy())
			assert.Equal(t, tt.writable, parsed.Writable())
		})
	}

	_, err := ParseOrderType("split")
	assert.Error(t, err)
}

func TestOrderValidate(t *testing.T) {
	parent := uint(1)

	tests := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{"valid single", Order{OrderNumber: "SO15ABC", OrderType: OrderTypeSingle, Status: StatusConfirmed}, false},
		{"valid main", Order{OrderNumber: "ZN15ABC", OrderType: OrderTypeZoneMain, Status: StatusPartiallyReady}, false},
		{"valid shop", Order{OrderNumber: "ABC15XYZ", OrderType: OrderTypeZoneShop, ParentOrderID: &parent, Status: StatusReady}, false},
		{"missing number", Order{OrderType: OrderTypeSingle}, true},
		{"legacy type rejected on write", Order{OrderNumber: "ZN15ABC", OrderType: OrderTypeLegacyZoneSplit}, true},
		{"shop without parent", Order{OrderNumber: "ABC15XYZ", OrderType: OrderTypeZoneShop}, true},
		{"main with parent", Order{OrderNumber: "ZN15ABC", OrderType: OrderTypeZoneMain, ParentOrderID: &parent}, true},
		{"shop with aggregate status", Order{OrderNumber: "ABC15XYZ", OrderType: OrderTypeZoneShop, ParentOrderID: &parent, Status: StatusPartiallyReady}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordStatusStampsTimingOnce(t *testing.T) {
	order := Order{Status: StatusPending}
	first := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	later := first.Add(10 * time.Minute)

	order.RecordStatus(StatusConfirmed, "shop-terminal", "", false, first)
	order.RecordStatus(StatusConfirmed, "shop-terminal", "again", false, later)

	require.NotNil(t, order.ConfirmedAt)
	assert.True(t, order.ConfirmedAt.Equal(first), "ConfirmedAt must keep the first entry time")
	assert.Len(t, order.StatusHistory, 2)
	assert.Equal(t, "again", order.StatusHistory[1].Notes)
	assert.Nil(t, order.ReadyAt)
}

func TestAdvanceItemsOnlyMovesForward(t *testing.T) {
	order := Order{Items: []OrderItem{
		{MenuItemID: 1, Status: ItemPending},
		{MenuItemID: 2, Status: ItemReady},
		{MenuItemID: 3},
	}}

	order.AdvanceItems(StatusPreparing)

	assert.Equal(t, ItemPreparing, order.Items[0].Status)
	assert.Equal(t, ItemReady, order.Items[1].Status, "items further along are untouched")
	assert.Equal(t, ItemPreparing, order.Items[2].Status)

	order.AdvanceItems(StatusCompleted)
	for _, item := range order.Items {
		assert.Equal(t, ItemServed, item.Status)
	}
}

func TestLineTotalIncludesModifiers(t *testing.T) {
	item := OrderItem{
		Price:    decimal.RequireFromString("4.50"),
		Quantity: 3,
		Modifiers: []Modifier{
			{Name: "extra cheese", Price: decimal.RequireFromString("0.75")},
		},
	}
	assert.True(t, decimal.RequireFromString("15.75").Equal(item.LineTotal()))
}

func TestHasChild(t *testing.T) {
	order := Order{ChildOrderIDs: []uint{4, 9}}
	assert.True(t, order.HasChild(9))
	assert.False(t, order.HasChild(5))
}
