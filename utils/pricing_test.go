package utils

import (
	"testing"

	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputePricing(t *testing.T) {
	items := []models.OrderItem{
		{MenuItemID: 1, Price: dec("8.50"), Quantity: 2},
		{MenuItemID: 2, Price: dec("3.00"), Quantity: 1, Modifiers: []models.Modifier{{Name: "oat milk", Price: dec("0.50")}}},
	}
	policy := PricingPolicy{TaxRate: dec("0.08"), ServiceFeeRate: dec("0.05")}

	pricing := ComputePricing(items, policy, dec("2.00"), dec("1.50"))

	assert.Equal(t, "20.5", pricing.Subtotal.String())
	assert.Equal(t, "1.64", pricing.Tax.String())
	assert.Equal(t, "1.03", pricing.ServiceFee.String())
	assert.Equal(t, "2", pricing.Discount.String())
	assert.Equal(t, "1.5", pricing.Tip.String())
	assert.Equal(t, "22.67", pricing.Total.String())
}

func TestComputePricingNeverNegative(t *testing.T) {
	items := []models.OrderItem{{MenuItemID: 1, Price: dec("5.00"), Quantity: 1}}

	pricing := ComputePricing(items, PricingPolicy{}, dec("10.00"), decimal.Zero)

	assert.True(t, pricing.Total.IsZero())
}

func TestComputePricingEmpty(t *testing.T) {
	pricing := ComputePricing(nil, PricingPolicy{TaxRate: dec("0.08")}, decimal.Zero, decimal.Zero)
	assert.True(t, pricing.Subtotal.IsZero())
	assert.True(t, pricing.Total.IsZero())
}
