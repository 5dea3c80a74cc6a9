package utils

import (
	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/shopspring/decimal"
)

// PricingPolicy holds the rates applied on top of an item subtotal.
type PricingPolicy struct {
	TaxRate        decimal.Decimal
	ServiceFeeRate decimal.Decimal
}

// ComputePricing derives a full breakdown from items alone. Discount and tip are
// applied after tax and fees; the total never drops below zero.
// All amounts are rounded to cents.
func ComputePricing(items []models.OrderItem, policy PricingPolicy, discount, tip decimal.Decimal) models.Pricing {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(policy.TaxRate).Round(2)
	fee := subtotal.Mul(policy.ServiceFeeRate).Round(2)
	discount = discount.Round(2)
	tip = tip.Round(2)

	total := subtotal.Add(tax).Add(fee).Sub(discount).Add(tip)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return models.Pricing{
		Subtotal:   subtotal,
		Tax:        tax,
		ServiceFee: fee,
		Discount:   discount,
		Tip:        tip,
		Total:      total.Round(2),
	}
}
