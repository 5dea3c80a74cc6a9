package models

import "fmt"

// OrderType distinguishes standalone orders from the two halves of a zone split.
type OrderType string

const (
	OrderTypeSingle   OrderType = "single"
	OrderTypeZoneMain OrderType = "zone_main"
	OrderTypeZoneShop OrderType = "zone_shop"

	// Deprecated: historical rows only. Read as zone_main / zone_shop, never written.
	OrderTypeLegacyZoneSplit OrderType = "zone_split"
	OrderTypeLegacyShopSplit OrderType = "shop_split"
)

// ParseOrderType accepts every known variant, including the legacy ones.
func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(s); t {
	case OrderTypeSingle, OrderTypeZoneMain, OrderTypeZoneShop,
		OrderTypeLegacyZoneSplit, OrderTypeLegacyShopSplit:
		return t, nil
	}
	return "", fmt.Errorf("unknown order type %q", s)
}

// Canonical maps a legacy variant onto the type it is read as.
func (t OrderType) Canonical() OrderType {
	switch t {
	case OrderTypeLegacyZoneSplit:
		return OrderTypeZoneMain
	case OrderTypeLegacyShopSplit:
		return OrderTypeZoneShop
	}
	return t
}

// IsLegacy reports whether t is a deprecated variant.
func (t OrderType) IsLegacy() bool {
	return t == OrderTypeLegacyZoneSplit || t == OrderTypeLegacyShopSplit
}

// Writable reports whether t may be persisted on create or update.
func (t OrderType) Writable() bool {
	switch t {
	case OrderTypeSingle, OrderTypeZoneMain, OrderTypeZoneShop:
		return true
	}
	return false
}

func (t OrderType) IsZoneMain() bool { return t.Canonical() == OrderTypeZoneMain }

func (t OrderType) IsZoneShop() bool { return t.Canonical() == OrderTypeZoneShop }
