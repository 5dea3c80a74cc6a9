package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kendall-kelly/zone-orders-api/models"
)

// DefaultPrepTimeMinutes applies to shops without a configured preparation time.
const DefaultPrepTimeMinutes = 20

// ShopGroup is the slice of a checkout fulfilled by one shop.
type ShopGroup struct {
	ShopID        uint
	ShopName      string
	Items         []models.OrderItem
	EstimatedTime int // minutes
}

// ShopPartitioner groups checkout items by owning shop.
type ShopPartitioner struct {
	catalog         Catalog
	defaultPrepTime int
}

// NewShopPartitioner creates a partitioner. A non-positive defaultPrepTime falls back to 20 minutes.
func NewShopPartitioner(catalog Catalog, defaultPrepTime int) *ShopPartitioner {
	if defaultPrepTime <= 0 {
		defaultPrepTime = DefaultPrepTimeMinutes
	}
	return &ShopPartitioner{catalog: catalog, defaultPrepTime: defaultPrepTime}
}

// Partition groups items by shop. Items whose shop is unknown, inactive or outside the zone
// are dropped with a warning so the rest of the checkout can proceed. Groups are ordered by
// the first item of each shop. If nothing survives, ErrNoValidShops is returned.
func (p *ShopPartitioner) Partition(ctx context.Context, items []models.OrderItem, zoneID uint) ([]ShopGroup, error) {
	shops, err := p.catalog.ActiveShops(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	active := make(map[uint]ShopInfo, len(shops))
	for _, s := range shops {
		active[s.ShopID] = s
	}

	var groups []ShopGroup
	index := make(map[uint]int)

	for _, item := range items {
		shopID, err := p.catalog.ResolveShop(ctx, item.MenuItemID)
		if errors.Is(err, ErrMenuItemNotFound) {
			log.Printf("warning: dropping menu item %d from zone %d checkout: no owning shop", item.MenuItemID, zoneID)
			continue
		}
		if err != nil {
			return nil, err
		}

		shop, ok := active[shopID]
		if !ok {
			log.Printf("warning: dropping menu item %d from zone %d checkout: shop %d is not an active zone member",
				item.MenuItemID, zoneID, shopID)
			continue
		}

		i, seen := index[shopID]
		if !seen {
			i = len(groups)
			index[shopID] = i
			groups = append(groups, ShopGroup{
				ShopID:        shopID,
				ShopName:      shop.Name,
				EstimatedTime: p.prepTime(shop),
			})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("%w in zone %d", ErrNoValidShops, zoneID)
	}
	return groups, nil
}

func (p *ShopPartitioner) prepTime(shop ShopInfo) int {
	if shop.EstimatedPrepTime > 0 {
		return shop.EstimatedPrepTime
	}
	return p.defaultPrepTime
}
