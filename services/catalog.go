package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/zone-orders-api/models"
	"gorm.io/gorm"
)

// ShopInfo is what order processing needs to know about a shop.
type ShopInfo struct {
	ShopID            uint
	ZoneID            uint
	Name              string
	Active            bool
	EstimatedPrepTime int // minutes, 0 means unset
}

// Catalog answers the menu and zone membership questions order processing depends on.
type Catalog interface {
	ZoneExists(ctx context.Context, zoneID uint) (bool, error)
	// ActiveShops lists the active shops of an active zone.
	ActiveShops(ctx context.Context, zoneID uint) ([]ShopInfo, error)
	// ResolveShop returns the owning shop of a menu item, or ErrMenuItemNotFound.
	ResolveShop(ctx context.Context, menuItemID uint) (uint, error)
	// GetShop returns the shop regardless of its state, or ErrShopUnavailable.
	GetShop(ctx context.Context, shopID uint) (*ShopInfo, error)
}

// GormCatalog reads the zones, shops and menu_items tables.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog on db.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) ZoneExists(ctx context.Context, zoneID uint) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.Zone{}).
		Where("id = ? AND active = ?", zoneID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up zone %d: %w", zoneID, err)
	}
	return count > 0, nil
}

func (c *GormCatalog) ActiveShops(ctx context.Context, zoneID uint) ([]ShopInfo, error) {
	var shops []models.Shop
	err := c.db.WithContext(ctx).
		Joins("JOIN zones ON zones.id = shops.zone_id AND zones.deleted_at IS NULL").
		Where("shops.zone_id = ? AND shops.active = ? AND zones.active = ?", zoneID, true, true).
		Order("shops.id ASC").
		Find(&shops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shops of zone %d: %w", zoneID, err)
	}

	out := make([]ShopInfo, 0, len(shops))
	for _, s := range shops {
		out = append(out, shopInfo(s))
	}
	return out, nil
}

func (c *GormCatalog) ResolveShop(ctx context.Context, menuItemID uint) (uint, error) {
	var item models.MenuItem
	if err := c.db.WithContext(ctx).Select("id", "shop_id").First(&item, menuItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %d", ErrMenuItemNotFound, menuItemID)
		}
		return 0, fmt.Errorf("failed to resolve menu item %d: %w", menuItemID, err)
	}
	return item.ShopID, nil
}

func (c *GormCatalog) GetShop(ctx context.Context, shopID uint) (*ShopInfo, error) {
	var shop models.Shop
	if err := c.db.WithContext(ctx).First(&shop, shopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shop %d does not exist", ErrShopUnavailable, shopID)
		}
		return nil, fmt.Errorf("failed to load shop %d: %w", shopID, err)
	}
	info := shopInfo(shop)
	return &info, nil
}

func shopInfo(s models.Shop) ShopInfo {
	return ShopInfo{
		ShopID:            s.ID,
		ZoneID:            s.ZoneID,
		Name:              s.Name,
		Active:            s.Active,
		EstimatedPrepTime: s.EstimatedPrepTime,
	}
}
