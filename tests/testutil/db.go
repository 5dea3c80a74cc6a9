package testutil

import (
	"testing"

	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database.
// The pool is capped at one connection because every connection to ":memory:" gets its own
// empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.Zone{}, &models.Shop{}, &models.MenuItem{}, &models.Order{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// SeedZone creates an active zone.
func SeedZone(t *testing.T, db *gorm.DB, name string) *models.Zone {
	t.Helper()
	zone := &models.Zone{Name: name, Active: true}
	if err := db.Create(zone).Error; err != nil {
		t.Fatalf("Failed to seed zone %s: %v", name, err)
	}
	return zone
}

// SeedShop creates a shop in zoneID. prepTime 0 leaves the preparation time unset.
func SeedShop(t *testing.T, db *gorm.DB, zoneID uint, name string, active bool, prepTime int) *models.Shop {
	t.Helper()
	shop := &models.Shop{ZoneID: zoneID, Name: name, Active: active, EstimatedPrepTime: prepTime}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("Failed to seed shop %s: %v", name, err)
	}
	return shop
}

// SeedMenuItem creates an available menu item for shopID.
func SeedMenuItem(t *testing.T, db *gorm.DB, shopID uint, name, price string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{ShopID: shopID, Name: name, Price: decimal.RequireFromString(price), Available: true}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed menu item %s: %v", name, err)
	}
	return item
}

// LineItem builds a checkout line for a seeded menu item.
func LineItem(item *models.MenuItem, quantity int) models.OrderItem {
	return models.OrderItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   quantity,
	}
}
