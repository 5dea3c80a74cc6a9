package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Zone is a shared venue (food court) hosting several independently operated shops.
type Zone struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Active    bool           `gorm:"not null" json:"active"`
	Shops     []Shop         `gorm:"foreignKey:ZoneID" json:"shops,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Zone model
func (Zone) TableName() string {
	return "zones"
}

// Shop is an independently operated vendor inside a zone.
type Shop struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	ZoneID            uint           `gorm:"not null;index" json:"zone_id"`
	Name              string         `gorm:"not null" json:"name"`
	Active            bool           `gorm:"not null" json:"active"`
	EstimatedPrepTime int            `json:"estimated_prep_time"` // minutes, 0 means unset
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Shop model
func (Shop) TableName() string {
	return "shops"
}

// MenuItem belongs to exactly one shop.
type MenuItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ShopID    uint            `gorm:"not null;index" json:"shop_id"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Available bool            `gorm:"not null" json:"available"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
