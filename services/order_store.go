package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/zone-orders-api/models"
	"gorm.io/gorm"
)

// OrderStore persists orders. Every update is a single-row conditional write guarded by
// the order's Version.
type OrderStore interface {
	// CreateOrder inserts order with Version 1. A taken order number yields ErrDuplicateOrderNumber.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	// ListChildOrders returns every order whose parent is parentID, oldest first.
	ListChildOrders(ctx context.Context, parentID uint) ([]models.Order, error)
	// FindMainOrderByTraceCode returns the newest main order carrying code.
	FindMainOrderByTraceCode(ctx context.Context, code string) (*models.Order, error)
	// UpdateOrder writes the whole order if its stored Version still equals order.Version,
	// then bumps order.Version. Otherwise it returns ErrVersionConflict and leaves the version as is.
	UpdateOrder(ctx context.Context, order *models.Order) error
	// TouchOrder bumps the version of an unchanged order under the same guard.
	TouchOrder(ctx context.Context, id, version uint) error
}

// GormOrderStore implements OrderStore on gorm (postgres in production, sqlite in tests).
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a store on db.
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

func (s *GormOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	if err := order.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
		}
		return fmt.Errorf("failed to create order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (s *GormOrderStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	return &order, nil
}

func (s *GormOrderStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderNumber, err)
	}
	return &order, nil
}

func (s *GormOrderStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	// Unscoped: soft-deleted rows still hold their number in the unique index.
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check order number %s: %w", orderNumber, err)
	}
	return count > 0, nil
}

func (s *GormOrderStore) ListChildOrders(ctx context.Context, parentID uint) ([]models.Order, error) {
	var children []models.Order
	err := s.db.WithContext(ctx).
		Where("parent_order_id = ?", parentID).
		Order("id ASC").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shop orders of %d: %w", parentID, err)
	}
	return children, nil
}

func (s *GormOrderStore) FindMainOrderByTraceCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("trace_unique_trace_code = ?", code).
		Where("order_type IN ?", []models.OrderType{models.OrderTypeZoneMain, models.OrderTypeLegacyZoneSplit}).
		Order("created_at DESC").
		Order("id DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: trace code %s", ErrOrderNotFound, code)
		}
		return nil, fmt.Errorf("failed to find main order for trace code %s: %w", code, err)
	}
	return &order, nil
}

func (s *GormOrderStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	// Legacy rows are rewritten under their canonical type.
	order.OrderType = order.OrderType.Canonical()
	if err := order.Validate(); err != nil {
		return err
	}

	expected := order.Version
	order.Version = expected + 1

	result := s.db.WithContext(ctx).
		Model(order).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(order)
	if result.Error != nil {
		order.Version = expected
		return fmt.Errorf("failed to update order %s: %w", order.OrderNumber, result.Error)
	}
	if result.RowsAffected == 0 {
		order.Version = expected
		return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, order.OrderNumber, expected)
	}
	return nil
}

func (s *GormOrderStore) TouchOrder(ctx context.Context, id, version uint) error {
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", id, version).
		UpdateColumn("version", version+1)
	if result.Error != nil {
		return fmt.Errorf("failed to touch order %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d at version %d", ErrVersionConflict, id, version)
	}
	return nil
}

// isDuplicateKey works with both PostgreSQL and SQLite, with or without TranslateError.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
