package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/zone-orders-api/models"
	"github.com/kendall-kelly/zone-orders-api/notifications"
	"github.com/kendall-kelly/zone-orders-api/tests/testutil"
	"github.com/kendall-kelly/zone-orders-api/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// zoneFixture is a food court with two open shops, one closed shop and a shop in another zone.
type zoneFixture struct {
	db       *gorm.DB
	store    *hookStore
	notifier *notifications.MockNotifier
	receipts *MockReceiptArchive
	svc      *OrderServices

	zone, otherZone         *models.Zone
	burgers, tacos, closed  *models.Shop
	elsewhere               *models.Shop
	burger, fries, taco     *models.MenuItem
	closedItem, foreignItem *models.MenuItem
}

func newZoneFixture(t *testing.T) *zoneFixture {
	return newZoneFixtureWith(t, 5)
}

func newZoneFixtureWith(t *testing.T, recomputeAttempts int) *zoneFixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	f := &zoneFixture{
		db:       db,
		store:    &hookStore{OrderStore: NewGormOrderStore(db)},
		notifier: notifications.NewMockNotifier(),
		receipts: NewMockReceiptArchive(),
	}
	f.zone = testutil.SeedZone(t, db, "Harbour Food Court")
	f.otherZone = testutil.SeedZone(t, db, "Station Hall")
	f.burgers = testutil.SeedShop(t, db, f.zone.ID, "Burger Bar", true, 15)
	f.tacos = testutil.SeedShop(t, db, f.zone.ID, "Taco Stand", true, 0)
	f.closed = testutil.SeedShop(t, db, f.zone.ID, "Noodle Corner", false, 10)
	f.elsewhere = testutil.SeedShop(t, db, f.otherZone.ID, "Pretzel Cart", true, 5)

	f.burger = testutil.SeedMenuItem(t, db, f.burgers.ID, "Cheeseburger", "8.50")
	f.fries = testutil.SeedMenuItem(t, db, f.burgers.ID, "Fries", "3.00")
	f.taco = testutil.SeedMenuItem(t, db, f.tacos.ID, "Taco al pastor", "4.25")
	f.closedItem = testutil.SeedMenuItem(t, db, f.closed.ID, "Ramen", "11.00")
	f.foreignItem = testutil.SeedMenuItem(t, db, f.elsewhere.ID, "Pretzel", "2.50")

	f.svc = NewOrderServices(Deps{
		Store:    f.store,
		Catalog:  NewGormCatalog(db),
		Notifier: f.notifier,
		Receipts: f.receipts,
		Pricing: utils.PricingPolicy{
			TaxRate:        decimal.RequireFromString("0.08"),
			ServiceFeeRate: decimal.Zero,
		},
		OrderNumberMaxAttempts: 50,
		RecomputeMaxAttempts:   recomputeAttempts,
		Now:                    func() time.Time { return testNow },
	})
	return f
}

// placeZoneOrder checks out the given items in the fixture zone and requires success.
func (f *zoneFixture) placeZoneOrder(t *testing.T, items ...models.OrderItem) *ZoneOrderResult {
	t.Helper()
	result, err := f.svc.Checkout.ProcessZoneOrder(context.Background(), ZoneCheckout{
		ZoneID:     f.zone.ID,
		CustomerID: "auth0|customer-1",
		Items:      items,
		PlacedBy:   "auth0|customer-1",
	})
	require.NoError(t, err)
	return result
}

// setStatus moves an order through the status service and requires success.
func (f *zoneFixture) setStatus(t *testing.T, orderID uint, status models.OrderStatus) *StatusUpdateResult {
	t.Helper()
	result, err := f.svc.Status.UpdateShopOrderStatus(context.Background(), StatusUpdate{
		OrderID: orderID,
		Status:  status,
		Actor:   "auth0|shop-terminal",
	})
	require.NoError(t, err)
	return result
}

// fixCodes makes the order number generator draw codes from a fixed cycle.
func (f *zoneFixture) fixCodes(codes ...string) {
	i := 0
	f.svc.Checkout.numbers.randomCode = func() string {
		code := codes[i%len(codes)]
		i++
		return code
	}
}

func (f *zoneFixture) reload(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := f.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return order
}

// hookStore lets tests intercept writes to simulate races and failures.
type hookStore struct {
	OrderStore

	mu           sync.Mutex
	beforeCreate func(*models.Order) error
	beforeUpdate func(*models.Order) error
}

func (h *hookStore) onCreate(fn func(*models.Order) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeCreate = fn
}

func (h *hookStore) onUpdate(fn func(*models.Order) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.beforeUpdate = fn
}

func (h *hookStore) CreateOrder(ctx context.Context, order *models.Order) error {
	h.mu.Lock()
	hook := h.beforeCreate
	h.mu.Unlock()
	if hook != nil {
		if err := hook(order); err != nil {
			return err
		}
	}
	return h.OrderStore.CreateOrder(ctx, order)
}

func (h *hookStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	h.mu.Lock()
	hook := h.beforeUpdate
	h.mu.Unlock()
	if hook != nil {
		if err := hook(order); err != nil {
			return err
		}
	}
	return h.OrderStore.UpdateOrder(ctx, order)
}

func statusesOf(orders []models.Order) []models.OrderStatus {
	out := make([]models.OrderStatus, len(orders))
	for i := range orders {
		out[i] = orders[i].Status
	}
	return out
}
