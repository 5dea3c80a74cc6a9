package services

import (
	"time"

	"github.com/kendall-kelly/zone-orders-api/notifications"
	"github.com/kendall-kelly/zone-orders-api/utils"
)

// Deps are the collaborators shared by every order service.
type Deps struct {
	Store    OrderStore
	Catalog  Catalog
	Notifier notifications.Notifier
	Receipts ReceiptArchive // optional

	Pricing                utils.PricingPolicy
	DefaultPrepTime        int // minutes
	OrderNumberMaxAttempts int
	RecomputeMaxAttempts   int

	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = notifications.LogNotifier{}
	}
	if d.DefaultPrepTime <= 0 {
		d.DefaultPrepTime = DefaultPrepTimeMinutes
	}
	if d.OrderNumberMaxAttempts < 1 {
		d.OrderNumberMaxAttempts = 50
	}
	if d.RecomputeMaxAttempts < 1 {
		d.RecomputeMaxAttempts = 5
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// OrderServices bundles the services the HTTP layer talks to.
type OrderServices struct {
	Checkout    *CheckoutService
	Aggregation *AggregationEngine
	Status      *StatusService
	Lookup      *LookupService
}

var orderServicesInstance *OrderServices

// NewOrderServices wires every order service onto the same collaborators.
func NewOrderServices(deps Deps) *OrderServices {
	deps = deps.withDefaults()
	aggregation := NewAggregationEngine(deps)
	return &OrderServices{
		Checkout:    NewCheckoutService(deps),
		Aggregation: aggregation,
		Status:      NewStatusService(deps, aggregation),
		Lookup:      NewLookupService(deps),
	}
}

// InitOrderServices builds the services and makes them the process-wide instance
func InitOrderServices(deps Deps) *OrderServices {
	orderServicesInstance = NewOrderServices(deps)
	return orderServicesInstance
}

// GetOrderServices returns the initialized services
func GetOrderServices() *OrderServices {
	return orderServicesInstance
}

// SetOrderServices replaces the services instance (primarily for testing)
func SetOrderServices(s *OrderServices) {
	orderServicesInstance = s
}
