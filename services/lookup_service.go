package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kendall-kelly/zone-orders-api/models"
)

// ParentLookup is what support tooling gets back for a printed shop order number.
type ParentLookup struct {
	ShopOrderNumber string        `json:"shop_order_number"`
	TraceCode       string        `json:"trace_code"`
	ShopOrder       *models.Order `json:"shop_order,omitempty"`
	MainOrder       *models.Order `json:"main_order"`
	ReceiptURL      string        `json:"receipt_url,omitempty"`
}

// LookupService answers read-only order questions.
type LookupService struct {
	store    OrderStore
	receipts ReceiptArchive
}

// NewLookupService creates a lookup service on deps.
func NewLookupService(deps Deps) *LookupService {
	return &LookupService{store: deps.Store, receipts: deps.Receipts}
}

func (l *LookupService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return l.store.GetOrder(ctx, id)
}

// ListShopOrders returns the shop orders of a zone main order, read fresh.
func (l *LookupService) ListShopOrders(ctx context.Context, mainOrderID uint) ([]models.Order, error) {
	main, err := l.store.GetOrder(ctx, mainOrderID)
	if err != nil {
		return nil, err
	}
	if !main.OrderType.IsZoneMain() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotZoneMain, main.OrderNumber, main.OrderType)
	}
	return l.store.ListChildOrders(ctx, main.ID)
}

// FindParentZoneOrder traces a printed shop order number back to its main order. The shop
// order's parent link is used when the shop order exists. Otherwise the main order is found
// through the trace code embedded in the number.
func (l *LookupService) FindParentZoneOrder(ctx context.Context, shopOrderNumber string) (*ParentLookup, error) {
	code, ok := ExtractParentOrderCode(shopOrderNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a shop order number", ErrInvalidTraceCode, shopOrderNumber)
	}
	number := strings.ToUpper(strings.TrimSpace(shopOrderNumber))
	lookup := &ParentLookup{ShopOrderNumber: number, TraceCode: code}

	shop, err := l.store.GetOrderByNumber(ctx, number)
	switch {
	case err == nil && shop.ParentOrderID != nil:
		lookup.ShopOrder = shop
		if lookup.MainOrder, err = l.store.GetOrder(ctx, *shop.ParentOrderID); err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, ErrOrderNotFound):
		lookup.ShopOrder = shop
		if lookup.MainOrder, err = l.mainByTraceCode(ctx, number, code); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if l.receipts != nil {
		url, err := l.receipts.GetReceiptURL(ctx, lookup.MainOrder.OrderNumber)
		if err != nil {
			log.Printf("warning: no receipt URL for %s: %v", lookup.MainOrder.OrderNumber, err)
		}
		lookup.ReceiptURL = url
	}
	return lookup, nil
}

// mainByTraceCode prefers the main order created on the same day as the shop order and
// falls back to the newest main order with the code.
func (l *LookupService) mainByTraceCode(ctx context.Context, shopOrderNumber, code string) (*models.Order, error) {
	day := shopOrderNumber[traceCodeLength : traceCodeLength+2]
	main, err := l.store.GetOrderByNumber(ctx, mainOrderPrefix+day+code)
	if err == nil && main.OrderType.IsZoneMain() {
		return main, nil
	}
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, err
	}
	return l.store.FindMainOrderByTraceCode(ctx, code)
}
