// Package notifications delivers best-effort order events to shops, zone admins and
// customers over whichever transports are configured.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Event names carried in Payload.Event.
const (
	EventShopOrderCreated   = "shop_order.created"
	EventZoneOrderCreated   = "zone_order.created"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventMainStatusChanged  = "zone_order.status_changed"
)

// Payload is the message body sent on a channel.
type Payload struct {
	Event       string         `json:"event"`
	OrderID     uint           `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Status      string         `json:"status,omitempty"`
	Message     string         `json:"message,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	SentAt      time.Time      `json:"sent_at"`
}

// Notifier publishes a payload on a channel such as "shop:12" or "customer:auth0|abc".
type Notifier interface {
	Notify(ctx context.Context, channelKey string, payload Payload) error
}

// ShopChannel is the channel watched by a shop's terminals.
func ShopChannel(shopID uint) string {
	return fmt.Sprintf("shop:%d", shopID)
}

// ZoneAdminChannel is the channel watched by a zone's administrators.
func ZoneAdminChannel(zoneID uint) string {
	return fmt.Sprintf("zone:%d", zoneID)
}

// CustomerChannel is the channel watched by a customer's devices.
func CustomerChannel(customerID string) string {
	return "customer:" + customerID
}

// DispatchTimeout bounds each Dispatch so a slow or unreachable transport holds up the
// triggering request for at most this long.
var DispatchTimeout = 500 * time.Millisecond

// Dispatch sends payload and logs any failure. Notification errors never reach callers.
func Dispatch(ctx context.Context, n Notifier, channelKey string, payload Payload) {
	if n == nil {
		return
	}
	if payload.SentAt.IsZero() {
		payload.SentAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DispatchTimeout)
	defer cancel()
	if err := n.Notify(ctx, channelKey, payload); err != nil {
		log.Printf("warning: notification %s for order %s on %s failed: %v",
			payload.Event, payload.OrderNumber, channelKey, err)
	}
}

func encode(channelKey string, payload Payload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification for %s: %w", channelKey, err)
	}
	return body, nil
}

// LogNotifier writes notifications to the application log. Used when no transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, channelKey string, payload Payload) error {
	log.Printf("notify %s: %s order=%s status=%s", channelKey, payload.Event, payload.OrderNumber, payload.Status)
	return nil
}
