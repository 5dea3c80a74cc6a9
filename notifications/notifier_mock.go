package notifications

import (
	"context"
	"sync"
)

// Sent is one notification captured by MockNotifier.
type Sent struct {
	Channel string
	Payload Payload
}

// MockNotifier records notifications for test assertions
type MockNotifier struct {
	mu   sync.Mutex
	sent []Sent
	Err  error // returned from every Notify call when set
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the call and returns m.Err
func (m *MockNotifier) Notify(_ context.Context, channelKey string, payload Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{Channel: channelKey, Payload: payload})
	return m.Err
}

// Sent returns a copy of everything recorded so far
func (m *MockNotifier) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the payloads recorded for one channel
func (m *MockNotifier) SentTo(channelKey string) []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Payload
	for _, s := range m.sent {
		if s.Channel == channelKey {
			out = append(out, s.Payload)
		}
	}
	return out
}

// CountEvent returns how many notifications carried event
func (m *MockNotifier) CountEvent(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.Payload.Event == event {
			n++
		}
	}
	return n
}

// Clear removes all recorded notifications
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
