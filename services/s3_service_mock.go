package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kendall-kelly/zone-orders-api/models"
)

// MockReceiptArchive is an in-memory ReceiptArchive for testing
type MockReceiptArchive struct {
	receipts map[string][]byte // map of object key to receipt JSON
	mu       sync.RWMutex
	Err      error // returned from PutReceipt when set
}

// NewMockReceiptArchive creates a new mock receipt archive
func NewMockReceiptArchive() *MockReceiptArchive {
	return &MockReceiptArchive{
		receipts: make(map[string][]byte),
	}
}

// PutReceipt simulates uploading a receipt
func (m *MockReceiptArchive) PutReceipt(_ context.Context, order *models.Order) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}

	key := receiptKey(order.OrderNumber)
	m.mu.Lock()
	m.receipts[key] = body
	m.mu.Unlock()

	return key, nil
}

// GetReceiptURL simulates generating a presigned URL
func (m *MockReceiptArchive) GetReceiptURL(_ context.Context, orderNumber string) (string, error) {
	key := receiptKey(orderNumber)

	m.mu.RLock()
	_, exists := m.receipts[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("receipt not found in mock archive: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// ReceiptExists checks if a receipt was archived for orderNumber
func (m *MockReceiptArchive) ReceiptExists(orderNumber string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.receipts[receiptKey(orderNumber)]
	return exists
}

// Count returns the number of archived receipts
func (m *MockReceiptArchive) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}
