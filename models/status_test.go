package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     OrderStatus
		to       OrderStatus
		reversed bool
		wantErr  bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, false, false},
		{"confirmed to preparing", StatusConfirmed, StatusPreparing, false, false},
		{"preparing to ready", StatusPreparing, StatusReady, false, false},
		{"ready to completed", StatusReady, StatusCompleted, false, false},
		{"skip preparing", StatusConfirmed, StatusReady, false, false},
		{"backwards", StatusReady, StatusPreparing, false, true},
		{"same status", StatusReady, StatusReady, false, true},
		{"cancel from preparing", StatusPreparing, StatusCancelled, false, false},
		{"cancel completed", StatusCompleted, StatusCancelled, false, true},
		{"cancel twice", StatusCancelled, StatusCancelled, false, true},
		{"leave completed", StatusCompleted, StatusReady, false, true},
		{"refund completed with reversal", StatusCompleted, StatusRefunded, true, false},
		{"refund cancelled with reversal", StatusCancelled, StatusRefunded, true, false},
		{"refund without reversal", StatusCompleted, StatusRefunded, false, true},
		{"refund preparing", StatusPreparing, StatusRefunded, true, true},
		{"partially ready is derived", StatusPreparing, StatusPartiallyReady, false, true},
		{"partially completed is derived", StatusReady, StatusPartiallyCompleted, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.reversed)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("partially_ready")
	assert.NoError(t, err)
	assert.Equal(t, StatusPartiallyReady, status)

	_, err = ParseOrderStatus("done")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestItemStatusOrdering(t *testing.T) {
	assert.True(t, ItemPending.Before(ItemServed))
	assert.False(t, ItemReady.Before(ItemPreparing))

	_, err := ParseItemStatus("cooking")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	mapped, ok := ItemStatusFor(StatusCompleted)
	assert.True(t, ok)
	assert.Equal(t, ItemServed, mapped)

	_, ok = ItemStatusFor(StatusCancelled)
	assert.False(t, ok)
}
