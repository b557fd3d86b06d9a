package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCanCancel(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusProcessing, false},
		{OrderStatusCompleted, false},
		{OrderStatusFailed, false},
		{OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &Order{Status: tt.status}
			assert.Equal(t, tt.want, o.CanCancel())
		})
	}
}

func TestOrderIsTerminal(t *testing.T) {
	assert.False(t, (&Order{Status: OrderStatusPending}).IsTerminal())
	assert.False(t, (&Order{Status: OrderStatusProcessing}).IsTerminal())
	assert.True(t, (&Order{Status: OrderStatusCompleted}).IsTerminal())
	assert.True(t, (&Order{Status: OrderStatusFailed}).IsTerminal())
	assert.True(t, (&Order{Status: OrderStatusCancelled}).IsTerminal())
}

func TestValidOrderStatusTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to processing", OrderStatusPending, OrderStatusProcessing, true},
		{"pending to completed", OrderStatusPending, OrderStatusCompleted, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"processing back to pending", OrderStatusProcessing, OrderStatusPending, true},
		{"processing to completed", OrderStatusProcessing, OrderStatusCompleted, true},
		{"processing to cancelled", OrderStatusProcessing, OrderStatusCancelled, false},
		{"completed is final", OrderStatusCompleted, OrderStatusPending, false},
		{"cancelled is final", OrderStatusCancelled, OrderStatusProcessing, false},
		{"unknown from", OrderStatus("bogus"), OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidOrderStatusTransition(tt.from, tt.to))
		})
	}
}
