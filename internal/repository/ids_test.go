package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewOrderID(), "ord_"))
	assert.True(t, strings.HasPrefix(NewLineItemID(), "li_"))
	assert.True(t, strings.HasPrefix(NewPaymentID(), "pay_"))
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewOrderID()
		assert.False(t, seen[id], "duplicate order ID %s", id)
		seen[id] = true
	}
}
