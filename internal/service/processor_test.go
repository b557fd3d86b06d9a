package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

func TestProcessorDispatchesByType(t *testing.T) {
	processor := NewLineItemProcessor()
	entitlement := &stubHandler{}
	product := &stubHandler{}
	processor.Register(models.LineItemTypeEntitlement, entitlement)
	processor.Register(models.LineItemTypeProduct, product)

	item := newEntitlementItem("app_1", "mem_1")
	_, err := processor.Process(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, 1, entitlement.calls)
	assert.Equal(t, 0, product.calls)
}

func TestProcessorRejectsUnknownType(t *testing.T) {
	processor := NewLineItemProcessor()

	item := newEntitlementItem("app_1", "mem_1")
	item.Type = models.LineItemTypePromotion

	_, err := processor.Process(context.Background(), item)
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
}
