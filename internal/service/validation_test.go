package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		wantErr  string
	}{
		{name: "valid", currency: "USD"},
		{name: "valid lowercase", currency: "eur"},
		{name: "empty", currency: "", wantErr: "currency is required"},
		{name: "too short", currency: "US", wantErr: "currency must be a 3-letter ISO code"},
		{name: "too long", currency: "USDT", wantErr: "currency must be a 3-letter ISO code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCurrency(tt.currency)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperrors.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Message)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(1))
	assert.Error(t, ValidateAmount(0))
	assert.Error(t, ValidateAmount(-500))
}

func TestValidateRecordPayment(t *testing.T) {
	tests := []struct {
		name        string
		orderID     string
		amount      int64
		currency    string
		paymentType models.PaymentType
		wantField   string
	}{
		{name: "valid manual", orderID: "ord_1", amount: 1000, currency: "USD", paymentType: models.PaymentTypeManual},
		{name: "valid gateway", orderID: "ord_1", amount: 1000, currency: "USD", paymentType: models.PaymentTypeGateway},
		{name: "missing order", amount: 1000, currency: "USD", paymentType: models.PaymentTypeManual, wantField: "order_id"},
		{name: "zero amount", orderID: "ord_1", amount: 0, currency: "USD", paymentType: models.PaymentTypeManual, wantField: "amount"},
		{name: "bad currency", orderID: "ord_1", amount: 1000, currency: "DOLLARS", paymentType: models.PaymentTypeManual, wantField: "currency"},
		{name: "bad type", orderID: "ord_1", amount: 1000, currency: "USD", paymentType: "crypto", wantField: "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordPayment(tt.orderID, tt.amount, tt.currency, tt.paymentType)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperrors.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestValidateRejectionNotes(t *testing.T) {
	assert.NoError(t, ValidateRejectionNotes("Amount does not match the invoice"))

	err := ValidateRejectionNotes("")
	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "Notes are required", ve.Message)
}

func TestValidateCancellationReason(t *testing.T) {
	assert.NoError(t, ValidateCancellationReason("duplicate order"))
	assert.Error(t, ValidateCancellationReason(""))

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	assert.Error(t, ValidateCancellationReason(string(long)))
}
