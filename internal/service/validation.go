package service

import (
	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// ValidateCurrency checks for a 3-letter ISO 4217 code.
func ValidateCurrency(currency string) error {
	if currency == "" {
		return apperrors.NewValidationError("currency", "currency is required")
	}
	if len(currency) != 3 {
		return apperrors.NewValidationError("currency", "currency must be a 3-letter ISO code")
	}
	return nil
}

// ValidateAmount checks that an amount in minor units is positive.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return apperrors.NewValidationError("amount", "amount must be positive")
	}
	return nil
}

// ValidateCreateEntitlementOrder validates the orchestrator's inputs.
func ValidateCreateEntitlementOrder(buyerID, productID, membershipRef, applicationRef string) error {
	if buyerID == "" {
		return apperrors.NewValidationError("buyer_id", "buyer ID is required")
	}
	if productID == "" {
		return apperrors.NewValidationError("product_id", "product ID is required")
	}
	if membershipRef == "" {
		return apperrors.NewValidationError("membership_ref", "membership reference is required")
	}
	if applicationRef == "" {
		return apperrors.NewValidationError("application_ref", "application reference is required")
	}
	return nil
}

// ValidateRecordPayment validates a payment recording request.
func ValidateRecordPayment(orderID string, amount int64, currency string, paymentType models.PaymentType) error {
	if orderID == "" {
		return apperrors.NewValidationError("order_id", "order ID is required")
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := ValidateCurrency(currency); err != nil {
		return err
	}
	switch paymentType {
	case models.PaymentTypeManual, models.PaymentTypeGateway:
	default:
		return apperrors.NewValidationError("type", "invalid payment type")
	}
	return nil
}

// ValidateRejectionNotes enforces that a rejection carries an explanation.
func ValidateRejectionNotes(notes string) error {
	if notes == "" {
		return apperrors.NewValidationError("notes", "Notes are required")
	}
	return nil
}

// ValidateCancellationReason validates an order cancellation reason.
func ValidateCancellationReason(reason string) error {
	if reason == "" {
		return apperrors.NewValidationError("reason", "cancellation reason is required")
	}
	if len(reason) > 500 {
		return apperrors.NewValidationError("reason", "cancellation reason too long (max 500 characters)")
	}
	return nil
}
