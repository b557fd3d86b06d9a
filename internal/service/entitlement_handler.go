package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/clients"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/metrics"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/repository"
)

// EntitlementHandler finalizes entitlement line items: it grants the
// purchased entitlement, approves the backing application and activates the
// buyer's membership flag, verifying both before declaring success.
type EntitlementHandler struct {
	lineItems  repository.LineItemRepository
	applicant  clients.ApplicantClient
	membership clients.MembershipClient
	tx         repository.Transactor
	logger     *logging.Logger
}

// NewEntitlementHandler creates the entitlement line-item handler.
func NewEntitlementHandler(
	lineItems repository.LineItemRepository,
	applicant clients.ApplicantClient,
	membership clients.MembershipClient,
	tx repository.Transactor,
) *EntitlementHandler {
	return &EntitlementHandler{
		lineItems:  lineItems,
		applicant:  applicant,
		membership: membership,
		tx:         tx,
		logger:     logging.NewLogger("entitlement-handler"),
	}
}

var _ LineItemHandler = (*EntitlementHandler)(nil)

// Process runs the activation pipeline for one entitlement line item.
//
// The local writes run inside one transaction. On any failure the
// transaction is rolled back, the line item is re-persisted as failed with
// the captured error in its metadata, and the error is returned, so the
// caller and anyone polling the row agree on the outcome.
func (h *EntitlementHandler) Process(ctx context.Context, item *models.LineItem) (*models.LineItem, error) {
	applicationRef := item.ApplicationRef()
	if applicationRef == "" {
		// Precondition failure: nothing has been mutated.
		return nil, apperrors.NewValidationError("metadata.application_ref", "application reference is required")
	}

	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return h.activate(ctx, item, applicationRef)
	})
	if err != nil {
		h.markFailed(ctx, item, err)
		return item, err
	}

	h.logger.Info("Line item completed", logging.Fields{
		"line_item_id": item.ID,
		"order_id":     item.OrderID,
	})
	return item, nil
}

func (h *EntitlementHandler) activate(ctx context.Context, item *models.LineItem, applicationRef string) error {
	now := time.Now()

	item.Status = models.LineItemStatusProcessing
	item.UpdatedAt = now
	if err := h.lineItems.Update(ctx, item); err != nil {
		return apperrors.NewProcessingError("mark processing", err)
	}

	app, err := h.applicant.GetApplication(ctx, applicationRef)
	if err != nil {
		return apperrors.NewProcessingError("fetch application", err)
	}
	if app == nil {
		return apperrors.NewNotFoundError("application", applicationRef)
	}

	membershipRef := item.MembershipRef()
	if membershipRef == "" {
		membershipRef = app.BuyerMembershipRef
	}

	validFrom := now
	validTo := now.AddDate(0, app.Plan.DurationMonths, 0)

	// Idempotency guard: this pipeline can run more than once for the same
	// order, so an already-active entitlement is skipped, not an error.
	existing, err := h.applicant.GetActiveEntitlement(ctx, app.BuyerID, membershipRef)
	if err != nil {
		return apperrors.NewProcessingError("check active entitlement", err)
	}
	if existing != nil {
		h.logger.Info("Active entitlement exists, skipping creation", logging.Fields{
			"line_item_id":   item.ID,
			"buyer_id":       app.BuyerID,
			"membership_ref": membershipRef,
			"entitlement_id": existing.ID,
		})
		metrics.EntitlementActivationsSkipped.Inc()
	} else {
		if _, err := h.applicant.CreateEntitlement(ctx, app.BuyerID, membershipRef, validFrom, validTo); err != nil {
			return apperrors.NewProcessingError("create entitlement", err)
		}
	}

	if err := h.applicant.UpdateApplicationStatus(ctx, applicationRef, clients.ApplicationStatusApproved, now); err != nil {
		return apperrors.NewProcessingError("approve application", err)
	}

	if item.MembershipRef() == "" {
		item.Metadata[models.MetadataKeyMembershipRef] = membershipRef
		item.UpdatedAt = time.Now()
		if err := h.lineItems.Update(ctx, item); err != nil {
			return apperrors.NewProcessingError("persist membership ref", err)
		}
	}

	if err := h.membership.Activate(ctx, membershipRef); err != nil {
		return apperrors.NewProcessingError("activate membership", err)
	}

	// Verification: re-read both externally-owned records before trusting
	// the activation took effect.
	active, err := h.membership.IsActive(ctx, membershipRef)
	if err != nil {
		return apperrors.NewProcessingError("verify membership", err)
	}
	if !active {
		return apperrors.NewProcessingError("verify membership",
			fmt.Errorf("membership %s not active after activation", membershipRef))
	}

	app, err = h.applicant.GetApplication(ctx, applicationRef)
	if err != nil {
		return apperrors.NewProcessingError("verify application", err)
	}
	if app == nil || app.Status != clients.ApplicationStatusApproved {
		return apperrors.NewProcessingError("verify application",
			fmt.Errorf("application %s not approved after update", applicationRef))
	}

	completedAt := time.Now()
	item.Status = models.LineItemStatusCompleted
	item.CompletedAt = &completedAt
	item.UpdatedAt = completedAt
	if err := h.lineItems.Update(ctx, item); err != nil {
		return apperrors.NewProcessingError("mark completed", err)
	}
	return nil
}

// markFailed persists the failure record after the transaction rolled back.
// This write happens outside the transaction so the failed state survives.
func (h *EntitlementHandler) markFailed(ctx context.Context, item *models.LineItem, cause error) {
	now := time.Now()
	item.Status = models.LineItemStatusFailed
	item.FailedAt = &now
	item.CompletedAt = nil
	item.UpdatedAt = now
	if item.Metadata == nil {
		item.Metadata = models.Metadata{}
	}
	item.Metadata[models.MetadataKeyError] = cause.Error()

	if err := h.lineItems.Update(ctx, item); err != nil {
		h.logger.Error("Failed to persist line item failure", logging.Fields{
			"line_item_id": item.ID,
			"cause":        cause.Error(),
			"error":        err.Error(),
		})
	}

	metrics.LineItemsFailed.WithLabelValues(string(item.Type)).Inc()
	h.logger.Error("Line item failed", logging.Fields{
		"line_item_id": item.ID,
		"order_id":     item.OrderID,
		"error":        cause.Error(),
	})
}
