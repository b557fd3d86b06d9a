package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/clients"
	"github.com/Synerlabs/cohorts-orders-service/internal/mocks"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

func newEntitlementItem(appRef, memberRef string) *models.LineItem {
	now := time.Now()
	meta := models.Metadata{}
	if appRef != "" {
		meta[models.MetadataKeyApplicationRef] = appRef
	}
	if memberRef != "" {
		meta[models.MetadataKeyMembershipRef] = memberRef
	}
	return &models.LineItem{
		ID:        "li_test",
		OrderID:   "ord_test",
		Type:      models.LineItemTypeEntitlement,
		ProductID: "prod_gold",
		Amount:    5000,
		Currency:  "USD",
		Status:    models.LineItemStatusPending,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newEntitlementFixture() (*EntitlementHandler, *mocks.InMemoryLineItemRepository, *clients.MockApplicantClient, *clients.MockMembershipClient) {
	lineItems := mocks.NewInMemoryLineItemRepository()
	applicant := clients.NewMockApplicantClient()
	membership := clients.NewMockMembershipClient()
	h := NewEntitlementHandler(lineItems, applicant, membership, &mocks.PassthroughTransactor{})
	return h, lineItems, applicant, membership
}

func TestEntitlementHandlerSuccess(t *testing.T) {
	h, lineItems, applicant, membership := newEntitlementFixture()

	applicant.Applications["app_1"] = &clients.Application{
		Ref:                "app_1",
		BuyerID:            "buyer_1",
		BuyerMembershipRef: "mem_1",
		Status:             clients.ApplicationStatusPending,
		Plan:               clients.Plan{DurationMonths: 12},
	}

	item := newEntitlementItem("app_1", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	processed, err := h.Process(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, models.LineItemStatusCompleted, processed.Status)
	require.NotNil(t, processed.CompletedAt)

	// Exactly one entitlement, a 12-month window from activation.
	require.Len(t, applicant.Entitlements, 1)
	ent := applicant.Entitlements[0]
	assert.Equal(t, "buyer_1", ent.BuyerID)
	assert.Equal(t, "mem_1", ent.MembershipRef)
	assert.WithinDuration(t, ent.ValidFrom.AddDate(0, 12, 0), ent.ValidTo, time.Second)

	assert.Equal(t, clients.ApplicationStatusApproved, applicant.Applications["app_1"].Status)
	active, _ := membership.IsActive(context.Background(), "mem_1")
	assert.True(t, active)

	// The persisted row agrees with the returned item.
	stored, err := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LineItemStatusCompleted, stored.Status)
}

func TestEntitlementHandlerMissingApplicationRef(t *testing.T) {
	h, lineItems, _, _ := newEntitlementFixture()

	item := newEntitlementItem("", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	_, err := h.Process(context.Background(), item)

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "metadata.application_ref", ve.Field)

	// Precondition failures mutate nothing: the stored row is untouched and
	// no update was ever issued.
	stored, getErr := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.LineItemStatusPending, stored.Status)
	assert.Empty(t, lineItems.UpdateLog)
}

func TestEntitlementHandlerSkipsExistingEntitlement(t *testing.T) {
	h, lineItems, applicant, _ := newEntitlementFixture()

	applicant.Applications["app_1"] = &clients.Application{
		Ref:                "app_1",
		BuyerID:            "buyer_1",
		BuyerMembershipRef: "mem_1",
		Status:             clients.ApplicationStatusPending,
		Plan:               clients.Plan{DurationMonths: 6},
	}
	applicant.Entitlements = append(applicant.Entitlements, &clients.Entitlement{
		ID:            "ent_existing",
		BuyerID:       "buyer_1",
		MembershipRef: "mem_1",
		Active:        true,
	})

	item := newEntitlementItem("app_1", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	processed, err := h.Process(context.Background(), item)
	require.NoError(t, err)

	// Re-running the pipeline must not mint a second entitlement, but the
	// rest of the pipeline still runs to completion.
	assert.Len(t, applicant.Entitlements, 1)
	assert.Equal(t, models.LineItemStatusCompleted, processed.Status)
	assert.Equal(t, clients.ApplicationStatusApproved, applicant.Applications["app_1"].Status)
}

func TestEntitlementHandlerMembershipRefFallback(t *testing.T) {
	h, lineItems, applicant, membership := newEntitlementFixture()

	applicant.Applications["app_1"] = &clients.Application{
		Ref:                "app_1",
		BuyerID:            "buyer_1",
		BuyerMembershipRef: "mem_from_app",
		Status:             clients.ApplicationStatusPending,
		Plan:               clients.Plan{DurationMonths: 1},
	}

	item := newEntitlementItem("app_1", "")
	require.NoError(t, lineItems.Create(context.Background(), item))

	_, err := h.Process(context.Background(), item)
	require.NoError(t, err)

	// The ref resolved from the application is persisted back onto the item.
	stored, getErr := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "mem_from_app", stored.MembershipRef())

	active, _ := membership.IsActive(context.Background(), "mem_from_app")
	assert.True(t, active)
}

func TestEntitlementHandlerApplicationNotFound(t *testing.T) {
	h, lineItems, _, _ := newEntitlementFixture()

	item := newEntitlementItem("app_missing", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	_, err := h.Process(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stored, getErr := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.LineItemStatusFailed, stored.Status)
	assert.NotNil(t, stored.FailedAt)
	assert.Contains(t, stored.Metadata[models.MetadataKeyError], "app_missing")
}

func TestEntitlementHandlerVerificationFailure(t *testing.T) {
	h, lineItems, applicant, membership := newEntitlementFixture()

	applicant.Applications["app_1"] = &clients.Application{
		Ref:                "app_1",
		BuyerID:            "buyer_1",
		BuyerMembershipRef: "mem_1",
		Status:             clients.ApplicationStatusPending,
		Plan:               clients.Plan{DurationMonths: 12},
	}
	// Activation succeeds but is never reflected by the read side.
	membership.ActivateIsVisible = false

	item := newEntitlementItem("app_1", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	_, err := h.Process(context.Background(), item)
	require.Error(t, err)

	var pe *apperrors.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "verify membership", pe.Stage)

	// The failure is persisted with its cause: callers see the error and
	// pollers see the failed row.
	stored, getErr := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.LineItemStatusFailed, stored.Status)
	assert.Contains(t, stored.Metadata[models.MetadataKeyError], "not active")
}

func TestEntitlementHandlerUpstreamError(t *testing.T) {
	h, lineItems, applicant, _ := newEntitlementFixture()

	applicant.Applications["app_1"] = &clients.Application{
		Ref:                "app_1",
		BuyerID:            "buyer_1",
		BuyerMembershipRef: "mem_1",
		Status:             clients.ApplicationStatusPending,
		Plan:               clients.Plan{DurationMonths: 12},
	}
	applicant.CreateEntitlementErr = errors.New("applicant service unavailable")

	item := newEntitlementItem("app_1", "mem_1")
	require.NoError(t, lineItems.Create(context.Background(), item))

	_, err := h.Process(context.Background(), item)
	require.Error(t, err)

	var pe *apperrors.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "create entitlement", pe.Stage)

	stored, getErr := lineItems.GetByID(context.Background(), item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.LineItemStatusFailed, stored.Status)
}
