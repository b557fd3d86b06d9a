package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
)

// Application statuses as recorded by the applicant store.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// Plan describes the membership plan an application was filed against.
type Plan struct {
	DurationMonths   int    `json:"duration_months"`
	ActivationPolicy string `json:"activation_policy"`
}

// Application is an approval-lineage record for a membership purchase.
type Application struct {
	Ref                string     `json:"ref"`
	BuyerID            string     `json:"buyer_id"`
	BuyerMembershipRef string     `json:"buyer_membership_ref"`
	Status             string     `json:"status"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	Plan               Plan       `json:"plan"`
}

// Entitlement is a granted validity window for a buyer+membership pair.
type Entitlement struct {
	ID            string    `json:"id"`
	BuyerID       string    `json:"buyer_id"`
	MembershipRef string    `json:"membership_ref"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	Active        bool      `json:"active"`
}

// ApplicantClient provides operations on applications and entitlements.
type ApplicantClient interface {
	GetApplication(ctx context.Context, ref string) (*Application, error)
	UpdateApplicationStatus(ctx context.Context, ref, status string, approvedAt time.Time) error
	GetActiveEntitlement(ctx context.Context, buyerID, membershipRef string) (*Entitlement, error)
	CreateEntitlement(ctx context.Context, buyerID, membershipRef string, validFrom, validTo time.Time) (*Entitlement, error)
}

// HTTPApplicantClient implements ApplicantClient using HTTP.
type HTTPApplicantClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPApplicantClient creates a new HTTP-based applicant client.
func NewHTTPApplicantClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPApplicantClient {
	return &HTTPApplicantClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

var _ ApplicantClient = (*HTTPApplicantClient)(nil)

// GetApplication retrieves an application and its plan by reference.
// A missing application returns (nil, nil).
func (c *HTTPApplicantClient) GetApplication(ctx context.Context, ref string) (*Application, error) {
	c.logger.Debug("Fetching application", logging.Fields{"application_ref": ref})

	u := fmt.Sprintf("%s/api/v1/applications/%s", c.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch application", logging.Fields{
			"application_ref": ref,
			"error":           err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("applicant service returned status %d", resp.StatusCode)
	}

	var app Application
	if err := json.NewDecoder(resp.Body).Decode(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplicationStatus records the application's approval outcome.
func (c *HTTPApplicantClient) UpdateApplicationStatus(ctx context.Context, ref, status string, approvedAt time.Time) error {
	c.logger.Debug("Updating application status", logging.Fields{
		"application_ref": ref,
		"status":          status,
	})

	body, err := json.Marshal(map[string]interface{}{
		"status":      status,
		"approved_at": approvedAt,
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/api/v1/applications/%s/status", c.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("applicant service returned status %d", resp.StatusCode)
	}
	return nil
}

// GetActiveEntitlement looks up an active entitlement for a buyer+membership
// pair. No active entitlement returns (nil, nil).
func (c *HTTPApplicantClient) GetActiveEntitlement(ctx context.Context, buyerID, membershipRef string) (*Entitlement, error) {
	u := fmt.Sprintf("%s/api/v1/entitlements/active?buyer_id=%s&membership_ref=%s",
		c.baseURL, url.QueryEscape(buyerID), url.QueryEscape(membershipRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("applicant service returned status %d", resp.StatusCode)
	}

	var ent Entitlement
	if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// CreateEntitlement inserts a new entitlement for the validity window.
func (c *HTTPApplicantClient) CreateEntitlement(ctx context.Context, buyerID, membershipRef string, validFrom, validTo time.Time) (*Entitlement, error) {
	c.logger.Info("Creating entitlement", logging.Fields{
		"buyer_id":       buyerID,
		"membership_ref": membershipRef,
		"valid_to":       validTo,
	})

	body, err := json.Marshal(map[string]interface{}{
		"buyer_id":       buyerID,
		"membership_ref": membershipRef,
		"valid_from":     validFrom,
		"valid_to":       validTo,
	})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v1/entitlements", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("applicant service returned status %d", resp.StatusCode)
	}

	var ent Entitlement
	if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// MockApplicantClient is a mock implementation for testing.
type MockApplicantClient struct {
	Applications map[string]*Application
	Entitlements []*Entitlement

	GetApplicationErr    error
	UpdateStatusErr      error
	CreateEntitlementErr error
}

// NewMockApplicantClient creates a mock applicant client.
func NewMockApplicantClient() *MockApplicantClient {
	return &MockApplicantClient{
		Applications: make(map[string]*Application),
		Entitlements: make([]*Entitlement, 0),
	}
}

func (m *MockApplicantClient) GetApplication(ctx context.Context, ref string) (*Application, error) {
	if m.GetApplicationErr != nil {
		return nil, m.GetApplicationErr
	}
	return m.Applications[ref], nil
}

func (m *MockApplicantClient) UpdateApplicationStatus(ctx context.Context, ref, status string, approvedAt time.Time) error {
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}
	if app, ok := m.Applications[ref]; ok {
		app.Status = status
		app.ApprovedAt = &approvedAt
	}
	return nil
}

func (m *MockApplicantClient) GetActiveEntitlement(ctx context.Context, buyerID, membershipRef string) (*Entitlement, error) {
	for _, ent := range m.Entitlements {
		if ent.BuyerID == buyerID && ent.MembershipRef == membershipRef && ent.Active {
			return ent, nil
		}
	}
	return nil, nil
}

func (m *MockApplicantClient) CreateEntitlement(ctx context.Context, buyerID, membershipRef string, validFrom, validTo time.Time) (*Entitlement, error) {
	if m.CreateEntitlementErr != nil {
		return nil, m.CreateEntitlementErr
	}
	ent := &Entitlement{
		ID:            "ent_" + uuid.NewString(),
		BuyerID:       buyerID,
		MembershipRef: membershipRef,
		ValidFrom:     validFrom,
		ValidTo:       validTo,
		Active:        true,
	}
	m.Entitlements = append(m.Entitlements, ent)
	return ent, nil
}
