package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
)

// MembershipClient provides operations on a buyer's membership flag.
type MembershipClient interface {
	Activate(ctx context.Context, membershipRef string) error
	IsActive(ctx context.Context, membershipRef string) (bool, error)
}

// HTTPMembershipClient implements MembershipClient using HTTP.
type HTTPMembershipClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPMembershipClient creates a new HTTP-based membership client.
func NewHTTPMembershipClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPMembershipClient {
	return &HTTPMembershipClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

var _ MembershipClient = (*HTTPMembershipClient)(nil)

// Activate flips the membership flag to active.
func (c *HTTPMembershipClient) Activate(ctx context.Context, membershipRef string) error {
	c.logger.Info("Activating membership", logging.Fields{"membership_ref": membershipRef})

	u := fmt.Sprintf("%s/api/v1/memberships/%s/activate", c.baseURL, url.PathEscape(membershipRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to activate membership", logging.Fields{
			"membership_ref": membershipRef,
			"error":          err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("membership service returned status %d", resp.StatusCode)
	}
	return nil
}

// IsActive reads the membership flag back.
func (c *HTTPMembershipClient) IsActive(ctx context.Context, membershipRef string) (bool, error) {
	u := fmt.Sprintf("%s/api/v1/memberships/%s", c.baseURL, url.PathEscape(membershipRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("membership service returned status %d", resp.StatusCode)
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Active, nil
}

// MockMembershipClient is a mock implementation for testing.
type MockMembershipClient struct {
	ActiveRefs  map[string]bool
	ActivateErr error

	// ActivateIsVisible controls whether Activate is reflected by IsActive,
	// letting tests exercise the post-activation verification path.
	ActivateIsVisible bool
}

// NewMockMembershipClient creates a mock membership client.
func NewMockMembershipClient() *MockMembershipClient {
	return &MockMembershipClient{
		ActiveRefs:        make(map[string]bool),
		ActivateIsVisible: true,
	}
}

func (m *MockMembershipClient) Activate(ctx context.Context, membershipRef string) error {
	if m.ActivateErr != nil {
		return m.ActivateErr
	}
	if m.ActivateIsVisible {
		m.ActiveRefs[membershipRef] = true
	}
	return nil
}

func (m *MockMembershipClient) IsActive(ctx context.Context, membershipRef string) (bool, error) {
	return m.ActiveRefs[membershipRef], nil
}
