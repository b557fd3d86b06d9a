package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
)

// Pricing is the catalog's answer for a purchasable product.
type Pricing struct {
	Price            int64  `json:"price"`
	Currency         string `json:"currency"`
	DurationMonths   int    `json:"duration_months"`
	ActivationPolicy string `json:"activation_policy"`
}

// CatalogClient provides pricing and policy for purchasable products.
type CatalogClient interface {
	GetPricing(ctx context.Context, productID string) (*Pricing, error)
}

// HTTPCatalogClient implements CatalogClient using HTTP.
type HTTPCatalogClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

// NewHTTPCatalogClient creates a new HTTP-based catalog client.
func NewHTTPCatalogClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

var _ CatalogClient = (*HTTPCatalogClient)(nil)

// GetPricing retrieves pricing and activation policy for a product.
// A missing product returns (nil, nil).
func (c *HTTPCatalogClient) GetPricing(ctx context.Context, productID string) (*Pricing, error) {
	c.logger.Debug("Fetching pricing", logging.Fields{"product_id": productID})

	url := fmt.Sprintf("%s/api/v1/products/%s/pricing", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch pricing", logging.Fields{
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var pricing Pricing
	if err := json.NewDecoder(resp.Body).Decode(&pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// MockCatalogClient is a mock implementation for testing.
type MockCatalogClient struct {
	Pricings map[string]*Pricing
	Err      error
}

// NewMockCatalogClient creates a mock catalog client.
func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{
		Pricings: make(map[string]*Pricing),
	}
}

func (m *MockCatalogClient) GetPricing(ctx context.Context, productID string) (*Pricing, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pricings[productID], nil
}
