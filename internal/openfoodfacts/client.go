package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/vbonduro/pantrysync/internal/classify"
)

const DefaultBaseURL = "https://world.openfoodfacts.org"

// Client resolves barcodes against the Open Food Facts product database.
// Every failure mode (timeout, network error, non-200 status, malformed
// body, open circuit) surfaces as an error the classification engine
// treats as "no data"; nothing here is fatal.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, rps float64, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openfoodfacts",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("lookup circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: breaker,
		logger:  logger,
	}
}

// Lookup fetches the product for barcode. A clean miss (the database knows
// nothing about the barcode) returns (nil, nil).
func (c *Client) Lookup(ctx context.Context, barcode string) (*classify.ResolvedProduct, error) {
	if barcode == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, barcode)
	})
	if err != nil {
		return nil, err
	}
	product, _ := result.(*classify.ResolvedProduct)
	return product, nil
}

func (c *Client) fetch(ctx context.Context, barcode string) (*classify.ResolvedProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call openfoodfacts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts returned status %d", resp.StatusCode)
	}

	var body struct {
		Status  int `json:"status"`
		Product struct {
			ProductName    string   `json:"product_name"`
			GenericName    string   `json:"generic_name"`
			Quantity       string   `json:"quantity"`
			CategoriesTags []string `json:"categories_tags"`
			Packaging      string   `json:"packaging"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if body.Status != 1 {
		c.logger.Debug("barcode not found", "barcode", barcode)
		return nil, nil
	}

	name := body.Product.ProductName
	if name == "" {
		name = body.Product.GenericName
	}
	return &classify.ResolvedProduct{
		Name:       name,
		Quantity:   body.Product.Quantity,
		Categories: body.Product.CategoriesTags,
		Packaging:  body.Product.Packaging,
	}, nil
}
