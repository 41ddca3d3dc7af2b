package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// CurrencyConverter converts a monetary amount to US dollars.
type CurrencyConverter interface {
	ToUSD(ctx context.Context, amount float64, currency string) (float64, error)
}

// ExchangeRateConverter converts currencies using the exchangerate-api.com
// public endpoint.
type ExchangeRateConverter struct {
	httpClient *http.Client
	baseURL    string
}

// NewExchangeRateConverter creates a converter. An empty baseURL uses the
// public API.
func NewExchangeRateConverter(baseURL string) *ExchangeRateConverter {
	if baseURL == "" {
		baseURL = "https://api.exchangerate-api.com"
	}
	return &ExchangeRateConverter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// ToUSD converts the amount to USD, rounded to cents. USD amounts pass
// through unchanged.
func (c *ExchangeRateConverter) ToUSD(ctx context.Context, amount float64, currency string) (float64, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == "USD" {
		return amount, nil
	}

	endpoint := fmt.Sprintf("%s/v4/latest/%s", c.baseURL, currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API error (status %d)", resp.StatusCode)
	}

	var rates ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return 0, fmt.Errorf("failed to decode rates: %w", err)
	}

	usdRate, ok := rates.Rates["USD"]
	if !ok {
		return 0, fmt.Errorf("no USD rate for %s", currency)
	}

	return math.Round(amount*usdRate*100) / 100, nil
}
