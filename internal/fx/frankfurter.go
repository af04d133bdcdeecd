package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// FrankfurterClient fetches exchange rates from a Frankfurter-compatible
// JSON API. It wraps an HTTP client and implements RateSource; the resolver
// applies the per-fetch timeout, so the underlying client carries none.
type FrankfurterClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// frankfurterResponse is the provider's response shape for a single-date query.
type frankfurterResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// NewFrankfurterClient creates a client for the given provider base URL.
// The API key is optional; when set it is sent as an Authorization header.
func NewFrankfurterClient(baseURL, apiKey string) *FrankfurterClient {
	return &FrankfurterClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// FetchRate retrieves the rate from one currency to another for a date.
// Historical dates query the dated endpoint; today's date queries "latest".
func (c *FrankfurterClient) FetchRate(ctx context.Context, from, to string, date time.Time) (float64, error) {
	endpoint := date.Format("2006-01-02")
	if sameDay(date, time.Now()) {
		endpoint = "latest"
	}

	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)

	requestURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read rate response: %w", err)
	}

	var parsed frankfurterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := parsed.Rates[to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s in provider response", to)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("provider returned non-positive rate %g for %s/%s", rate, from, to)
	}

	return rate, nil
}
