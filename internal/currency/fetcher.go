package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the exchangerate-api host.
const DefaultBaseURL = "https://v6.exchangerate-api.com"

// Fetcher loads a USD-based rate table.
type Fetcher interface {
	Fetch(ctx context.Context) (Rates, error)
}

// HTTPFetcher reads {base}/v6/{key}/latest/USD.
type HTTPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func NewHTTPFetcher(baseURL, apiKey string, client *http.Client) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Rates, error) {
	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s", f.baseURL, url.PathEscape(f.apiKey), Base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("rate provider error: %s", body.ErrorType)
	}
	if len(body.ConversionRates) == 0 {
		return nil, fmt.Errorf("rate provider returned no conversion_rates")
	}

	rates := make(Rates, len(body.ConversionRates))
	for code, rate := range body.ConversionRates {
		rates[code] = rate
	}
	return rates, nil
}
