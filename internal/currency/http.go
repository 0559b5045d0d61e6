package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/provider/resilience"
)

const (
	// HTTPProviderName identifies the HTTP rate provider.
	HTTPProviderName = "frankfurter"

	// DefaultBaseURL is the Frankfurter API base URL.
	DefaultBaseURL = "https://api.frankfurter.app"
)

// HTTPProviderConfig holds configuration for the HTTP rate provider.
type HTTPProviderConfig struct {
	// BaseURL is the API base URL (optional, defaults to Frankfurter).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// HTTPProvider fetches rates from a Frankfurter-compatible JSON API.
type HTTPProvider struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// NewHTTPProvider creates a new HTTP rate provider.
func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(HTTPProviderName))
	}

	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string {
	return HTTPProviderName
}

// Rates fetches the latest rates for base.
func (p *HTTPProvider) Rates(ctx context.Context, base string) (map[string]float64, error) {
	code, err := NormalizeCode(base)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/latest?from=%s", p.baseURL, url.QueryEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	rates := make(map[string]float64, len(body.Rates)+1)
	for k, v := range body.Rates {
		rates[strings.ToUpper(k)] = v
	}
	rates[code] = 1

	p.logger.Debug().
		Str("base", code).
		Int("rates", len(rates)).
		Msg("fetched currency rates")

	return rates, nil
}
