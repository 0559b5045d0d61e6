package currency_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/currency"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
)

func TestConvertPrice(t *testing.T) {
	usd := map[string]float64{"EUR": 0.93, "GBP": 0.79, "JPY": 156.45, "USD": 1, "CHF": 0.9}

	tests := []struct {
		name   string
		price  string
		target string
		base   string
		rates  map[string]float64
		want   string
	}{
		{"single amount", "$50", "EUR", "USD", usd, "€46.50"},
		{"range", "$50 - $100", "EUR", "USD", usd, "€46.50 - €93.00"},
		{"range keeps first two amounts", "10-20 or 30 USD", "GBP", "USD", usd, "£7.90 - £15.80"},
		{"thousand separators", "1,200 USD", "JPY", "USD", usd, "¥187740.00"},
		{"decimals", "Approx. 12.40 USD", "GBP", "USD", usd, "£9.80"},
		{"free stays free", "Free", "EUR", "USD", usd, "Free"},
		{"same currency", "$50", "usd", "USD", usd, "$50"},
		{"no rates", "$50", "EUR", "USD", nil, "$50"},
		{"unknown target", "$50", "AUD", "USD", usd, "$50"},
		{"target without symbol", "$50", "CHF", "USD", usd, "CHF 45.00"},
		{"empty", "", "EUR", "USD", usd, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currency.ConvertPrice(tt.price, tt.target, tt.base, tt.rates))
		})
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "€", currency.Symbol("eur"))
	assert.Equal(t, "₹", currency.Symbol("INR"))
	assert.Equal(t, "SEK ", currency.Symbol("SEK"))
}

func TestNormalizeCode(t *testing.T) {
	code, err := currency.NormalizeCode(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = currency.NormalizeCode("ZZZ1")
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestMockProvider(t *testing.T) {
	p := currency.MockProvider{}

	eur, err := p.Rates(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, 1.08, eur["USD"])
	assert.Equal(t, 1.0, eur["EUR"])

	unknown, err := p.Rates(context.Background(), "THB")
	require.NoError(t, err)
	assert.Equal(t, 0.93, unknown["EUR"], "unknown bases fall back to the USD table")

	eur["USD"] = 99
	again, _ := p.Rates(context.Background(), "EUR")
	assert.Equal(t, 1.08, again["USD"])
}

func TestHTTPProvider_Rates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":1.0,"base":"EUR","date":"2026-10-13","rates":{"USD":1.09,"gbp":0.86}}`))
	}))
	defer server.Close()

	p := currency.NewHTTPProvider(currency.HTTPProviderConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
		Logger:     zerolog.Nop(),
	})

	rates, err := p.Rates(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, 1.09, rates["USD"])
	assert.Equal(t, 0.86, rates["GBP"])
	assert.Equal(t, 1.0, rates["EUR"])
}

func TestHTTPProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := currency.NewHTTPProvider(currency.HTTPProviderConfig{BaseURL: server.URL, Logger: zerolog.Nop()})

	_, err := p.Rates(context.Background(), "EUR")
	assert.ErrorIs(t, err, currency.ErrProviderUnavailable)

	_, err = p.Rates(context.Background(), "not-a-code")
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

type countingProvider struct {
	mu        sync.Mutex
	callCount int
	err       error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Rates(_ context.Context, base string) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callCount++
	if p.err != nil {
		return nil, p.err
	}
	return map[string]float64{"EUR": 0.5, base: 1}, nil
}

func TestService_CachesRates(t *testing.T) {
	provider := &countingProvider{}
	svc := currency.NewService(currency.ServiceConfig{Provider: provider, Logger: zerolog.Nop(), CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		rates, err := svc.Rates(context.Background(), "usd")
		require.NoError(t, err)
		assert.Equal(t, 0.5, rates["EUR"])
	}
	assert.Equal(t, 1, provider.callCount)
}

func TestService_FallbackOnError(t *testing.T) {
	provider := &countingProvider{err: errors.New("timeout")}
	svc := currency.NewService(currency.ServiceConfig{
		Provider: provider,
		Fallback: currency.MockProvider{},
		Logger:   zerolog.Nop(),
	})

	rates, err := svc.Rates(context.Background(), "GBP")
	require.NoError(t, err)
	assert.Equal(t, 1.27, rates["USD"])
}

func TestService_ConvertLeavesPriceOnFailure(t *testing.T) {
	provider := &countingProvider{err: errors.New("timeout")}
	svc := currency.NewService(currency.ServiceConfig{Provider: provider, Logger: zerolog.Nop()})

	assert.Equal(t, "€20", svc.Convert(context.Background(), "€20", "USD", "EUR"))
}
