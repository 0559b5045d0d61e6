package currency

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the currency service.
type ServiceConfig struct {
	// Provider is the primary rate source.
	Provider Provider

	// Fallback serves rates when the primary provider fails (optional).
	Fallback Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache rates (default: 1 hour).
	CacheTTL time.Duration
}

// Service provides conversion rates with caching.
type Service struct {
	provider Provider
	fallback Provider
	logger   zerolog.Logger
	cache    *cache.Cache
}

// NewService creates a new currency service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	provider := cfg.Provider
	if provider == nil {
		provider = MockProvider{}
	}

	return &Service{
		provider: provider,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Rates returns the rates for base, served from cache when fresh.
func (s *Service) Rates(ctx context.Context, base string) (map[string]float64, error) {
	key := strings.ToUpper(strings.TrimSpace(base))
	if cached, ok := s.cache.Get(key); ok {
		return maps.Clone(cached.(map[string]float64)), nil
	}

	rates, err := s.provider.Rates(ctx, key)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("base", key).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch currency rates")

		if s.fallback == nil {
			return nil, err
		}
		rates, err = s.fallback.Rates(ctx, key)
		if err != nil {
			return nil, err
		}
		s.logger.Warn().
			Str("base", key).
			Str("provider", s.fallback.Name()).
			Msg("serving fallback currency rates")
		return rates, nil
	}

	s.cache.SetDefault(key, maps.Clone(rates))
	return rates, nil
}

// Convert fetches rates for base and converts price into target.
// A rate lookup failure leaves the price unchanged.
func (s *Service) Convert(ctx context.Context, price, target, base string) string {
	rates, err := s.Rates(ctx, base)
	if err != nil {
		rates = nil
	}
	return ConvertPrice(price, target, base, rates)
}
