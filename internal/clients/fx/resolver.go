// Package fx resolves the USD to KRW conversion rate from public providers
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/time/rate"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 3 // requests per second
)

// provider is one rate source: a URL and the jsonpath of the KRW rate inside
// its payload.
type provider struct {
	name string
	url  string
	path string
}

// defaultProviders are tried in order. The first positive rate wins; when all
// of them fail the resolver falls back to models.DefaultUSDKRW.
var defaultProviders = []provider{
	{"exchangerate-api", "https://api.exchangerate-api.com/v4/latest/USD", "$.rates.KRW"},
	{"fixer", "http://data.fixer.io/api/latest?access_key=free&base=USD&symbols=KRW", "$.rates.KRW"},
	{"currencyapi", "https://api.currencyapi.com/v3/latest?apikey=free&currencies=KRW&base_currency=USD", "$.data.KRW.value"},
}

// Resolver implements the RateResolver interface. The resolved quote is
// memoized until Reset so one run converts every balance at the same rate.
type Resolver struct {
	providers  []provider
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	mu     sync.Mutex
	cached *models.RateQuote
}

// ResolverOption configures the resolver
type ResolverOption func(*Resolver)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTimeout sets the per-provider HTTP timeout
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ResolverOption {
	return func(r *Resolver) {
		r.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewResolver creates a new exchange rate resolver
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers: defaultProviders,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns a usable USD to KRW quote. It never fails: provider errors
// and non-positive rates fall through to the next provider, and the default
// rate backstops the chain.
func (r *Resolver) Resolve(ctx context.Context) models.RateQuote {
	r.mu.Lock()
	if r.cached != nil {
		quote := *r.cached
		r.mu.Unlock()
		return quote
	}
	r.mu.Unlock()

	quote := r.fetch(ctx)

	r.mu.Lock()
	r.cached = &quote
	r.mu.Unlock()
	return quote
}

// Reset clears the memoized quote so the next Resolve fetches fresh.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

func (r *Resolver) fetch(ctx context.Context) models.RateQuote {
	for _, p := range r.providers {
		value, err := r.fetchOne(ctx, p)
		if err != nil {
			perr := &models.RateProviderError{Provider: p.name, Err: err}
			r.logger.Warn().Err(perr).Msg("rate provider failed, trying next")
			continue
		}
		if value <= 0 {
			r.logger.Warn().Str("provider", p.name).Float64("rate", value).Msg("rate provider returned non-positive rate, trying next")
			continue
		}
		r.logger.Info().Str("provider", p.name).Float64("usd_krw", value).Msg("resolved exchange rate")
		return models.RateQuote{Rate: value, Source: p.name, FetchedAt: time.Now()}
	}

	r.logger.Warn().Float64("usd_krw", models.DefaultUSDKRW).Msg("every rate provider failed, using default rate")
	return models.RateQuote{Rate: models.DefaultUSDKRW, Source: models.RateSourceDefault, FetchedAt: time.Now()}
}

func (r *Resolver) fetchOne(ctx context.Context, p provider) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode payload: %w", err)
	}

	jval, err := jsonpath.Get(p.path, payload)
	if err != nil {
		return 0, fmt.Errorf("path %s: %w", p.path, err)
	}
	// jsonpath sometimes wraps the answer in a one-element list.
	if list, ok := jval.([]interface{}); ok && len(list) > 0 {
		jval = list[0]
	}

	value, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("path %s: %v is not a number", p.path, jval)
	}
	return value, nil
}

// Ensure Resolver implements RateResolver
var _ interfaces.RateResolver = (*Resolver)(nil)
