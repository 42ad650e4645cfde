// Package kis provides a client for the Korea Investment Securities OpenAPI
package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
)

const (
	DefaultBaseURL   = "https://openapi.koreainvestment.com:9443"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Transaction codes for the endpoints damoa calls.
const (
	trDomesticBalance = "TTTC8434R"
	trDomesticCash    = "TTTC8908R"
	trOverseasBalance = "TTTS3012R"
	trOverseasCash    = "TTTS3007R"
)

// Client implements the BrokerageClient interface. One client serves every
// configured account; bearer tokens are cached per account inside the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	rates      interfaces.RateResolver
	retry      common.Retry

	mu     sync.Mutex
	tokens map[string]cachedToken
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets the token issuance retry policy. Tests inject a recording
// sleeper here so backoff is observable without waiting.
func WithRetry(r common.Retry) ClientOption {
	return func(c *Client) {
		c.retry = r
	}
}

// NewClient creates a new brokerage client. The resolver supplies the USD to
// KRW rate used to convert overseas balances.
func NewClient(rates interfaces.RateResolver, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		rates:   rates,
		retry:   common.Retry{Attempts: 3, Backoff: 30 * time.Second},
		tokens:  make(map[string]cachedToken),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a rate-limited, authenticated GET request and decodes the body.
func (c *Client) get(ctx context.Context, account models.Account, path, trID string, query url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.token(ctx, account)
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("appkey", account.AppKey)
	req.Header.Set("appsecret", account.AppSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", "P")

	c.logger.Debug().Str("account", account.Name).Str("path", path).Str("tr_id", trID).Msg("brokerage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.CollectionError{Account: account.Name, Endpoint: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &models.CollectionError{
			Account:  account.Name,
			Endpoint: path,
			Code:     fmt.Sprintf("HTTP %d", resp.StatusCode),
			Message:  strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &models.CollectionError{Account: account.Name, Endpoint: path, Message: fmt.Sprintf("decode response: %v", err)}
	}

	return nil
}

// apiEnvelope carries the provider's result code. rt_cd "0" means success;
// anything else is an application-level failure with msg1 as the reason.
type apiEnvelope struct {
	RtCd string `json:"rt_cd"`
	Msg1 string `json:"msg1"`
}

func (e apiEnvelope) failure(account, endpoint string) error {
	return &models.CollectionError{
		Account:  account,
		Endpoint: endpoint,
		Code:     e.RtCd,
		Message:  strings.TrimSpace(e.Msg1),
	}
}

// parseAmount parses one of the provider's numeric strings. Values arrive as
// quoted decimals, occasionally comma grouped.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// parseQuantity parses a quantity string into a whole share count.
func parseQuantity(s string) (int64, error) {
	f, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// Ensure Client implements BrokerageClient
var _ interfaces.BrokerageClient = (*Client)(nil)
