package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/models"
)

// cachedToken is one issued bearer token. The provider grants 24 hours; the
// cache treats tokens as stale after common.FreshnessToken so a token can
// never expire while a run is in flight.
type cachedToken struct {
	value    string
	issuedAt time.Time
}

// token returns a fresh bearer token for the account, reusing the cached one
// while it is within its lifetime. Issuance failures are retried with linear
// backoff; exhaustion wraps the last error in models.AuthError.
func (c *Client) token(ctx context.Context, account models.Account) (string, error) {
	c.mu.Lock()
	cached, ok := c.tokens[account.Name]
	c.mu.Unlock()
	if ok && common.IsFresh(cached.issuedAt, common.FreshnessToken) {
		return cached.value, nil
	}

	r := c.retry
	if r.OnRetry == nil {
		r.OnRetry = func(attempt int, wait time.Duration, err error) {
			c.logger.Warn().
				Str("account", account.Name).
				Int("attempt", attempt).
				Dur("wait", wait).
				Err(err).
				Msg("token issuance failed, retrying")
		}
	}

	var issued string
	err := r.Do(ctx, func() error {
		v, err := c.issueToken(ctx, account)
		if err != nil {
			return err
		}
		issued = v
		return nil
	})
	if err != nil {
		return "", &models.AuthError{Account: account.Name, Err: err}
	}

	c.mu.Lock()
	c.tokens[account.Name] = cachedToken{value: issued, issuedAt: time.Now()}
	c.mu.Unlock()

	c.logger.Info().Str("account", account.Name).Msg("issued new access token")
	return issued, nil
}

// issueToken performs one token request against the OAuth endpoint.
func (c *Client) issueToken(ctx context.Context, account models.Account) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     account.AppKey,
		"appsecret":  account.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/tokenP", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}

	return result.AccessToken, nil
}
