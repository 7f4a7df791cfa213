// internal/crm/client.go
package crm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL string
	// APIKey is the deployment-level bearer credential. Tenant scoping
	// happens through the locationId parameter on every call.
	APIKey string

	// Token bucket sized to the documented remote quota.
	RequestsPerSecond float64
	Burst             int

	// Retry policy for transient failures (429, 502, 503, connection
	// errors). Non-transient failures are never retried.
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	RequestTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return cfg
}

// Client wraps the CRM REST API with rate limiting, retries with
// exponential backoff and jitter, and bearer auth. It is safe for
// concurrent use; the limiter is the only shared mutable state and is
// itself concurrency-safe.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
	}
}

// IdempotencyKey derives a deterministic key from the local identity of
// a create operation, so a retried create cannot duplicate the remote
// record where the API honors the key.
func IdempotencyKey(tenantID int64, entityType string, localID int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s:%d", tenantID, entityType, localID)))
	return hex.EncodeToString(sum[:16])
}

// do performs one API call with rate limiting and retries. query must
// already include the tenant's locationId where the endpoint needs it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, idemKey string) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		// The limiter blocks cooperatively while the bucket is empty;
		// every attempt spends one token.
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idemKey != "" {
			req.Header.Set("Idempotency-Key", idemKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Connection-level failures are transient.
			lastErr = err
			if werr := c.backoff(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if werr := c.backoff(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("failed to decode CRM response: %w", err)
				}
			}
			return nil

		case isTransient(resp.StatusCode):
			lastErr = fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
			c.logger.Warn("transient CRM error, will retry",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt),
			)
			if werr := c.backoff(ctx, attempt); werr != nil {
				return werr
			}
			continue

		case resp.StatusCode == http.StatusConflict:
			return fmt.Errorf("%s %s: %s: %w", method, path, truncate(respBody), xerrors.ErrSchedulingConflict)

		default:
			// Any other 4xx/5xx is a hard rejection; retrying the same
			// payload cannot succeed.
			return fmt.Errorf("%s %s: status %d: %s: %w",
				method, path, resp.StatusCode, truncate(respBody), xerrors.ErrRemoteRejected)
		}
	}

	return fmt.Errorf("%s %s after %d attempts: %v: %w",
		method, path, c.cfg.MaxAttempts, lastErr, xerrors.ErrRemoteUnavailable)
}

// backoff sleeps for the attempt's exponential delay plus jitter, or
// returns early when the context is done. The final attempt skips the
// sleep; there is nothing left to wait for.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	if attempt >= c.cfg.MaxAttempts {
		return nil
	}
	delay := c.cfg.RetryBaseDelay << (attempt - 1)
	if delay > c.cfg.RetryMaxDelay {
		delay = c.cfg.RetryMaxDelay
	}
	// Up to 25% jitter keeps concurrent retries from stampeding.
	delay += time.Duration(rand.Int63n(int64(delay)/4 + 1))

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isTransient(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
