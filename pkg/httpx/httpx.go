// Package httpx is the shared pooled HTTP client every external
// HTTP collaborator (DexScreener, GoPlus, CoinGecko, Ollama) goes
// through: a fixed timeout, exponential-backoff
// retries, and a circuit breaker that opens after repeated failures,
// generalized from the teacher's ad hoc `getJSON`/`etherscanList`
// helpers in pkg/scanner/scanner.go into one shared client per §5.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	retries int
}

type Config struct {
	Timeout          time.Duration
	RetryAttempts    int
	BreakerFailures  uint32
	BreakerCooldown  time.Duration
	Name             string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 4
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
	})
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		retries: cfg.RetryAttempts,
	}
}

// GetJSON issues a GET with the given query params and decodes a JSON
// response into out, retrying transient failures with exponential
// backoff through the circuit breaker.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params map[string]string, out interface{}) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body []byte
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt < c.retries; attempt++ {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doGet(ctx, u.String())
		})
		if err == nil {
			body = result.([]byte)
			break
		}
		if attempt == c.retries-1 {
			return fmt.Errorf("GET %s failed after %d attempts: %w", u.String(), c.retries, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", u.String(), err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// PostJSON posts a JSON body and decodes a JSON response, used by the
// narrator's Ollama call. It does not retry — the narrator treats any
// failure here as "fall back to the deterministic template", not as a
// transient condition worth re-attempting.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload interface{}, out interface{}) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, jsonReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("POST %s returned %d: %s", rawURL, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
