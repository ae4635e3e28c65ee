// Package vaultclient is the API server's client for the vault boundary.
// It classifies failures so callers can pick a retry policy: a transport
// error (no response at all), a remote 4xx, and a remote 5xx stay
// distinguishable even though all of them wrap common.ErrUnavailable.
package vaultclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/vault"
)

// Doer abstracts the HTTP client so tests and observers can wrap transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer sees every vault round trip. status is zero when no response
// arrived. Wire it to logging or metrics; it must not mutate anything.
type Observer func(method, path string, status int, d time.Duration, err error)

// Failure classification sentinels. Each one wraps common.ErrUnavailable,
// so errors.Is(err, common.ErrUnavailable) matches any vault trouble.
var (
	ErrNoResponse = fmt.Errorf("%w: no response from vault", common.ErrUnavailable)
	ErrRemote4xx  = fmt.Errorf("%w: vault rejected the request", common.ErrUnavailable)
	ErrRemote5xx  = fmt.Errorf("%w: vault internal failure", common.ErrUnavailable)
)

// HealthStatus is the availability probe result.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthUnknown  HealthStatus = "unknown"
)

// Client talks to vaultd. Store and Delete are not idempotent from the
// caller's viewpoint and are never retried; Retrieve and Health are retried
// once, and only when no response arrived at all.
type Client struct {
	baseURL  string
	token    string
	http     Doer
	timeout  time.Duration
	observer Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithDoer replaces the underlying HTTP client.
func WithDoer(d Doer) Option { return func(c *Client) { c.http = d } }

// WithObserver installs a round-trip observer.
func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

// New builds a Client for the vault at baseURL with the shared bearer token.
// timeout bounds every individual call.
func New(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StoreKeyBundle pushes the private half of an identity to the vault.
// Not retried: a duplicate arrival is harmless (the vault upserts) but the
// caller must decide that, not this layer.
func (c *Client) StoreKeyBundle(ctx context.Context, b *vault.PrivateKeyBundle) error {
	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	status, _, err := c.do(ctx, http.MethodPost, "/keys", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return classify(status, http.StatusCreated)
}

// RetrieveKeyBundle fetches the private bundle for an owner. Safe to retry;
// one extra attempt is made when the first produced no response.
func (c *Client) RetrieveKeyBundle(ctx context.Context, encryptedID string) (*vault.PrivateKeyBundle, error) {
	var bundle *vault.PrivateKeyBundle
	err := c.withOneRetry(func() error {
		status, body, err := c.do(ctx, http.MethodGet, "/keys/"+encryptedID, nil)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			return common.ErrNotFound
		}
		if err := classify(status, http.StatusOK); err != nil {
			return err
		}
		bundle = &vault.PrivateKeyBundle{}
		return json.Unmarshal(body, bundle)
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// DeleteKeyBundle removes an owner's bundle on account deletion. Never
// retried.
func (c *Client) DeleteKeyBundle(ctx context.Context, encryptedID string) error {
	status, _, err := c.do(ctx, http.MethodDelete, "/keys/"+encryptedID, nil)
	if err != nil {
		return err
	}
	return classify(status, http.StatusOK)
}

// Health probes the vault. Transport failure maps to HealthUnknown, never
// to an error: availability probes should not themselves page.
func (c *Client) Health(ctx context.Context) HealthStatus {
	var status HealthStatus = HealthUnknown
	_ = c.withOneRetry(func() error {
		_, raw, err := c.do(ctx, http.MethodGet, "/health", nil)
		if err != nil {
			return err
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return err
		}
		switch body.Status {
		case "healthy":
			status = HealthHealthy
		case "degraded":
			status = HealthDegraded
		}
		return nil
	})
	return status
}

// do runs one round trip and returns the status plus the fully read body.
// The body must be consumed here, before the per-call context is cancelled;
// a caller decoding a live resp.Body after do returns would race the cancel.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observer(method, path, status, time.Since(start), err)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		// The response died mid-body; same retry class as no response.
		return 0, nil, fmt.Errorf("%w: reading body: %v", ErrNoResponse, err)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) withOneRetry(fn func() error) error {
	err := fn()
	if errors.Is(err, ErrNoResponse) {
		return fn()
	}
	return err
}

func classify(got, want int) error {
	switch {
	case got == want:
		return nil
	case got >= 400 && got < 500:
		return fmt.Errorf("%w (status %d)", ErrRemote4xx, got)
	default:
		return fmt.Errorf("%w (status %d)", ErrRemote5xx, got)
	}
}
