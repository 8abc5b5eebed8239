// Package probe polls a plain HTTP endpoint and hands back its body.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dockhand/statusagent/internal/report"
)

// Prober issues a bare GET against a fixed URL.
type Prober struct {
	client *http.Client
	url    string
}

// New returns a Prober for url. A zero timeout leaves requests bounded only
// by the caller's context.
func New(url string, timeout time.Duration) *Prober {
	return &Prober{client: &http.Client{Timeout: timeout}, url: url}
}

// URL returns the probed endpoint.
func (p *Prober) URL() string { return p.url }

// Fetch GETs the endpoint and returns the raw body. Non-2xx replies are
// returned as *report.StatusError.
func (p *Prober) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &report.StatusError{Code: resp.StatusCode, Body: report.Truncate(string(body))}
	}
	return string(body), nil
}
