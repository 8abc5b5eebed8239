// Package report delivers inventory snapshots to the status endpoint.
package report

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dockhand/statusagent/internal/docker"
	"github.com/dockhand/statusagent/internal/logging"
)

// Header names understood by the status endpoint.
const (
	HeaderAgentToken = "x-agent-token"
	HeaderSignature  = "x-message-signature"
	HeaderRequestID  = "x-request-id"
)

// ErrDryRun is returned by Send when the update was built but deliberately not sent.
var ErrDryRun = errors.New("dry-run: status update not sent")

// maxErrorBody bounds how much of a failed response is echoed into errors.
const maxErrorBody = 512

// StatusError is returned when the remote endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("remote endpoint returned status %d: %s", e.Code, e.Body)
}

// ServerResponse is the optional envelope the status endpoint may answer with.
type ServerResponse struct {
	Ok    bool    `json:"ok"`
	Error *string `json:"error"`
}

// Sender posts snapshots to the status endpoint.
type Sender struct {
	client   *http.Client
	endpoint string
	token    string
	secret   string
	dryRun   bool
}

// NewSender returns a configured Sender. A zero timeout leaves requests
// bounded only by the caller's context.
func NewSender(endpoint, token, secret string, timeout time.Duration, dryRun bool) *Sender {
	return &Sender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		token:    token,
		secret:   secret,
		dryRun:   dryRun,
	}
}

// Send POSTs the snapshot and returns the response body as text.
func (s *Sender) Send(ctx context.Context, snap docker.Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal status update: %w", err)
	}
	if s.dryRun {
		logging.Get().Info().
			Int("bytes", len(body)).
			Int("containers", len(snap.Containers)).
			Int("images", len(snap.Images)).
			Int("networks", len(snap.Networks)).
			Msg("dry-run: status update not sent")
		return "", ErrDryRun
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAgentToken, s.token)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if s.secret != "" {
		req.Header.Set(HeaderSignature, Sign([]byte(s.secret), body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: Truncate(string(respBody))}
	}

	var sr ServerResponse
	if json.Unmarshal(respBody, &sr) == nil && sr.Error != nil {
		logging.Get().Warn().Str("error", *sr.Error).Msg("status endpoint reported an error")
	}
	return string(respBody), nil
}

// Sign returns base64(HMAC-SHA256(key, message)).
func Sign(key, message []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Truncate bounds a response body for inclusion in an error, cutting on a rune boundary.
func Truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
