// Package sender delivers row payloads to the target service over HTTP.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "rowrelay/1.0"

	// maxDiagnosticBody bounds how much of an error response ends up in the
	// row's failure message.
	maxDiagnosticBody = 512
)

// Options configures an HTTPSender.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// HTTPSender POSTs each payload as JSON. Only 200 and 201 count as success.
type HTTPSender struct {
	client    *http.Client
	userAgent string
}

// New returns a sender with its own client. Zero options use the defaults.
func New(opts Options) *HTTPSender {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPSender{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
	}
}

// Send implements core.Sender. It never retries.
func (s *HTTPSender) Send(ctx context.Context, payload core.Payload, url string) (bool, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Sprintf("encode payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("send: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, ""
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
	return false, fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
