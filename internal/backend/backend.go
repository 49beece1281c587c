// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend calls external generation services to turn slide PDFs into
// raw flashcard records. Two variants exist: an inline-attach-and-stream
// client (Claude) and an upload-then-generate client (Gemini). Both share one
// retry skeleton and map their provider-specific failure shapes onto a common
// taxonomy at the boundary, so callers never inspect provider errors.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/deck-engine/internal/pdfpage"
	"github.com/pdiddy/deck-engine/pkg/types"
)

// Backend processes one PDF (or one of its segments) into the decoded JSON
// payload the model produced. The payload is the raw top-level JSON value;
// schema validation happens downstream.
type Backend interface {
	Name() string
	Process(ctx context.Context, pdfPath, promptText string) (any, error)
}

var (
	// ErrTransport marks network, auth, or server failures talking to the
	// generation service.
	ErrTransport = errors.New("transport failure")

	// ErrTransient marks the retry-worthy subset of transport failures
	// (rate limiting, transient server faults).
	ErrTransient = errors.New("transient failure")

	// ErrParse marks responses whose text yields no decodable JSON.
	// Parse failures are never retried: the identical call cannot fix a
	// structurally wrong response.
	ErrParse = errors.New("parse failure")
)

// IsTransient reports whether err is a retry-worthy transport failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// transportError wraps err as a non-retryable transport failure.
func transportError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// transientError wraps err as a retry-worthy transport failure.
func transientError(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrTransient, ErrTransport, fmt.Sprintf(format, args...))
}

// classifyStatus maps an HTTP failure status onto the shared taxonomy.
// 429 and 5xx (and request timeouts) are transient; everything else is a
// plain transport failure. The body is included for the error log.
func classifyStatus(provider string, status int, body string) error {
	snippet := summarize(body)
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= http.StatusInternalServerError:
		return transientError("%s returned %d: %s", provider, status, snippet)
	default:
		return transportError("%s returned %d: %s", provider, status, snippet)
	}
}

// summarize collapses a response body to a single short line.
func summarize(body string) string {
	clean := strings.Join(strings.Fields(body), " ")
	const limit = 200
	if len(clean) > limit {
		return clean[:limit] + "..."
	}
	if clean == "" {
		return "<empty body>"
	}
	return clean
}

// New builds the configured backend variant. The page reader is only used by
// the chunking (inline) variant; passing a nil reader disables chunking.
func New(cfg types.ExtractionConfig, pages pdfpage.Reader, w io.Writer) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s backend: API key not set", cfg.Backend)
	}

	switch strings.ToLower(cfg.Backend) {
	case "claude":
		return NewClaude(cfg, pages, w), nil
	case "gemini":
		return NewGemini(cfg, w), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want claude or gemini)", cfg.Backend)
	}
}

// newHTTPClient returns the shared HTTP client for backend calls. Generation
// calls on large documents routinely run for minutes.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Minute}
}
