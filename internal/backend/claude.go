// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/deck-engine/internal/pdfpage"
	"github.com/pdiddy/deck-engine/internal/segment"
	"github.com/pdiddy/deck-engine/pkg/types"
)

const claudeMaxTokens = 64000

// Claude is the inline-attach-and-stream variant: the PDF travels base64-
// encoded inside the request and the response is consumed as a server-sent
// event stream. Because the whole payload is embedded in one request, this is
// the variant that splits oversized documents into page segments first.
type Claude struct {
	cfg      types.ExtractionConfig
	pages    pdfpage.Reader
	client   *http.Client
	baseURL  string
	w        io.Writer
	tempRoot string
}

// NewClaude builds the Claude backend. Progress lines go to w.
func NewClaude(cfg types.ExtractionConfig, pages pdfpage.Reader, w io.Writer) *Claude {
	return &Claude{
		cfg:     cfg,
		pages:   pages,
		client:  newHTTPClient(),
		baseURL: "https://api.anthropic.com",
		w:       w,
	}
}

// Name identifies the variant in logs and error entries.
func (c *Claude) Name() string { return "claude" }

// Process extracts card records from the PDF at pdfPath. Documents over the
// configured page maximum are segmented; per-segment record lists are
// concatenated in segment order, and a failed segment contributes zero
// records without aborting its siblings.
func (c *Claude) Process(ctx context.Context, pdfPath, promptText string) (any, error) {
	maxPages := c.cfg.Segments.MaxPages
	if c.pages == nil || maxPages <= 0 {
		return c.processWithRetry(ctx, pdfPath, promptText)
	}

	total, err := c.pages.Count(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading page count: %w", err)
	}
	if total <= maxPages {
		return c.processWithRetry(ctx, pdfPath, promptText)
	}

	segments, notices := segment.Plan(total, c.cfg.Segments.MinPages, maxPages)
	for _, n := range notices {
		fmt.Fprintf(c.w, "[claude] %s\n", n)
	}
	fmt.Fprintf(c.w, "[claude] %d pages exceed the %d-page limit; processing %d segment(s)\n", total, maxPages, len(segments))

	combined := make([]any, 0)
	succeeded := 0
	for i, seg := range segments {
		records, err := c.processSegment(ctx, pdfPath, promptText, seg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			fmt.Fprintf(c.w, "[claude] segment %d/%d (%s) failed: %v\n", i+1, len(segments), seg, err)
			continue
		}
		combined = append(combined, records...)
		succeeded++
	}

	if succeeded == 0 {
		return nil, transportError("all %d segments of %s failed", len(segments), filepath.Base(pdfPath))
	}
	return combined, nil
}

// processSegment trims the segment to a temporary PDF and processes it. The
// segment's payload must decode to an array so results can be concatenated.
func (c *Claude) processSegment(ctx context.Context, pdfPath, promptText string, seg segment.Segment) ([]any, error) {
	tmp, err := os.CreateTemp(c.tempRoot, "deck-segment-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating segment file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.pages.ExtractRange(pdfPath, tmpPath, seg); err != nil {
		return nil, err
	}

	payload, err := c.processWithRetry(ctx, tmpPath, promptText)
	if err != nil {
		return nil, err
	}

	records, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: segment response is not an array", ErrParse)
	}
	return records, nil
}

func (c *Claude) processWithRetry(ctx context.Context, pdfPath, promptText string) (any, error) {
	return withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, c.w, "claude", func() (any, error) {
		return c.processOnce(ctx, pdfPath, promptText)
	})
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Stream    bool            `json:"stream"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string              `json:"role"`
	Content []claudeContentPart `json:"content"`
}

type claudeContentPart struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// claudeStreamEvent is the subset of SSE event payloads the stream reader uses.
type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Claude) processOnce(ctx context.Context, pdfPath, promptText string) (any, error) {
	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	reqBody := claudeRequest{
		Model:     c.cfg.Model,
		MaxTokens: claudeMaxTokens,
		Stream:    true,
		Messages: []claudeMessage{{
			Role: "user",
			Content: []claudeContentPart{
				{
					Type: "document",
					Source: &claudeSource{
						Type:      "base64",
						MediaType: "application/pdf",
						Data:      base64.StdEncoding.EncodeToString(pdfData),
					},
				},
				{Type: "text", Text: promptText},
			},
		}},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transientError("claude: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, classifyStatus("claude", resp.StatusCode, string(body))
	}

	raw, chunks, err := readClaudeStream(resp.Body)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.w, "[claude] received %d stream chunks in %.1fs\n", chunks, time.Since(start).Seconds())

	return DecodePayload(raw)
}

// readClaudeStream accumulates text deltas from a Messages API SSE stream.
func readClaudeStream(body io.Reader) (string, int, error) {
	var text strings.Builder
	chunks := 0

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var event claudeStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" {
				text.WriteString(event.Delta.Text)
				chunks++
			}
		case "error":
			if strings.Contains(event.Error.Type, "overloaded") || strings.Contains(event.Error.Type, "rate_limit") {
				return "", chunks, transientError("claude stream: %s: %s", event.Error.Type, event.Error.Message)
			}
			return "", chunks, transportError("claude stream: %s: %s", event.Error.Type, event.Error.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", chunks, transientError("claude stream: %v", err)
	}

	return text.String(), chunks, nil
}
