// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/deck-engine/pkg/types"
)

// Gemini is the upload-then-generate variant: the PDF is uploaded to the
// Files API first, then referenced by URI in a separate generation call.
// Uploaded files are service-side temporaries, so no cleanup call is made.
type Gemini struct {
	cfg     types.ExtractionConfig
	client  *http.Client
	baseURL string
	w       io.Writer
}

// NewGemini builds the Gemini backend. Progress lines go to w.
func NewGemini(cfg types.ExtractionConfig, w io.Writer) *Gemini {
	return &Gemini{
		cfg:     cfg,
		client:  newHTTPClient(),
		baseURL: "https://generativelanguage.googleapis.com",
		w:       w,
	}
}

// Name identifies the variant in logs and error entries.
func (g *Gemini) Name() string { return "gemini" }

// Process uploads the PDF, runs one generation call against it, and decodes
// the JSON payload from the response text.
func (g *Gemini) Process(ctx context.Context, pdfPath, promptText string) (any, error) {
	return withRetry(ctx, g.cfg.MaxRetries, g.cfg.RetryDelay, g.w, "gemini", func() (any, error) {
		return g.processOnce(ctx, pdfPath, promptText)
	})
}

type geminiFile struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type geminiUploadResponse struct {
	File geminiFile `json:"file"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) processOnce(ctx context.Context, pdfPath, promptText string) (any, error) {
	start := time.Now()
	file, err := g.upload(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(g.w, "[gemini] uploaded %s in %.1fs\n", filepath.Base(pdfPath), time.Since(start).Seconds())

	start = time.Now()
	raw, err := g.generate(ctx, file, promptText)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(g.w, "[gemini] content generated in %.1fs\n", time.Since(start).Seconds())

	return DecodePayload(raw)
}

// upload sends the PDF bytes to the Files API and returns the file reference.
func (g *Gemini) upload(ctx context.Context, pdfPath string) (geminiFile, error) {
	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return geminiFile{}, fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	url := g.baseURL + "/upload/v1beta/files?uploadType=media&key=" + g.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdfData))
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := g.client.Do(req)
	if err != nil {
		return geminiFile{}, transientError("gemini upload: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return geminiFile{}, transientError("gemini upload: reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return geminiFile{}, classifyGemini(resp.StatusCode, string(body))
	}

	var uploaded geminiUploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return geminiFile{}, transportError("gemini upload: decoding response: %v", err)
	}
	if uploaded.File.URI == "" {
		return geminiFile{}, transportError("gemini upload: response carries no file URI")
	}
	return uploaded.File, nil
}

// generate runs one generateContent call referencing the uploaded file and
// returns the concatenated text of the first candidate.
func (g *Gemini) generate(ctx context.Context, file geminiFile, promptText string) (string, error) {
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{FileData: &geminiFileData{MimeType: "application/pdf", FileURI: file.URI}},
				{Text: promptText},
			},
		}},
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", transientError("gemini generate: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", transientError("gemini generate: reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyGemini(resp.StatusCode, string(body))
	}

	var generated geminiGenerateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return "", transportError("gemini generate: decoding response: %v", err)
	}
	if generated.Error != nil {
		return "", classifyGemini(generated.Error.Code, generated.Error.Status+": "+generated.Error.Message)
	}

	var text strings.Builder
	for _, candidate := range generated.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", transportError("gemini generate: no text in response")
	}
	return text.String(), nil
}

// classifyGemini adds Gemini's status-string shapes on top of the generic
// HTTP classification. RESOURCE_EXHAUSTED and UNAVAILABLE are Google's
// rate-limit and transient-server signals.
func classifyGemini(status int, body string) error {
	if strings.Contains(body, "RESOURCE_EXHAUSTED") || strings.Contains(body, "UNAVAILABLE") {
		return transientError("gemini returned %d: %s", status, summarize(body))
	}
	return classifyStatus("gemini", status, body)
}
