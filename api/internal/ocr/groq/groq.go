package groq

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/util"
)

// DefaultBaseURL is the OpenAI-compatible chat completions endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

const (
	visionMaxTokens = 2048
	errBodyLimit    = 2048
)

type Engine struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
	httpc       *http.Client
}

func New(key, model, visionModel string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(key),
		Model:       strings.TrimSpace(model),
		VisionModel: strings.TrimSpace(visionModel),
		BaseURL:     DefaultBaseURL,
		httpc:       &http.Client{Timeout: 60 * time.Second},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tests).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimSpace(u); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string     { return "groq" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) GetVisionModel() string { return e.VisionModel }

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    *float32          `json:"temperature,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// Content is either a plain string or a list of parts (vision).
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Invoke sends the audit payload and asks for a JSON object back.
func (e *Engine) Invoke(ctx context.Context, p audit.Payload, model string, temperature float32) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY is empty: %w", audit.ErrUnconfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = e.Model
	}
	req := chatRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:    &temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	out, err := e.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq audit: %w", err)
	}
	return out, nil
}

// ExtractText reads an image with the vision model. PDFs are not accepted by
// the Groq vision endpoint and are reported as ocr.ErrUnsupportedDocument.
func (e *Engine) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY is empty: %w", audit.ErrUnconfigured)
	}
	mime := util.MimeForFile(filename, data)
	switch mime {
	case util.MimeJPEG, util.MimePNG, "image/webp", "image/gif":
	default:
		return "", fmt.Errorf("groq vision: %w: %s", ocr.ErrUnsupportedDocument, mime)
	}

	req := chatRequest{
		Model: e.VisionModel,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(data))}},
				{Type: "text", Text: ocr.VisionUserText(mime)},
			},
		}},
		MaxTokens: visionMaxTokens,
	}
	out, err := e.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq vision: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (e *Engine) complete(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit*2))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, util.Truncate(strings.TrimSpace(string(x)), errBodyLimit))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("bad JSON envelope: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response")
	}
	return out.Choices[0].Message.Content, nil
}
