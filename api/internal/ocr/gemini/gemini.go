package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Invoke runs one audit request. The client is created per call and closed
// afterwards; no conversation state is kept.
func (e *Engine) Invoke(ctx context.Context, p audit.Payload, model string, temperature float32) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is empty: %w", audit.ErrUnconfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = e.Model
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini audit: client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(model))
	// Возвращаем строго JSON
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}

	resp, err := m.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", fmt.Errorf("gemini audit: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini audit: empty response")
	}
	return txt, nil
}

// ExtractText sends the document inline. Images and PDFs are both accepted.
func (e *Engine) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY is empty: %w", audit.ErrUnconfigured)
	}
	mime := util.MimeForFile(filename, data)
	if mime != util.MimePDF && !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("gemini vision: %w: %s", ocr.ErrUnsupportedDocument, mime)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini vision: client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}

	resp, err := m.GenerateContent(ctx,
		&genai.Blob{MIMEType: mime, Data: data},
		genai.Text(ocr.VisionUserText(mime)),
	)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini vision: empty response")
	}
	return txt, nil
}

// firstText собирает текст первого кандидата.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

func ptrFloat32(f float32) *float32 { return &f }
