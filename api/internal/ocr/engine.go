package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mediaudit/api/internal/audit"
)

// Extractor turns a bill or policy document into Markdown text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
}

// Engine is one hosted LLM provider. It serves both the vision step and the
// audit call.
type Engine interface {
	Name() string
	GetModel() string
	audit.Invoker
	Extractor
}

type Engines struct {
	Groq   Engine
	Gemini Engine
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(llmName)) {
	case "groq", "llama":
		eng = e.Groq
	case "gemini", "google":
		eng = e.Gemini
	default:
		return nil, fmt.Errorf("unknown llm_name %q; use 'groq' or 'gemini'", llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm %q: %w", llmName, audit.ErrUnconfigured)
	}
	return eng, nil
}

// Names lists configured providers in a stable order.
func (e *Engines) Names() []string {
	var out []string
	if e.Groq != nil {
		out = append(out, e.Groq.Name())
	}
	if e.Gemini != nil {
		out = append(out, e.Gemini.Name())
	}
	return out
}

// Manager keeps a per-chat engine choice on top of a default.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

func (m *Manager) Reset(chatID int64) {
	m.m.Delete(chatID)
}

// VisionModel is the model an engine uses for ExtractText. Engines with a
// separate vision model expose it via GetVisionModel.
func VisionModel(e Engine) string {
	if v, ok := e.(interface{ GetVisionModel() string }); ok {
		if m := v.GetVisionModel(); m != "" {
			return m
		}
	}
	return e.GetModel()
}
