package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaudit/api/internal/audit"
)

type stubEngine struct {
	name string
	text string
	err  error

	gotFile string
}

func (s *stubEngine) Name() string     { return s.name }
func (s *stubEngine) GetModel() string { return s.name + "-model" }
func (s *stubEngine) Invoke(context.Context, audit.Payload, string, float32) (string, error) {
	return "{}", nil
}
func (s *stubEngine) ExtractText(_ context.Context, _ []byte, filename string) (string, error) {
	s.gotFile = filename
	return s.text, s.err
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	eng := &stubEngine{name: "x", text: "\n## Bill\n"}
	text, err := Extract(ctx, eng, []byte{1}, "bill.png")
	require.NoError(t, err)
	assert.Equal(t, "## Bill", text)
	assert.Equal(t, "bill.png", eng.gotFile)

	_, err = Extract(ctx, eng, nil, "bill.png")
	assert.ErrorIs(t, err, audit.ErrExtractionFailure)

	_, err = Extract(ctx, nil, []byte{1}, "bill.png")
	assert.ErrorIs(t, err, audit.ErrExtractionFailure)
	assert.ErrorIs(t, err, audit.ErrUnconfigured)

	cause := errors.New("gemini vision: 500 internal")
	_, err = Extract(ctx, &stubEngine{err: cause}, []byte{1}, "bill.jpg")
	assert.ErrorIs(t, err, audit.ErrExtractionFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "500 internal")

	_, err = Extract(ctx, &stubEngine{text: "   "}, []byte{1}, "bill.jpg")
	assert.ErrorIs(t, err, audit.ErrExtractionFailure)
}

func TestEnginesGetEngine(t *testing.T) {
	g := &stubEngine{name: "groq"}
	engs := &Engines{Groq: g}

	e, err := engs.GetEngine(" Groq ")
	require.NoError(t, err)
	assert.Same(t, g, e)

	_, err = engs.GetEngine("gemini")
	assert.ErrorIs(t, err, audit.ErrUnconfigured)

	_, err = engs.GetEngine("gpt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, audit.ErrUnconfigured)

	assert.Equal(t, []string{"groq"}, engs.Names())
}

func TestManager(t *testing.T) {
	def := &stubEngine{name: "groq"}
	other := &stubEngine{name: "gemini"}
	m := NewManager(def)

	assert.Same(t, def, m.Get(1))
	m.Set(1, other)
	assert.Same(t, other, m.Get(1))
	assert.Same(t, def, m.Get(2))
	m.Reset(1)
	assert.Same(t, def, m.Get(1))
}

func TestVisionUserText(t *testing.T) {
	assert.Contains(t, VisionUserText("image/jpeg"), "[Medical Bill]")
	assert.Contains(t, VisionUserText("application/pdf"), "[Document (all pages)]")
	assert.Contains(t, VisionUserText("image/png"), `"Not visible"`)
}

type visionStub struct{ stubEngine }

func (visionStub) GetVisionModel() string { return "vision-x" }

func TestVisionModel(t *testing.T) {
	assert.Equal(t, "plain-model", VisionModel(&stubEngine{name: "plain"}))
	assert.Equal(t, "vision-x", VisionModel(&visionStub{stubEngine{name: "v"}}))
}
