package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/ocr"
)

func TestMissingKey(t *testing.T) {
	e := New("  ", "gemini-2.5-flash")

	_, err := e.Invoke(context.Background(), audit.Payload{User: "bill"}, "", 0.1)
	assert.ErrorIs(t, err, audit.ErrUnconfigured)

	_, err = e.ExtractText(context.Background(), []byte("%PDF-1.4"), "policy.pdf")
	assert.ErrorIs(t, err, audit.ErrUnconfigured)
}

func TestExtractRejectsNonDocuments(t *testing.T) {
	e := New("key", "gemini-2.5-flash")
	_, err := e.ExtractText(context.Background(), []byte("just some text"), "notes.txt")
	assert.ErrorIs(t, err, ocr.ErrUnsupportedDocument)
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{
			genai.Text(" {\"rows\":"),
			&genai.Blob{MIMEType: "image/png"},
			genai.Text("[]} "),
		}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
	}}
	assert.Equal(t, `{"rows":[]}`, firstText(resp))
}

func TestNameAndModel(t *testing.T) {
	e := New("k", " gemini-2.5-flash ")
	assert.Equal(t, "gemini", e.Name())
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())

	var _ ocr.Engine = e
}
