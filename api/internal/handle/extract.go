package handle

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/util"
)

const maxUpload = 32 << 20

type ExtractRequest struct {
	LLMName  string `json:"llm_name"`
	FileB64  string `json:"file_b64"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
}

type ExtractResponse struct {
	Text   string `json:"text"`
	Engine string `json:"engine"`
	Model  string `json:"model"`
}

// Extract runs the vision step on a bill (image or PDF).
func (h *Handle) Extract(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req ExtractRequest
	if err := decodeJSON(r, &req, maxUpload*4/3+4096); err != nil {
		h.writeError(w, r, err)
		return
	}
	data, hint, err := util.DecodeBase64MaybeDataURL(req.FileB64)
	if err != nil || len(data) == 0 {
		h.writeError(w, r, fmt.Errorf("%w: bad file_b64", errBadRequest))
		return
	}
	filename := uploadName(req.Filename, util.PickMIME(req.MimeType, hint, data))

	eng, err := h.engine(req.LLMName, h.visionLLM)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	text, err := ocr.Extract(ctx, eng, data, filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	requestLogger(r, h.log).Info("bill extracted",
		zap.String("engine", eng.Name()),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text)),
	)
	writeJSON(w, http.StatusOK, ExtractResponse{Text: text, Engine: eng.Name(), Model: ocr.VisionModel(eng)})
}

// uploadName keeps the client's base name and makes sure a PDF is recognised
// by its extension.
func uploadName(name, mime string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		name = ""
	}
	if mime == util.MimePDF && !strings.EqualFold(filepath.Ext(name), ".pdf") {
		if name == "" {
			name = "bill"
		}
		name += ".pdf"
	}
	if name == "" {
		name = "bill"
	}
	return name
}
