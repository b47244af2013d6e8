package handle

import (
	"net/http"
	"strings"

	"mediaudit/api/internal/library"
)

type policyResponse struct {
	Name          string `json:"name"`
	EffectiveDate string `json:"effective_date"`
	Hash          string `json:"hash"`
	Baseline      any    `json:"baseline"`
}

// Policy serves the baseline as Markdown (default), the compact prompt text or JSON.
func (h *Handle) Policy(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	w.Header().Set("ETag", `"`+h.baseline.Hash+`"`)
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "markdown", "md":
		writeText(w, "text/markdown; charset=utf-8", h.baseline.Baseline.Markdown())
	case "compact", "prompt":
		writeText(w, "text/plain; charset=utf-8", h.baseline.Baseline.CompactPrompt())
	case "json":
		writeJSON(w, http.StatusOK, policyResponse{
			Name:          h.baseline.Baseline.PolicyName,
			EffectiveDate: h.baseline.Baseline.EffectiveDate,
			Hash:          h.baseline.Hash,
			Baseline:      h.baseline.Baseline,
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "format must be markdown, compact or json"})
	}
}

type policiesResponse struct {
	Policies []library.Document `json:"policies"`
}

// Policies lists the insurer policy documents available for /v1/audit.
func (h *Handle) Policies(w http.ResponseWriter, r *http.Request) {
	if !getOnly(w, r) {
		return
	}
	if h.lib == nil {
		writeJSON(w, http.StatusOK, policiesResponse{Policies: []library.Document{}})
		return
	}
	docs, err := h.lib.List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policiesResponse{Policies: docs})
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
