package handle

import (
	"fmt"
	"net/http"
	"strings"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/report"
)

type AuditRequest struct {
	LLMName            string `json:"llm_name"`
	BillText           string `json:"bill_text"`
	UploadedPolicyText string `json:"uploaded_policy_text"`
	// InsurerPolicy names a document from /v1/policies. Ignored when
	// UploadedPolicyText is set.
	InsurerPolicy string `json:"insurer_policy"`
}

type AuditResponse struct {
	Result             audit.Result           `json:"result"`
	Summary            report.Summary         `json:"summary"`
	Issues             map[int][]report.Issue `json:"issues,omitempty"`
	PolicyHash         string                 `json:"policy_hash"`
	InsurerPolicyError string                 `json:"insurer_policy_error,omitempty"`
}

// Audit cross-checks bill text against the baseline and an optional insurer policy.
func (h *Handle) Audit(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req AuditRequest
	if err := decodeJSON(r, &req, 4<<20); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.BillText) == "" {
		h.writeError(w, r, audit.ErrEmptyBill)
		return
	}

	eng, err := h.engine(req.LLMName, h.auditLLM)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	log := requestLogger(r, h.log)

	ctx, cancel := requestContext(r)
	defer cancel()

	var out AuditResponse
	uploaded := req.UploadedPolicyText
	if strings.TrimSpace(uploaded) == "" && req.InsurerPolicy != "" {
		if h.lib == nil {
			out.InsurerPolicyError = "insurer policy library is not configured"
		} else {
			vision, verr := h.engs.GetEngine(h.visionLLM)
			if verr != nil {
				vision = eng
			}
			text, perr := h.lib.TextOrBaseline(ctx, req.InsurerPolicy, vision)
			if perr != nil {
				out.InsurerPolicyError = fmt.Sprintf("%v; audited against the baseline only", perr)
			}
			uploaded = text
		}
	}

	res, err := h.auditor(eng, log).AuditClaim(ctx, req.BillText, h.baseline.Baseline.CompactPrompt(), uploaded)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out.Result = res
	out.Summary = report.Summarize(res)
	out.Issues = report.CheckAll(res)
	out.PolicyHash = h.baseline.Hash
	writeJSON(w, http.StatusOK, out)
}
