package handle

import (
	"bytes"
	"net/http"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/report"
)

// Export turns an audit result (as returned in AuditResponse.Result) into the CSV report.
func (h *Handle) Export(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var res audit.Result
	if err := decodeJSON(r, &res, 4<<20); err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, res); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
