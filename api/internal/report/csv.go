package report

import (
	"encoding/csv"
	"io"

	"mediaudit/api/internal/audit"
)

// Filename is the download name of the CSV report.
const Filename = "mediaudit_report.csv"

var Header = []string{
	"Parameter", "Bill Detail", "Policy Clause", "Status", "Lag Reason",
	"Risk Score", "Risk Level", "Eligibility Verdict", "Summary",
}

// WriteCSV writes the header and one line per row. The verdict and summary
// are repeated on every line.
func WriteCSV(w io.Writer, res audit.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	verdict := string(res.Eligibility.Verdict)
	for _, r := range res.Rows {
		rec := []string{
			orPlaceholder(r.Parameter),
			orPlaceholder(r.BillDetail),
			orPlaceholder(r.PolicyClause),
			orPlaceholder(string(r.Status)),
			orPlaceholder(r.LagReason),
			ScoreText(r),
			orPlaceholder(string(r.RiskLabel)),
			verdict,
			res.Eligibility.Summary,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
