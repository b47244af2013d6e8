package report

import (
	"fmt"

	"mediaudit/api/internal/audit"
)

type IssueKind string

const (
	IssueScoreRange    IssueKind = "score_out_of_range"
	IssueLabelMismatch IssueKind = "label_mismatch"
	IssueUnknownStatus IssueKind = "unknown_status"
	IssueMissingScore  IssueKind = "missing_score"
)

// Issue is a presentation-side flag on a row. Rows are never rewritten.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func Check(r audit.Row) []Issue {
	var out []Issue
	score, ok := r.Score()
	switch {
	case !ok:
		out = append(out, Issue{IssueMissingScore, "risk score missing"})
	case score < 0 || score > 100:
		out = append(out, Issue{IssueScoreRange, fmt.Sprintf("risk score %d outside 0-100", score)})
	}
	if ok && r.RiskLabel != "" && !r.LabelAgrees() {
		out = append(out, Issue{IssueLabelMismatch,
			fmt.Sprintf("risk label %q does not match score %d (%s)", r.RiskLabel, score, audit.RiskLabelFor(score))})
	}
	if !r.Status.Known() {
		out = append(out, Issue{IssueUnknownStatus, fmt.Sprintf("unknown status %q", r.Status)})
	}
	return out
}

// CheckAll returns issues keyed by row index; rows without issues are absent.
func CheckAll(res audit.Result) map[int][]Issue {
	out := map[int][]Issue{}
	for i, r := range res.Rows {
		if is := Check(r); len(is) > 0 {
			out[i] = is
		}
	}
	return out
}
