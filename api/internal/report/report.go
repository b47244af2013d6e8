package report

import (
	"fmt"
	"math"
	"strconv"

	"mediaudit/api/internal/audit"
)

// Summary holds the counters shown above the line-item table.
type Summary struct {
	Total      int `json:"total"`
	Admissible int `json:"admissible"`
	Partial    int `json:"partial"`
	Rejected   int `json:"rejected"`
	// AvgRisk is the rounded mean over rows that carry a score; 0 when none do.
	AvgRisk int `json:"avg_risk"`
	Scored  int `json:"scored"`
}

func Summarize(res audit.Result) Summary {
	s := Summary{Total: len(res.Rows)}
	sum := 0
	for _, r := range res.Rows {
		switch r.Status {
		case audit.StatusPass:
			s.Admissible++
		case audit.StatusPartial:
			s.Partial++
		case audit.StatusFail:
			s.Rejected++
		}
		if v, ok := r.Score(); ok {
			sum += v
			s.Scored++
		}
	}
	if s.Scored > 0 {
		s.AvgRisk = int(math.Round(float64(sum) / float64(s.Scored)))
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Total Items: %d | ✅ Admissible: %d | ⚠️ Partial: %d | ❌ Rejected: %d | Avg Risk Score: %d/100",
		s.Total, s.Admissible, s.Partial, s.Rejected, s.AvgRisk)
}

// VerdictIcon returns the banner symbol for a verdict, "❔" for anything else.
func VerdictIcon(v audit.Verdict) string {
	switch v {
	case audit.VerdictEligible:
		return string(audit.StatusPass)
	case audit.VerdictPartiallyEligible:
		return string(audit.StatusPartial)
	case audit.VerdictNotEligible:
		return string(audit.StatusFail)
	}
	return "❔"
}

// Placeholder is shown for missing cells.
const Placeholder = "—"

// ScoreText renders a row score, or Placeholder when it is absent.
func ScoreText(r audit.Row) string {
	if v, ok := r.Score(); ok {
		return strconv.Itoa(v)
	}
	return Placeholder
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
