package telegram

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/library"
	"mediaudit/api/internal/report"
)

const (
	cbExtract    = "extract"
	cbAudit      = "audit"
	cbNew        = "new"
	cbInsurer    = "insurer:"
	messageLimit = 3900

	baselineOnly = "-"
)

func extractKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("🔍 Extract details", cbExtract)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func auditKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("⚖️ Cross check", cbAudit)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func newAuditKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("🔄 Start new audit", cbNew)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

// insurerKeyboard: одна кнопка на документ плюс "только базовый полис".
// Callback data is limited to 64 bytes, longer names are left out.
func insurerKeyboard(docs []library.Document) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Baseline only", cbInsurer+baselineOnly)),
	}
	for _, d := range docs {
		data := cbInsurer + d.Name
		if len(data) > 64 {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(d.Name, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatBanner(res audit.Result) string {
	var b strings.Builder
	e := res.Eligibility
	fmt.Fprintf(&b, "%s Insurance Eligibility: %s\n", report.VerdictIcon(e.Verdict), e.Verdict)
	if s := strings.TrimSpace(e.Summary); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	s := report.Summarize(res)
	fmt.Fprintf(&b, "\nTotal Items: %d\n✅ Admissible: %d\n⚠️ Partial: %d\n❌ Rejected: %d\nAvg Risk Score: %d/100",
		s.Total, s.Admissible, s.Partial, s.Rejected, s.AvgRisk)
	return b.String()
}

func formatRows(res audit.Result) string {
	if len(res.Rows) == 0 {
		return "No line items were parsed from the bill."
	}
	var b strings.Builder
	for i, r := range res.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		status := string(r.Status)
		if status == "" {
			status = report.Placeholder
		}
		label := string(r.RiskLabel)
		if label == "" {
			label = report.Placeholder
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, status, orDash(r.Parameter))
		fmt.Fprintf(&b, "Bill: %s\n", orDash(r.BillDetail))
		fmt.Fprintf(&b, "Policy: %s\n", orDash(r.PolicyClause))
		if lr := strings.TrimSpace(r.LagReason); lr != "" && lr != "N/A" {
			fmt.Fprintf(&b, "Reason: %s\n", lr)
		}
		fmt.Fprintf(&b, "Risk: %s (%s)\n", label, report.ScoreText(r))
		for _, is := range report.Check(r) {
			if is.Kind == report.IssueMissingScore {
				continue
			}
			fmt.Fprintf(&b, "⚑ %s\n", is.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNextSteps(e audit.Eligibility) string {
	var b strings.Builder
	n := 0
	for _, s := range e.NextSteps {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if n == 0 {
			b.WriteString("🗒️ Recommended Next Steps")
		}
		n++
		fmt.Fprintf(&b, "\n%d. %s", n, s)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return report.Placeholder
	}
	return s
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitMessage(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" || len(out) == 0 {
		out = append(out, text)
	}
	return out
}

// describeError turns an audit error into a message for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, audit.ErrEmptyBill):
		return "The bill text is empty. Send a bill first."
	case errors.Is(err, audit.ErrUnconfigured):
		return "This engine is not configured (missing API key). Try /engine with another provider."
	case errors.Is(err, audit.ErrExtractionFailure):
		return "Could not read the document: " + err.Error()
	case errors.Is(err, audit.ErrMalformedResponse):
		return "The audit service returned an unreadable answer. Please try Cross check again."
	case errors.Is(err, audit.ErrServiceUnavailable):
		return "The audit service is unavailable: " + err.Error()
	}
	return err.Error()
}
