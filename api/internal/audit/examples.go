package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Example is one labelled few-shot scenario shown to the reasoning service.
type Example struct {
	Scenario      string
	BillSnippet   string
	PolicySnippet string
	Expected      Row
}

func score(n int) *int { return &n }

// DefaultExamples are the canonical scenarios every audit prompt carries.
var DefaultExamples = []Example{
	{
		Scenario:      "Room rent sub-limit check",
		BillSnippet:   "Room Charges: ICU stay – 5 days × ₹8,000/day = ₹40,000",
		PolicySnippet: "ICU room rent capped at ₹10,000/day",
		Expected: Row{
			Parameter:    "ICU Room Rent",
			BillDetail:   "₹8,000/day × 5 days = ₹40,000",
			PolicyClause: "ICU sub-limit: ₹10,000/day",
			Status:       StatusPass,
			LagReason:    "Daily ICU rate is within the ₹10,000/day sub-limit. Fully admissible.",
			RiskScore:    score(5),
			RiskLabel:    RiskLow,
		},
	},
	{
		Scenario:      "Waiting period not satisfied – knee replacement",
		BillSnippet:   "Knee Replacement Surgery – Date: 14-Mar-2024. Policy Inception: 01-Feb-2024",
		PolicySnippet: "Joint replacement: 24-month waiting period",
		Expected: Row{
			Parameter:    "Knee Replacement Surgery",
			BillDetail:   "Procedure on 14-Mar-2024 (policy age ≈ 1.5 months)",
			PolicyClause: "Waiting Period – Joint replacement: 24 months",
			Status:       StatusFail,
			LagReason:    "Waiting period not met. Remaining: ≈22.5 months. Claim not admissible.",
			RiskScore:    score(95),
			RiskLabel:    RiskCritical,
		},
	},
	{
		Scenario:      "Pre-existing diabetes complication",
		BillSnippet:   "Diabetic Nephropathy treatment – ₹80,000",
		PolicySnippet: "PED covered after 2-year waiting period",
		Expected: Row{
			Parameter:    "Diabetic Nephropathy",
			BillDetail:   "₹80,000 – complication of pre-existing diabetes",
			PolicyClause: "Pre-Existing Disease (PED) – 2-year waiting period",
			Status:       StatusPartial,
			LagReason:    "Diabetes is a known PED. Covered only if policy is >2 years old. 10% co-pay applies.",
			RiskScore:    score(60),
			RiskLabel:    RiskHigh,
		},
	},
	{
		Scenario:      "Excluded treatment – cosmetic",
		BillSnippet:   "Rhinoplasty (nose reshaping) – ₹1,20,000",
		PolicySnippet: "Cosmetic surgery explicitly excluded",
		Expected: Row{
			Parameter:    "Rhinoplasty",
			BillDetail:   "₹1,20,000 – elective cosmetic procedure",
			PolicyClause: "Exclusion – Cosmetic/aesthetic treatments",
			Status:       StatusFail,
			LagReason:    "Elective cosmetic surgery is a hard exclusion. Claim fully rejected.",
			RiskScore:    score(100),
			RiskLabel:    RiskCritical,
		},
	},
	{
		Scenario:      "Co-pay – senior citizen non-network hospital",
		BillSnippet:   "Patient age 63. Total bill ₹2,00,000. Non-network hospital.",
		PolicySnippet: "Senior citizen co-pay 20%; Non-network co-pay 20% (max combined 30%)",
		Expected: Row{
			Parameter:    "Senior + Non-network Co-pay",
			BillDetail:   "₹2,00,000 – age 63, non-network hospital",
			PolicyClause: "Co-pay – Senior citizen 20% + Non-network 20% (capped at 30%)",
			Status:       StatusPartial,
			LagReason:    "Combined co-pay capped at 30%. Patient liability: ₹60,000. Admissible: ₹1,40,000.",
			RiskScore:    score(40),
			RiskLabel:    RiskMedium,
		},
	},
}

// RenderExamples writes the exemplars in a stable tagged layout. The expected
// row is indented JSON without HTML escaping so ₹, ≈ and > survive verbatim.
func RenderExamples(examples []Example) string {
	var sb strings.Builder
	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "<example id=\"%d\">\n", i+1)
		fmt.Fprintf(&sb, "  <scenario>%s</scenario>\n", ex.Scenario)
		fmt.Fprintf(&sb, "  <bill_snippet>%s</bill_snippet>\n", ex.BillSnippet)
		fmt.Fprintf(&sb, "  <policy_snippet>%s</policy_snippet>\n", ex.PolicySnippet)
		sb.WriteString("  <expected_row>\n")
		sb.WriteString(marshalNoEscape(ex.Expected, "  "))
		sb.WriteString("\n  </expected_row>\n")
		sb.WriteString("</example>\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func marshalNoEscape(v any, prefix string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "  ")
	if err := enc.Encode(v); err != nil {
		// Row always encodes
		return prefix + "{}"
	}
	return prefix + strings.TrimRight(buf.String(), "\n")
}
