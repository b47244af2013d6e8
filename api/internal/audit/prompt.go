package audit

import (
	"regexp"
	"strings"
)

// Segment delimiters of the user payload, in payload order.
const (
	TagExamples       = "examples"
	TagPolicyBaseline = "policy_baseline"
	TagUploadedPolicy = "uploaded_policy"
	TagBill           = "bill"
)

// NoUploadedPolicy replaces a blank insurer policy so the segment is never empty.
const NoUploadedPolicy = "No insurer-specific policy uploaded. Use baseline only."

const closingInstruction = "Now perform the full audit and return the JSON object."

// SystemPrompt is the fixed output contract sent with every audit.
const SystemPrompt = `You are MediAudit, a senior insurance underwriting and claim validation expert
with 20+ years of experience across Indian health insurance policies.

You will receive:
  1. <examples>         - labelled examples showing the exact row format.
  2. <policy_baseline>  - a generalised insurance policy with standard rules.
  3. <uploaded_policy>  - an insurer-specific policy (may say none was uploaded; then use the baseline).
  4. <bill>             - extracted medical bill text.

Your tasks:
  A. For EACH distinguishable line item in the bill, produce one JSON row with these exact keys:
       "parameter"     - treatment / charge name
       "bill_detail"   - amount + description from the bill
       "policy_clause" - matching policy rule (baseline or uploaded)
       "status"        - exactly one of: ✅  ⚠️  ❌
       "lag_reason"    - 1-2 sentence explanation; quantify monetary or time gaps
       "risk_score"    - integer 0-100 (0 = no risk, 100 = certain rejection)
       "risk_label"    - one of: "Low" | "Medium" | "High" | "Critical"

  B. Produce exactly one "eligibility" object:
       "verdict"       - one of: "Eligible" | "Partially Eligible" | "Not Eligible"
       "summary"       - 2-3 sentence plain-English explanation for the patient
       "next_steps"    - list of 3-5 concrete actions the patient should take

  C. Risk scoring guide (the label must match the score):
       0-20   -> Low      (no issue or minor informational flag)
       21-50  -> Medium   (partial coverage, co-pay, sub-limit breach)
       51-80  -> High     (waiting period issue, PED concern)
       81-100 -> Critical (hard exclusion, fraud risk, full rejection)

  D. Policy precedence:
       - An uploaded-policy rule overrides the baseline only when it is stricter on the same subject.
       - When the uploaded policy is silent, or is more lenient, the baseline rule stands.
       - Use your own domain reasoning only for matters neither document covers explicitly.

Output ONLY a valid JSON object with two keys: "rows" and "eligibility".
No markdown fences. No commentary outside the JSON.`

// Input is everything one audit prompt is built from.
type Input struct {
	BillText       string
	BaselinePolicy string
	UploadedPolicy string
	Examples       []Example
}

// Payload is a chat-style request: system contract plus one user message.
type Payload struct {
	System string
	User   string
}

var delimiterRe = regexp.MustCompile(`(?i)<(/?\s*(?:` +
	TagExamples + `|` + TagPolicyBaseline + `|` + TagUploadedPolicy + `|` + TagBill +
	`)(?:\s[^<>]*)?\s*/?)>`)

// neutralize escapes any of our segment delimiters inside content so a bill or
// policy cannot open or close a segment on its own.
func neutralize(s string) string {
	return delimiterRe.ReplaceAllString(s, "&lt;$1>")
}

func segment(sb *strings.Builder, tag, content string) {
	sb.WriteString("<" + tag + ">\n")
	sb.WriteString(strings.TrimSpace(neutralize(content)))
	sb.WriteString("\n</" + tag + ">\n\n")
}

// Assemble builds the request payload. It is pure and cannot fail.
func Assemble(in Input) Payload {
	uploaded := in.UploadedPolicy
	if strings.TrimSpace(uploaded) == "" {
		uploaded = NoUploadedPolicy
	}

	var sb strings.Builder
	segment(&sb, TagExamples, RenderExamples(in.Examples))
	segment(&sb, TagPolicyBaseline, in.BaselinePolicy)
	segment(&sb, TagUploadedPolicy, uploaded)
	segment(&sb, TagBill, in.BillText)
	sb.WriteString(closingInstruction)

	return Payload{System: SystemPrompt, User: sb.String()}
}
