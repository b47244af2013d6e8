package audit

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Status is the per-row verdict symbol.
type Status string

const (
	StatusPass    Status = "✅"
	StatusPartial Status = "⚠️"
	StatusFail    Status = "❌"
)

func (s Status) Known() bool {
	switch s {
	case StatusPass, StatusPartial, StatusFail:
		return true
	}
	return false
}

type RiskLabel string

const (
	RiskLow      RiskLabel = "Low"
	RiskMedium   RiskLabel = "Medium"
	RiskHigh     RiskLabel = "High"
	RiskCritical RiskLabel = "Critical"
)

type Verdict string

const (
	VerdictEligible          Verdict = "Eligible"
	VerdictPartiallyEligible Verdict = "Partially Eligible"
	VerdictNotEligible       Verdict = "Not Eligible"
	VerdictUnknown           Verdict = "Unknown"
)

// Row is one audited line item. RiskScore is nil when the service omitted it
// or sent something that is not a number. Keys outside the contract are kept
// in Extra and written back on marshal.
type Row struct {
	Parameter    string    `json:"parameter"`
	BillDetail   string    `json:"bill_detail"`
	PolicyClause string    `json:"policy_clause"`
	Status       Status    `json:"status"`
	LagReason    string    `json:"lag_reason"`
	RiskScore    *int      `json:"risk_score"`
	RiskLabel    RiskLabel `json:"risk_label"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Score returns the risk score and whether one was present.
func (r Row) Score() (int, bool) {
	if r.RiskScore == nil {
		return 0, false
	}
	return *r.RiskScore, true
}

// UnmarshalJSON decodes a row without failing on wrongly typed fields: the
// service is an untrusted source and only the shape of the result is checked.
func (r *Row) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = Row{}
	for k, v := range m {
		switch k {
		case "parameter":
			r.Parameter = looseString(v)
		case "bill_detail":
			r.BillDetail = looseString(v)
		case "policy_clause":
			r.PolicyClause = looseString(v)
		case "status":
			r.Status = Status(strings.TrimSpace(looseString(v)))
		case "lag_reason":
			r.LagReason = looseString(v)
		case "risk_score":
			r.RiskScore = looseInt(v)
		case "risk_label":
			r.RiskLabel = RiskLabel(strings.TrimSpace(looseString(v)))
		default:
			if r.Extra == nil {
				r.Extra = map[string]json.RawMessage{}
			}
			r.Extra[k] = v
		}
	}
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	type plain Row
	base, err := encodeNoEscape(plain(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, r.Extra)
}

// mergeExtra appends extra keys to an encoded object:
// {"parameter":...} + {"x":...} -> {"parameter":...,"x":...}
func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	tail, err := encodeNoEscape(extra)
	if err != nil {
		return nil, err
	}
	out := append(base[:len(base)-1:len(base)-1], ',')
	return append(out, tail[1:]...), nil
}

// Eligibility is the overall verdict for the claim. Like Row it keeps keys
// outside the contract in Extra.
type Eligibility struct {
	Verdict   Verdict  `json:"verdict"`
	Summary   string   `json:"summary"`
	NextSteps []string `json:"next_steps"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (e *Eligibility) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*e = Eligibility{}
	for k, v := range m {
		switch k {
		case "verdict":
			e.Verdict = Verdict(strings.TrimSpace(looseString(v)))
		case "summary":
			e.Summary = looseString(v)
		case "next_steps":
			e.NextSteps = looseStrings(v)
		default:
			if e.Extra == nil {
				e.Extra = map[string]json.RawMessage{}
			}
			e.Extra[k] = v
		}
	}
	return nil
}

func (e Eligibility) MarshalJSON() ([]byte, error) {
	type plain Eligibility
	base, err := encodeNoEscape(plain(e))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, e.Extra)
}

// FallbackEligibility is used when the service returned rows without a usable
// eligibility object.
func FallbackEligibility() Eligibility {
	return Eligibility{
		Verdict:   VerdictUnknown,
		Summary:   "Could not determine eligibility.",
		NextSteps: []string{"Please review manually."},
	}
}

// Result is the normalized outcome of one audit call. Rows is never nil.
type Result struct {
	Rows        []Row       `json:"rows"`
	Eligibility Eligibility `json:"eligibility"`
	Meta        Meta        `json:"meta"`
}

// Meta is produced locally and is not part of the service contract.
type Meta struct {
	Repaired    bool   `json:"repaired"`
	RowsKey     string `json:"rows_key,omitempty"`
	SkippedRows int    `json:"skipped_rows,omitempty"`
	Model       string `json:"model,omitempty"`
}

func encodeNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func looseInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return nil
		}
	}
	// вне int32 считаем мусором, а не переполняем
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

// looseStrings keeps array elements as they are, empty ones included; a lone
// string becomes a one-element list.
func looseStrings(raw json.RawMessage) []string {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		if s := looseString(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, looseString(v))
	}
	return out
}
