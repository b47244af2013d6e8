package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLabelFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLabel
	}{
		{-5, RiskLow},
		{0, RiskLow},
		{20, RiskLow},
		{21, RiskMedium},
		{50, RiskMedium},
		{51, RiskHigh},
		{80, RiskHigh},
		{81, RiskCritical},
		{100, RiskCritical},
		{140, RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLabelFor(tt.score), "score %d", tt.score)
	}
}

func TestRowTolerantDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantScore *int
		check     func(t *testing.T, r Row)
	}{
		{name: "integer", raw: `{"risk_score": 42}`, wantScore: score(42)},
		{name: "float rounds", raw: `{"risk_score": 59.6}`, wantScore: score(60)},
		{name: "numeric string", raw: `{"risk_score": " 75 "}`, wantScore: score(75)},
		{name: "percent string", raw: `{"risk_score": "30%"}`, wantScore: score(30)},
		{name: "missing", raw: `{"parameter": "x"}`},
		{name: "null", raw: `{"risk_score": null}`},
		{name: "garbage", raw: `{"risk_score": "high"}`},
		{name: "huge float", raw: `{"risk_score": 1e300}`},
		{name: "huge negative string", raw: `{"risk_score": "-5e12"}`},
		{
			name: "non-string text fields",
			raw:  `{"bill_detail": 40000, "parameter": null, "status": " ⚠️ "}`,
			check: func(t *testing.T, r Row) {
				assert.Equal(t, "40000", r.BillDetail)
				assert.Empty(t, r.Parameter)
				assert.Equal(t, StatusPartial, r.Status)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Row
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.wantScore, r.RiskScore)
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestRowKeepsUnknownKeys(t *testing.T) {
	var r Row
	require.NoError(t, json.Unmarshal([]byte(`{"parameter":"ICU","amount_inr":40000,"notes":"a > b"}`), &r))
	assert.Equal(t, json.RawMessage(`40000`), r.Extra["amount_inr"])

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "ICU", back["parameter"])
	assert.Equal(t, float64(40000), back["amount_inr"])
	assert.Equal(t, "a > b", back["notes"])
	assert.Nil(t, back["risk_score"])
}

func TestEligibilityTolerantDecode(t *testing.T) {
	var e Eligibility
	require.NoError(t, json.Unmarshal([]byte(`{"verdict":" Eligible ","summary":"ok","next_steps":"Call the TPA"}`), &e))
	assert.Equal(t, VerdictEligible, e.Verdict)
	assert.Equal(t, []string{"Call the TPA"}, e.NextSteps)

	require.NoError(t, json.Unmarshal([]byte(`{"verdict":"Not Eligible","next_steps":["a", 2, ""]}`), &e))
	assert.Equal(t, []string{"a", "2", ""}, e.NextSteps)
	assert.Empty(t, e.Summary)
	assert.Nil(t, e.Extra)
}

func TestEligibilityKeepsUnknownKeys(t *testing.T) {
	var e Eligibility
	require.NoError(t, json.Unmarshal([]byte(`{"verdict":"Eligible","summary":"s","next_steps":[],"confidence":0.9,"notes":"a > b"}`), &e))
	assert.JSONEq(t, `0.9`, string(e.Extra["confidence"]))

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict":"Eligible","summary":"s","next_steps":[],"confidence":0.9,"notes":"a > b"}`, string(out))
	assert.Contains(t, string(out), `"a > b"`)
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusPass.Known())
	assert.True(t, StatusPartial.Known())
	assert.True(t, StatusFail.Known())
	assert.False(t, Status("OK").Known())
	assert.False(t, Status("").Known())
}
