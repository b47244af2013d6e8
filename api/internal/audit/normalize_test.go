package audit

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormed = `{
  "rows": [
    {
      "parameter": "ICU Room Rent",
      "bill_detail": "₹8,000/day × 5 days = ₹40,000",
      "policy_clause": "ICU sub-limit: ₹10,000/day",
      "status": "✅",
      "lag_reason": "Within sub-limit.",
      "risk_score": 5,
      "risk_label": "Low"
    },
    {
      "parameter": "Rhinoplasty",
      "bill_detail": "₹1,20,000",
      "policy_clause": "Exclusion – Cosmetic",
      "status": "❌",
      "lag_reason": "Hard exclusion.",
      "risk_score": 100,
      "risk_label": "Critical"
    }
  ],
  "eligibility": {
    "verdict": "Partially Eligible",
    "summary": "ICU is covered, rhinoplasty is not.",
    "next_steps": ["Submit ICU invoice", "Drop cosmetic item", "Call TPA"]
  }
}`

func TestNormalizeWellFormedIsIdentity(t *testing.T) {
	res, err := Normalize(wellFormed)
	require.NoError(t, err)

	var want struct {
		Rows        []Row       `json:"rows"`
		Eligibility Eligibility `json:"eligibility"`
	}
	require.NoError(t, json.Unmarshal([]byte(wellFormed), &want))

	assert.Equal(t, want.Rows, res.Rows)
	assert.Equal(t, want.Eligibility, res.Eligibility)
	assert.False(t, res.Meta.Repaired)
	assert.Equal(t, "rows", res.Meta.RowsKey)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, StatusPass, res.Rows[0].Status)
	s, ok := res.Rows[0].Score()
	assert.True(t, ok)
	assert.Equal(t, 5, s)
	assert.Equal(t, VerdictPartiallyEligible, res.Eligibility.Verdict)
	assert.Len(t, res.Eligibility.NextSteps, 3)
}

func TestNormalizeKeepsEligibilityVerbatim(t *testing.T) {
	const elig = `{"verdict":"Eligible","summary":"s","next_steps":["a","","b"],"confidence":0.9}`
	res, err := Normalize(`{"rows":[{"parameter":"Room Rent","risk_score":10}],"eligibility":` + elig + `}`)
	require.NoError(t, err)
	assert.False(t, res.Meta.Repaired)
	assert.Equal(t, []string{"a", "", "b"}, res.Eligibility.NextSteps)

	out, err := json.Marshal(res.Eligibility)
	require.NoError(t, err)
	assert.JSONEq(t, elig, string(out))
}

func TestNormalizeStripsFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare", "```\n" + wellFormed + "\n```"},
		{"json tag", "```json\n" + wellFormed + "\n```"},
		{"upper tag", "```JSON\n" + wellFormed + "```"},
		{"padded", "\n\n  ```json " + wellFormed + " ```  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Len(t, res.Rows, 2)
			assert.False(t, res.Meta.Repaired)
		})
	}
}

func TestNormalizeRepairsShape(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantRows    []string
		wantKey     string
		wantVerdict Verdict
	}{
		{
			name:        "rows under another key, no eligibility",
			raw:         `{"line_items":[{"parameter":"A"},{"parameter":"B"}]}`,
			wantRows:    []string{"A", "B"},
			wantKey:     "line_items",
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "rows under another key with eligibility",
			raw:         `{"items":[{"parameter":"A"}],"eligibility":{"verdict":"Eligible","summary":"ok","next_steps":["x"]}}`,
			wantRows:    []string{"A"},
			wantKey:     "items",
			wantVerdict: VerdictEligible,
		},
		{
			name:        "first array in document order wins",
			raw:         `{"note":"x","zeta":[{"parameter":"Z"}],"alpha":[{"parameter":"A"}]}`,
			wantRows:    []string{"Z"},
			wantKey:     "zeta",
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "rows is not an array",
			raw:         `{"rows":{"parameter":"A"},"findings":[{"parameter":"F"}]}`,
			wantRows:    []string{"F"},
			wantKey:     "findings",
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "top-level array",
			raw:         `[{"parameter":"A"},{"parameter":"B"}]`,
			wantRows:    []string{"A", "B"},
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "object without any array",
			raw:         `{"eligibility":{"verdict":"Not Eligible","summary":"no","next_steps":[]}}`,
			wantRows:    []string{},
			wantVerdict: VerdictNotEligible,
		},
		{
			name:        "rows present, eligibility missing",
			raw:         `{"rows":[{"parameter":"A"}]}`,
			wantRows:    []string{"A"},
			wantKey:     "rows",
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "eligibility is not an object",
			raw:         `{"rows":[{"parameter":"A"}],"eligibility":"Eligible"}`,
			wantRows:    []string{"A"},
			wantKey:     "rows",
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "scalar",
			raw:         `42`,
			wantRows:    []string{},
			wantVerdict: VerdictUnknown,
		},
		{
			name:        "double encoded",
			raw:         `"{\"findings\":[{\"parameter\":\"A\"}]}"`,
			wantRows:    []string{"A"},
			wantKey:     "findings",
			wantVerdict: VerdictUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)

			require.NotNil(t, res.Rows)
			got := make([]string, 0, len(res.Rows))
			for _, r := range res.Rows {
				got = append(got, r.Parameter)
			}
			assert.Equal(t, tt.wantRows, got)
			assert.Equal(t, tt.wantKey, res.Meta.RowsKey)
			assert.Equal(t, tt.wantVerdict, res.Eligibility.Verdict)
			assert.True(t, res.Meta.Repaired)
		})
	}
}

func TestNormalizeFallbackEligibility(t *testing.T) {
	res, err := Normalize(`{"data":[]}`)
	require.NoError(t, err)
	assert.Equal(t, FallbackEligibility(), res.Eligibility)
	assert.Equal(t, "Could not determine eligibility.", res.Eligibility.Summary)
	assert.Equal(t, []string{"Please review manually."}, res.Eligibility.NextSteps)
	assert.Empty(t, res.Rows)
}

func TestNormalizeSkipsNonObjectRows(t *testing.T) {
	res, err := Normalize(`{"rows":[{"parameter":"A"}, "stray", 7, null, {"parameter":"B"}],"eligibility":{"verdict":"Eligible"}}`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "B", res.Rows[1].Parameter)
	assert.Equal(t, 3, res.Meta.SkippedRows)
	assert.True(t, res.Meta.Repaired)
}

func TestNormalizeMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"```json\n```",
		"I could not audit this bill.",
		`{"rows": [{"parameter": "A"`,
		`{"rows": []} trailing`,
		"<html>502 Bad Gateway</html>",
	} {
		_, err := Normalize(raw)
		require.Error(t, err, "raw=%q", raw)
		assert.True(t, errors.Is(err, ErrMalformedResponse), "raw=%q err=%v", raw, err)
		assert.False(t, errors.Is(err, ErrServiceUnavailable))
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := `{"b":[{"parameter":"1"}],"a":[{"parameter":"2"}]}`
	first, err := Normalize(raw)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
