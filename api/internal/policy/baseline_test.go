package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBaseline(t *testing.T) {
	l := Default()

	assert.True(t, strings.HasPrefix(l.Hash, "sha256:"))
	assert.Len(t, l.Hash, len("sha256:")+64)
	assert.Equal(t, "2024-01-01", l.Baseline.EffectiveDate)
	assert.Contains(t, l.Version(), l.Baseline.PolicyName)

	b := l.Baseline
	assert.Equal(t, 18, b.Eligibility.MinAgeYears)
	assert.Equal(t, 65, b.Eligibility.MaxAgeYears)
	assert.Equal(t, int64(500000), b.DefaultSumInsuredINR)
	assert.Len(t, b.SubLimits, 10)
	assert.Len(t, b.WaitingPeriods.SpecificIllnessMonths, 10)
	assert.Equal(t, "cataract", b.WaitingPeriods.SpecificIllnessMonths[0].Illness)
	assert.Len(t, b.Exclusions, 14)
	assert.Equal(t, "Cosmetic or aesthetic treatments", b.Exclusions[0])

	// stable across calls
	assert.Equal(t, l.Hash, Default().Hash)
}

func TestSubLimitExcluded(t *testing.T) {
	byKey := map[string]SubLimit{}
	for _, s := range Default().Baseline.SubLimits {
		byKey[s.Key] = s
	}
	assert.True(t, byKey["dental_treatment"].Excluded())
	assert.True(t, byKey["cosmetic_surgery"].Excluded())
	assert.False(t, byKey["icu_rent"].Excluded())
	assert.Equal(t, int64(10000), byKey["icu_rent"].AmountINR)
}

func TestLoadRejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "min age above max age",
			mutate:  func(s string) string { return strings.Replace(s, "max_age_years: 65", "max_age_years: 10", 1) },
			wantErr: "MaxAgeYears",
		},
		{
			name:    "bmi min above max",
			mutate:  func(s string) string { return strings.Replace(s, "max: 40.0", "max: 12.0", 1) },
			wantErr: "BMIRange.Max",
		},
		{
			name: "default sum insured outside options",
			mutate: func(s string) string {
				return strings.Replace(s, "default_sum_insured_inr: 500000", "default_sum_insured_inr: 400000", 1)
			},
			wantErr: "DefaultSumInsuredINR",
		},
		{
			name: "percentage above 100",
			mutate: func(s string) string {
				return strings.Replace(s, "senior_citizen_copay_percent: 20", "senior_citizen_copay_percent: 120", 1)
			},
			wantErr: "SeniorCitizenPercent",
		},
		{
			name:    "negative deductible",
			mutate:  func(s string) string { return strings.Replace(s, "deductible_inr: 0", "deductible_inr: -1", 1) },
			wantErr: "DeductibleINR",
		},
		{
			name: "duplicate illness",
			mutate: func(s string) string {
				return strings.Replace(s, "{ illness: hernia, months: 24 }", "{ illness: cataract, months: 24 }", 1)
			},
			wantErr: "SpecificIllnessMonths",
		},
		{
			name: "duplicate sub-limit key",
			mutate: func(s string) string {
				return strings.Replace(s, "{ key: icu_rent,", "{ key: room_rent,", 1)
			},
			wantErr: "SubLimits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.mutate(string(baselineYAML))
			require.NotEqual(t, string(baselineYAML), doc, "mutation did not apply")

			_, err := Load([]byte(doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load([]byte("policy_name: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy: decode")
}

func TestLoadHashFollowsBytes(t *testing.T) {
	a, err := Load(baselineYAML)
	require.NoError(t, err)

	changed := strings.Replace(string(baselineYAML), "reimbursement_timeline_days: 15", "reimbursement_timeline_days: 20", 1)
	b, err := Load([]byte(changed))
	require.NoError(t, err)

	assert.Equal(t, Default().Hash, a.Hash)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, 20, b.Baseline.Network.ReimbursementTimelineDays)
}
