package policy

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// INR formats an amount with thousands grouping, e.g. ₹5,00,000 is written ₹500,000.
func INR(amount int64) string {
	return printer.Sprintf("₹%d", amount)
}

func bmi(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (s SubLimit) compact() string {
	if s.Excluded() {
		return "EXCLUDED"
	}
	if s.Per != "" {
		return INR(s.AmountINR) + "/" + s.Per
	}
	return INR(s.AmountINR)
}

// Markdown renders the baseline for people: headings, tables and bullet lists.
// It is never parsed back.
func (b Baseline) Markdown() string {
	e, w, c, n := b.Eligibility, b.WaitingPeriods, b.Copay, b.Network
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s\n\n", b.PolicyName)
	fmt.Fprintf(&sb, "_Effective from %s_\n\n", b.EffectiveDate)

	sb.WriteString("### Eligibility\n")
	sb.WriteString("| Parameter | Value |\n|-----------|-------|\n")
	fmt.Fprintf(&sb, "| Minimum Age | %d years |\n", e.MinAgeYears)
	fmt.Fprintf(&sb, "| Maximum Age | %d years |\n", e.MaxAgeYears)
	fmt.Fprintf(&sb, "| BMI Range | %s – %s |\n", bmi(e.BMIRange.Min), bmi(e.BMIRange.Max))
	if e.Notes != "" {
		fmt.Fprintf(&sb, "\n> %s\n", e.Notes)
	}

	sb.WriteString("\n### Waiting Periods\n")
	sb.WriteString("| Condition | Period |\n|-----------|--------|\n")
	fmt.Fprintf(&sb, "| Initial (all claims) | %d days |\n", w.InitialWaitingDays)
	fmt.Fprintf(&sb, "| Pre-existing diseases | %d years |\n", w.PreExistingDiseaseYears)
	fmt.Fprintf(&sb, "| Maternity | %d months |\n", w.MaternityMonths)

	sb.WriteString("\n#### Specific Illness Waiting Periods\n")
	sb.WriteString("| Illness | Waiting Period |\n|---------|---------------|\n")
	for _, iw := range w.SpecificIllnessMonths {
		fmt.Fprintf(&sb, "| %s | %d months |\n", titler.String(iw.Illness), iw.Months)
	}
	if w.Notes != "" {
		fmt.Fprintf(&sb, "\n> %s\n", w.Notes)
	}

	sb.WriteString("\n### Sub-limits\n")
	sb.WriteString("| Item | Limit (₹) |\n|------|-----------|\n")
	for _, s := range b.SubLimits {
		if s.Excluded() {
			fmt.Fprintf(&sb, "| %s | Excluded |\n", s.Label)
			continue
		}
		label := s.Label
		if s.Per != "" {
			label += " / " + titler.String(s.Per)
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", label, INR(s.AmountINR))
	}

	sb.WriteString("\n### Co-pay Rules\n")
	sb.WriteString("| Scenario | Co-pay % |\n|----------|----------|\n")
	fmt.Fprintf(&sb, "| Standard | %d%% |\n", c.DefaultPercent)
	fmt.Fprintf(&sb, "| Senior Citizen (>%d yrs) | %d%% |\n", c.SeniorCitizenAgeAbove, c.SeniorCitizenPercent)
	fmt.Fprintf(&sb, "| Non-network Hospital | %d%% |\n", c.NonNetworkPercent)
	fmt.Fprintf(&sb, "| Pre-existing Disease Claims | %d%% |\n", c.PreExistingPercent)

	sb.WriteString("\n### Network & Reimbursement\n")
	fmt.Fprintf(&sb, "- Cashless at network hospitals: %s\n", yesNo(n.CashlessAtNetworkHospitals))
	fmt.Fprintf(&sb, "- Reimbursement within %d days\n", n.ReimbursementTimelineDays)
	fmt.Fprintf(&sb, "- Pre-authorisation required above %s\n", INR(n.PreAuthRequiredAboveINR))
	fmt.Fprintf(&sb, "- Pre-hospitalisation %d days, post-hospitalisation %d days\n", n.PreHospitalisationDays, n.PostHospitalisationDays)
	fmt.Fprintf(&sb, "- Deductible: %s\n", INR(b.DeductibleINR))

	sb.WriteString("\n### Common Pre-existing Conditions\n")
	fmt.Fprintf(&sb, "Covered after %d years. %s\n\n", b.PreExistingConditions.WaitingPeriodYears, b.PreExistingConditions.Definition)
	for _, p := range b.PreExistingConditions.CommonPEDs {
		fmt.Fprintf(&sb, "- %s\n", p)
	}

	sb.WriteString("\n### Exclusions\n")
	for _, x := range b.Exclusions {
		fmt.Fprintf(&sb, "- %s\n", x)
	}

	sb.WriteString("\n### Sum Insured\n")
	opts := make([]string, 0, len(b.SumInsuredOptionsINR))
	for _, v := range b.SumInsuredOptionsINR {
		opts = append(opts, INR(v))
	}
	fmt.Fprintf(&sb, "Options: %s (default %s)\n", strings.Join(opts, ", "), INR(b.DefaultSumInsuredINR))

	return strings.TrimSpace(sb.String())
}

// CompactPrompt renders the baseline for the reasoning model. It avoids tables
// to save tokens but must carry every rule of the record verbatim.
func (b Baseline) CompactPrompt() string {
	e, w, c, n, ped := b.Eligibility, b.WaitingPeriods, b.Copay, b.Network, b.PreExistingConditions
	var sb strings.Builder

	fmt.Fprintf(&sb, "POLICY: %s (effective %s)\n\n", b.PolicyName, b.EffectiveDate)

	sb.WriteString("ELIGIBILITY:\n")
	fmt.Fprintf(&sb, "- Age: %d–%d years\n", e.MinAgeYears, e.MaxAgeYears)
	fmt.Fprintf(&sb, "- BMI: %s–%s\n", bmi(e.BMIRange.Min), bmi(e.BMIRange.Max))
	if e.Notes != "" {
		fmt.Fprintf(&sb, "- %s\n", e.Notes)
	}

	sb.WriteString("\nWAITING PERIODS:\n")
	fmt.Fprintf(&sb, "- Initial waiting: %d days (no claims)\n", w.InitialWaitingDays)
	fmt.Fprintf(&sb, "- Pre-existing diseases (PED): %d years\n", w.PreExistingDiseaseYears)
	fmt.Fprintf(&sb, "- Maternity: %d months\n", w.MaternityMonths)
	ills := make([]string, 0, len(w.SpecificIllnessMonths))
	for _, iw := range w.SpecificIllnessMonths {
		ills = append(ills, fmt.Sprintf("%s (%dm)", iw.Illness, iw.Months))
	}
	fmt.Fprintf(&sb, "- Specific illnesses: %s\n", strings.Join(ills, "; "))
	if w.Notes != "" {
		fmt.Fprintf(&sb, "- %s\n", w.Notes)
	}

	sb.WriteString("\nSUB-LIMITS (INR):\n")
	for _, s := range b.SubLimits {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Label, s.compact())
	}

	sb.WriteString("\nCO-PAY:\n")
	fmt.Fprintf(&sb, "- Standard: %d%%\n", c.DefaultPercent)
	fmt.Fprintf(&sb, "- Senior citizen (>%d): %d%%\n", c.SeniorCitizenAgeAbove, c.SeniorCitizenPercent)
	fmt.Fprintf(&sb, "- Non-network hospital: %d%%\n", c.NonNetworkPercent)
	fmt.Fprintf(&sb, "- PED claims: %d%%\n", c.PreExistingPercent)

	fmt.Fprintf(&sb, "\nPRE-EXISTING CONDITIONS (PED) — covered after %d years:\n", ped.WaitingPeriodYears)
	fmt.Fprintf(&sb, "Definition: %s\n", ped.Definition)
	sb.WriteString(strings.Join(ped.CommonPEDs, ", "))
	sb.WriteString("\n")
	if ped.Notes != "" {
		fmt.Fprintf(&sb, "%s\n", ped.Notes)
	}

	sb.WriteString("\nNETWORK:\n")
	fmt.Fprintf(&sb, "- Cashless at network hospitals: %s\n", yesNo(n.CashlessAtNetworkHospitals))
	fmt.Fprintf(&sb, "- Reimbursement timeline: %d days\n", n.ReimbursementTimelineDays)
	fmt.Fprintf(&sb, "- Pre-authorisation required above: %s\n", INR(n.PreAuthRequiredAboveINR))
	fmt.Fprintf(&sb, "- Pre-hospitalisation: %d days; post-hospitalisation: %d days\n", n.PreHospitalisationDays, n.PostHospitalisationDays)
	fmt.Fprintf(&sb, "DEDUCTIBLE: %s\n", INR(b.DeductibleINR))

	sb.WriteString("\nEXCLUSIONS:\n")
	for _, x := range b.Exclusions {
		fmt.Fprintf(&sb, "- %s\n", x)
	}

	sb.WriteString("\n")
	sb.WriteString(SumInsuredLine(b.SumInsuredOptionsINR))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "DEFAULT SUM INSURED: %s\n", INR(b.DefaultSumInsuredINR))

	return strings.TrimSpace(sb.String())
}

// SumInsuredLine is the exact "SUM INSURED OPTIONS" line of the compact prompt.
func SumInsuredLine(options []int64) string {
	opts := make([]string, 0, len(options))
	for _, v := range options {
		opts = append(opts, INR(v))
	}
	return "SUM INSURED OPTIONS: " + strings.Join(opts, ", ")
}
