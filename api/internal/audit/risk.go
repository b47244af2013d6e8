package audit

// RiskLabelFor maps a 0..100 score onto its band. Scores outside the range are
// clamped.
func RiskLabelFor(score int) RiskLabel {
	switch {
	case score <= 20:
		return RiskLow
	case score <= 50:
		return RiskMedium
	case score <= 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// LabelAgrees reports whether the row's label matches the band of its score.
// Rows without a score never agree.
func (r Row) LabelAgrees() bool {
	s, ok := r.Score()
	return ok && RiskLabelFor(s) == r.RiskLabel
}
