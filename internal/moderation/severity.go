package moderation

import "safefeed/internal/domain"

// Thresholds are the confidence cut points for the hate gate and the
// severity bands. All comparisons are strict.
type Thresholds struct {
	Low      float64
	Hate     float64
	High     float64
	Critical float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.2, Hate: 0.4, High: 0.6, Critical: 0.8}
}

func (t Thresholds) IsHate(confidence float64) bool {
	return confidence > t.Hate
}

// SeverityFor maps a confidence to a band. Content that is not hate speech is
// always none, and hate speech is never below low.
func (t Thresholds) SeverityFor(confidence float64, isHate bool) domain.Severity {
	if !isHate {
		return domain.SeverityNone
	}
	switch {
	case confidence > t.Critical:
		return domain.SeverityCritical
	case confidence > t.High:
		return domain.SeverityHigh
	case confidence > t.Hate:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// RequiresImmediateAction is true for any threat, or for any confidence above
// the critical band whatever the hate gate says.
func (t Thresholds) RequiresImmediateAction(confidence float64, categories []string) bool {
	for _, c := range categories {
		if c == domain.CategoryThreat {
			return true
		}
	}
	return confidence > t.Critical
}

// Finalize recomputes the derived fields of a verdict from its gate,
// confidence and categories.
func (t Thresholds) Finalize(v domain.Verdict) domain.Verdict {
	v.Categories = domain.NormalizeCategories(v.Categories)
	v.Severity = t.SeverityFor(v.Confidence, v.IsHateSpeech)
	v.RequiresImmediateAction = t.RequiresImmediateAction(v.Confidence, v.Categories)
	return v
}
