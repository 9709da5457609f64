package dtos

// SeverityTier is the banded classification of cumulative integrity risk for
// an attempt. It is a pure function of the cumulative weighted score and the
// active rule set, never of event arrival order.
type SeverityTier string

const (
	TierNone     SeverityTier = "none"
	TierLow      SeverityTier = "low"
	TierMedium   SeverityTier = "medium"
	TierHigh     SeverityTier = "high"
	TierCritical SeverityTier = "critical"
)

func (t SeverityTier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	case TierCritical:
		return 4
	default:
		return 0
	}
}

// MaxTier returns the higher of two tiers. Used when joining the behavioral
// anomaly signal, which may raise but never lower the tier.
func MaxTier(a, b SeverityTier) SeverityTier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
