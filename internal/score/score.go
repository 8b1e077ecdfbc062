// Package score maps accumulated identity verification signals to a 0-100
// verification score and a display tier.
package score

import (
	"math"

	"github.com/JaimeStill/veridid/internal/identity"
)

// Signal weights. They sum to Max.
const (
	WalletWeight       = 10.0
	DocumentWeight     = 40.0
	CompletenessWeight = 20.0
	LivenessWeight     = 30.0

	Min = 0
	Max = 100
)

// Tier is the qualitative band a score falls into.
type Tier string

const (
	TierInitial  Tier = "Initial"
	TierBasic    Tier = "Basic"
	TierEnhanced Tier = "Enhanced"
	TierAdvanced Tier = "Advanced"
)

// Compute returns the verification score for r. It is pure, deterministic,
// and non-decreasing in every contributing signal.
func Compute(r identity.Record) int {
	total := 0.0

	if r.WalletAddress != "" {
		total += WalletWeight
	}

	if r.ExtractedInfo {
		total += DocumentWeight * clampUnit(r.ExtractionConfidence)
	}

	fields := len(r.IdentityFields())
	total += CompletenessWeight * float64(r.Populated()) / float64(fields)

	if r.LivenessVerified {
		total += LivenessWeight
	}

	s := int(math.Round(total))
	return max(Min, min(Max, s))
}

// TierFor returns the display tier for a score.
func TierFor(s int) Tier {
	switch {
	case s < 25:
		return TierInitial
	case s < 50:
		return TierBasic
	case s < 75:
		return TierEnhanced
	default:
		return TierAdvanced
	}
}

// Label returns the human readable tier label shown alongside the score.
func (t Tier) Label() string {
	return string(t) + " verification"
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
