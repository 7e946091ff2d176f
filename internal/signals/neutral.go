package signals

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
)

// Neutral is the score of a contribution with no data behind it
// ⭐ SSOT: 결측 기본값 50 정책은 이 파일에서만
const Neutral = 50.0

// orNeutral substitutes Neutral for a missing contribution
func orNeutral(s contracts.Signal[float64]) float64 {
	return s.Or(Neutral)
}

// fold blends a present signal into a running score: acc·keep + v·weight.
// A missing signal leaves the running score untouched.
func fold(acc float64, s contracts.Signal[float64], keep, weight float64) float64 {
	v, ok := s.Value()
	if !ok {
		return acc
	}
	return acc*keep + v*weight
}

// mapSignal transforms a present value
func mapSignal(s contracts.Signal[float64], f func(float64) float64) contracts.Signal[float64] {
	v, ok := s.Value()
	if !ok {
		return s
	}
	return contracts.FloatSignal(f(v))
}

// clampScore bounds a score to [0, 100]; NaN becomes Neutral
func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return Neutral
	}
	return math.Max(0, math.Min(100, v))
}
