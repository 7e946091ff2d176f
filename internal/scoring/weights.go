package scoring

import (
	"math"

	"github.com/wonny/areascore/internal/contracts"
)

// weightTolerance is how far a sum may drift from 1 before renormalizing
const weightTolerance = 1e-9

// NormalizeWeights returns weights summing to 1.
// Weights off by more than the tolerance are divided by their sum; a negative
// weight is kept and renormalized with the rest. Non-finite weights or a
// non-positive sum fall back to the defaults; fallback reports true then.
func NormalizeWeights(w contracts.Weights) (normalized contracts.Weights, fallback bool) {
	for _, v := range w.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return contracts.DefaultWeights(), true
		}
	}

	sum := w.Sum()
	if sum <= 0 {
		return contracts.DefaultWeights(), true
	}
	if math.Abs(sum-1) <= weightTolerance {
		return w, false
	}
	return w.Scale(sum), false
}

// dot is the weighted total of one subscore set
func dot(s contracts.SubscoreSet, w contracts.Weights) float64 {
	return s.Growth*w.Growth +
		s.Supply*w.Supply +
		s.Tension*w.Tension +
		s.Accessibility*w.Accessibility +
		s.Returns*w.Returns
}
