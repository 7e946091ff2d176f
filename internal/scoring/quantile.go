package scoring

import (
	"math"
	"sort"
)

const (
	// QuantileBuckets is the number of equal-frequency tiers
	QuantileBuckets = 5

	// DefaultBucket is assigned when no tier can be computed
	DefaultBucket = 3
)

// Percentile returns the q-quantile (0 ≤ q ≤ 1) of sorted values using
// linear interpolation between closest ranks: h = (n-1)·q.
// sorted must be ascending and non-empty.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// QuantileEdges computes the distinct bucket edges of values at
// 0, 1/k, …, 1. Edges that collapse onto the previous one are dropped.
func QuantileEdges(values []float64, k int) []float64 {
	if len(values) == 0 || k < 1 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	edges := make([]float64, 0, k+1)
	for i := 0; i <= k; i++ {
		e := Percentile(sorted, float64(i)/float64(k))
		if len(edges) > 0 && e <= edges[len(edges)-1] {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// AssignQuantiles buckets values into tiers 1..k by equal frequency.
// Bins are right-inclusive, the first also includes the minimum, so equal
// values always share a tier. Duplicate edges shrink the number of tiers;
// with fewer than two distinct edges every value gets DefaultBucket.
func AssignQuantiles(values []float64, k int) []int {
	out := make([]int, len(values))
	edges := QuantileEdges(values, k)
	if len(edges) < 2 {
		for i := range out {
			out[i] = DefaultBucket
		}
		return out
	}

	for i, v := range values {
		out[i] = bucketOf(v, edges)
	}
	return out
}

// bucketOf finds the 1-based bin of v, or DefaultBucket outside the edges
func bucketOf(v float64, edges []float64) int {
	if math.IsNaN(v) || v < edges[0] {
		return DefaultBucket
	}
	// first edge ≥ v among edges[1:]
	j := sort.SearchFloat64s(edges[1:], v)
	if j >= len(edges)-1 {
		return DefaultBucket
	}
	return j + 1
}
