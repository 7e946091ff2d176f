package scoring

import (
	"math"
	"math/rand/v2"
	"sort"
)

// OutlierDetector flags anomalous rows of a numeric matrix.
// Detect returns one flag per row.
type OutlierDetector interface {
	Detect(rows [][]float64) []bool
}

// eulerGamma is the Euler–Mascheroni constant
const eulerGamma = 0.5772156649

// IsolationForest isolates rows with random axis-aligned splits; rows that
// isolate in few splits are anomalous. Deterministic for a fixed Seed.
// ⭐ SSOT: 이상치 탐지 알고리즘은 여기서만
type IsolationForest struct {
	Trees         int     `json:"trees" yaml:"trees"`
	SampleSize    int     `json:"sample_size" yaml:"sample_size"`
	Contamination float64 `json:"contamination" yaml:"contamination"` // expected outlier share, (0, 0.5]
	Seed          uint64  `json:"seed" yaml:"seed"`
}

// DefaultIsolationForest returns 100 trees of 256 samples at 10% contamination
func DefaultIsolationForest() IsolationForest {
	return IsolationForest{
		Trees:         100,
		SampleSize:    256,
		Contamination: 0.1,
		Seed:          42,
	}
}

// Detect flags the rows whose negated anomaly score falls strictly below
// the contamination percentile. Fewer than two rows or two columns flag
// nothing.
func (f IsolationForest) Detect(rows [][]float64) []bool {
	flags := make([]bool, len(rows))
	if len(rows) < 2 || columnCount(rows) < 2 || f.Contamination <= 0 {
		return flags
	}

	scores := f.Scores(rows)
	neg := make([]float64, len(scores))
	for i, s := range scores {
		neg[i] = -s
	}
	sorted := make([]float64, len(neg))
	copy(sorted, neg)
	sort.Float64s(sorted)
	offset := Percentile(sorted, math.Min(f.Contamination, 0.5))

	for i, v := range neg {
		flags[i] = v < offset
	}
	return flags
}

// Scores returns the anomaly score 2^(-E[h(x)]/c(ψ)) of every row, in (0, 1].
// Higher is more anomalous.
func (f IsolationForest) Scores(rows [][]float64) []float64 {
	n := len(rows)
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}

	trees := f.Trees
	if trees < 1 {
		trees = 1
	}
	psi := f.SampleSize
	if psi < 2 || psi > n {
		psi = n
	}
	limit := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))
	cols := columnCount(rows)

	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x9e3779b97f4a7c15))
	forest := make([]*isoNode, trees)
	for t := range forest {
		sample := rng.Perm(n)[:psi]
		forest[t] = growTree(rows, sample, cols, 0, limit, rng)
	}

	norm := averagePathLength(psi)
	for i, row := range rows {
		total := 0.0
		for _, tree := range forest {
			total += tree.pathLength(row, 0)
		}
		mean := total / float64(trees)
		if norm == 0 {
			scores[i] = 0.5
			continue
		}
		scores[i] = math.Pow(2, -mean/norm)
	}
	return scores
}

// isoNode is an isolation tree node; leaves carry their sample size
type isoNode struct {
	feature     int
	split       float64
	left, right *isoNode
	size        int
}

func growTree(rows [][]float64, idx []int, cols, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(idx) <= 1 {
		return &isoNode{size: len(idx)}
	}

	// only features that still vary can split
	type span struct {
		feature  int
		min, max float64
	}
	candidates := make([]span, 0, cols)
	for c := 0; c < cols; c++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := rows[i][c]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi > lo {
			candidates = append(candidates, span{feature: c, min: lo, max: hi})
		}
	}
	if len(candidates) == 0 {
		return &isoNode{size: len(idx)}
	}

	pick := candidates[rng.IntN(len(candidates))]
	split := pick.min + rng.Float64()*(pick.max-pick.min)

	var left, right []int
	for _, i := range idx {
		if rows[i][pick.feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isoNode{
		feature: pick.feature,
		split:   split,
		left:    growTree(rows, left, cols, depth+1, limit, rng),
		right:   growTree(rows, right, cols, depth+1, limit, rng),
	}
}

func (n *isoNode) pathLength(row []float64, depth int) float64 {
	if n.left == nil && n.right == nil {
		return float64(depth) + averagePathLength(n.size)
	}
	if row[n.feature] < n.split {
		return n.left.pathLength(row, depth+1)
	}
	return n.right.pathLength(row, depth+1)
}

// averagePathLength is c(n), the mean path length of an unsuccessful
// binary-search-tree lookup among n points
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	harmonic := math.Log(fn-1) + eulerGamma
	return 2*harmonic - 2*(fn-1)/fn
}

// columnCount is the width of the narrowest row
func columnCount(rows [][]float64) int {
	if len(rows) == 0 {
		return 0
	}
	cols := len(rows[0])
	for _, r := range rows[1:] {
		if len(r) < cols {
			cols = len(r)
		}
	}
	return cols
}

// NoOutliers is a detector that never flags anything
type NoOutliers struct{}

// Detect returns all false
func (NoOutliers) Detect(rows [][]float64) []bool {
	return make([]bool, len(rows))
}
