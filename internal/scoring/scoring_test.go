package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/logger"
)

func subscores(id string, g, s, t, a, r float64) contracts.AreaSubscores {
	return contracts.AreaSubscores{
		AreaID:   id,
		AreaName: id,
		Subscores: contracts.SubscoreSet{
			Growth: g, Supply: s, Tension: t, Accessibility: a, Returns: r,
		},
	}
}

func cluster() []contracts.AreaSubscores {
	rows := make([]contracts.AreaSubscores, 0, 21)
	for i := 0; i < 20; i++ {
		rows = append(rows, subscores(
			string(rune('a'+i)),
			50+float64(i%5)*0.5,
			50+float64(i%4)*0.5,
			50+float64(i%3)*0.5,
			50+float64(i%2)*0.5,
			50+float64(i%7)*0.3,
		))
	}
	return append(rows, subscores("far", 100, 0, 100, 0, 100))
}

type stubDetector struct {
	flags []bool
}

func (d stubDetector) Detect(rows [][]float64) []bool {
	return d.flags
}

func TestNormalizeWeights(t *testing.T) {
	t.Run("equal weights renormalized", func(t *testing.T) {
		w, fallback := NormalizeWeights(contracts.Weights{Growth: 1, Supply: 1, Tension: 1, Accessibility: 1, Returns: 1})
		assert.False(t, fallback)
		for _, v := range w.Values() {
			assert.InDelta(t, 0.2, v, 1e-12)
		}
	})

	t.Run("defaults untouched", func(t *testing.T) {
		w, fallback := NormalizeWeights(contracts.DefaultWeights())
		assert.False(t, fallback)
		assert.Equal(t, contracts.DefaultWeights(), w)
	})

	t.Run("negative weight renormalized", func(t *testing.T) {
		w, fallback := NormalizeWeights(contracts.Weights{Growth: -0.1, Supply: 0.4, Tension: 0.3, Accessibility: 0.2, Returns: 0.2})
		assert.False(t, fallback)
		assert.InDelta(t, -0.1, w.Growth, 1e-12)
		assert.InDelta(t, 0.4, w.Supply, 1e-12)

		w, fallback = NormalizeWeights(contracts.Weights{Growth: 3, Supply: -1})
		assert.False(t, fallback)
		assert.InDelta(t, 1.5, w.Growth, 1e-12)
		assert.InDelta(t, -0.5, w.Supply, 1e-12)
		assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	})

	tests := []struct {
		name string
		w    contracts.Weights
	}{
		{"all zero", contracts.Weights{}},
		{"negative sum", contracts.Weights{Growth: 1, Supply: -2}},
		{"nan", contracts.Weights{Growth: math.NaN(), Supply: 1}},
		{"inf", contracts.Weights{Growth: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, fallback := NormalizeWeights(tt.w)
			assert.True(t, fallback)
			assert.Equal(t, contracts.DefaultWeights(), w)
		})
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 10.0, Percentile(sorted, 1))
	assert.InDelta(t, 5.5, Percentile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 2.8, Percentile(sorted, 0.2), 1e-12)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.3))
}

func TestAssignQuantiles(t *testing.T) {
	t.Run("equal frequency", func(t *testing.T) {
		got := AssignQuantiles([]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, QuantileBuckets)
		assert.Equal(t, []int{5, 5, 4, 4, 3, 3, 2, 2, 1, 1}, got)
	})

	t.Run("duplicate edges drop buckets", func(t *testing.T) {
		got := AssignQuantiles([]float64{1, 1, 1, 1, 1, 1, 1, 1, 2, 3}, QuantileBuckets)
		assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 2, 2}, got)
	})

	t.Run("identical values share the neutral bucket", func(t *testing.T) {
		got := AssignQuantiles([]float64{50, 50, 50}, QuantileBuckets)
		assert.Equal(t, []int{3, 3, 3}, got)
	})

	t.Run("single value", func(t *testing.T) {
		assert.Equal(t, []int{3}, AssignQuantiles([]float64{42}, QuantileBuckets))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, AssignQuantiles(nil, QuantileBuckets))
	})
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.2448, averagePathLength(256), 1e-3)
}

func TestIsolationForest_FlagsFarPoint(t *testing.T) {
	rows := make([][]float64, 0, 21)
	for _, s := range cluster() {
		rows = append(rows, s.Subscores.Values())
	}

	forest := DefaultIsolationForest()
	scores := forest.Scores(rows)
	for i := 0; i < 20; i++ {
		assert.Greater(t, scores[20], scores[i])
	}

	flags := forest.Detect(rows)
	require.Len(t, flags, 21)
	assert.True(t, flags[20])

	flagged := 0
	for _, f := range flags {
		if f {
			flagged++
		}
	}
	assert.LessOrEqual(t, flagged, 2)

	assert.Equal(t, flags, forest.Detect(rows), "same seed, same flags")
}

func TestIsolationForest_Degenerate(t *testing.T) {
	forest := DefaultIsolationForest()
	assert.Equal(t, []bool{false}, forest.Detect([][]float64{{1, 2}}))
	assert.Equal(t, []bool{false, false}, forest.Detect([][]float64{{1}, {100}}))

	zero := forest
	zero.Contamination = 0
	assert.Equal(t, []bool{false, false}, zero.Detect([][]float64{{1, 2}, {100, 200}}))
}

func TestScorer_AllNeutral(t *testing.T) {
	s := NewScorer(nil, nil, logger.NewNop())
	in := []contracts.AreaSubscores{
		subscores("a", 50, 50, 50, 50, 50),
		subscores("b", 50, 50, 50, 50, 50),
		subscores("c", 50, 50, 50, 50, 50),
	}

	set := s.Score(in, contracts.Weights{Growth: 1, Supply: 2, Tension: 3, Accessibility: 4, Returns: 5})
	require.Len(t, set.Records, 3)
	for _, r := range set.Records {
		assert.InDelta(t, 50.0, r.Total, 1e-9)
		assert.Equal(t, DefaultBucket, r.Quantile)
		assert.False(t, r.IsOutlier)
	}
}

func TestScorer_EqualWeights(t *testing.T) {
	s := NewScorer(NoOutliers{}, nil, logger.NewNop())
	set := s.Score(
		[]contracts.AreaSubscores{subscores("a", 10, 20, 30, 40, 50)},
		contracts.Weights{Growth: 1, Supply: 1, Tension: 1, Accessibility: 1, Returns: 1},
	)

	require.Len(t, set.Records, 1)
	assert.InDelta(t, 30.0, set.Records[0].Total, 1e-9)
	assert.InDelta(t, 0.2, set.Weights.Growth, 1e-12)
	assert.Equal(t, "a", set.Records[0].AreaID)
}

func TestScorer_NegativeWeightClamped(t *testing.T) {
	s := NewScorer(NoOutliers{}, nil, logger.NewNop())
	set := s.Score(
		[]contracts.AreaSubscores{
			subscores("high", 100, 0, 0, 0, 0),
			subscores("low", 0, 100, 0, 0, 0),
			subscores("mid", 40, 20, 0, 0, 0),
		},
		contracts.Weights{Growth: 3, Supply: -1},
	)

	assert.InDelta(t, -0.5, set.Weights.Supply, 1e-12)
	high, _ := set.Find("high")
	low, _ := set.Find("low")
	mid, _ := set.Find("mid")
	assert.Equal(t, 100.0, high.Total)
	assert.Equal(t, 0.0, low.Total)
	assert.InDelta(t, 50.0, mid.Total, 1e-9)
}

func TestScorer_QuantilesInRange(t *testing.T) {
	s := NewScorer(nil, nil, logger.NewNop())
	set := s.Score(cluster(), contracts.DefaultWeights())

	for _, r := range set.Records {
		assert.GreaterOrEqual(t, r.Quantile, 1)
		assert.LessOrEqual(t, r.Quantile, QuantileBuckets)
		assert.GreaterOrEqual(t, r.Total, 0.0)
		assert.LessOrEqual(t, r.Total, 100.0)
	}
}

func TestScorer_Idempotent(t *testing.T) {
	s := NewScorer(nil, nil, logger.NewNop())

	first := s.Score(cluster(), contracts.DefaultWeights())
	second := s.Score(cluster(), contracts.DefaultWeights())
	assert.Equal(t, first.Records, second.Records)

	far, ok := first.Find("far")
	require.True(t, ok)
	assert.True(t, far.IsOutlier)
}

func TestScorer_DetectorColumns(t *testing.T) {
	single := NewScorer(stubDetector{flags: []bool{true, true}}, []contracts.Subscore{contracts.SubscoreGrowth}, logger.NewNop())
	set := single.Score([]contracts.AreaSubscores{
		subscores("a", 1, 2, 3, 4, 5),
		subscores("b", 5, 4, 3, 2, 1),
	}, contracts.DefaultWeights())
	for _, r := range set.Records {
		assert.False(t, r.IsOutlier, "one column is not enough")
	}

	wrongLength := NewScorer(stubDetector{flags: []bool{true}}, nil, logger.NewNop())
	set = wrongLength.Score([]contracts.AreaSubscores{
		subscores("a", 1, 2, 3, 4, 5),
		subscores("b", 5, 4, 3, 2, 1),
	}, contracts.DefaultWeights())
	for _, r := range set.Records {
		assert.False(t, r.IsOutlier)
	}

	stub := NewScorer(stubDetector{flags: []bool{false, true}}, nil, logger.NewNop())
	set = stub.Score([]contracts.AreaSubscores{
		subscores("a", 1, 2, 3, 4, 5),
		subscores("b", 5, 4, 3, 2, 1),
	}, contracts.DefaultWeights())
	assert.False(t, set.Records[0].IsOutlier)
	assert.True(t, set.Records[1].IsOutlier)
}

func TestScoreSet_StampAndRanked(t *testing.T) {
	s := NewScorer(NoOutliers{}, nil, logger.NewNop())
	set := s.Score([]contracts.AreaSubscores{
		subscores("low", 10, 10, 10, 10, 10),
		subscores("high", 90, 90, 90, 90, 90),
		subscores("mid-b", 50, 50, 50, 50, 50),
		subscores("mid-a", 50, 50, 50, 50, 50),
	}, contracts.DefaultWeights())

	at := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)
	set.Stamp("run-1", at)
	assert.Equal(t, "run-1", set.RunID)
	for _, r := range set.Records {
		assert.Equal(t, "run-1", r.RunID)
		assert.Equal(t, at, r.ScoredAt)
	}

	ranked := set.Ranked()
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.AreaID
	}
	assert.Equal(t, []string{"high", "mid-a", "mid-b", "low"}, ids)
	assert.Equal(t, "low", set.Records[0].AreaID, "ranking does not reorder the set")
}

func TestSummarize(t *testing.T) {
	set := &contracts.ScoreSet{
		Weights: contracts.DefaultWeights(),
		Records: []contracts.ScoreRecord{
			{AreaID: "a", Total: 40, Quantile: 1},
			{AreaID: "b", Total: 50, Quantile: 3, IsOutlier: true},
			{AreaID: "c", Total: 60, Quantile: 5},
		},
	}

	s := Summarize(set)
	assert.Equal(t, 3, s.AreasScored)
	assert.InDelta(t, 50.0, s.Total.Mean, 1e-9)
	assert.InDelta(t, 10.0, s.Total.Std, 1e-9)
	assert.Equal(t, 40.0, s.Total.Min)
	assert.Equal(t, 60.0, s.Total.Max)
	assert.Equal(t, map[int]int{1: 1, 3: 1, 5: 1}, s.QuantileDistribution)
	assert.Equal(t, 1, s.OutlierCount)
	assert.Equal(t, contracts.AllSubscores, s.Components)

	single := Summarize(&contracts.ScoreSet{Records: []contracts.ScoreRecord{{Total: 42}}})
	assert.Equal(t, 0.0, single.Total.Std)

	assert.Equal(t, 0, Summarize(nil).AreasScored)
}
