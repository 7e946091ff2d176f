package contracts

import (
	"math"
	"sort"
	"time"
)

// Subscore names one investment dimension
type Subscore string

const (
	SubscoreGrowth        Subscore = "growth"
	SubscoreSupply        Subscore = "supply"
	SubscoreTension       Subscore = "tension"
	SubscoreAccessibility Subscore = "accessibility"
	SubscoreReturns       Subscore = "returns"
)

// AllSubscores lists the dimensions in canonical order
var AllSubscores = []Subscore{
	SubscoreGrowth,
	SubscoreSupply,
	SubscoreTension,
	SubscoreAccessibility,
	SubscoreReturns,
}

// ParseSubscore validates a subscore name
func ParseSubscore(s string) (Subscore, bool) {
	for _, name := range AllSubscores {
		if string(name) == s {
			return name, true
		}
	}
	return "", false
}

// SubscoreSet holds the five dimension scores of one area, each 0~100
type SubscoreSet struct {
	Growth        float64 `json:"growth"`
	Supply        float64 `json:"supply"`
	Tension       float64 `json:"tension"`
	Accessibility float64 `json:"accessibility"`
	Returns       float64 `json:"returns"`
}

// Get returns the value of one dimension
func (s SubscoreSet) Get(name Subscore) float64 {
	switch name {
	case SubscoreGrowth:
		return s.Growth
	case SubscoreSupply:
		return s.Supply
	case SubscoreTension:
		return s.Tension
	case SubscoreAccessibility:
		return s.Accessibility
	case SubscoreReturns:
		return s.Returns
	default:
		return math.NaN()
	}
}

// Values returns the dimensions in canonical order
func (s SubscoreSet) Values() []float64 {
	return []float64{s.Growth, s.Supply, s.Tension, s.Accessibility, s.Returns}
}

// AreaSubscores pairs an area with its subscores
type AreaSubscores struct {
	AreaID    string      `json:"area_id"`
	AreaName  string      `json:"area_name"`
	Subscores SubscoreSet `json:"subscores"`
}

// Weights are the composite weights per dimension
type Weights struct {
	Growth        float64 `json:"growth" yaml:"growth"`
	Supply        float64 `json:"supply" yaml:"supply"`
	Tension       float64 `json:"tension" yaml:"tension"`
	Accessibility float64 `json:"accessibility" yaml:"accessibility"`
	Returns       float64 `json:"returns" yaml:"returns"`
}

// DefaultWeights returns the standard weighting
// growth 25% + supply 20% + tension 20% + accessibility 20% + returns 15%
func DefaultWeights() Weights {
	return Weights{
		Growth:        0.25,
		Supply:        0.20,
		Tension:       0.20,
		Accessibility: 0.20,
		Returns:       0.15,
	}
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Growth + w.Supply + w.Tension + w.Accessibility + w.Returns
}

// Values returns the weights in canonical order
func (w Weights) Values() []float64 {
	return []float64{w.Growth, w.Supply, w.Tension, w.Accessibility, w.Returns}
}

// Scale divides every weight by d
func (w Weights) Scale(d float64) Weights {
	return Weights{
		Growth:        w.Growth / d,
		Supply:        w.Supply / d,
		Tension:       w.Tension / d,
		Accessibility: w.Accessibility / d,
		Returns:       w.Returns / d,
	}
}

// ScoreRecord is the final per-area output of a run
type ScoreRecord struct {
	RunID     string      `json:"run_id"`
	AreaID    string      `json:"area_id"`
	AreaName  string      `json:"area_name"`
	Subscores SubscoreSet `json:"scores"`
	Total     float64     `json:"total"`
	Quantile  int         `json:"quantile"` // 1 (lowest) ~ 5 (highest)
	IsOutlier bool        `json:"is_outlier"`
	ScoredAt  time.Time   `json:"last_updated"`
}

// ScoreSet is the complete, replace-on-write result of one run
type ScoreSet struct {
	RunID    string        `json:"run_id"`
	ScoredAt time.Time     `json:"scored_at"`
	Weights  Weights       `json:"weights_used"`
	Records  []ScoreRecord `json:"records"`
}

// Find returns the record of an area
func (s *ScoreSet) Find(areaID string) (ScoreRecord, bool) {
	if s == nil {
		return ScoreRecord{}, false
	}
	for _, r := range s.Records {
		if r.AreaID == areaID {
			return r, true
		}
	}
	return ScoreRecord{}, false
}

// Stamp sets the run identity on the set and every record
func (s *ScoreSet) Stamp(runID string, at time.Time) {
	s.RunID = runID
	s.ScoredAt = at
	for i := range s.Records {
		s.Records[i].RunID = runID
		s.Records[i].ScoredAt = at
	}
}

// Ranked returns the records by total descending, ties by area ID
func (s *ScoreSet) Ranked() []ScoreRecord {
	if s == nil {
		return nil
	}
	out := make([]ScoreRecord, len(s.Records))
	copy(out, s.Records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].AreaID < out[j].AreaID
	})
	return out
}
