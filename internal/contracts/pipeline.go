package contracts

// Pipeline stage definitions (SSOT)
// Every log line, metric label and stage result uses these constants.
//
// Flow:
//   LOAD → SERIES → FORECAST → SUBSCORES → COMPOSITE → PERSIST → PUBLISH → EXPORT

// Stage represents a pipeline stage
type Stage string

const (
	// StageLoad reads the Feature Set and the observation tables
	// 위치: internal/dataset/
	StageLoad Stage = "LOAD"

	// StageSeries builds monthly series per group key
	// 위치: internal/timeseries/
	StageSeries Stage = "SERIES"

	// StageForecast projects every series over the horizon
	// 위치: internal/forecast/
	StageForecast Stage = "FORECAST"

	// StageSubscores computes the five dimension scores
	// 위치: internal/signals/
	StageSubscores Stage = "SUBSCORES"

	// StageComposite weights, buckets and flags outliers
	// 위치: internal/scoring/
	StageComposite Stage = "COMPOSITE"

	// StagePersist replaces the stored score and forecast sets
	StagePersist Stage = "PERSIST"

	// StagePublish emits score events
	// 위치: internal/publish/
	StagePublish Stage = "PUBLISH"

	// StageExport writes the JSON artifacts
	StageExport Stage = "EXPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoad:
		return "load feature set and observations"
	case StageSeries:
		return "build monthly series"
	case StageForecast:
		return "forecast series"
	case StageSubscores:
		return "calculate subscores"
	case StageComposite:
		return "composite score, quantiles, outliers"
	case StagePersist:
		return "persist score and forecast sets"
	case StagePublish:
		return "publish score events"
	case StageExport:
		return "export artifacts"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageLoad,
		StageSeries,
		StageForecast,
		StageSubscores,
		StageComposite,
		StagePersist,
		StagePublish,
		StageExport,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult represents the result of one stage execution
type StageResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	Skipped     bool   `json:"skipped,omitempty"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
