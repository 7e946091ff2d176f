package contracts

import "context"

// FeatureSource loads the per-area Feature Set
// ⭐ SSOT: 입력 데이터 경계 인터페이스
type FeatureSource interface {
	LoadFeatures(ctx context.Context) (*FeatureSet, error)
}

// ObservationTable names one raw observation input
type ObservationTable string

const (
	TableRental        ObservationTable = "rental"         // district, bedroom_type, average_rent, vacancy_rate
	TableHousingStarts ObservationTable = "housing_starts" // region, starts
)

// ObservationSource loads raw observations for one value column of a table
type ObservationSource interface {
	LoadObservations(ctx context.Context, table ObservationTable, valueColumn string, dimensions []string) ([]Observation, error)
}

// ScoreStore persists score sets (full replace per run)
type ScoreStore interface {
	SaveScoreSet(ctx context.Context, set *ScoreSet) error
	LoadLatest(ctx context.Context) (*ScoreSet, error)
}

// ForecastStore persists forecast sets (full replace per run)
type ForecastStore interface {
	SaveForecasts(ctx context.Context, runID string, set *ForecastSet) error
	LoadLatest(ctx context.Context) (*ForecastSet, error)
}

// ScorePublisher emits score records to downstream consumers
type ScorePublisher interface {
	PublishScores(ctx context.Context, set *ScoreSet) error
	Close() error
}
