package scoreconfig

import (
	"time"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/internal/signals"
)

// Config는 지역 점수 산출 전체 설정
type Config struct {
	Meta     Meta              `yaml:"meta" json:"meta"`
	Weights  contracts.Weights `yaml:"weights" json:"weights"`
	Forecast Forecast          `yaml:"forecast" json:"forecast"`
	Outliers Outliers          `yaml:"outliers" json:"outliers"`
	City     City              `yaml:"city" json:"city"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
	City     string `yaml:"city" json:"city"`
}

// Forecast 예측 설정
type Forecast struct {
	HorizonMonths int `yaml:"horizon_months" json:"horizon_months"`
}

// Outliers 이상치 탐지 설정
type Outliers struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	Columns       []string `yaml:"columns" json:"columns"` // 비어 있으면 5개 전부
	Trees         int      `yaml:"trees" json:"trees"`
	SampleSize    int      `yaml:"sample_size" json:"sample_size"`
	Contamination float64  `yaml:"contamination" json:"contamination"`
	Seed          uint64   `yaml:"seed" json:"seed"`
}

// City 도시별 상수
type City struct {
	Center       *signals.GeoPoint `yaml:"center" json:"center,omitempty"`
	StartsRegion string            `yaml:"starts_region" json:"starts_region"`
}

// Default returns the built-in configuration; YAML files override it field by field
func Default() *Config {
	forest := scoring.DefaultIsolationForest()
	return &Config{
		Meta: Meta{
			ConfigID: "default",
			Version:  "1.0.0",
		},
		Weights: contracts.DefaultWeights(),
		Forecast: Forecast{
			HorizonMonths: 12,
		},
		Outliers: Outliers{
			Enabled:       true,
			Trees:         forest.Trees,
			SampleSize:    forest.SampleSize,
			Contamination: forest.Contamination,
			Seed:          forest.Seed,
		},
	}
}

// SignalParams returns the subscore calculator constants
func (c *Config) SignalParams() signals.Params {
	p := signals.Params{
		CityCenter:   contracts.Missing[signals.GeoPoint](),
		StartsRegion: c.City.StartsRegion,
	}
	if c.City.Center != nil {
		p.CityCenter = contracts.Present(*c.City.Center)
	}
	return p
}

// Detector returns the configured outlier detector
func (c *Config) Detector() scoring.OutlierDetector {
	if !c.Outliers.Enabled {
		return scoring.NoOutliers{}
	}
	return scoring.IsolationForest{
		Trees:         c.Outliers.Trees,
		SampleSize:    c.Outliers.SampleSize,
		Contamination: c.Outliers.Contamination,
		Seed:          c.Outliers.Seed,
	}
}

// DetectorColumns returns the subscores fed to the detector.
// Unknown names are skipped; Validate reports them.
func (c *Config) DetectorColumns() []contracts.Subscore {
	if len(c.Outliers.Columns) == 0 {
		return contracts.AllSubscores
	}
	cols := make([]contracts.Subscore, 0, len(c.Outliers.Columns))
	for _, name := range c.Outliers.Columns {
		if s, ok := contracts.ParseSubscore(name); ok {
			cols = append(cols, s)
		}
	}
	return cols
}

// RunSnapshot 실행 감사용 스냅샷
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	ConfigID   string    `json:"config_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
