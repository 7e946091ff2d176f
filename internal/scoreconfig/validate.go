package scoreconfig

import (
	"fmt"
	"math"

	"github.com/wonny/areascore/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 가중치는 여기서 거부하지 않음: 점수 산출 시 재정규화/기본값 대체
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Forecast ===
	if cfg.Forecast.HorizonMonths < 1 || cfg.Forecast.HorizonMonths > 120 {
		return ValidationError{"forecast.horizon_months", "must be in [1, 120]"}
	}

	// === Outliers ===
	if cfg.Outliers.Enabled {
		if cfg.Outliers.Trees < 1 {
			return ValidationError{"outliers.trees", "must be > 0"}
		}
		if cfg.Outliers.SampleSize < 2 {
			return ValidationError{"outliers.sample_size", "must be >= 2"}
		}
		if cfg.Outliers.Contamination <= 0 || cfg.Outliers.Contamination > 0.5 {
			return ValidationError{"outliers.contamination", "must be in (0, 0.5]"}
		}
	}
	for i, name := range cfg.Outliers.Columns {
		if _, ok := contracts.ParseSubscore(name); !ok {
			return ValidationError{
				Field:   fmt.Sprintf("outliers.columns[%d]", i),
				Message: fmt.Sprintf("unknown subscore %q", name),
			}
		}
	}

	// === City ===
	if c := cfg.City.Center; c != nil {
		if c.Lat < -90 || c.Lat > 90 {
			return ValidationError{"city.center.lat", "must be in [-90, 90]"}
		}
		if c.Lon < -180 || c.Lon > 180 {
			return ValidationError{"city.center.lon", "must be in [-180, 180]"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 가중치 합 ≠ 1 → 재정규화
	sum := cfg.Weights.Sum()
	if sum > 0 && math.Abs(sum-1) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_RENORMALIZED",
			Message: fmt.Sprintf("weights sum to %.4f and will be divided by their sum", sum),
		})
	}

	// 0 이하 합 → 기본값 대체
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_DEFAULTED",
			Message: "weights sum to zero or less; default weights will be used",
		})
	} else {
		// 음수 가중치 → 해당 차원이 총점을 깎음
		for _, w := range cfg.Weights.Values() {
			if w < 0 {
				warnings = append(warnings, Warning{
					Code:    "WEIGHTS_NEGATIVE",
					Message: "a negative weight lowers the total for high subscores in that dimension",
				})
				break
			}
		}
	}

	// 탐지 컬럼 부족 → 이상치 없음
	if cfg.Outliers.Enabled && len(cfg.Outliers.Columns) == 1 {
		warnings = append(warnings, Warning{
			Code:    "OUTLIERS_SINGLE_COLUMN",
			Message: "outlier detection needs at least 2 columns; no area will be flagged",
		})
	}

	// 중심 좌표 없음 → 중심거리 대체 불가
	if cfg.City.Center == nil {
		warnings = append(warnings, Warning{
			Code:    "NO_CITY_CENTER",
			Message: "city.center unset: areas without accessibility or distance columns score neutral",
		})
	}

	return warnings
}
