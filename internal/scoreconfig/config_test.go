package scoreconfig

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/internal/signals"
)

func TestLoad(t *testing.T) {
	path := "../../config/scoring/montreal.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.ConfigID != "montreal_v1" {
		t.Errorf("expected config_id=montreal_v1, got %s", cfg.Meta.ConfigID)
	}
	if cfg.City.Center == nil || cfg.City.StartsRegion != "montreal_island" {
		t.Errorf("expected city centre and starts region, got %+v", cfg.City)
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	t.Logf("config hash: %s", hash)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
meta:
  config_id: test
weights:
  growth: 1
  supply: 1
  tension: 1
  accessibility: 1
  returns: 1
outliers:
  enabled: false
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Forecast.HorizonMonths != 12 {
		t.Errorf("expected default horizon 12, got %d", cfg.Forecast.HorizonMonths)
	}
	if cfg.Weights.Sum() != 5 {
		t.Errorf("weights must be kept as written, got sum %.2f", cfg.Weights.Sum())
	}
	if _, ok := cfg.Detector().(scoring.NoOutliers); !ok {
		t.Errorf("disabled outliers must use NoOutliers, got %T", cfg.Detector())
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("meta:\n  config_id: x\nweigths:\n  growth: 1\n"))
	if err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.ConfigID = "" }, "meta.config_id"},
		{"zero horizon", func(c *Config) { c.Forecast.HorizonMonths = 0 }, "forecast.horizon_months"},
		{"bad contamination", func(c *Config) { c.Outliers.Contamination = 0.7 }, "outliers.contamination"},
		{"no trees", func(c *Config) { c.Outliers.Trees = 0 }, "outliers.trees"},
		{"unknown column", func(c *Config) { c.Outliers.Columns = []string{"growth", "vibes"} }, "outliers.columns[1]"},
		{"bad latitude", func(c *Config) { c.City.Center = &signals.GeoPoint{Lat: 91} }, "city.center.lat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var verr ValidationError
			err := Validate(cfg)
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}

	if err := Validate(Default()); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Weights = contracts.Weights{Growth: 2, Supply: -1}
	cfg.Outliers.Columns = []string{"growth"}

	codes := make(map[string]bool)
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}

	for _, want := range []string{"WEIGHTS_NEGATIVE", "OUTLIERS_SINGLE_COLUMN", "NO_CITY_CENTER"} {
		if !codes[want] {
			t.Errorf("expected warning %s, got %v", want, codes)
		}
	}
	if codes["WEIGHTS_DEFAULTED"] {
		t.Errorf("positive sum must not fall back to defaults: %v", codes)
	}

	cfg.Weights = contracts.Weights{}
	codes = make(map[string]bool)
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}
	if !codes["WEIGHTS_DEFAULTED"] {
		t.Errorf("expected WEIGHTS_DEFAULTED for zero weights, got %v", codes)
	}
}

func TestSignalParamsAndColumns(t *testing.T) {
	cfg := Default()
	if cfg.SignalParams().CityCenter.IsPresent() {
		t.Error("default config has no city centre")
	}
	if len(cfg.DetectorColumns()) != len(contracts.AllSubscores) {
		t.Errorf("empty columns must mean all subscores, got %v", cfg.DetectorColumns())
	}

	cfg.Outliers.Columns = []string{"growth", "returns"}
	cols := cfg.DetectorColumns()
	if len(cols) != 2 || cols[0] != contracts.SubscoreGrowth || cols[1] != contracts.SubscoreReturns {
		t.Errorf("unexpected columns %v", cols)
	}

	forest, ok := cfg.Detector().(scoring.IsolationForest)
	if !ok {
		t.Fatalf("expected IsolationForest, got %T", cfg.Detector())
	}
	if forest.Seed != 42 {
		t.Errorf("expected seed 42, got %d", forest.Seed)
	}
}

func TestRunSnapshot(t *testing.T) {
	cfg := Default()
	at := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)

	snapshot, err := NewRunSnapshot(cfg, []byte("test yaml content"), "run-1", at)
	if err != nil {
		t.Fatalf("NewRunSnapshot failed: %v", err)
	}

	if snapshot.ConfigID != "default" || snapshot.RunID != "run-1" || !snapshot.CreatedAt.Equal(at) {
		t.Errorf("unexpected snapshot %+v", snapshot)
	}
	if len(snapshot.ConfigHash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(snapshot.ConfigHash))
	}
}
