package dataset

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/observability"
	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/httputil"
	"github.com/wonny/areascore/pkg/logger"
)

// FileSource loads the Feature Set and observation tables from local files
// or http(s) URLs
// ⭐ SSOT: 파일/URL 입력 로딩은 여기서만
type FileSource struct {
	featuresPath string
	tables       map[contracts.ObservationTable]string
	client       *httputil.Client
	metrics      *observability.Metrics
	logger       *logger.Logger
}

// NewFileSource creates a source over the configured paths.
// client may be nil when every path is local.
func NewFileSource(cfg config.DataConfig, client *httputil.Client, log *logger.Logger) *FileSource {
	return &FileSource{
		featuresPath: cfg.FeaturesPath,
		tables: map[contracts.ObservationTable]string{
			contracts.TableRental:        cfg.RentalPath,
			contracts.TableHousingStarts: cfg.StartsPath,
		},
		client: client,
		logger: log,
	}
}

// WithMetrics counts dropped observation rows per table
func (s *FileSource) WithMetrics(m *observability.Metrics) *FileSource {
	s.metrics = m
	return s
}

// LoadFeatures reads and maps the feature table
func (s *FileSource) LoadFeatures(ctx context.Context) (*contracts.FeatureSet, error) {
	if s.featuresPath == "" {
		return nil, fmt.Errorf("features path not configured")
	}

	t, err := s.readTable(ctx, s.featuresPath)
	if err != nil {
		return nil, err
	}

	fs, stats, err := ToFeatureSet(t)
	if err != nil {
		return nil, fmt.Errorf("features %s: %w", s.featuresPath, err)
	}

	columns := make(map[string]interface{}, len(stats.Columns))
	for name, col := range stats.Columns {
		columns[string(name)] = col
	}
	s.logger.WithFields(map[string]interface{}{
		"path":       s.featuresPath,
		"rows":       stats.Rows,
		"areas":      stats.Areas,
		"duplicates": stats.Duplicates,
		"skipped":    stats.Skipped,
		"columns":    columns,
	}).Info("Loaded feature set")

	return fs, nil
}

// LoadObservations reads one value column of a table. An unconfigured
// table returns no observations.
func (s *FileSource) LoadObservations(ctx context.Context, table contracts.ObservationTable, valueColumn string, dimensions []string) ([]contracts.Observation, error) {
	p := s.tables[table]
	if p == "" {
		s.logger.WithField("table", string(table)).Debug("Observation table not configured, skipping")
		return nil, nil
	}

	t, err := s.readTable(ctx, p)
	if err != nil {
		return nil, err
	}

	obs, stats, err := ToObservations(t, valueColumn, dimensions)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", table, p, err)
	}

	if s.metrics != nil {
		s.metrics.InputRowsSkipped.WithLabelValues(string(table)).Add(float64(stats.BadDate + stats.BadValue))
	}

	log := s.logger.WithFields(map[string]interface{}{
		"table":     string(table),
		"value":     valueColumn,
		"rows":      stats.Rows,
		"kept":      stats.Kept,
		"bad_date":  stats.BadDate,
		"bad_value": stats.BadValue,
	})
	if stats.ValueColumn == "" {
		log.Warn("Value column not found, treating as absent")
	} else {
		log.Info("Loaded observations")
	}

	return obs, nil
}

// readTable fetches and parses one input
func (s *FileSource) readTable(ctx context.Context, p string) (*Table, error) {
	data, err := s.read(ctx, p)
	if err != nil {
		return nil, err
	}
	return ParseTable(p, data)
}

func (s *FileSource) read(ctx context.Context, p string) ([]byte, error) {
	if isURL(p) {
		if s.client == nil {
			return nil, fmt.Errorf("no HTTP client for %s", p)
		}
		data, err := s.client.GetBody(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", p, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

func isURL(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
