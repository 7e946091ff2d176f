package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/areascore/internal/api/handlers"
	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/pkg/logger"
)

type memoryRun struct {
	scores    *contracts.ScoreSet
	forecasts *contracts.ForecastSet
}

func (m memoryRun) LatestScores() *contracts.ScoreSet       { return m.scores }
func (m memoryRun) LatestForecasts() *contracts.ForecastSet { return m.forecasts }

type storedScores struct {
	set *contracts.ScoreSet
	err error
}

func (s storedScores) SaveScoreSet(context.Context, *contracts.ScoreSet) error { return nil }
func (s storedScores) LoadLatest(context.Context) (*contracts.ScoreSet, error) {
	return s.set, s.err
}

func testScores() *contracts.ScoreSet {
	set := &contracts.ScoreSet{
		Weights: contracts.DefaultWeights(),
		Records: []contracts.ScoreRecord{
			{AreaID: "verdun", AreaName: "Verdun", Total: 61.2, Quantile: 4},
			{AreaID: "plateau", AreaName: "Plateau", Total: 72.5, Quantile: 5},
			{AreaID: "lachine", AreaName: "Lachine", Total: 40.1, Quantile: 1, IsOutlier: true},
		},
	}
	set.Stamp("run-1", time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC))
	return set
}

func testForecasts() *contracts.ForecastSet {
	set := contracts.NewForecastSet(time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC), 12)
	set.Put(contracts.ForecastResult{
		Key:        contracts.ForecastKey{Area: "verdun", Segment: "1 Bedroom", Metric: contracts.MetricAverageRent},
		Scope:      "Verdun",
		Points:     []contracts.ForecastPoint{{Period: "2026-11", YHat: 1200, Lower: 1150, Upper: 1250}},
		Confidence: 0.8,
		ModelType:  contracts.ModelLinearTrend,
	})
	set.Put(contracts.ForecastResult{
		Key:       contracts.ForecastKey{Area: "montreal", Metric: contracts.MetricHousingStarts},
		Scope:     "Montreal",
		Points:    []contracts.ForecastPoint{},
		ModelType: contracts.ModelLinearTrend,
	})
	return set
}

func newTestRouter(run handlers.LatestRun, store contracts.ScoreStore) http.Handler {
	source := handlers.NewResultSource(run, store, nil)
	return NewRouter(handlers.NewScoreHandler(source, logger.NewNop()), true, logger.NewNop())
}

func get(t *testing.T, h http.Handler, path string, v interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if v != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec.Code
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(nil, nil)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, http.StatusOK, get(t, h, "/metrics", nil))
}

func TestNewRouter_MetricsOnly(t *testing.T) {
	h := NewRouter(nil, true, logger.NewNop())
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", nil))
	assert.Equal(t, http.StatusOK, get(t, h, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/scores", nil))

	noMetrics := NewRouter(nil, false, logger.NewNop())
	assert.Equal(t, http.StatusNotFound, get(t, noMetrics, "/metrics", nil))
}

func TestListScores_Ranked(t *testing.T) {
	h := newTestRouter(memoryRun{scores: testScores()}, nil)

	var resp handlers.ScoresResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores", &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "plateau", resp.Items[0].AreaID)
	assert.Equal(t, "lachine", resp.Items[2].AreaID)
}

func TestListScores_Filters(t *testing.T) {
	h := newTestRouter(memoryRun{scores: testScores()}, nil)

	var resp handlers.ScoresResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores?outliers=exclude&limit=1", &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "plateau", resp.Items[0].AreaID)

	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores?quantile=4", &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "verdun", resp.Items[0].AreaID)

	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores?outliers=only", &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "lachine", resp.Items[0].AreaID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/scores?quantile=9", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/scores?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/scores?outliers=maybe", nil))
}

func TestGetArea(t *testing.T) {
	h := newTestRouter(memoryRun{scores: testScores()}, nil)

	var resp handlers.AreaScoreResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores/verdun", &resp))
	assert.Equal(t, "Verdun", resp.AreaName)
	assert.Equal(t, 2, resp.Rank)
	assert.Equal(t, 3, resp.Areas)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/scores/nowhere", nil))
}

func TestScores_FallBackToStore(t *testing.T) {
	h := newTestRouter(memoryRun{}, storedScores{set: testScores()})
	var resp handlers.ScoresResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/scores", &resp))
	assert.Equal(t, 3, resp.Count)

	empty := newTestRouter(memoryRun{}, storedScores{err: scoring.ErrNoScores})
	assert.Equal(t, http.StatusNotFound, get(t, empty, "/api/v1/scores", nil))

	broken := newTestRouter(nil, storedScores{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusInternalServerError, get(t, broken, "/api/v1/scores", nil))

	none := newTestRouter(nil, nil)
	assert.Equal(t, http.StatusNotFound, get(t, none, "/api/v1/scores", nil))
}

func TestListForecasts(t *testing.T) {
	h := newTestRouter(memoryRun{forecasts: testForecasts()}, nil)

	var resp struct {
		Count int                     `json:"count"`
		Items []handlers.ForecastItem `json:"items"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/forecasts", &resp))
	assert.Equal(t, 2, resp.Count)

	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/forecasts?metric=average_rent&area=verdun", &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Verdun_1_Bedroom", resp.Items[0].ID)
	assert.Equal(t, 1200.0, resp.Items[0].Points[0].YHat)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/forecasts?metric=price", nil))
}

func TestGetSummary(t *testing.T) {
	h := newTestRouter(memoryRun{scores: testScores(), forecasts: testForecasts()}, nil)

	var resp handlers.SummaryResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/summary", &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.NotNil(t, resp.Scoring)
	assert.Equal(t, 3, resp.Scoring.AreasScored)
	assert.Equal(t, 1, resp.Scoring.OutlierCount)
	require.NotNil(t, resp.Forecast)
	assert.Equal(t, 1, resp.Forecast.EmptyForecasts)

	assert.Equal(t, http.StatusNotFound, get(t, newTestRouter(nil, nil), "/api/v1/summary", nil))
}
