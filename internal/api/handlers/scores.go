package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/scoring"
	"github.com/wonny/areascore/pkg/logger"
)

// ScoreHandler handles score and forecast read endpoints
// ⭐ SSOT: 점수 조회 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	source *ResultSource
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(source *ResultSource, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		source: source,
		logger: log,
	}
}

// ScoresResponse is the ranked score listing
type ScoresResponse struct {
	RunID    string                  `json:"run_id"`
	ScoredAt time.Time               `json:"scored_at"`
	Weights  contracts.Weights       `json:"weights_used"`
	Count    int                     `json:"count"`
	Items    []contracts.ScoreRecord `json:"items"`
}

// AreaScoreResponse is one area's record with its rank
type AreaScoreResponse struct {
	contracts.ScoreRecord
	Rank  int `json:"rank"`
	Areas int `json:"areas"`
}

// ForecastItem is one forecast with its flat export ID
type ForecastItem struct {
	ID string `json:"id"`
	contracts.ForecastResult
}

// SummaryResponse combines the scoring and forecast summaries
type SummaryResponse struct {
	RunID    string            `json:"run_id,omitempty"`
	Scoring  *scoring.Summary  `json:"scoring,omitempty"`
	Forecast *forecast.Summary `json:"forecast,omitempty"`
}

// ListScores returns the ranked scores
// GET /api/v1/scores?quantile=5&outliers=exclude|only&limit=20
func (h *ScoreHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quantile := 0
	if s := q.Get("quantile"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > scoring.QuantileBuckets {
			respondError(w, http.StatusBadRequest, "quantile must be between 1 and 5")
			return
		}
		quantile = v
	}

	outliers := q.Get("outliers")
	if outliers != "" && outliers != "exclude" && outliers != "only" {
		respondError(w, http.StatusBadRequest, "outliers must be exclude or only")
		return
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	set, ok := h.scores(w, r)
	if !ok {
		return
	}

	items := make([]contracts.ScoreRecord, 0, len(set.Records))
	for _, rec := range set.Ranked() {
		if quantile > 0 && rec.Quantile != quantile {
			continue
		}
		if outliers == "exclude" && rec.IsOutlier {
			continue
		}
		if outliers == "only" && !rec.IsOutlier {
			continue
		}
		items = append(items, rec)
		if limit > 0 && len(items) == limit {
			break
		}
	}

	respondJSON(w, http.StatusOK, ScoresResponse{
		RunID:    set.RunID,
		ScoredAt: set.ScoredAt,
		Weights:  set.Weights,
		Count:    len(items),
		Items:    items,
	})
}

// GetArea returns one area's score
// GET /api/v1/scores/{area_id}
func (h *ScoreHandler) GetArea(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["area_id"]
	if areaID == "" {
		respondError(w, http.StatusBadRequest, "area_id is required")
		return
	}

	set, ok := h.scores(w, r)
	if !ok {
		return
	}

	ranked := set.Ranked()
	for i, rec := range ranked {
		if rec.AreaID == areaID {
			respondJSON(w, http.StatusOK, AreaScoreResponse{
				ScoreRecord: rec,
				Rank:        i + 1,
				Areas:       len(ranked),
			})
			return
		}
	}
	respondError(w, http.StatusNotFound, "area not found")
}

// ListForecasts returns forecasts, optionally filtered
// GET /api/v1/forecasts?metric=average_rent&area=verdun
func (h *ScoreHandler) ListForecasts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := contracts.Metric(q.Get("metric"))
	if metric != "" && !metric.Valid() {
		respondError(w, http.StatusBadRequest, "unknown metric")
		return
	}
	area := q.Get("area")

	set, err := h.source.Forecasts(r.Context())
	if err != nil {
		h.fail(w, err, "failed to load forecasts")
		return
	}

	items := make([]ForecastItem, 0, set.Len())
	for _, res := range set.Sorted() {
		if metric != "" && res.Key.Metric != metric {
			continue
		}
		if area != "" && res.Key.Area != area {
			continue
		}
		items = append(items, ForecastItem{ID: res.ExportID(), ForecastResult: res})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": set.GeneratedAt,
		"horizon":      set.Horizon,
		"count":        len(items),
		"items":        items,
	})
}

// GetSummary returns the run summaries
// GET /api/v1/summary
func (h *ScoreHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	var resp SummaryResponse

	set, err := h.source.Scores(r.Context())
	switch {
	case err == nil:
		s := scoring.Summarize(set)
		resp.RunID = set.RunID
		resp.Scoring = &s
	case !isNotFound(err):
		h.fail(w, err, "failed to load scores")
		return
	}

	fset, err := h.source.Forecasts(r.Context())
	switch {
	case err == nil:
		s := forecast.Summarize(fset)
		resp.Forecast = &s
	case !isNotFound(err):
		h.fail(w, err, "failed to load forecasts")
		return
	}

	if resp.Scoring == nil && resp.Forecast == nil {
		respondError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ScoreHandler) scores(w http.ResponseWriter, r *http.Request) (*contracts.ScoreSet, bool) {
	set, err := h.source.Scores(r.Context())
	if err != nil {
		h.fail(w, err, "failed to load scores")
		return nil, false
	}
	return set, true
}

func (h *ScoreHandler) fail(w http.ResponseWriter, err error, msg string) {
	if isNotFound(err) {
		respondError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	h.logger.WithError(err).Error(msg)
	respondError(w, http.StatusInternalServerError, msg)
}
