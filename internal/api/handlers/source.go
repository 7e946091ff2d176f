package handlers

import (
	"context"
	"errors"

	"github.com/wonny/areascore/internal/contracts"
)

// ErrNoResults is returned when no run has produced the requested set
var ErrNoResults = errors.New("no results available")

// LatestRun exposes the most recent in-memory run
type LatestRun interface {
	LatestScores() *contracts.ScoreSet
	LatestForecasts() *contracts.ForecastSet
}

// ResultSource resolves the sets served by the read API.
// An in-memory run wins over storage; either may be nil.
// ⭐ SSOT: API가 어떤 결과를 보여줄지는 여기서만 결정
type ResultSource struct {
	run       LatestRun
	scores    contracts.ScoreStore
	forecasts contracts.ForecastStore
}

// NewResultSource creates a source
func NewResultSource(run LatestRun, scores contracts.ScoreStore, forecasts contracts.ForecastStore) *ResultSource {
	return &ResultSource{run: run, scores: scores, forecasts: forecasts}
}

// Scores returns the latest score set
func (s *ResultSource) Scores(ctx context.Context) (*contracts.ScoreSet, error) {
	if s.run != nil {
		if set := s.run.LatestScores(); set != nil {
			return set, nil
		}
	}
	if s.scores == nil {
		return nil, ErrNoResults
	}
	set, err := s.scores.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrNoResults
	}
	return set, nil
}

// Forecasts returns the latest forecast set
func (s *ResultSource) Forecasts(ctx context.Context) (*contracts.ForecastSet, error) {
	if s.run != nil {
		if set := s.run.LatestForecasts(); set != nil {
			return set, nil
		}
	}
	if s.forecasts == nil {
		return nil, ErrNoResults
	}
	set, err := s.forecasts.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrNoResults
	}
	return set, nil
}
