package globe

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Recorder observes extractor outcomes and published snapshots
type Recorder interface {
	ObserveExtractor(name string, duration time.Duration, err error)
	RecordSnapshot(activeWorkers int64, tasksPerSecond float64, cities, countries int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveExtractor(string, time.Duration, error) {}
func (nopRecorder) RecordSnapshot(int64, float64, int, int) {}

// Aggregator builds AggregateResponse snapshots
type Aggregator struct {
	extractor *Extractor
	recorder  Recorder
	logger    *zap.Logger
}

// NewAggregator creates a new aggregator. rec may be nil.
func NewAggregator(extractor *Extractor, rec Recorder, logger *zap.Logger) *Aggregator {
	if rec == nil {
		rec = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		extractor: extractor,
		recorder:  rec,
		logger:    logger,
	}
}

// Snapshot runs the extractors one after another and assembles the response.
// A failed extractor contributes its default; Snapshot itself never fails.
func (a *Aggregator) Snapshot(ctx context.Context) AggregateResponse {
	start := time.Now()
	cities := resolve(a, ExtractorLiveCities, start, a.extractor.LiveCities(ctx), []CityMetric{})
	if cities == nil {
		cities = []CityMetric{}
	}

	start = time.Now()
	total := resolve(a, ExtractorTotalActive, start, a.extractor.TotalActive(ctx), 0)

	start = time.Now()
	tps := resolve(a, ExtractorTasksPerSecond, start, a.extractor.TasksPerSecond(ctx), 0)

	resp := AggregateResponse{
		Cities:         cities,
		TotalActive:    total,
		TotalCities:    len(cities),
		TotalCountries: countDistinctCountries(cities),
		TasksPerSecond: tps,
	}

	a.recorder.RecordSnapshot(resp.TotalActive, resp.TasksPerSecond, resp.TotalCities, resp.TotalCountries)

	return resp
}

func resolve[T any](a *Aggregator, name string, start time.Time, r Result[T], def T) T {
	err := r.Err()
	a.recorder.ObserveExtractor(name, time.Since(start), err)

	if err != nil {
		a.logger.Warn("extractor failed, using default",
			zap.String("extractor", name),
			zap.Error(err))
	}

	return r.OrDefault(def)
}

func countDistinctCountries(cities []CityMetric) int {
	seen := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		seen[c.Country] = struct{}{}
	}
	return len(seen)
}
