package globe

import (
	"context"
	"fmt"
	"math"

	"github.com/wai-network/globe/pkg/adapters/grafana"
)

// Querier runs a raw SQL statement and returns the proxy response
type Querier interface {
	Query(ctx context.Context, sql string) (*grafana.Response, error)
}

// Extractor runs the fixed metric queries
type Extractor struct {
	querier Querier
}

// NewExtractor creates a new extractor
func NewExtractor(querier Querier) *Extractor {
	return &Extractor{querier: querier}
}

// LiveCities returns active worker counts per city, busiest first
func (e *Extractor) LiveCities(ctx context.Context) Result[[]CityMetric] {
	table, err := e.table(ctx, LiveCitiesSQL)
	if err != nil {
		return Fail[[]CityMetric](err)
	}

	cities, err := citiesFromTable(table)
	if err != nil {
		return Fail[[]CityMetric](err)
	}

	return Ok(cities)
}

// TotalActive returns the number of distinct active workers
func (e *Extractor) TotalActive(ctx context.Context) Result[int64] {
	table, err := e.table(ctx, TotalActiveSQL)
	if err != nil {
		return Fail[int64](err)
	}

	total, err := table.Int64(0, 0)
	if err != nil {
		return Fail[int64](fmt.Errorf("failed to read total: %w", err))
	}

	return Ok(total)
}

// TasksPerSecond returns the recent completion rate rounded to 2 decimals
func (e *Extractor) TasksPerSecond(ctx context.Context) Result[float64] {
	table, err := e.table(ctx, TasksPerSecondSQL)
	if err != nil {
		return Fail[float64](err)
	}

	tps, err := table.Float64(0, 0)
	if err != nil {
		return Fail[float64](fmt.Errorf("failed to read rate: %w", err))
	}

	return Ok(RoundTo2(tps))
}

func (e *Extractor) table(ctx context.Context, sql string) (grafana.Table, error) {
	resp, err := e.querier.Query(ctx, sql)
	if err != nil {
		return grafana.Table{}, err
	}

	return resp.Table(grafana.DefaultRefID)
}

// citiesFromTable maps rows positionally: column 0 city, 1 country, 2 workers.
func citiesFromTable(table grafana.Table) ([]CityMetric, error) {
	if table.NumColumns() < 3 {
		return nil, fmt.Errorf("expected 3 columns, got %d", table.NumColumns())
	}

	rows, err := table.NumRows()
	if err != nil {
		return nil, err
	}

	cities := make([]CityMetric, 0, rows)
	for i := 0; i < rows; i++ {
		city, err := table.String(0, i)
		if err != nil {
			return nil, fmt.Errorf("failed to read city: %w", err)
		}
		country, err := table.String(1, i)
		if err != nil {
			return nil, fmt.Errorf("failed to read country: %w", err)
		}
		workers, err := table.Int64(2, i)
		if err != nil {
			return nil, fmt.Errorf("failed to read workers: %w", err)
		}

		cities = append(cities, CityMetric{City: city, Country: country, Workers: workers})
	}

	return cities, nil
}

// RoundTo2 rounds v to 2 decimal places, halves away from zero
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
