package globe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wai-network/globe/pkg/adapters/grafana"
)

type reply struct {
	resp *grafana.Response
	err  error
}

// fakeQuerier answers by SQL statement and records the call order.
type fakeQuerier struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{replies: make(map[string]reply)}
}

func (f *fakeQuerier) on(sql string, resp *grafana.Response, err error) *fakeQuerier {
	f.replies[sql] = reply{resp: resp, err: err}
	return f
}

func (f *fakeQuerier) Query(ctx context.Context, sql string) (*grafana.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, sql)
	r, ok := f.replies[sql]
	if !ok {
		return nil, fmt.Errorf("unexpected query")
	}
	return r.resp, r.err
}

func frame(columns ...[]any) *grafana.Response {
	return &grafana.Response{Results: map[string]*grafana.QueryResult{
		"A": {Frames: []*grafana.Frame{{Data: &grafana.FrameData{Values: columns}}}},
	}}
}

func TestExtractor_LiveCities_Example(t *testing.T) {
	q := newFakeQuerier().on(LiveCitiesSQL, frame(
		[]any{"NYC", "LA"},
		[]any{"US", "US"},
		[]any{json.Number("5"), json.Number("3")},
	), nil)

	cities, err := NewExtractor(q).LiveCities(context.Background()).Value()
	require.NoError(t, err)
	assert.Equal(t, []CityMetric{
		{City: "NYC", Country: "US", Workers: 5},
		{City: "LA", Country: "US", Workers: 3},
	}, cities)
}

func TestExtractor_LiveCities_PositionalRows(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			cityCol := make([]any, n)
			countryCol := make([]any, n)
			workerCol := make([]any, n)
			for i := 0; i < n; i++ {
				cityCol[i] = fmt.Sprintf("city-%d", i)
				countryCol[i] = fmt.Sprintf("country-%d", i%2)
				workerCol[i] = json.Number(fmt.Sprint(100 - i))
			}

			q := newFakeQuerier().on(LiveCitiesSQL, frame(cityCol, countryCol, workerCol), nil)
			cities, err := NewExtractor(q).LiveCities(context.Background()).Value()
			require.NoError(t, err)
			require.Len(t, cities, n)
			require.NotNil(t, cities)

			for i, c := range cities {
				assert.Equal(t, fmt.Sprintf("city-%d", i), c.City)
				assert.Equal(t, fmt.Sprintf("country-%d", i%2), c.Country)
				assert.Equal(t, int64(100-i), c.Workers)
			}
		})
	}
}

func TestExtractor_LiveCities_Failures(t *testing.T) {
	testCases := []struct {
		name string
		resp *grafana.Response
		err  error
	}{
		{"transport error", nil, context.DeadlineExceeded},
		{"no data", &grafana.Response{}, nil},
		{"too few columns", frame([]any{"NYC"}, []any{"US"}), nil},
		{"misaligned columns", frame([]any{"NYC", "LA"}, []any{"US"}, []any{1, 2}), nil},
		{"non-string city", frame([]any{1}, []any{"US"}, []any{1}), nil},
		{"non-numeric workers", frame([]any{"NYC"}, []any{"US"}, []any{"many"}), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := newFakeQuerier().on(LiveCitiesSQL, tc.resp, tc.err)
			res := NewExtractor(q).LiveCities(context.Background())
			assert.Error(t, res.Err())
			assert.Empty(t, res.OrDefault([]CityMetric{}))
		})
	}
}

func TestExtractor_TotalActive(t *testing.T) {
	q := newFakeQuerier().on(TotalActiveSQL, frame([]any{json.Number("1234")}), nil)
	total, err := NewExtractor(q).TotalActive(context.Background()).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), total)

	q = newFakeQuerier().on(TotalActiveSQL, frame([]any{}), nil)
	res := NewExtractor(q).TotalActive(context.Background())
	assert.Error(t, res.Err(), "empty column has no scalar")
	assert.Equal(t, int64(0), res.OrDefault(0))
}

func TestExtractor_TasksPerSecond(t *testing.T) {
	testCases := []struct {
		raw  any
		want float64
	}{
		{json.Number("0.2333333333"), 0.23},
		{json.Number("2.345678"), 2.35},
		{json.Number("12"), 12},
		{json.Number("0"), 0},
		{1.0 / 3.0, 0.33},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.raw), func(t *testing.T) {
			q := newFakeQuerier().on(TasksPerSecondSQL, frame([]any{tc.raw}), nil)
			tps, err := NewExtractor(q).TasksPerSecond(context.Background()).Value()
			require.NoError(t, err)
			assert.Equal(t, tc.want, tps)
		})
	}
}

func TestRoundTo2_NeverMoreThanTwoDecimals(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := float64(i) / 30.0
		rounded := RoundTo2(v)
		encoded, err := json.Marshal(rounded)
		require.NoError(t, err)

		assert.InDelta(t, v, rounded, 0.005+1e-9)
		assert.LessOrEqual(t, decimals(string(encoded)), 2, "encoded %s", encoded)
	}
}

func decimals(s string) int {
	for i, r := range s {
		if r == '.' {
			return len(s) - i - 1
		}
	}
	return 0
}

type recorded struct {
	name string
	err  error
}

type fakeRecorder struct {
	observed  []recorded
	snapshots int
	active    int64
	tps       float64
	cities    int
	countries int
}

func (r *fakeRecorder) ObserveExtractor(name string, _ time.Duration, err error) {
	r.observed = append(r.observed, recorded{name: name, err: err})
}

func (r *fakeRecorder) RecordSnapshot(active int64, tps float64, cities, countries int) {
	r.snapshots++
	r.active, r.tps, r.cities, r.countries = active, tps, cities, countries
}

func TestAggregator_Snapshot(t *testing.T) {
	q := newFakeQuerier().
		on(LiveCitiesSQL, frame(
			[]any{"NYC", "LA", "Paris"},
			[]any{"US", "US", "FR"},
			[]any{json.Number("5"), json.Number("3"), json.Number("2")},
		), nil).
		on(TotalActiveSQL, frame([]any{json.Number("12")}), nil).
		on(TasksPerSecondSQL, frame([]any{json.Number("4.56789")}), nil)

	rec := &fakeRecorder{}
	agg := NewAggregator(NewExtractor(q), rec, zap.NewNop())

	snap := agg.Snapshot(context.Background())
	assert.Len(t, snap.Cities, 3)
	assert.Equal(t, int64(12), snap.TotalActive)
	assert.Equal(t, 3, snap.TotalCities)
	assert.Equal(t, 2, snap.TotalCountries)
	assert.Equal(t, 4.57, snap.TasksPerSecond)

	// Sequential, in a fixed order, one attempt each.
	assert.Equal(t, []string{LiveCitiesSQL, TotalActiveSQL, TasksPerSecondSQL}, q.calls)

	require.Len(t, rec.observed, 3)
	for _, o := range rec.observed {
		assert.NoError(t, o.err, o.name)
	}
	assert.Equal(t, 1, rec.snapshots)
	assert.Equal(t, int64(12), rec.active)
	assert.Equal(t, 2, rec.countries)
}

func TestAggregator_Snapshot_CountriesDerivedFromCities(t *testing.T) {
	q := newFakeQuerier().
		on(LiveCitiesSQL, frame(
			[]any{"NYC", "LA"},
			[]any{"US", "US"},
			[]any{5, 3},
		), nil).
		on(TotalActiveSQL, frame([]any{500}), nil).
		on(TasksPerSecondSQL, frame([]any{1.0}), nil)

	snap := NewAggregator(NewExtractor(q), nil, nil).Snapshot(context.Background())
	assert.Equal(t, 2, snap.TotalCities)
	assert.Equal(t, 1, snap.TotalCountries)
	assert.Equal(t, int64(500), snap.TotalActive)
}

func TestAggregator_Snapshot_AllFailed(t *testing.T) {
	timeout := fmt.Errorf("failed to execute query: %w", context.DeadlineExceeded)
	q := newFakeQuerier().
		on(LiveCitiesSQL, nil, timeout).
		on(TotalActiveSQL, nil, errors.New("connection refused")).
		on(TasksPerSecondSQL, &grafana.Response{}, nil)

	core, logs := observer.New(zapcore.WarnLevel)
	rec := &fakeRecorder{}
	agg := NewAggregator(NewExtractor(q), rec, zap.New(core))

	snap := agg.Snapshot(context.Background())
	assert.NotNil(t, snap.Cities)
	assert.Empty(t, snap.Cities)
	assert.Equal(t, int64(0), snap.TotalActive)
	assert.Equal(t, 0, snap.TotalCities)
	assert.Equal(t, 0, snap.TotalCountries)
	assert.Equal(t, float64(0), snap.TasksPerSecond)

	encoded, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cities":[],"total_active":0,"total_cities":0,"total_countries":0,"tasks_per_second":0}`, string(encoded))

	entries := logs.All()
	require.Len(t, entries, 3)
	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, e.ContextMap()["extractor"].(string))
	}
	assert.Equal(t, []string{ExtractorLiveCities, ExtractorTotalActive, ExtractorTasksPerSecond}, tags)

	require.Len(t, rec.observed, 3)
	assert.ErrorIs(t, rec.observed[0].err, context.DeadlineExceeded)
	assert.ErrorIs(t, rec.observed[2].err, grafana.ErrNoData)
}

func TestAggregator_Snapshot_PartialFailure(t *testing.T) {
	q := newFakeQuerier().
		on(LiveCitiesSQL, nil, context.DeadlineExceeded).
		on(TotalActiveSQL, frame([]any{json.Number("7")}), nil).
		on(TasksPerSecondSQL, frame([]any{json.Number("0.5")}), nil)

	snap := NewAggregator(NewExtractor(q), nil, nil).Snapshot(context.Background())
	assert.Empty(t, snap.Cities)
	assert.Equal(t, 0, snap.TotalCities)
	assert.Equal(t, 0, snap.TotalCountries)
	assert.Equal(t, int64(7), snap.TotalActive)
	assert.Equal(t, 0.5, snap.TasksPerSecond)
}

func TestResult(t *testing.T) {
	ok := Ok(3)
	v, err := ok.Value()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, ok.OrDefault(9))

	failed := Fail[int](errors.New("boom"))
	assert.EqualError(t, failed.Err(), "boom")
	assert.Equal(t, 9, failed.OrDefault(9))
}
