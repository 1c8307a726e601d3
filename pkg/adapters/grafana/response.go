package grafana

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNoData is returned when a response carries no usable frame for a query.
var ErrNoData = errors.New("no data in query response")

// ErrMisaligned is returned when the columns of a frame differ in length.
var ErrMisaligned = errors.New("frame columns have different lengths")

// StatusError is returned when Grafana answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("grafana returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("grafana returned status %d: %s", e.StatusCode, e.Body)
}

// QueryError is an error reported by the datasource for a single query
type QueryError struct {
	RefID   string
	Status  int
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed (status %d): %s", e.RefID, e.Status, e.Message)
}

// Response is the body of a /api/ds/query reply.
// Every level is optional; use Table to navigate it.
type Response struct {
	Results map[string]*QueryResult `json:"results,omitempty"`
}

// QueryResult holds the frames returned for one refId
type QueryResult struct {
	Status int      `json:"status,omitempty"`
	Error  string   `json:"error,omitempty"`
	Frames []*Frame `json:"frames,omitempty"`
}

// Frame is a named set of equal-length columns
type Frame struct {
	Schema *FrameSchema `json:"schema,omitempty"`
	Data   *FrameData   `json:"data,omitempty"`
}

// FrameSchema describes the columns of a frame
type FrameSchema struct {
	Name   string  `json:"name,omitempty"`
	RefID  string  `json:"refId,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field describes a single column
type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// FrameData holds column-major values
type FrameData struct {
	Values [][]any `json:"values,omitempty"`
}

// Table returns the first frame of refID as a Table.
// It returns ErrNoData if any level down to the column values is missing or empty,
// and a *QueryError if the datasource reported an error for refID.
func (r *Response) Table(refID string) (Table, error) {
	if r == nil || r.Results == nil {
		return Table{}, ErrNoData
	}

	res, ok := r.Results[refID]
	if !ok || res == nil {
		return Table{}, ErrNoData
	}
	if res.Error != "" {
		return Table{}, &QueryError{RefID: refID, Status: res.Status, Message: res.Error}
	}
	if len(res.Frames) == 0 || res.Frames[0] == nil {
		return Table{}, ErrNoData
	}

	frame := res.Frames[0]
	if frame.Data == nil || len(frame.Data.Values) == 0 {
		return Table{}, ErrNoData
	}

	t := Table{Columns: frame.Data.Values}
	if frame.Schema != nil {
		t.Fields = frame.Schema.Fields
	}

	return t, nil
}

// Table is a positional view over frame columns.
// Rows are aligned by index across columns.
type Table struct {
	Fields  []Field
	Columns [][]any
}

// NumColumns returns the number of columns
func (t Table) NumColumns() int {
	return len(t.Columns)
}

// NumRows returns the shared column length, or ErrMisaligned if lengths differ
func (t Table) NumRows() (int, error) {
	if len(t.Columns) == 0 {
		return 0, nil
	}

	n := len(t.Columns[0])
	for i, col := range t.Columns[1:] {
		if len(col) != n {
			return 0, fmt.Errorf("%w: column 0 has %d rows, column %d has %d", ErrMisaligned, n, i+1, len(col))
		}
	}

	return n, nil
}

// Value returns the raw cell at (col, row)
func (t Table) Value(col, row int) (any, error) {
	if col < 0 || col >= len(t.Columns) {
		return nil, fmt.Errorf("column %d out of range (have %d)", col, len(t.Columns))
	}
	if row < 0 || row >= len(t.Columns[col]) {
		return nil, fmt.Errorf("row %d out of range in column %d (have %d)", row, col, len(t.Columns[col]))
	}
	return t.Columns[col][row], nil
}

// String returns the cell at (col, row) as a string
func (t Table) String(col, row int) (string, error) {
	v, err := t.Value(col, row)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("cell (%d,%d): expected string, got %T", col, row, v)
	}
	return s, nil
}

// Int64 returns the cell at (col, row) as an integer.
// Integral floats and numeric strings are accepted.
func (t Table) Int64(col, row int) (int64, error) {
	v, err := t.Value(col, row)
	if err != nil {
		return 0, err
	}

	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cell (%d,%d): %w", col, row, err)
	}
	return n, nil
}

// Float64 returns the cell at (col, row) as a float
func (t Table) Float64(col, row int) (float64, error) {
	v, err := t.Value(col, row)
	if err != nil {
		return 0, err
	}

	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("cell (%d,%d): %w", col, row, err)
	}
	return f, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		return floatToInt64(f)
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int64(f), nil
}
