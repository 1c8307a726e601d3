package globe

// Result is the outcome of an extractor: a value or the error that prevented it
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful result
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail returns a failed result. err must be non-nil.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Value returns the value and the failure cause, if any
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

// Err returns the failure cause, or nil on success
func (r Result[T]) Err() error {
	return r.err
}

// OrDefault returns the value on success and def on failure
func (r Result[T]) OrDefault(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}
