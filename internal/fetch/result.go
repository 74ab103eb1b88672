package fetch

// Status distinguishes the outcomes callers must treat differently.
type Status int

const (
	StatusOK Status = iota
	StatusNoData
	StatusFailed
	StatusRateLimited
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no_data"
	case StatusFailed:
		return "failed"
	case StatusRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Result carries a value together with how it was obtained.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// OK reports whether the result holds usable data.
func (r Result[T]) OK() bool { return r.Status == StatusOK }

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// NoData is a successful call that returned nothing.
func NoData[T any]() Result[T] {
	return Result[T]{Status: StatusNoData}
}

// Failed wraps err, classifying rate-limit failures separately.
func Failed[T any](err error) Result[T] {
	if IsRateLimited(err) {
		return Result[T]{Status: StatusRateLimited, Err: err}
	}
	return Result[T]{Status: StatusFailed, Err: err}
}

// From builds a Result from a (value, error) pair. empty reports whether
// the value carries no data.
func From[T any](v T, empty bool, err error) Result[T] {
	switch {
	case err != nil:
		return Failed[T](err)
	case empty:
		return NoData[T]()
	default:
		return Ok(v)
	}
}
