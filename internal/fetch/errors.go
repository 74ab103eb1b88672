package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransient covers timeouts, connection resets and 5xx responses.
	KindTransient Kind = iota + 1
	// KindRateLimited means the source signalled its quota is exhausted.
	KindRateLimited
	// KindMalformed means the response could not be decoded.
	KindMalformed
	// KindPermanent covers client errors that will not succeed on retry.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformed:
		return "malformed"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ErrQuotaExceeded is wrapped by errors returned while the sticky quota flag is set.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Error is a classified failure from a source.
type Error struct {
	Source     string
	Kind       Kind
	StatusCode int
	Attempts   int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable returns true if the error should trigger a retry.
func (e *Error) IsRetryable() bool {
	return e.Kind == KindTransient
}

// KindOf returns the Kind of err, or 0 if err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// IsRateLimited reports whether err came from an exhausted source quota.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
