package smre

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-smre/conv"
	"github.com/cwbudde/algo-smre/fft2d"
	"github.com/cwbudde/algo-smre/qcache"
	"github.com/cwbudde/algo-smre/resolvent"
)

// Kind classifies the error surface a run can fail with, each with a
// stable string identifier so callers can map it to their own conventions.
type Kind int

const (
	// KindInvalidParameter is a caller bug: it is never retried.
	KindInvalidParameter Kind = iota
	// KindPlanCreationError means a backend could not build an FFT/DCT
	// plan for the requested size.
	KindPlanCreationError
	// KindBackendError is a runtime failure inside a compute kernel.
	KindBackendError
	// KindNumericalError means a non-finite value was detected after a
	// sub-step.
	KindNumericalError
	// KindCacheIOError is soft: the cache is unusable but the run
	// proceeds as if it were empty.
	KindCacheIOError
	// KindMonteCarloError is a hard failure in q-calibration.
	KindMonteCarloError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindPlanCreationError:
		return "PlanCreationError"
	case KindBackendError:
		return "BackendError"
	case KindNumericalError:
		return "NumericalError"
	case KindCacheIOError:
		return "CacheIOError"
	case KindMonteCarloError:
		return "MonteCarloError"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by Driver.Run and NewParams: a Kind
// plus the underlying cause.
type Error struct {
	kind Kind
	err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{kind: kind, err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("smre: %s: %v", e.kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Kind reports which of the six error kinds this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// classify maps an error from a subsystem (conv, fft2d, resolvent, qcache)
// to the Kind it should be reported as.
func classify(err error) Kind {
	var pce *fft2d.PlanCreationError
	if errors.As(err, &pce) {
		return KindPlanCreationError
	}
	var be *conv.BackendError
	if errors.As(err, &be) {
		return KindBackendError
	}
	var ne *resolvent.NumericalError
	if errors.As(err, &ne) {
		return KindNumericalError
	}
	var mce *qcache.MonteCarloError
	if errors.As(err, &mce) {
		return KindMonteCarloError
	}
	var cie *qcache.CacheIOError
	if errors.As(err, &cie) {
		return KindCacheIOError
	}
	if errors.Is(err, conv.ErrShapeMismatch) {
		return KindInvalidParameter
	}
	return KindBackendError
}

// wrap classifies err by subsystem type and wraps it as an *Error.
func wrap(err error) *Error {
	return newError(classify(err), err)
}

func invalidParameter(format string, args ...any) *Error {
	return newError(KindInvalidParameter, fmt.Errorf(format, args...))
}
