package seqgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/ingest"
)

// ErrEmptyInput is returned when the selected input yields no usable
// sequence records.
var ErrEmptyInput = ingest.ErrEmptyInput

// reportURL is appended to construction failures that indicate a bug rather
// than a user mistake.
const reportURL = "https://github.com/seqgo/seqgo/issues"

// UsageError indicates an invalid invocation: conflicting input selection or
// an unusable output path. It is always raised before any input is read and
// before any artifact is written.
type UsageError struct {
	Msg   string
	cause error
}

func (e *UsageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error { return e.cause }

// OutOfMemoryError indicates the construction's working memory reservation
// exceeded the configured budget.
//
// The original underlying error can be accessed via errors.Unwrap.
type OutOfMemoryError struct {
	Algorithm index.Algorithm
	cause     error
}

func (e *OutOfMemoryError) Error() string {
	msg := "exceeded the memory budget during index construction"
	if e.Algorithm == index.AlgorithmParallel {
		msg += "; the sequential algorithm needs less working memory, retry with it"
	}
	return msg
}

func (e *OutOfMemoryError) Unwrap() error { return e.cause }

// ConstructionError wraps an unexpected index construction failure,
// including an intercepted panic.
//
// The original underlying error can be accessed via errors.Unwrap.
type ConstructionError struct {
	cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("index construction failed: %v (please report this at %s)", e.cause, reportURL)
}

func (e *ConstructionError) Unwrap() error { return e.cause }

// translateBuildError normalizes backend failures into the package's error
// taxonomy. Cancellation passes through untouched.
func translateBuildError(err error, alg index.Algorithm) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, index.ErrOutOfMemory):
		return &OutOfMemoryError{Algorithm: alg, cause: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		var ce *ConstructionError
		if errors.As(err, &ce) {
			return err
		}
		return &ConstructionError{cause: err}
	}
}
