// Package ltlerr defines the sentinel error kinds surfaced by the
// runtime, formula builders, and evaluator, following the wrapped
// sentinel + errors.Is idiom (see google/mangle/factstore's
// ErrIntervalLimitExceeded) so callers can distinguish error kinds
// programmatically instead of string-matching messages.
package ltlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNonMonotonicTime is raised by Runtime.RegisterState when the new
	// timestamp is strictly less than the current one.
	ErrNonMonotonicTime = errors.New("non-monotonic time")

	// ErrLateRegistration is raised by Runtime.RegisterExtractor once a
	// state has already been admitted.
	ErrLateRegistration = errors.New("extractor registered after first admission")

	// ErrEmptyTrace is raised by Test when the supplied trace has no
	// entries.
	ErrEmptyTrace = errors.New("empty trace")

	// ErrFutureAccess is raised by Cell.At when the requested time is
	// later than the runtime's current time.
	ErrFutureAccess = errors.New("future access")

	// ErrUnknownTime is raised by Cell.At when the requested time was
	// never admitted, or precedes the cell's own registration.
	ErrUnknownTime = errors.New("unknown time")

	// ErrCurrentWithoutAdmission is raised by Cell.Current before any
	// state has ever been admitted.
	ErrCurrentWithoutAdmission = errors.New("current value requested before any admission")

	// ErrExtractorFailed wraps a cause raised by a user extractor during
	// RegisterState. The admission is aborted; already-updated cells
	// retain their new value but the current time does not advance.
	ErrExtractorFailed = errors.New("extractor failed")

	// ErrBoundAlreadySet is raised by the formula DSL when Within is
	// called twice on the same Always/Eventually builder.
	ErrBoundAlreadySet = errors.New("bound already set")

	// ErrUnboundedEventually is raised the first time an Eventually
	// formula without a Within bound reaches evaluation; construction
	// always succeeds since Go has no separate "finalize the builder"
	// step that could catch a missing bound earlier.
	ErrUnboundedEventually = errors.New("eventually formula has no within(...) bound")

	// ErrNegationOfModal is raised by Evaluate when Not directly wraps a
	// Next/Always/Eventually formula.
	ErrNegationOfModal = errors.New("negation of a temporal modal is not supported")
)

// ExtractorFailed wraps the cause raised by a named cell's extractor so
// callers can match both ErrExtractorFailed and the underlying error with
// errors.Is/As; the offending cell's name is part of the message.
func ExtractorFailed(cellName string, cause error) error {
	return fmt.Errorf("%w: cell %q: %w", ErrExtractorFailed, cellName, cause)
}
