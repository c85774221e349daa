package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTerminated is returned once the engine's output stream has ended.
	ErrTerminated = errors.New("engine terminated")
	// ErrEval is returned when an eval instruction failed or did not yield
	// a battle record.
	ErrEval = errors.New("engine eval failed")
	// ErrClosed is returned by every operation on a closed process.
	ErrClosed = errors.New("engine process closed")
)

// ProtocolError reports an error or bigerror line. The engine has already
// consumed the turn when it emits one, so the step cannot be retried.
type ProtocolError struct {
	Kind Kind
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Kind, e.Line)
}

// IsProtocolError reports whether err carries a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
