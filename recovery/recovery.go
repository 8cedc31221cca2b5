package recovery

import (
	"fmt"
	"runtime/debug"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Do wraps f so that a panic inside it is returned as an error instead of
// unwinding the caller. Third party decoders are not guaranteed to fail with
// errors on corrupt input, so every call into them goes through Do.
// Optionally it takes a logger to log the stack trace. Only the first logger is used.
func Do(f func() error, logger ...log.Logger) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				switch e := r.(type) {
				case error:
					err = &PanicError{Value: r, cause: e}
				default:
					err = &PanicError{Value: r}
				}
				if len(logger) > 0 {
					level.Error(logger[0]).Log("msg", "recovered from panic", "err", err, "stacktrace", string(debug.Stack()))
				}
			}
		}()
		return f()
	}
}

// PanicError is returned by a function wrapped with Do that panicked.
type PanicError struct {
	Value any
	cause error
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error { return e.cause }
