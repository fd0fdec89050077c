package safety

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nite-coder/blackbear/pkg/cast"
	"github.com/nite-coder/ccipgate/pkg/log"
)

// PanicError carries a recovered panic value and the stack at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Go runs f and logs any panic it raises instead of crashing the process.
func Go(ctx context.Context, f func()) {
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			log.FromContext(ctx).Error("safety: goroutine panic recovered",
				slog.String("error", perr.Error()),
				slog.String("stack", cast.B2S(perr.Stack)),
			)
		}
	}()
	f()
}

// Call runs f and converts a panic into a *PanicError.
func Call(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return f()
}
