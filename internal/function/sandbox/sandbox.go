package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

var (
	// ErrTimeout is returned when a script exceeds the wall-clock budget.
	ErrTimeout = errors.New("script execution timed out")
	// ErrNotFunction is returned when the script does not export an
	// invocable unit.
	ErrNotFunction = errors.New("script does not export a function")
)

// Executor runs stored scripts inside a goja interpreter. Every invocation
// gets a fresh runtime whose only host-provided names are the module/exports
// pair; the script sees no filesystem, network, or process state. The
// exported function is called with the request body and its return value is
// the invocation result.
type Executor struct {
	timeout time.Duration
}

// New creates a sandbox executor with the given wall-clock budget per
// invocation.
func New(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute evaluates code and invokes its exported function with input. The
// run is interrupted when the budget elapses or ctx is cancelled, whichever
// comes first.
func (e *Executor) Execute(ctx context.Context, code string, input interface{}) (result interface{}, err error) {
	vm := goja.New()

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if err := vm.Set("module", module); err != nil {
		return nil, err
	}
	if err := vm.Set("exports", exports); err != nil {
		return nil, err
	}

	timer := time.AfterFunc(e.timeout, func() { vm.Interrupt(ErrTimeout) })
	defer timer.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script execution panicked: %v", r)
		}
	}()

	value, err := vm.RunString(code)
	if err != nil {
		return nil, interpretError(err)
	}

	entry, ok := goja.AssertFunction(module.Get("exports"))
	if !ok {
		// A script may also evaluate to the function directly instead of
		// assigning module.exports.
		entry, ok = goja.AssertFunction(value)
	}
	if !ok {
		return nil, ErrNotFunction
	}

	res, err := entry(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return nil, interpretError(err)
	}
	return res.Export(), nil
}

// interpretError unwraps interrupts back to the error they were triggered
// with; script exceptions pass through with their message.
func interpretError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return ErrTimeout
	}
	return err
}
