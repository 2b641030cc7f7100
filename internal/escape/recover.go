// Package escape isolates a unit of work against abnormal Go-level
// exits: a stray panic or a runtime.Goexit. It is the goroutine-level
// safety net sitting above a VM's own in-band fatal-error escape (which
// is a plain recover at the run() boundary, not a goroutine) — this
// package only catches bugs, not spec-defined fatal conditions.
package escape

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f on a new goroutine and turns any panic or
// runtime.Goexit inside it into a non-nil error, alongside f's own
// return value.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExit(name, errch)
		defer recoverPanic(name, errch)
		errch <- f()
	}()
	return <-errch
}

func recoverExit(name string, errch chan<- error) {
	select {
	case errch <- exitError(name):
	default:
		// the happy path already sent a (possibly nil) error
	}
}

func recoverPanic(name string, errch chan<- error) {
	var pe panicError
	if pe.v = recover(); pe.v != nil {
		pe.name = name
		pe.stack = debug.Stack()
		select {
		case errch <- pe:
		default:
		}
	}
}

type exitError string

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

type panicError struct {
	name  string
	v     interface{}
	stack []byte
}

func (pe panicError) Error() string { return fmt.Sprint(pe) }

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.v)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.v)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nstack:\n%s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.v.(error)
	return err
}

// Stack returns the recovered panic's stack trace, if err came from a
// recovered panic.
func Stack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
