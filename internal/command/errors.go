package command

import (
	"errors"
	"fmt"
)

// ArgumentError reports bad arguments detected by a handler. Its message is
// shown to the user as-is and the process exits with ExitBadArguments.
type ArgumentError struct {
	Msg string
	Err error
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return "bad arguments"
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ArgErrorf builds an ArgumentError with a formatted message.
func ArgErrorf(format string, args ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// ExitError lets a handler choose its exit status. Err is optional; when nil
// the handler is assumed to have reported the problem itself.
type ExitError struct {
	Code ExitStatus
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exit returns an ExitError with the given status and no message.
func Exit(code int) error {
	return &ExitError{Code: ExitStatus(code)}
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// InvalidDescriptorError is returned by Descriptor.Validate.
type InvalidDescriptorError struct {
	Name   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.Name == "" {
		return "invalid command descriptor: " + e.Reason
	}
	return fmt.Sprintf("invalid command descriptor %q: %s", e.Name, e.Reason)
}

// StatusOf maps a handler error to its exit status.
func StatusOf(err error) ExitStatus {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return clamp(exitErr.Code)
	}
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return ExitBadArguments
	}
	return ExitFailure
}

func clamp(code ExitStatus) ExitStatus {
	if code < 0 || code > 255 {
		return ExitFailure
	}
	return code
}
