// Package imgerr defines the error kinds shared by the partition planner,
// the gridding kernels and the imaging engines.
package imgerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match them with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrKernelUnavailable = errors.New("kernel unavailable")
	ErrChannelMapping    = errors.New("channel mapping error")
)

// Error carries a kind, the operation that failed and an optional cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Configurationf builds an ErrConfiguration error for op.
func Configurationf(op, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KernelUnavailablef builds an ErrKernelUnavailable error for op.
func KernelUnavailablef(op, format string, args ...any) error {
	return &Error{Kind: ErrKernelUnavailable, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ChannelMappingf builds an ErrChannelMapping error for op.
func ChannelMappingf(op, format string, args ...any) error {
	return &Error{Kind: ErrChannelMapping, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and op to an existing error. A nil err stays nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsKernelUnavailable reports whether err signals a missing gridding backend.
func IsKernelUnavailable(err error) bool { return errors.Is(err, ErrKernelUnavailable) }

// IsChannelMapping reports whether err is a frequency to channel mapping failure.
func IsChannelMapping(err error) bool { return errors.Is(err, ErrChannelMapping) }
