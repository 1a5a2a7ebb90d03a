package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Setup failures are unrecoverable: they propagate to main and end the
// process with a non-zero status.
var (
	ErrSetup                  = errors.New("renderer setup failed")
	ErrNoDevices              = errors.New("no devices which support Vulkan were found")
	ErrNoSuitableDevice       = errors.New("no physical device meets the requirements")
	ErrValidationLayerMissing = errors.New("required validation layer is missing")
	ErrShaderLoad             = errors.New("unable to load shader module")
	ErrSurface                = errors.New("unable to create window surface")
)

// Per-frame failures other than swapchain staleness are fatal as well.
var (
	ErrAcquire      = errors.New("failed to acquire swapchain image")
	ErrFrameSubmit  = errors.New("failed to submit frame")
	ErrFramePresent = errors.New("failed to present swapchain image")
)

var ErrInvalidConfig = errors.New("invalid configuration")

// SetupError marks err as a setup failure while keeping its own identity
// for errors.Is.
func SetupError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &taggedError{kind: ErrSetup, cause: errors.Wrapf(err, format, args...)}
}

// FrameError tags a per-frame failure with kind (ErrAcquire, ErrFrameSubmit
// or ErrFramePresent). Both kind and err match with errors.Is, and %+v
// prints the stack of the FrameError call.
func FrameError(kind, err error) error {
	if err == nil {
		return nil
	}
	return &taggedError{kind: kind, cause: errors.Wrap(err, kind.Error())}
}

type taggedError struct {
	kind  error
	cause error
}

func (e *taggedError) Error() string { return e.cause.Error() }

func (e *taggedError) Unwrap() error { return e.cause }

func (e *taggedError) Is(target error) bool { return target == e.kind }

func (e *taggedError) Cause() error { return e.cause }

func (e *taggedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%+v", e.cause)
		return
	}
	fmt.Fprint(s, e.Error())
}
