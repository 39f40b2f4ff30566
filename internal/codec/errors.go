// ABOUTME: Closed error taxonomy for the decode boundary
// ABOUTME: Distinguishes skippable faults, fatal faults and flow sentinels
package codec

import "errors"

// Flow sentinels. Neither is an error condition: both signal that the call
// produced no output.
var (
	// ErrNeedMoreInput means the packet was consumed but the session needs
	// more data before it can emit samples.
	ErrNeedMoreInput = errors.New("decoder needs more input")

	// ErrEndOfStream means the decode session is drained and will emit no
	// further output.
	ErrEndOfStream = errors.New("end of decode stream")
)

// Class splits decode faults into the two ways the caller may react.
type Class int

const (
	// ClassSkip marks a packet that cannot be decoded; the caller drops it
	// and continues with the next one.
	ClassSkip Class = iota

	// ClassFatal marks a fault the session cannot recover from; the caller
	// must abort playback.
	ClassFatal
)

// Error is a classified decode fault.
type Error struct {
	Class Class
	Cause error
}

func (e *Error) Error() string {
	if e.Class == ClassFatal {
		return "fatal decode fault: " + e.Cause.Error()
	}
	return "undecodable packet: " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Skip wraps a fault as a drop-and-continue error.
func Skip(cause error) error {
	return &Error{Class: ClassSkip, Cause: cause}
}

// Fatal wraps a fault as an abort-playback error.
func Fatal(cause error) error {
	return &Error{Class: ClassFatal, Cause: cause}
}

// IsFatal reports whether err requires aborting playback.
func IsFatal(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Class == ClassFatal
}
