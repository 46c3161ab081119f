package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why a frame was rejected.
type ErrorKind int

const (
	// KindTooShort means the buffer is shorter than the minimum frame or
	// shorter than the length field declares.
	KindTooShort ErrorKind = iota + 1
	// KindBadMarker means the first byte is not the start-of-frame marker.
	KindBadMarker
	// KindChecksumMismatch means either the header CRC8 or the payload CRC32
	// does not match.
	KindChecksumMismatch
	// KindPayloadTooShort means the payload cannot hold type, sequence and command.
	KindPayloadTooShort
)

// String returns a snake_case name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindTooShort:
		return "too_short"
	case KindBadMarker:
		return "bad_marker"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindPayloadTooShort:
		return "payload_too_short"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FrameError is returned by Parse for every rejected buffer.
type FrameError struct {
	Kind   ErrorKind
	Detail string
}

// Error implements the error interface
func (e *FrameError) Error() string {
	if e.Detail == "" {
		return "frame " + e.Kind.String()
	}
	return fmt.Sprintf("frame %s: %s", e.Kind, e.Detail)
}

// Is reports whether target is a *FrameError of the same kind, so callers
// can match with errors.Is(err, protocol.ErrChecksumMismatch).
func (e *FrameError) Is(target error) bool {
	t, ok := target.(*FrameError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel values for errors.Is matching.
var (
	ErrTooShort         = &FrameError{Kind: KindTooShort}
	ErrBadMarker        = &FrameError{Kind: KindBadMarker}
	ErrChecksumMismatch = &FrameError{Kind: KindChecksumMismatch}
	ErrPayloadTooShort  = &FrameError{Kind: KindPayloadTooShort}

	// ErrPayloadTooLarge is returned by BuildChecked when the payload does
	// not fit the 16-bit length field.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame size")
)

func frameErrorf(kind ErrorKind, format string, args ...any) error {
	return &FrameError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err. It returns 0 and false when err
// is not a frame error.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
