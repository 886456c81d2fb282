// Package errs provides the typed error taxonomy shared by the QuickTime
// Stream protocol packages: transport failures, framing violations, invalid
// decoded values, and a closed consumer channel.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a protocol-level error so callers can switch on it without
// string matching.
type Kind int32

const (
	// KindTransport covers USB bulk read/write failures or a vanished handle.
	KindTransport Kind = iota + 1
	// KindFramingUnexpectedEOF covers a nested length claiming more bytes
	// than the enclosing buffer can supply.
	KindFramingUnexpectedEOF
	// KindFramingMagicMismatch covers an expected FourCC magic that did not
	// match what was read.
	KindFramingMagicMismatch
	// KindInvalidValue covers malformed UTF-8, an out-of-range boolean byte,
	// an unrecognised number subtype, or an unknown outer magic.
	KindInvalidValue
	// KindChannelClosed covers a consumer channel the sink has closed.
	KindChannelClosed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFramingUnexpectedEOF:
		return "framing_unexpected_eof"
	case KindFramingMagicMismatch:
		return "framing_magic_mismatch"
	case KindInvalidValue:
		return "invalid_value"
	case KindChannelClosed:
		return "channel_closed"
	default:
		return "unknown"
	}
}

// Error is the single error type every protocol package returns; a Kind lets
// callers branch on that field instead of matching message text.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// New builds a protocol error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a protocol error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err, or the error it wraps via Wrapf, is a protocol
// error of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := errors.Cause(err).(*Error)
	if !ok {
		return false
	}
	return pe.Kind == kind
}

// Wrapf attaches a message and stack trace to err without discarding an
// underlying Kind when err is already an *Error.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
