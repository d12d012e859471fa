package crypto

import (
	"errors"
	"strings"
)

// Kind classifies a failure of a cryptographic operation.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindKey
	KindDecode
	KindAuthentication
	KindEncrypt
	KindSerialization
)

// Sentinels usable as errors.Is targets. Any *Error of the same kind,
// or wrapping one, matches.
var (
	ErrKey            error = KindKey
	ErrDecode         error = KindDecode
	ErrAuthentication error = KindAuthentication
	ErrEncrypt        error = KindEncrypt
	ErrSerialization  error = KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "invalid key"
	case KindDecode:
		return "decode error"
	case KindAuthentication:
		return "authentication failed"
	case KindEncrypt:
		return "encryption failed"
	case KindSerialization:
		return "serialization failed"
	default:
		return "unknown error"
	}
}

// Error implements error so a Kind can act as its own sentinel.
func (k Kind) Error() string {
	return k.String()
}

// Error is a typed failure carrying the operation and, where relevant,
// the envelope field it concerns.
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of this error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
