package spec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fbettag/llmdb/internal/catalog"
)

// Kind classifies resolution failures.
type Kind string

const (
	KindInvalidFormat   Kind = "invalid_format"
	KindEmptySegment    Kind = "empty_segment"
	KindInvalidChars    Kind = "invalid_chars"
	KindBadProvider     Kind = "bad_provider"
	KindUnknownProvider Kind = "unknown_provider"
	KindNotFound        Kind = "not_found"
	KindAmbiguous       Kind = "ambiguous"
	KindNoMatch         Kind = "no_match"
)

// Error is returned by every parse and resolve operation.
type Error struct {
	Kind   Kind
	Input  string
	Detail string
	// Matches lists the candidates of an ambiguous bare id.
	Matches []catalog.Key
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Input != "" {
		fmt.Fprintf(&b, " %q", e.Input)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Matches) > 0 {
		parts := make([]string, len(e.Matches))
		for i, k := range e.Matches {
			parts[i] = k.String()
		}
		fmt.Fprintf(&b, " (matches: %s)", strings.Join(parts, ", "))
	}
	return b.String()
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat}
	ErrEmptySegment    = &Error{Kind: KindEmptySegment}
	ErrInvalidChars    = &Error{Kind: KindInvalidChars}
	ErrBadProvider     = &Error{Kind: KindBadProvider}
	ErrUnknownProvider = &Error{Kind: KindUnknownProvider}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAmbiguous       = &Error{Kind: KindAmbiguous}
	ErrNoMatch         = &Error{Kind: KindNoMatch}
)

// KindOf returns the kind of err, or "" when err is not a resolution error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, input, format string, args ...any) *Error {
	return &Error{Kind: kind, Input: input, Detail: fmt.Sprintf(format, args...)}
}

// withInput rewrites the input of a resolution error to the caller's full spec.
func withInput(err error, input string) error {
	var e *Error
	if errors.As(err, &e) && e.Input != input {
		c := *e
		c.Input = input
		return &c
	}
	return err
}
