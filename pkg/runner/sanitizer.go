package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is the utterance limit used when none is configured.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer screens utterances before they reach a session.
// The zero value enforces DefaultMaxInputSize.
type Sanitizer struct {
	// MaxSize is the largest accepted utterance in bytes.
	MaxSize int
}

// NewSanitizer returns a Sanitizer with the given limit; non-positive
// limits fall back to DefaultMaxInputSize.
func NewSanitizer(maxSize int) Sanitizer {
	return Sanitizer{MaxSize: maxSize}
}

func (s Sanitizer) limit() int {
	if s.MaxSize > 0 {
		return s.MaxSize
	}
	return DefaultMaxInputSize
}

// Clean rejects oversized or malformed utterances and drops control
// characters other than newline, tab and carriage return.
// Oversized input is never truncated, so a rejected utterance leaves the
// session untouched.
func (s Sanitizer) Clean(input string) (string, error) {
	if n, max := len(input), s.limit(); n > max {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, max)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// SanitizeInput cleans input with the default limit.
func SanitizeInput(input string) (string, error) {
	return Sanitizer{}.Clean(input)
}

func unsafeControl(r rune) bool {
	switch r {
	case '\n', '\t', '\r':
		return false
	}
	return unicode.IsControl(r)
}
