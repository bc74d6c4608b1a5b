package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_Limit(t *testing.T) {
	cases := []struct {
		name    string
		max     int
		size    int
		tooLong bool
	}{
		{"default fits", 0, DefaultMaxInputSize, false},
		{"default exceeded", 0, DefaultMaxInputSize + 1, true},
		{"custom fits", 10, 10, false},
		{"custom exceeded", 10, 11, true},
		{"negative uses default", -1, 11, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSanitizer(tc.max).Clean(strings.Repeat("a", tc.size))
			if tc.tooLong {
				assert.ErrorIs(t, err, ErrInputTooLarge)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizer_StripsControls(t *testing.T) {
	cases := map[string]string{
		"Hello World":         "Hello World",
		"Line1\nLine2\tTab\r": "Line1\nLine2\tTab\r",
		"\x1b[31mRed\x1b[0m":  "[31mRed[0m",
		"Null\x00Byte":        "NullByte",
		"Ding\x07":            "Ding",
		"café \U0001F600\x7f": "café \U0001F600",
	}
	for in, want := range cases {
		got, err := SanitizeInput(in)
		require.NoError(t, err, "%q", in)
		assert.Equal(t, want, got, "%q", in)
	}
}

func TestSanitizer_InvalidUTF8(t *testing.T) {
	_, err := Sanitizer{}.Clean("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSanitizer_IgnoresEnvironment(t *testing.T) {
	t.Setenv("TILBOT_MAX_INPUT_SIZE", "2")
	got, err := Sanitizer{}.Clean("plenty")
	require.NoError(t, err)
	assert.Equal(t, "plenty", got)
}
