package texsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"lone cr", "a\rb\rc", "a\nb\nc"},
		{"mixed endings", "a\r\n\rb\n", "a\n\nb"},
		{"control characters stripped", "he\x00ll\x07o\x1b", "hello"},
		{"tab and newline kept", "a\tb\nc", "a\tb\nc"},
		{"surrounding whitespace trimmed", "  \n\t\\section{A}\n\n ", "\\section{A}"},
		{"non-ascii preserved", "Grüße – ∑", "Grüße – ∑"},
		{"delete kept", "a\x7fb", "a\x7fb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_RejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\r\n\t", "\x00\x01\x02"} {
		_, err := Normalize(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), "input %q: %v", in, err)
	}
}
