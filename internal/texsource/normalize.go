package texsource

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// isStrippedControl reports control characters below U+0020 other than tab and newline.
func isStrippedControl(r rune) bool {
	return r < ' ' && r != '\t' && r != '\n'
}

// Normalize converts raw input into normalized text.
func Normalize(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ferrors.ValidationError("Empty LaTeX content").Build()
	}

	text = lineEndings.Replace(text)

	cleaned, _, err := transform.String(runes.Remove(runes.Predicate(isStrippedControl)), text)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "Invalid LaTeX content").
			UserAction().
			Build()
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ferrors.ValidationError("Empty LaTeX content").Build()
	}
	return cleaned, nil
}
