package texsource

import "strings"

// Markers searched for by Repair.
const (
	DeclarationMarker  = `\documentclass`
	BeginDocument      = `\begin{document}`
	EndDocument        = `\end{document}`
	DefaultDeclaration = `\documentclass{article}`
)

// preambleMarkers are the commands whose last occurrence bounds the preamble
// when \begin{document} has to be inserted.
var preambleMarkers = []string{DeclarationMarker, `\usepackage`, `\newcommand`}

// declarationState selects how a missing \begin{document} is placed.
type declarationState int

const (
	// declarationInjected: the input had no declaration and Repair prepended
	// the default one. The body is the whole input, so the opener goes last.
	declarationInjected declarationState = iota
	// declarationFound: the input carried its own declaration. The opener goes
	// after the last preamble-looking line.
	declarationFound
)

// Repairs records which pieces of scaffolding Repair injected.
type Repairs struct {
	Declaration   bool
	BeginDocument bool
	EndDocument   bool
}

// Any reports whether anything was injected.
func (r Repairs) Any() bool {
	return r.Declaration || r.BeginDocument || r.EndDocument
}

// Repair returns text with missing document scaffolding injected.
func Repair(text string) string {
	out, _ := RepairWithReport(text)
	return out
}

// RepairWithReport is Repair that also reports what it injected.
func RepairWithReport(text string) (string, Repairs) {
	var rep Repairs

	state := declarationFound
	if !hasDeclaration(text) {
		state = declarationInjected
		text = DefaultDeclaration + "\n" + text
		rep.Declaration = true
	}

	if !strings.Contains(text, BeginDocument) {
		rep.BeginDocument = true
		switch state {
		case declarationFound:
			text = insertAfterPreamble(text)
		case declarationInjected:
			text = text + "\n" + BeginDocument + "\n"
		}
	}

	if !strings.Contains(text, EndDocument) {
		rep.EndDocument = true
		text = text + "\n" + EndDocument
	}

	return text, rep
}

// Prepare normalizes raw input and repairs its structure.
func Prepare(raw string) (string, Repairs, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return "", Repairs{}, err
	}
	repaired, rep := RepairWithReport(normalized)
	return repaired, rep, nil
}

func hasDeclaration(text string) bool {
	for line := range strings.SplitSeq(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), DeclarationMarker) {
			return true
		}
	}
	return false
}

// insertAfterPreamble places \begin{document} after the line holding the
// latest occurrence of any preamble marker. It is a raw text search: a marker
// inside a comment or inside the body still counts.
func insertAfterPreamble(text string) string {
	last := -1
	for _, m := range preambleMarkers {
		if i := strings.LastIndex(text, m); i > last {
			last = i
		}
	}
	if last < 0 {
		return text + "\n" + BeginDocument + "\n"
	}

	end := len(text)
	if nl := strings.IndexByte(text[last:], '\n'); nl >= 0 {
		end = last + nl + 1
	} else {
		text += "\n"
		end = len(text)
	}
	return text[:end] + "\n" + BeginDocument + "\n" + text[end:]
}
