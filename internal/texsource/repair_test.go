package texsource

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_PlainText(t *testing.T) {
	got := Repair("Hello")

	assert.Equal(t, "\\documentclass{article}\nHello\n\\begin{document}\n\n\\end{document}", got)

	decl := strings.Index(got, DefaultDeclaration)
	hello := strings.Index(got, "Hello")
	open := strings.Index(got, BeginDocument)
	closing := strings.Index(got, EndDocument)
	assert.True(t, decl < hello && hello < open && open < closing, "unexpected order in %q", got)
}

func TestRepair_DeclarationFound(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "opener after last usepackage",
			in:   "\\documentclass{article}\n\\usepackage{amsmath}\nHello",
			want: "\\documentclass{article}\n\\usepackage{amsmath}\n\n\\begin{document}\nHello\n\\end{document}",
		},
		{
			name: "newcommand later than usepackage",
			in:   "\\documentclass{report}\n\\usepackage{x}\n\\newcommand{\\foo}{bar}\nBody",
			want: "\\documentclass{report}\n\\usepackage{x}\n\\newcommand{\\foo}{bar}\n\n\\begin{document}\nBody\n\\end{document}",
		},
		{
			name: "declaration is the only line",
			in:   "\\documentclass{article}",
			want: "\\documentclass{article}\n\n\\begin{document}\n\n\\end{document}",
		},
		{
			name: "indented declaration",
			in:   "  \\documentclass{article}\nText\n\\end{document}",
			want: "  \\documentclass{article}\n\n\\begin{document}\nText\n\\end{document}",
		},
		{
			name: "already complete",
			in:   "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}",
			want: "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.in))
		})
	}
}

func TestRepair_MissingCloserOnly(t *testing.T) {
	got, rep := RepairWithReport("\\documentclass{article}\n\\begin{document}\nHi")
	assert.Equal(t, "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}", got)
	assert.Equal(t, Repairs{EndDocument: true}, rep)
}

func TestRepair_ReportsNothingForCompleteDocument(t *testing.T) {
	_, rep := RepairWithReport("\\documentclass{article}\n\\begin{document}\n\\end{document}")
	assert.False(t, rep.Any())
}

func TestRepair_SingleScaffoldProperty(t *testing.T) {
	prop := func(s string) bool {
		text, err := Normalize(s)
		if err != nil || strings.Contains(text, BeginDocument) || strings.Contains(text, EndDocument) {
			return true
		}
		out := Repair(text)
		open := strings.Index(out, BeginDocument)
		return strings.Count(out, BeginDocument) == 1 &&
			strings.Count(out, EndDocument) == 1 &&
			open >= 0 && open < strings.Index(out, EndDocument)
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestRepair_IdempotentWithScaffold(t *testing.T) {
	prop := func(head, body string) bool {
		text := head + BeginDocument + body + EndDocument
		once := Repair(text)
		return Repair(once) == once
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestPrepare(t *testing.T) {
	out, rep, err := Prepare("\r\n  Hello\x00 \r\n")
	require.NoError(t, err)
	assert.True(t, rep.Declaration && rep.BeginDocument && rep.EndDocument)
	assert.Equal(t, Repair("Hello"), out)

	_, _, err = Prepare(" \t ")
	require.Error(t, err)
}
