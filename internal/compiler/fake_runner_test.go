package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/latexd/internal/engine"
)

// fakeEngine imitates pdflatex: it reads the source named by the last
// argument and writes <job>.pdf and <job>.log next to it.
type fakeEngine struct {
	calls atomic.Int32

	failOnPass  int    // exit 1 on this pass (1-based); 0 never
	skipPDF     bool   // exit 0 without writing a PDF
	emptyPDF    bool   // write a zero-length PDF
	logText     string // appended to every log
	runErr      error  // returned instead of running
	startErrors bool
}

func (f *fakeEngine) Run(ctx context.Context, cmd engine.Command) (*engine.PassResult, error) {
	pass := int(f.calls.Add(1))
	if f.runErr != nil {
		if f.startErrors {
			return nil, f.runErr
		}
		return &engine.PassResult{ExitCode: -1}, f.runErr
	}
	if err := ctx.Err(); err != nil {
		return &engine.PassResult{ExitCode: -1}, err
	}

	src := cmd.Args[len(cmd.Args)-1]
	body, err := os.ReadFile(src)
	if err != nil {
		return &engine.PassResult{ExitCode: 1, Stdout: err.Error()}, nil
	}
	job := strings.TrimSuffix(src, filepath.Ext(src))

	log := "This is pdfTeX, fake pass " + string(rune('0'+pass)) + "\n" + f.logText
	if f.failOnPass == pass {
		log += "! Undefined control sequence.\n"
		_ = os.WriteFile(job+".log", []byte(log), 0o600)
		return &engine.PassResult{ExitCode: 1, Stdout: "! Undefined control sequence.", Duration: time.Millisecond}, nil
	}
	_ = os.WriteFile(job+".log", []byte(log), 0o600)

	switch {
	case f.skipPDF:
	case f.emptyPDF:
		_ = os.WriteFile(job+".pdf", nil, 0o600)
	default:
		_ = os.WriteFile(job+".pdf", append([]byte("%PDF-1.4\n"), body...), 0o600)
	}
	return &engine.PassResult{Stdout: "Output written on document.pdf", Duration: time.Millisecond}, nil
}
