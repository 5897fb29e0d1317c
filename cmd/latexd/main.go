// Command latexd compiles LaTeX documents to PDF, as an HTTP service or one file at a time.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/latexd/cmd/latexd/commands"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var cli commands.CLI
	global := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}

	parser, err := kong.New(&cli,
		kong.Name("latexd"),
		kong.Description("LaTeX to PDF compilation service"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	err = ctx.Run(global, &cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Report(global.Stderr, err)
}
