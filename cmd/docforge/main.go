package main

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docforge/cmd/docforge/commands"
	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser, err := commands.NewParser(cli, version.String())
	if err != nil {
		slog.Error("Failed to build command line parser", "error", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		dferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
