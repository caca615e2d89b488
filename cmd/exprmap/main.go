// Package main provides the entry point for the exprmap CLI tool.
package main

import (
	"context"
	"os"

	"github.com/exprmap/exprmap/cmd/exprmap/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	if err := application.Execute(context.Background(), os.Args[1:]); err != nil {
		application.Logger().Debug().Err(err).Msg("Command failed")
		app.ExitOnError(err)
	}
}
