// Package application provides the application interface for exprmap commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use client with cmd.Context()
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (exprmap.Client, error) {
//	        return exprmap.New(exprmap.WithSources(store))
//	    },
//	}
//	cmd := calls.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/exprmap/exprmap"
)

// Application provides the application interface that commands need.
// The App struct from cmd/exprmap/app implements it.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the client over the configured dataset. It is created
	// on first use and shared afterwards.
	Client() (exprmap.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the requested output format (table, wide, json, yaml),
	// or "" to let commands pick one for their output.
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
