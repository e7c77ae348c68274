// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"sheetq/internal/board"
	"sheetq/internal/config"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsBoard returns true if the command requires an authenticated
	// board client. Commands like help, version, setup return false.
	NeedsBoard() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// brd is nil if NeedsBoard() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int
}
