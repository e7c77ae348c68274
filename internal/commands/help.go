package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "sheetq help" }
func (c *HelpCmd) NeedsBoard() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  sheetq run [common flags] [--timeout <d>] [sheet]   Process the board once
  sheetq init [common flags] <sheet>                  Initialize a sheet as a task board
  sheetq doctor [common flags] [sheet]                Check settings, credentials, board access
  sheetq setup [common flags] <target> [value]        Store settings
      targets: google <file>, sheet <url>, prefix <text>,
               command <cmd>, autoclose <bool>, list
  sheetq config                                       Print the settings file path
  sheetq help
  sheetq version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
