package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/exitcode"
	"sheetq/internal/pipeline"
)

func init() {
	Register(&InitCmd{})
}

// InitCmd implements the init command: write the board layout into an
// existing sheet and remember it as the default board.
type InitCmd struct{}

func (c *InitCmd) Name() string      { return "init" }
func (c *InitCmd) Aliases() []string { return nil }
func (c *InitCmd) Synopsis() string  { return "Initialize a sheet as a task board" }
func (c *InitCmd) Usage() string     { return "sheetq init [common flags] <sheet>" }
func (c *InitCmd) NeedsBoard() bool  { return true }

func (c *InitCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InitCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: sheet URL required")
		return exitcode.UserError
	}

	spreadsheetID, err := board.ParseSpreadsheetID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := brd.VerifyAccess(ctx, spreadsheetID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	settings, err := cfg.LoadSettings()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Seed the config block from local settings so the board and the
	// settings file start out agreeing.
	props := map[string]string{
		"prefix":     settings.SheetProperties.Prefix,
		"command":    settings.SheetProperties.Command,
		"auto_close": strconv.FormatBool(settings.SheetProperties.AutoClose),
	}
	if err := brd.InitializeLayout(ctx, spreadsheetID, props); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if err := pipeline.EnforceLayout(ctx, brd, spreadsheetID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	settings.Defaults.Board = spreadsheetID
	if err := cfg.SaveSettings(settings); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "initialized %s\n", board.SpreadsheetURL(spreadsheetID))
	}
	return exitcode.Success
}
