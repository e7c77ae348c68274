package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/exitcode"
	"sheetq/internal/output"
	"sheetq/internal/pipeline"
	"sheetq/internal/worker"
)

func init() {
	Register(&RunCmd{})
}

// RunCmd implements the run command: one full pass over the board.
type RunCmd struct {
	timeout time.Duration
}

func (c *RunCmd) Name() string      { return "run" }
func (c *RunCmd) Aliases() []string { return nil }
func (c *RunCmd) Synopsis() string  { return "Process the board once" }
func (c *RunCmd) Usage() string     { return "sheetq run [common flags] [--timeout <d>] [sheet]" }
func (c *RunCmd) NeedsBoard() bool  { return true }

func (c *RunCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.DurationVar(&c.timeout, "timeout", 0, "")
}

func (c *RunCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	spreadsheetID, code := resolveBoardRef(cfg, args, errOut)
	if code != exitcode.Success {
		return code
	}

	runner := &pipeline.Runner{
		Board: brd,
		Cfg:   cfg,
		NewWorker: func(command string, autoClose bool) worker.Invoker {
			return &worker.CommandRunner{
				Command:   command,
				AutoClose: autoClose,
				Timeout:   c.timeout,
			}
		},
		Out:    out,
		ErrOut: errOut,
	}

	report, err := runner.Run(ctx, spreadsheetID)
	if cfg.Debug {
		fmt.Fprintf(errOut, "debug: run %s stopped at row %d\n", report.RunID, report.StoppedAtRow)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, pipeline.ErrNoCommand) {
			return exitcode.UserError
		}
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		output.RunSummary(out, report.Executed, report.Archived, report.Failed)
	}
	if report.Failed > 0 {
		return exitcode.BackendError
	}
	return exitcode.Success
}

// resolveBoardRef turns the optional positional sheet argument (or the
// configured default board) into a spreadsheet ID.
func resolveBoardRef(cfg *config.Config, args []string, errOut io.Writer) (string, int) {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	} else {
		settings, err := cfg.LoadSettings()
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return "", exitcode.UserError
		}
		ref = settings.Defaults.Board
	}
	if ref == "" {
		fmt.Fprintln(errOut, "error: no sheet given and no default board configured (run: sheetq setup sheet <url>)")
		return "", exitcode.UserError
	}

	spreadsheetID, err := board.ParseSpreadsheetID(ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return "", exitcode.UserError
	}
	return spreadsheetID, exitcode.Success
}
