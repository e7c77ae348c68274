package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/exitcode"
	"sheetq/internal/output"
)

func init() {
	Register(&DoctorCmd{})
}

// DoctorCmd implements the doctor command: validate settings, credentials,
// and board access without processing any row.
type DoctorCmd struct{}

func (c *DoctorCmd) Name() string      { return "doctor" }
func (c *DoctorCmd) Aliases() []string { return nil }
func (c *DoctorCmd) Synopsis() string  { return "Check settings, credentials, and board access" }
func (c *DoctorCmd) Usage() string     { return "sheetq doctor [common flags] [sheet]" }
func (c *DoctorCmd) NeedsBoard() bool  { return true }

func (c *DoctorCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoctorCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	code := exitcode.Success

	settings, err := cfg.LoadSettings()
	if err != nil {
		output.DoctorCheck(out, "settings", err.Error())
		return exitcode.UserError
	}
	output.DoctorCheck(out, "settings", "")

	credsPath := cfg.ResolveCredentials(settings)
	if _, statErr := os.Stat(credsPath); statErr != nil {
		output.DoctorCheck(out, "credentials", fmt.Sprintf("missing %s (run: sheetq setup google <file>)", credsPath))
		code = exitcode.AuthError
	} else {
		output.DoctorCheck(out, "credentials", "")
	}

	if strings.TrimSpace(settings.SheetProperties.Command) == "" {
		output.DoctorCheck(out, "command", `not set (run: sheetq setup command "<cmd>")`)
		if code == exitcode.Success {
			code = exitcode.UserError
		}
	} else {
		output.DoctorCheck(out, "command", "")
	}

	ref := settings.Defaults.Board
	if len(args) > 0 {
		ref = args[0]
	}
	if ref == "" {
		output.DoctorCheck(out, "board", "no default board (run: sheetq setup sheet <url>)")
		if code == exitcode.Success {
			code = exitcode.UserError
		}
		return code
	}

	spreadsheetID, err := board.ParseSpreadsheetID(ref)
	if err != nil {
		output.DoctorCheck(out, "board", err.Error())
		if code == exitcode.Success {
			code = exitcode.UserError
		}
		return code
	}

	if err := brd.VerifyAccess(ctx, spreadsheetID); err != nil {
		output.DoctorCheck(out, "board", err.Error())
		if code == exitcode.Success {
			code = exitcode.BackendError
		}
		return code
	}
	output.DoctorCheck(out, "board", "")

	return code
}
