package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/exitcode"
)

func init() {
	Register(&SetupCmd{})
}

// SetupCmd implements the setup command: store credentials, the default
// board, and the sheet properties in local settings.
type SetupCmd struct{}

func (c *SetupCmd) Name() string      { return "setup" }
func (c *SetupCmd) Aliases() []string { return nil }
func (c *SetupCmd) Synopsis() string  { return "Store credentials, default board, prefix, command" }
func (c *SetupCmd) Usage() string {
	return "sheetq setup [common flags] <google|sheet|prefix|command|autoclose|list> [value]"
}
func (c *SetupCmd) NeedsBoard() bool { return false }

func (c *SetupCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SetupCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: setup target required (google, sheet, prefix, command, autoclose, list)")
		return exitcode.UserError
	}
	target := args[0]
	value := ""
	if len(args) > 1 {
		value = args[1]
	}

	settings, err := cfg.LoadSettings()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	switch target {
	case "google":
		return c.setupGoogle(cfg, settings, value, out, errOut)

	case "sheet":
		spreadsheetID, err := board.ParseSpreadsheetID(value)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		settings.Defaults.Board = spreadsheetID

	case "prefix":
		settings.SheetProperties.Prefix = value

	case "command":
		settings.SheetProperties.Command = value

	case "autoclose":
		parsed, ok := config.ParseBool(value)
		if !ok {
			fmt.Fprintf(errOut, "error: invalid boolean: %s\n", value)
			return exitcode.UserError
		}
		settings.SheetProperties.AutoClose = parsed

	case "list":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		fmt.Fprintln(out, string(data))
		return exitcode.Success

	default:
		fmt.Fprintf(errOut, "error: unknown setup target: %s\n", target)
		return exitcode.UserError
	}

	if err := cfg.SaveSettings(settings); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// setupGoogle copies a service-account key into the config directory. The
// value may be a path to the JSON file or the literal JSON.
func (c *SetupCmd) setupGoogle(cfg *config.Config, settings *config.Settings, value string, out, errOut io.Writer) int {
	if value == "" {
		fmt.Fprintln(errOut, "error: path to a service-account JSON file required")
		return exitcode.UserError
	}

	payload := []byte(value)
	if data, err := os.ReadFile(value); err == nil {
		payload = data
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		fmt.Fprintf(errOut, "error: invalid JSON: %v\n", err)
		return exitcode.AuthError
	}
	if parsed["type"] != "service_account" {
		fmt.Fprintln(errOut, "error: this does not look like a Google service-account JSON")
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := os.WriteFile(cfg.CredentialsPath(), payload, 0600); err != nil {
		fmt.Fprintf(errOut, "error: failed to save service-account file: %v\n", err)
		return exitcode.AuthError
	}

	settings.Credentials.ServiceAccountFile = cfg.CredentialsPath()
	if err := cfg.SaveSettings(settings); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "saved service-account file to %s\n", cfg.CredentialsPath())
	}
	return exitcode.Success
}
