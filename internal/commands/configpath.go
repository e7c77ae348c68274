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
	Register(&ConfigCmd{})
}

// ConfigCmd implements the config command: print the settings file path.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Print the settings file path" }
func (c *ConfigCmd) Usage() string     { return "sheetq config" }
func (c *ConfigCmd) NeedsBoard() bool  { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, brd board.Client, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, cfg.SettingsPath())
	return exitcode.Success
}
