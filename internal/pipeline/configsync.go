package pipeline

import (
	"context"
	"strings"

	"sheetq/internal/config"
	"sheetq/internal/output"
)

// syncConfig merges the board's config block into the local settings and
// persists the result before any row is processed, so worker invocations
// always use the freshest prefix and command. Non-blank board values win
// over local ones.
func (r *Runner) syncConfig(ctx context.Context, spreadsheetID string) (*config.Settings, error) {
	settings, err := r.Cfg.LoadSettings()
	if err != nil {
		return nil, err
	}

	values, err := r.Board.ConfigValues(ctx, spreadsheetID)
	if err != nil {
		// Last-known-good local settings keep the run alive.
		output.Warningf(r.ErrOut, "could not read board config block, using local settings: %v", err)
		return settings, nil
	}

	if v := strings.TrimSpace(values["prefix"]); v != "" {
		settings.SheetProperties.Prefix = v
	}
	if v := strings.TrimSpace(values["command"]); v != "" {
		settings.SheetProperties.Command = v
	}
	if v := strings.TrimSpace(values["auto_close"]); v != "" {
		parsed, ok := config.ParseBool(v)
		if !ok {
			output.Warningf(r.ErrOut, "unparseable Auto Close value %q, treating as false", v)
		}
		settings.SheetProperties.AutoClose = parsed
	}

	if err := r.Cfg.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}
