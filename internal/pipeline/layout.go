package pipeline

import (
	"context"

	"sheetq/internal/board"
)

// formatRules is the fixed formatting set enforced on every run: prompts and
// output wrap for reading, archive columns clip so one archived task stays
// one visual row, tall cells pin to the top.
var formatRules = []struct {
	Col    board.Column
	Format board.Format
}{
	{board.ColConfig, board.Format{VerticalAlign: "TOP"}},
	{board.ColRequest, board.Format{Wrap: board.WrapWrap}},
	{board.ColOutput, board.Format{Wrap: board.WrapWrap, VerticalAlign: "TOP"}},
	{board.ColArchivedSummary, board.Format{Wrap: board.WrapClip}},
	{board.ColArchivedRequest, board.Format{Wrap: board.WrapClip}},
	{board.ColArchivedOutput, board.Format{Wrap: board.WrapClip}},
}

// EnforceLayout applies the formatting rules and the status dropdown.
// Shared by the run pass and board initialization.
func EnforceLayout(ctx context.Context, b board.Client, spreadsheetID string) error {
	for _, rule := range formatRules {
		if err := b.ApplyColumnFormat(ctx, spreadsheetID, rule.Col, rule.Format); err != nil {
			return err
		}
	}
	return b.ApplyDropdown(ctx, spreadsheetID, board.ColStatus, board.StatusOptions)
}
