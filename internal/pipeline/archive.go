package pipeline

import (
	"context"

	"sheetq/internal/board"
)

// archiveWriteAttempts is how many times each archive write is tried before
// the run is aborted. Individual writes are idempotent, so retrying at the
// call level never double-shifts the queue.
const archiveWriteAttempts = 3

// archive moves an approved row into the next free archive slot and closes
// the gap. The triple is written first so the content survives on the board
// before any live field is cleared. Writing to the next free slot (rather
// than the scanned row) keeps one entry per approval even when consecutive
// approvals compact new rows into the same scan index.
func (r *Runner) archive(ctx context.Context, spreadsheetID string, rowNum int, row board.Row) error {
	archiveRow, err := r.Board.NextArchiveRow(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	err = retry(archiveWriteAttempts, func() error {
		return r.Board.SetCells(ctx, spreadsheetID, archiveRow, []board.CellUpdate{
			{Col: board.ColArchivedSummary, Value: row.Summary},
			{Col: board.ColArchivedRequest, Value: row.Request},
			{Col: board.ColArchivedOutput, Value: board.SingleLine(row.Output)},
		})
	})
	if err != nil {
		return err
	}
	return r.compact(ctx, spreadsheetID, rowNum)
}

// compact shifts the active rows after rowNum up by one slot, live-field
// columns only. The archive columns stay where each archive wrote them.
func (r *Runner) compact(ctx context.Context, spreadsheetID string, rowNum int) error {
	tail, err := r.Board.ReadLiveRows(ctx, spreadsheetID, rowNum+1)
	if err != nil {
		return err
	}

	var active []board.Row
	for _, row := range tail {
		if !row.HasRequest() {
			break
		}
		active = append(active, row)
	}

	if len(active) == 0 {
		// Nothing below to shift; just clear the archived row.
		return retry(archiveWriteAttempts, func() error {
			return r.Board.ClearLiveRow(ctx, spreadsheetID, rowNum)
		})
	}

	err = retry(archiveWriteAttempts, func() error {
		return r.Board.WriteLiveRows(ctx, spreadsheetID, rowNum, active)
	})
	if err != nil {
		return err
	}

	// The last shifted row's old slot still holds its pre-shift content.
	return retry(archiveWriteAttempts, func() error {
		return r.Board.ClearLiveRow(ctx, spreadsheetID, rowNum+len(active))
	})
}

func retry(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
