// Package pipeline implements the row lifecycle state machine and the
// archive/compaction pass over the board.
//
// One run is a single sequential scan: sync the config block, enforce the
// board layout, then walk rows from the top of the active region until the
// first blank request. Rows are processed one at a time; the worker call
// blocks the scan.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/output"
	"sheetq/internal/worker"
)

// WorkerFactory builds the invoker once the worker command and auto-close
// flag have been synced from the board.
type WorkerFactory func(command string, autoClose bool) worker.Invoker

// Runner orchestrates one full pass over a board.
type Runner struct {
	Board     board.Client
	Cfg       *config.Config
	NewWorker WorkerFactory

	// Out receives per-row progress lines; ErrOut receives warnings.
	Out    io.Writer
	ErrOut io.Writer
}

// Report is the per-run tally.
type Report struct {
	RunID        string
	Executed     int // successful worker invocations
	Archived     int // rows moved to the archive triple
	Failed       int // worker invocations that failed (rows marked Blocked)
	Skipped      int // malformed rows left untouched
	StoppedAtRow int // the row where the blank-request sentinel was hit
}

// Run performs one pass. Per-row worker failures are tallied, not returned;
// the error return covers failures that abort the rest of the scan (board
// access, archive/compaction).
func (r *Runner) Run(ctx context.Context, spreadsheetID string) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	settings, err := r.syncConfig(ctx, spreadsheetID)
	if err != nil {
		return report, err
	}
	if strings.TrimSpace(settings.SheetProperties.Command) == "" {
		return report, ErrNoCommand
	}

	if err := EnforceLayout(ctx, r.Board, spreadsheetID); err != nil {
		return report, fmt.Errorf("failed to apply board layout: %w", err)
	}

	invoker := r.NewWorker(settings.SheetProperties.Command, settings.SheetProperties.AutoClose)
	prefix := settings.SheetProperties.Prefix

	rowNum := board.TaskStartRow
	for {
		row, err := r.Board.ReadRow(ctx, spreadsheetID, rowNum)
		if err != nil {
			return report, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}
		if !row.HasRequest() {
			report.StoppedAtRow = rowNum
			break
		}

		status, known := board.ParseStatus(row.Status)
		switch {
		case known && status == board.StatusApproved:
			if strings.TrimSpace(row.Summary) == "" {
				output.Warningf(r.ErrOut, "row %d: approved but never processed, skipping", rowNum)
				report.Skipped++
				rowNum++
				continue
			}
			output.RowAction(r.Out, rowNum, "approved, archiving")
			if err := r.archive(ctx, spreadsheetID, rowNum, row); err != nil {
				return report, &ArchiveError{Row: rowNum, Err: err}
			}
			report.Archived++
			// Compaction moved the next row into this slot; re-examine
			// the same index so a run of approvals archives in one pass.

		case strings.TrimSpace(row.Summary) == "":
			output.RowAction(r.Out, rowNum, "new task, running worker")
			if err := r.runNew(ctx, spreadsheetID, rowNum, row, invoker, prefix, &report); err != nil {
				return report, err
			}
			rowNum++

		case known && status == board.StatusOngoing:
			output.RowAction(r.Out, rowNum, "ongoing, resuming")
			if err := r.runResume(ctx, spreadsheetID, rowNum, row, invoker, prefix, &report); err != nil {
				return report, err
			}
			rowNum++

		default:
			// Testing, Blocked, Completed, and anything unrecognized:
			// leave the row alone.
			rowNum++
		}
	}

	return report, nil
}

// runNew processes a row that has never been executed. The summary and an
// Ongoing status are written before the worker runs, so an interrupted run
// leaves the row resumable.
func (r *Runner) runNew(ctx context.Context, spreadsheetID string, rowNum int, row board.Row, invoker worker.Invoker, prefix string, report *Report) error {
	err := r.Board.SetCells(ctx, spreadsheetID, rowNum, []board.CellUpdate{
		{Col: board.ColSummary, Value: Summarize(row.Request)},
		{Col: board.ColStatus, Value: string(board.StatusOngoing)},
	})
	if err != nil {
		return fmt.Errorf("failed to write summary for row %d: %w", rowNum, err)
	}

	result, invokeErr := invoker.Invoke(ctx, joinPrefix(prefix, row.Request), "")
	return r.writeOutcome(ctx, spreadsheetID, rowNum, result, invokeErr, report)
}

// runResume continues an Ongoing row using its stored session token. The
// resume prompt is the user's follow-up input when present, the original
// request otherwise.
func (r *Runner) runResume(ctx context.Context, spreadsheetID string, rowNum int, row board.Row, invoker worker.Invoker, prefix string, report *Report) error {
	prompt := strings.TrimSpace(row.ExtraInput)
	if prompt == "" {
		prompt = row.Request
	}

	result, invokeErr := invoker.Invoke(ctx, joinPrefix(prefix, prompt), row.SessionToken)
	return r.writeOutcome(ctx, spreadsheetID, rowNum, result, invokeErr, report)
}

// writeOutcome applies a worker result to the row. Writes land in a fixed
// order: status, then output, then session token. A failed invocation marks
// the row Blocked with a diagnostic and leaves summary and token untouched.
func (r *Runner) writeOutcome(ctx context.Context, spreadsheetID string, rowNum int, result worker.Result, invokeErr error, report *Report) error {
	if invokeErr != nil {
		output.Warningf(r.ErrOut, "row %d: worker failed: %v", rowNum, invokeErr)
		report.Failed++
		err := r.Board.SetCells(ctx, spreadsheetID, rowNum, []board.CellUpdate{
			{Col: board.ColStatus, Value: string(board.StatusBlocked)},
			{Col: board.ColOutput, Value: "Worker invocation failed: " + invokeErr.Error()},
		})
		if err != nil {
			return fmt.Errorf("failed to record failure for row %d: %w", rowNum, err)
		}
		return nil
	}

	report.Executed++
	updates := []board.CellUpdate{
		{Col: board.ColStatus, Value: string(result.Status)},
		{Col: board.ColOutput, Value: result.Text},
	}
	if result.SessionToken != "" {
		updates = append(updates, board.CellUpdate{Col: board.ColSessionToken, Value: result.SessionToken})
	}
	if err := r.Board.SetCells(ctx, spreadsheetID, rowNum, updates); err != nil {
		return fmt.Errorf("failed to write result for row %d: %w", rowNum, err)
	}
	return nil
}

// joinPrefix composes the effective prompt from the configured prefix and
// the row's prompt text.
func joinPrefix(prefix, prompt string) string {
	prefix = strings.TrimSpace(prefix)
	prompt = strings.TrimSpace(prompt)
	if prefix == "" {
		return prompt
	}
	if prompt == "" {
		return prefix
	}
	return prefix + " " + prompt
}
