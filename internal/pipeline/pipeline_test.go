package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"sheetq/internal/board"
	"sheetq/internal/config"
	"sheetq/internal/pipeline"
	"sheetq/internal/testutil"
	"sheetq/internal/worker"
)

const testSheetID = "sheet-under-test"

// harness wires a Runner to an in-memory board and a scripted worker.
type harness struct {
	board  *testutil.FakeBoard
	worker *testutil.ScriptedWorker
	runner *pipeline.Runner
	out    bytes.Buffer
	errOut bytes.Buffer

	// captured from the worker factory
	command   string
	autoClose bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		board:  testutil.NewFakeBoard(),
		worker: &testutil.ScriptedWorker{},
	}
	h.board.SetConfigValue("command", "agent")

	cfg := &config.Config{Dir: t.TempDir()}
	h.runner = &pipeline.Runner{
		Board: h.board,
		Cfg:   cfg,
		NewWorker: func(command string, autoClose bool) worker.Invoker {
			h.command = command
			h.autoClose = autoClose
			return h.worker
		},
		Out:    &h.out,
		ErrOut: &h.errOut,
	}
	return h
}

func (h *harness) run(t *testing.T) pipeline.Report {
	t.Helper()
	report, err := h.runner.Run(context.Background(), testSheetID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return report
}

func TestRun_NewTask(t *testing.T) {
	h := newHarness(t)
	h.board.SetConfigValue("prefix", "Please:")
	h.board.SetRow(2, board.Row{Request: "fix the login bug"})
	h.worker.Script = func(call testutil.WorkerCall) (worker.Result, error) {
		return worker.Result{
			Status:       board.StatusTesting,
			Text:         "patched, needs verification",
			SessionToken: "sess-1",
		}, nil
	}

	report := h.run(t)

	calls := h.worker.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 worker call, got %d", len(calls))
	}
	if calls[0].Prompt != "Please: fix the login bug" {
		t.Errorf("expected prefixed prompt, got %q", calls[0].Prompt)
	}
	if calls[0].ResumeToken != "" {
		t.Errorf("new task must not carry a resume token, got %q", calls[0].ResumeToken)
	}

	row := h.board.Row(2)
	if row.Summary != "fix the login bug" {
		t.Errorf("expected summary written, got %q", row.Summary)
	}
	if row.Status != string(board.StatusTesting) {
		t.Errorf("expected worker status, got %q", row.Status)
	}
	if row.Output != "patched, needs verification" {
		t.Errorf("expected worker output, got %q", row.Output)
	}
	if row.SessionToken != "sess-1" {
		t.Errorf("expected session token written, got %q", row.SessionToken)
	}
	if report.Executed != 1 || report.Failed != 0 {
		t.Errorf("expected executed=1 failed=0, got %+v", report)
	}
}

func TestRun_NewTaskWritesOngoingBeforeResult(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "task"})

	h.run(t)

	// First writes on the row: summary, then Ongoing, before the result lands.
	writes := h.board.CellWrites
	if len(writes) < 2 {
		t.Fatalf("expected at least 2 cell writes, got %d", len(writes))
	}
	if writes[0].Col != board.ColSummary {
		t.Errorf("expected first write to summary, got %s", writes[0].Col)
	}
	if writes[1].Col != board.ColStatus || writes[1].Value != string(board.StatusOngoing) {
		t.Errorf("expected second write to set status Ongoing, got %s=%q", writes[1].Col, writes[1].Value)
	}
}

func TestRun_ResumeUsesExtraInput(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{
		Request:      "original request",
		Summary:      "original request",
		Status:       string(board.StatusOngoing),
		ExtraInput:   "X",
		SessionToken: "sess-9",
	})

	h.run(t)

	calls := h.worker.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 worker call, got %d", len(calls))
	}
	if calls[0].Prompt != "X" {
		t.Errorf("expected resume prompt %q, got %q", "X", calls[0].Prompt)
	}
	if calls[0].ResumeToken != "sess-9" {
		t.Errorf("expected stored session token, got %q", calls[0].ResumeToken)
	}
}

func TestRun_ResumeFallsBackToRequest(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{
		Request:      "original request",
		Summary:      "original request",
		Status:       string(board.StatusOngoing),
		SessionToken: "sess-9",
	})

	h.run(t)

	calls := h.worker.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 worker call, got %d", len(calls))
	}
	if calls[0].Prompt != "original request" {
		t.Errorf("expected request as resume prompt, got %q", calls[0].Prompt)
	}
}

func TestRun_ScanStopsAtFirstBlankRequest(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "a"})
	h.board.SetRow(3, board.Row{Request: "b"})
	h.board.SetRow(4, board.Row{Request: "c"})
	// Row 5 blank; rows 6+ must be ignored even with content.
	h.board.SetRow(6, board.Row{Request: "orphan"})

	report := h.run(t)

	if got := len(h.worker.Calls()); got != 3 {
		t.Errorf("expected 3 worker calls, got %d", got)
	}
	if report.StoppedAtRow != 5 {
		t.Errorf("expected scan to stop at row 5, got %d", report.StoppedAtRow)
	}
	if row := h.board.Row(6); row.Summary != "" || row.Status != "" {
		t.Errorf("row 6 must be untouched, got %+v", row)
	}
}

func TestRun_PassiveStatesUntouched(t *testing.T) {
	for _, status := range []board.Status{board.StatusTesting, board.StatusBlocked, board.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness(t)
			h.board.SetRow(2, board.Row{Request: "r", Summary: "s", Status: string(status), Output: "o"})

			report := h.run(t)

			if got := len(h.worker.Calls()); got != 0 {
				t.Errorf("expected no worker calls, got %d", got)
			}
			if len(h.board.CellWrites) != 0 {
				t.Errorf("expected no cell writes, got %v", h.board.CellWrites)
			}
			if report.Executed != 0 || report.Archived != 0 || report.Failed != 0 {
				t.Errorf("expected empty report, got %+v", report)
			}
		})
	}
}

func TestRun_UnknownStatusIsPassive(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "r", Summary: "s", Status: "Garbage"})
	h.board.SetRow(3, board.Row{Request: "r2", Summary: "s2", Status: ""})

	h.run(t)

	if got := len(h.worker.Calls()); got != 0 {
		t.Errorf("expected no worker calls on inconsistent rows, got %d", got)
	}
	if len(h.board.CellWrites) != 0 {
		t.Errorf("expected no cell writes, got %v", h.board.CellWrites)
	}
}

func TestRun_WorkerFailureMarksBlockedAndContinues(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "first"})
	h.board.SetRow(3, board.Row{Request: "second"})
	h.worker.Script = func(call testutil.WorkerCall) (worker.Result, error) {
		if call.Prompt == "first" {
			return worker.Result{}, errors.New("process unreachable")
		}
		return worker.Result{Status: board.StatusCompleted, Text: "done"}, nil
	}

	report := h.run(t)

	row := h.board.Row(2)
	if row.Status != string(board.StatusBlocked) {
		t.Errorf("expected failed row marked Blocked, got %q", row.Status)
	}
	if !strings.Contains(row.Output, "process unreachable") {
		t.Errorf("expected diagnostic in output, got %q", row.Output)
	}
	if row.SessionToken != "" {
		t.Errorf("session token must stay untouched on failure, got %q", row.SessionToken)
	}
	if h.board.Row(3).Status != string(board.StatusCompleted) {
		t.Errorf("scan must continue past a failed row, row 3 = %+v", h.board.Row(3))
	}
	if report.Failed != 1 || report.Executed != 1 {
		t.Errorf("expected failed=1 executed=1, got %+v", report)
	}
	if !strings.Contains(h.errOut.String(), "worker failed") {
		t.Errorf("expected warning on errOut, got %q", h.errOut.String())
	}
}

func TestRun_ArchiveMovesTripleAndCompacts(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{
		Request: "req-a",
		Summary: "sum-a",
		Status:  string(board.StatusApproved),
		Output:  "line one\nline two\n  line three",
	})
	h.board.SetRow(3, board.Row{Request: "req-b", Summary: "sum-b", Status: string(board.StatusTesting)})

	report := h.run(t)

	archive := h.board.Archive(2)
	if archive.Summary != "sum-a" || archive.Request != "req-a" {
		t.Errorf("unexpected archive triple: %+v", archive)
	}
	if archive.Output != "line one line two line three" {
		t.Errorf("archived output must be flattened to one line, got %q", archive.Output)
	}

	if got := h.board.Row(2); got.Request != "req-b" || got.Summary != "sum-b" {
		t.Errorf("expected row 3 shifted into row 2, got %+v", got)
	}
	if got := h.board.Row(3); got.HasRequest() {
		t.Errorf("expected row 3 cleared after shift, got %+v", got)
	}
	if report.Archived != 1 {
		t.Errorf("expected archived=1, got %+v", report)
	}
}

func TestRun_ConsecutiveApprovals(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "r2", Summary: "s2", Status: string(board.StatusApproved), Output: "o2"})
	h.board.SetRow(3, board.Row{Request: "r3", Summary: "s3", Status: string(board.StatusApproved), Output: "o3"})
	h.board.SetRow(4, board.Row{Request: "r4", Summary: "s4", Status: string(board.StatusApproved), Output: "o4"})
	h.board.SetRow(5, board.Row{Request: "r5", Summary: "s5", Status: string(board.StatusTesting), Output: "o5"})

	report := h.run(t)

	if report.Archived != 3 {
		t.Fatalf("expected 3 archived rows, got %+v", report)
	}

	// Archive entries accumulate in original row order.
	for row, want := range map[int]string{2: "r2", 3: "r3", 4: "r4"} {
		if got := h.board.Archive(row); got.Request != want {
			t.Errorf("archive row %d: expected request %q, got %q", row, want, got.Request)
		}
	}

	// Row 5's content survives as the only live row.
	if got := h.board.Row(2); got.Request != "r5" || got.Status != string(board.StatusTesting) {
		t.Errorf("expected row 5 compacted into row 2, got %+v", got)
	}
	for row := 3; row <= 5; row++ {
		if h.board.Row(row).HasRequest() {
			t.Errorf("expected row %d blank after compaction, got %+v", row, h.board.Row(row))
		}
	}

	// Contiguity: active region has no gaps.
	if got := h.board.ActiveRequests(); len(got) != 1 || got[0] != "r5" {
		t.Errorf("expected active region [r5], got %v", got)
	}
}

func TestRun_ArchiveLastActiveRow(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "only", Summary: "only", Status: string(board.StatusApproved)})

	report := h.run(t)

	if report.Archived != 1 {
		t.Fatalf("expected 1 archive, got %+v", report)
	}
	if h.board.Row(2).HasRequest() {
		t.Errorf("expected row 2 cleared, got %+v", h.board.Row(2))
	}
	if got := h.board.Archive(2); got.Request != "only" {
		t.Errorf("expected archived request, got %+v", got)
	}
}

func TestRun_MalformedApprovedRowSkipped(t *testing.T) {
	h := newHarness(t)
	// Approved but never processed: blank summary.
	h.board.SetRow(2, board.Row{Request: "r", Status: string(board.StatusApproved)})
	h.board.SetRow(3, board.Row{Request: "next"})

	report := h.run(t)

	if report.Archived != 0 {
		t.Errorf("malformed row must not be archived, got %+v", report)
	}
	if report.Skipped != 1 {
		t.Errorf("expected skipped=1, got %+v", report)
	}
	if !strings.Contains(h.errOut.String(), "never processed") {
		t.Errorf("expected warning, got %q", h.errOut.String())
	}
	if h.board.Row(3).Status == "" {
		t.Error("scan must continue past the malformed row")
	}
}

func TestRun_ConfigPrecedenceAndPersistence(t *testing.T) {
	h := newHarness(t)
	h.board.SetConfigValue("prefix", "X")
	h.board.SetConfigValue("command", "sheet-cmd")
	h.board.SetConfigValue("auto_close", "off")

	settings := &config.Settings{
		SheetProperties: config.SheetProperties{Prefix: "Y", Command: "local-cmd", AutoClose: true},
	}
	if err := h.runner.Cfg.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	h.run(t)

	if h.command != "sheet-cmd" {
		t.Errorf("expected sheet command to win, got %q", h.command)
	}
	if h.autoClose {
		t.Error("expected auto-close synced to false")
	}

	persisted, err := h.runner.Cfg.LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if persisted.SheetProperties.Prefix != "X" {
		t.Errorf("expected persisted prefix %q, got %q", "X", persisted.SheetProperties.Prefix)
	}
	if persisted.SheetProperties.Command != "sheet-cmd" {
		t.Errorf("expected persisted command %q, got %q", "sheet-cmd", persisted.SheetProperties.Command)
	}
}

func TestRun_UnparseableAutoCloseWarnsAndDisables(t *testing.T) {
	h := newHarness(t)
	h.board.SetConfigValue("auto_close", "maybe")

	h.run(t)

	if h.autoClose {
		t.Error("unparseable auto-close must disable it")
	}
	if !strings.Contains(h.errOut.String(), "Auto Close") {
		t.Errorf("expected warning about Auto Close, got %q", h.errOut.String())
	}
}

func TestRun_UnreadableConfigBlockFallsBack(t *testing.T) {
	h := newHarness(t)
	h.board.ConfigValuesErr = errors.New("api down")

	settings := &config.Settings{
		SheetProperties: config.SheetProperties{Command: "local-cmd", AutoClose: true},
	}
	if err := h.runner.Cfg.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	h.run(t)

	if h.command != "local-cmd" {
		t.Errorf("expected last-known-good command, got %q", h.command)
	}
	if !strings.Contains(h.errOut.String(), "config block") {
		t.Errorf("expected warning, got %q", h.errOut.String())
	}
}

func TestRun_BlankCommandFails(t *testing.T) {
	h := newHarness(t)
	h.board.SetConfigValue("command", "")

	_, err := h.runner.Run(context.Background(), testSheetID)
	if !errors.Is(err, pipeline.ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestRun_ArchiveWriteRetries(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "r", Summary: "s", Status: string(board.StatusApproved)})
	h.board.SetCellsFailures = 1 // first triple write fails, retry succeeds

	report := h.run(t)

	if report.Archived != 1 {
		t.Fatalf("expected archive to succeed after retry, got %+v", report)
	}
	if got := h.board.Archive(2); got.Request != "r" {
		t.Errorf("expected archive written, got %+v", got)
	}
}

func TestRun_ArchiveFailureAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.board.SetRow(2, board.Row{Request: "r", Summary: "s", Status: string(board.StatusApproved)})
	h.board.SetRow(3, board.Row{Request: "next"})
	h.board.SetCellsFailures = 10 // outlasts every retry

	_, err := h.runner.Run(context.Background(), testSheetID)

	var archiveErr *pipeline.ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected ArchiveError, got %v", err)
	}
	if archiveErr.Row != 2 {
		t.Errorf("expected failure at row 2, got %d", archiveErr.Row)
	}
	if got := len(h.worker.Calls()); got != 0 {
		t.Errorf("run must abort before processing later rows, got %d worker calls", got)
	}
}

func TestRun_EnforcesLayout(t *testing.T) {
	h := newHarness(t)

	h.run(t)

	if len(h.board.Formats) != 6 {
		t.Errorf("expected 6 format rules applied, got %d", len(h.board.Formats))
	}
	if len(h.board.Dropdowns) != 1 {
		t.Fatalf("expected 1 dropdown applied, got %d", len(h.board.Dropdowns))
	}
	dd := h.board.Dropdowns[0]
	if dd.Col != board.ColStatus {
		t.Errorf("expected dropdown on status column, got %s", dd.Col)
	}
	if len(dd.Values) != 5 {
		t.Errorf("expected 5 status options, got %v", dd.Values)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short", "fix the bug", "fix the bug"},
		{"whitespace collapsed", "fix\nthe\t bug ", "fix the bug"},
		{"empty", "   ", ""},
		{
			"long truncated",
			strings.Repeat("a", 80) + " " + strings.Repeat("b", 40),
			strings.Repeat("a", 80) + " " + strings.Repeat("b", 12) + "...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pipeline.Summarize(tt.prompt); got != tt.want {
				t.Errorf("Summarize(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}
