package testutil

import (
	"context"
	"sync"

	"sheetq/internal/board"
	"sheetq/internal/worker"
)

// WorkerCall records one worker invocation.
type WorkerCall struct {
	Prompt      string
	ResumeToken string
}

// ScriptedWorker is an in-memory worker.Invoker for testing. Script decides
// the result per call; when nil every call completes with output "done".
type ScriptedWorker struct {
	mu     sync.Mutex
	calls  []WorkerCall
	Script func(call WorkerCall) (worker.Result, error)
}

// Invoke implements worker.Invoker.
func (w *ScriptedWorker) Invoke(ctx context.Context, prompt, resumeToken string) (worker.Result, error) {
	w.mu.Lock()
	call := WorkerCall{Prompt: prompt, ResumeToken: resumeToken}
	w.calls = append(w.calls, call)
	w.mu.Unlock()

	if w.Script != nil {
		return w.Script(call)
	}
	return worker.Result{Status: board.StatusCompleted, Text: "done"}, nil
}

// Calls returns the recorded invocations in order.
func (w *ScriptedWorker) Calls() []WorkerCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	calls := make([]WorkerCall, len(w.calls))
	copy(calls, w.calls)
	return calls
}
