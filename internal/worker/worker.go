// Package worker defines the contract for the external agent process and a
// shell-command implementation of it. The worker's internals are opaque:
// input is a composed prompt and an optional resume token, output is a
// lifecycle status, free text, and an optional new resume token.
package worker

import (
	"context"

	"sheetq/internal/board"
)

// Result is the outcome of one worker invocation.
type Result struct {
	// Status is the worker-reported signal mapped into the board's closed
	// status set.
	Status board.Status

	// Text is the worker's free-text output, possibly truncated.
	Text string

	// SessionToken is the resume handle for continuing this invocation's
	// context. Empty means the worker did not report one.
	SessionToken string
}

// Invoker runs the external worker process. Implementations block until the
// worker returns a terminal result or fails.
type Invoker interface {
	Invoke(ctx context.Context, prompt, resumeToken string) (Result, error)
}
