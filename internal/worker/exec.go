package worker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"sheetq/internal/board"
)

const (
	// DefaultTimeout bounds a single worker invocation.
	DefaultTimeout = time.Hour

	// maxOutputLen caps the output written back to the board. Sheets cells
	// hold 50k characters.
	maxOutputLen = 49000
)

// CommandRunner invokes the worker as a shell command.
//
// The configured command may carry {prompt} and {session} placeholders.
// Without placeholders the prompt is appended as a quoted argument; in
// auto-close mode the command is rewritten into the agent's non-interactive
// form ("exec", "exec resume <token>") so the process exits when the task is
// done.
type CommandRunner struct {
	// Command is the base command line, from the board config block.
	Command string

	// AutoClose selects the non-interactive exec form for commands without
	// placeholders.
	AutoClose bool

	// Timeout bounds one invocation. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Invoke implements Invoker.
func (r *CommandRunner) Invoke(ctx context.Context, prompt, resumeToken string) (Result, error) {
	built := r.buildCommand(prompt, resumeToken)

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", built)
	outBytes, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(outBytes))

	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("worker command timed out after %s", timeout)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("worker command failed to start: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	if output == "" {
		output = "(no output)"
	}

	token := extractSessionToken(output)
	if token == "" {
		token = resumeToken
	}

	return Result{
		Status:       decideStatus(exitCode, output),
		Text:         truncate(output, maxOutputLen),
		SessionToken: token,
	}, nil
}

// buildCommand composes the full command line for one invocation.
func (r *CommandRunner) buildCommand(prompt, resumeToken string) string {
	escaped := strings.ReplaceAll(prompt, `"`, `\"`)
	command := strings.TrimSpace(r.Command)

	if strings.Contains(command, "{prompt}") {
		built := strings.ReplaceAll(command, "{prompt}", escaped)
		if strings.Contains(built, "{session}") {
			return strings.ReplaceAll(built, "{session}", resumeToken)
		}
		if resumeToken != "" {
			return built + " resume " + resumeToken
		}
		return built
	}

	if r.AutoClose && !isNonInteractive(command) {
		if resumeToken != "" {
			return fmt.Sprintf(`%s exec resume %s "%s"`, command, resumeToken, escaped)
		}
		return fmt.Sprintf(`%s exec "%s"`, command, escaped)
	}

	if resumeToken != "" {
		return fmt.Sprintf(`%s resume %s "%s"`, command, resumeToken, escaped)
	}
	return fmt.Sprintf(`%s "%s"`, command, escaped)
}

// isNonInteractive reports whether the command already selects a
// non-interactive agent mode, in which case it is never rewritten.
func isNonInteractive(command string) bool {
	for _, token := range strings.Fields(strings.ToLower(command)) {
		if token == "exec" || token == "review" {
			return true
		}
	}
	return false
}

// decideStatus maps an exit code and the worker's output into the closed
// status set. Unrecognized signals fall back to Blocked so an open-ended
// string never propagates into the state machine.
func decideStatus(exitCode int, output string) board.Status {
	if exitCode != 0 {
		return board.StatusBlocked
	}

	normalized := strings.ToLower(output)
	switch {
	case strings.Contains(normalized, "status: testing"):
		return board.StatusTesting
	case strings.Contains(normalized, "status: blocked"):
		return board.StatusBlocked
	case strings.Contains(normalized, "status: completed"):
		return board.StatusCompleted
	case strings.Contains(normalized, "status:"):
		return board.StatusBlocked
	default:
		return board.StatusCompleted
	}
}

// sessionTokenPatterns are tried in order; the first match wins. They cover
// the session handle formats the common agent CLIs print.
var sessionTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"session_id"\s*:\s*"([A-Za-z0-9._:-]+)"`),
	regexp.MustCompile(`(?i)'session_id'\s*:\s*'([A-Za-z0-9._:-]+)'`),
	regexp.MustCompile(`(?i)/sessions/([A-Za-z0-9._:-]+)`),
	regexp.MustCompile(`(?i)\bresume\s+([0-9a-f]{8}-[0-9a-f-]{27,})`),
	regexp.MustCompile(`(?i)session[_\s-]?id\s*[:=]\s*([A-Za-z0-9._-]+)`),
	regexp.MustCompile(`(?i)conversation[_\s-]?id\s*[:=]\s*([A-Za-z0-9._-]+)`),
	regexp.MustCompile(`(?i)\bsession\s+([A-Za-z0-9._:-]{8,})`),
}

// extractSessionToken scans the worker output for a resume token.
func extractSessionToken(output string) string {
	for _, pattern := range sessionTokenPatterns {
		if m := pattern.FindStringSubmatch(output); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit-15] + "\n...[truncated]"
}
