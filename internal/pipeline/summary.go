package pipeline

import (
	"strings"

	"sheetq/internal/board"
)

// summaryMaxLen caps the ticket summary written to the board.
const summaryMaxLen = 96

// Summarize compacts a prompt into a short single-line ticket summary.
func Summarize(prompt string) string {
	clean := board.SingleLine(prompt)
	if len(clean) <= summaryMaxLen {
		return clean
	}
	return strings.TrimRight(clean[:summaryMaxLen-3], " ") + "..."
}
