// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
)

// RowAction writes one progress line for a row action.
// Format: "row {N}: {action}\n"
func RowAction(w io.Writer, row int, action string) {
	fmt.Fprintf(w, "row %d: %s\n", row, action)
}

// Warningf writes a warning line to the error stream.
func Warningf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "warning: "+format+"\n", args...)
}

// RunSummary writes the end-of-run tally.
func RunSummary(w io.Writer, executed, archived, failed int) {
	fmt.Fprintf(w, "executed %d, archived %d, failed %d\n", executed, archived, failed)
}

// DoctorCheck writes one doctor check line.
// Format: "{name}: ok\n" or "{name}: {problem}\n"
func DoctorCheck(w io.Writer, name, problem string) {
	if problem == "" {
		fmt.Fprintf(w, "%s: ok\n", name)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", name, problem)
}
