package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoCommand means the worker command is blank after config sync.
var ErrNoCommand = errors.New(`worker command is empty: fill the Command cell on the board or run: sheetq setup command "<cmd>"`)

// ArchiveError wraps a failed archive/compaction write. A half-shifted queue
// breaks contiguity, so this aborts the remainder of the run.
type ArchiveError struct {
	Row int
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive failed at row %d: %v", e.Row, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
