// Package board defines the backend-agnostic contract for the task board:
// typed read/write access to a rectangular grid of cells addressed by row
// index and named column. The pipeline never imports the Google SDK directly.
package board

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Column is a fixed board column letter.
type Column string

// Board columns. Live task fields occupy B through G; the archive triple
// occupies J through L and is never shifted by compaction.
const (
	ColConfig          Column = "A"
	ColRequest         Column = "B"
	ColSummary         Column = "C"
	ColStatus          Column = "D"
	ColExtraInput      Column = "E"
	ColOutput          Column = "F"
	ColSessionToken    Column = "G"
	ColArchivedSummary Column = "J"
	ColArchivedRequest Column = "K"
	ColArchivedOutput  Column = "L"
)

// Status is a task lifecycle status. The zero value means the row has not
// been touched by the pipeline yet.
type Status string

const (
	StatusOngoing   Status = "Ongoing"
	StatusTesting   Status = "Testing"
	StatusBlocked   Status = "Blocked"
	StatusCompleted Status = "Completed"
	StatusApproved  Status = "Approved"
)

// StatusOptions is the dropdown value set applied to the status column.
var StatusOptions = []string{
	string(StatusOngoing),
	string(StatusTesting),
	string(StatusBlocked),
	string(StatusCompleted),
	string(StatusApproved),
}

// ParseStatus maps a raw status cell into the closed status set.
// The second return reports whether the value was recognized.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.TrimSpace(raw)) {
	case StatusOngoing:
		return StatusOngoing, true
	case StatusTesting:
		return StatusTesting, true
	case StatusBlocked:
		return StatusBlocked, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusApproved:
		return StatusApproved, true
	default:
		return "", false
	}
}

// Row is a snapshot of one task row's live fields (columns B through G).
type Row struct {
	Request      string
	Summary      string
	Status       string
	ExtraInput   string
	Output       string
	SessionToken string
}

// HasRequest reports whether the row is structurally part of the active
// region. A blank request is the end-of-queue sentinel.
func (r Row) HasRequest() bool {
	return strings.TrimSpace(r.Request) != ""
}

// WrapStrategy is a cell text wrap mode.
type WrapStrategy string

const (
	WrapClip WrapStrategy = "CLIP"
	WrapWrap WrapStrategy = "WRAP"
)

// Format is a declarative column formatting rule.
type Format struct {
	Wrap          WrapStrategy
	VerticalAlign string // "TOP" or empty
}

// CellUpdate is a single cell write. Updates are applied in slice order so
// the caller controls write ordering within a row.
type CellUpdate struct {
	Col   Column
	Value string
}

// Grid layout constants.
const (
	// TaskStartRow is the first data row; row 1 is the frozen header.
	TaskStartRow = 2

	// MaxRows bounds formatting and validation ranges.
	MaxRows = 2000

	// ConfigStartRow is the first row of the config block in column A.
	ConfigStartRow = 2
)

// ConfigProperty is one label/value pair of the reserved config block.
type ConfigProperty struct {
	Key   string
	Label string
}

// ConfigProperties lists the config block pairs in board order. Each pair
// occupies two rows in column A: the label row, then the value row.
var ConfigProperties = []ConfigProperty{
	{Key: "prefix", Label: "Prefix"},
	{Key: "command", Label: "Command"},
	{Key: "auto_close", Label: "Auto Close"},
}

// ConfigEndRow returns the last row of the config block.
func ConfigEndRow() int {
	return ConfigStartRow + len(ConfigProperties)*2 - 1
}

// Headers is the header row written by board initialization.
var Headers = []string{
	"Configs",
	"User Prompt",
	"Ticket Summary",
	"Status",
	"User Input",
	"AI Thoughts / Output",
	"Session ID",
	"",
	"",
	"Approved Tickets",
	"Original Prompt",
	"Final Thoughts",
}

// Client is the board contract consumed by the pipeline and commands.
// All methods take the spreadsheet ID so a single authenticated client can
// serve any board.
type Client interface {
	// VerifyAccess checks that the board is reachable and shared with the
	// configured credentials.
	VerifyAccess(ctx context.Context, spreadsheetID string) error

	// InitializeLayout writes the header row, the config block labels and
	// values, freezes the header, and applies base formatting.
	InitializeLayout(ctx context.Context, spreadsheetID string, props map[string]string) error

	// ConfigValues reads the config block and returns values keyed by
	// ConfigProperty.Key. Missing cells are returned as empty strings.
	ConfigValues(ctx context.Context, spreadsheetID string) (map[string]string, error)

	// ReadRow returns the live-field snapshot of one row.
	ReadRow(ctx context.Context, spreadsheetID string, row int) (Row, error)

	// ReadLiveRows returns live-field snapshots from startRow through the
	// last populated row of the sheet, in row order.
	ReadLiveRows(ctx context.Context, spreadsheetID string, startRow int) ([]Row, error)

	// SetCells writes individual cells on one row, in the given order.
	SetCells(ctx context.Context, spreadsheetID string, row int, updates []CellUpdate) error

	// NextArchiveRow returns the first row at or after TaskStartRow whose
	// archive triple is blank. Archive entries accumulate in approval
	// order and are never shifted by compaction.
	NextArchiveRow(ctx context.Context, spreadsheetID string) (int, error)

	// WriteLiveRows bulk-writes live fields (B:G) for a block of rows
	// starting at startRow.
	WriteLiveRows(ctx context.Context, spreadsheetID string, startRow int, rows []Row) error

	// ClearLiveRow clears the live fields (B:G) of one row.
	ClearLiveRow(ctx context.Context, spreadsheetID string, row int) error

	// ApplyColumnFormat applies a formatting rule to a whole column.
	ApplyColumnFormat(ctx context.Context, spreadsheetID string, col Column, format Format) error

	// ApplyDropdown applies a strict one-of-list validation to a column,
	// starting at the first data row.
	ApplyDropdown(ctx context.Context, spreadsheetID string, col Column, values []string) error
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
var bareIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// ParseSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
// A bare ID is accepted as-is.
func ParseSpreadsheetID(urlOrID string) (string, error) {
	urlOrID = strings.TrimSpace(urlOrID)
	if urlOrID == "" {
		return "", fmt.Errorf("empty sheet reference")
	}
	if !strings.Contains(urlOrID, "/") && bareIDPattern.MatchString(urlOrID) {
		return urlOrID, nil
	}
	m := spreadsheetIDPattern.FindStringSubmatch(urlOrID)
	if m == nil {
		return "", fmt.Errorf("invalid sheet URL: %s", urlOrID)
	}
	return m[1], nil
}

// SpreadsheetURL returns the canonical edit URL for a spreadsheet ID.
func SpreadsheetURL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID + "/edit"
}

// SingleLine collapses all whitespace runs (including newlines) into single
// spaces and trims the result. Archived output is flattened with this.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
