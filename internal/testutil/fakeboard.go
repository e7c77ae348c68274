// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"sheetq/internal/board"
)

// ErrInjected is the default injected failure.
var ErrInjected = errors.New("injected failure")

// ArchiveEntry is one archived task triple.
type ArchiveEntry struct {
	Summary string
	Request string
	Output  string
}

// CellWrite records one cell write in the order it was applied.
type CellWrite struct {
	Row   int
	Col   board.Column
	Value string
}

// FormatCall records one ApplyColumnFormat call.
type FormatCall struct {
	Col    board.Column
	Format board.Format
}

// DropdownCall records one ApplyDropdown call.
type DropdownCall struct {
	Col    board.Column
	Values []string
}

// FakeBoard is an in-memory implementation of board.Client for testing.
type FakeBoard struct {
	mu       sync.RWMutex
	rows     map[int]board.Row
	archives map[int]ArchiveEntry
	config   map[string]string

	// Recorded calls.
	CellWrites  []CellWrite
	Formats     []FormatCall
	Dropdowns   []DropdownCall
	Initialized bool
	InitProps   map[string]string

	// Error injection for testing.
	VerifyAccessErr  error
	ConfigValuesErr  error
	ReadRowErr       error
	SetCellsErr      error
	SetCellsFailures int // fail this many SetCells calls, then succeed
	WriteLiveRowsErr error
	ClearLiveRowErr  error
	ApplyFormatErr   error
	ApplyDropdownErr error
}

// NewFakeBoard creates an empty in-memory board.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{
		rows:     make(map[int]board.Row),
		archives: make(map[int]ArchiveEntry),
		config:   make(map[string]string),
	}
}

// SetRow seeds a row's live fields.
func (f *FakeBoard) SetRow(row int, r board.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row] = r
}

// Row returns a row's live fields.
func (f *FakeBoard) Row(row int) board.Row {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rows[row]
}

// Archive returns a row's archive triple.
func (f *FakeBoard) Archive(row int) ArchiveEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.archives[row]
}

// SetConfigValue seeds one config block value.
func (f *FakeBoard) SetConfigValue(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config[key] = value
}

// ActiveRequests returns the request column of the active region, in order.
func (f *FakeBoard) ActiveRequests() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var requests []string
	for row := board.TaskStartRow; ; row++ {
		r, ok := f.rows[row]
		if !ok || !r.HasRequest() {
			return requests
		}
		requests = append(requests, r.Request)
	}
}

// VerifyAccess implements board.Client.
func (f *FakeBoard) VerifyAccess(ctx context.Context, spreadsheetID string) error {
	return f.VerifyAccessErr
}

// InitializeLayout implements board.Client.
func (f *FakeBoard) InitializeLayout(ctx context.Context, spreadsheetID string, props map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Initialized = true
	f.InitProps = props
	for _, prop := range board.ConfigProperties {
		f.config[prop.Key] = props[prop.Key]
	}
	return nil
}

// ConfigValues implements board.Client.
func (f *FakeBoard) ConfigValues(ctx context.Context, spreadsheetID string) (map[string]string, error) {
	if f.ConfigValuesErr != nil {
		return nil, f.ConfigValuesErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	values := make(map[string]string, len(board.ConfigProperties))
	for _, prop := range board.ConfigProperties {
		values[prop.Key] = f.config[prop.Key]
	}
	return values, nil
}

// ReadRow implements board.Client.
func (f *FakeBoard) ReadRow(ctx context.Context, spreadsheetID string, row int) (board.Row, error) {
	if f.ReadRowErr != nil {
		return board.Row{}, f.ReadRowErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rows[row], nil
}

// ReadLiveRows implements board.Client.
func (f *FakeBoard) ReadLiveRows(ctx context.Context, spreadsheetID string, startRow int) ([]board.Row, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	maxRow := 0
	for row := range f.rows {
		if row > maxRow {
			maxRow = row
		}
	}

	var rows []board.Row
	for row := startRow; row <= maxRow; row++ {
		rows = append(rows, f.rows[row])
	}
	return rows, nil
}

// SetCells implements board.Client.
func (f *FakeBoard) SetCells(ctx context.Context, spreadsheetID string, row int, updates []board.CellUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetCellsFailures > 0 {
		f.SetCellsFailures--
		return ErrInjected
	}
	if f.SetCellsErr != nil {
		return f.SetCellsErr
	}

	for _, u := range updates {
		f.setCell(row, u.Col, u.Value)
		f.CellWrites = append(f.CellWrites, CellWrite{Row: row, Col: u.Col, Value: u.Value})
	}
	return nil
}

func (f *FakeBoard) setCell(row int, col board.Column, value string) {
	r := f.rows[row]
	a := f.archives[row]
	switch col {
	case board.ColRequest:
		r.Request = value
	case board.ColSummary:
		r.Summary = value
	case board.ColStatus:
		r.Status = value
	case board.ColExtraInput:
		r.ExtraInput = value
	case board.ColOutput:
		r.Output = value
	case board.ColSessionToken:
		r.SessionToken = value
	case board.ColArchivedSummary:
		a.Summary = value
	case board.ColArchivedRequest:
		a.Request = value
	case board.ColArchivedOutput:
		a.Output = value
	}
	f.rows[row] = r
	f.archives[row] = a
}

// NextArchiveRow implements board.Client.
func (f *FakeBoard) NextArchiveRow(ctx context.Context, spreadsheetID string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	row := board.TaskStartRow
	for {
		if f.archives[row] == (ArchiveEntry{}) {
			return row, nil
		}
		row++
	}
}

// WriteLiveRows implements board.Client.
func (f *FakeBoard) WriteLiveRows(ctx context.Context, spreadsheetID string, startRow int, rows []board.Row) error {
	if f.WriteLiveRowsErr != nil {
		return f.WriteLiveRowsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range rows {
		f.rows[startRow+i] = r
	}
	return nil
}

// ClearLiveRow implements board.Client.
func (f *FakeBoard) ClearLiveRow(ctx context.Context, spreadsheetID string, row int) error {
	if f.ClearLiveRowErr != nil {
		return f.ClearLiveRowErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row] = board.Row{}
	return nil
}

// ApplyColumnFormat implements board.Client.
func (f *FakeBoard) ApplyColumnFormat(ctx context.Context, spreadsheetID string, col board.Column, format board.Format) error {
	if f.ApplyFormatErr != nil {
		return f.ApplyFormatErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Formats = append(f.Formats, FormatCall{Col: col, Format: format})
	return nil
}

// ApplyDropdown implements board.Client.
func (f *FakeBoard) ApplyDropdown(ctx context.Context, spreadsheetID string, col board.Column, values []string) error {
	if f.ApplyDropdownErr != nil {
		return f.ApplyDropdownErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dropdowns = append(f.Dropdowns, DropdownCall{Col: col, Values: values})
	return nil
}
