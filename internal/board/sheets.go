package board

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	// APITimeout is the timeout for a single Sheets API call.
	APITimeout = 30 * time.Second

	// OAuth scope for Google Sheets
	spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

	valueInputOption = "USER_ENTERED"
)

// SheetsClient implements Client using the Google Sheets API.
type SheetsClient struct {
	svc *sheets.Service
}

// NewSheetsClient creates a board client authenticated with a service-account
// key file.
func NewSheetsClient(ctx context.Context, credentialsPath string) (*SheetsClient, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read service-account file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, spreadsheetScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service-account file: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsClient{svc: svc}, nil
}

// NewSheetsClientWithService wraps an existing Sheets service (for testing).
func NewSheetsClientWithService(svc *sheets.Service) *SheetsClient {
	return &SheetsClient{svc: svc}
}

// VerifyAccess implements Client.
func (c *SheetsClient) VerifyAccess(ctx context.Context, spreadsheetID string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// firstSheetID returns the grid ID of the first sheet in the spreadsheet.
func (c *SheetsClient) firstSheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, wrapError(err)
	}
	if len(meta.Sheets) == 0 {
		return 0, fmt.Errorf("spreadsheet has no sheets")
	}
	return meta.Sheets[0].Properties.SheetId, nil
}

// InitializeLayout implements Client.
func (c *SheetsClient) InitializeLayout(ctx context.Context, spreadsheetID string, props map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	sheetID, err := c.firstSheetID(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(spreadsheetID, "A1:L1", &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}

	// Config block: alternating label and value rows in column A.
	var configCells [][]interface{}
	for _, prop := range ConfigProperties {
		configCells = append(configCells, []interface{}{prop.Label})
		configCells = append(configCells, []interface{}{props[prop.Key]})
	}
	configRange := fmt.Sprintf("A%d:A%d", ConfigStartRow, ConfigEndRow())
	_, err = c.svc.Spreadsheets.Values.Update(spreadsheetID, configRange, &sheets.ValueRange{
		Values: configCells,
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}

	requests := []*sheets.Request{
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		// Base format: everything clipped; column rules refine this.
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      MaxRows,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(Headers)),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{WrapStrategy: string(WrapClip)},
				},
				Fields: "userEnteredFormat.wrapStrategy",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(ConfigStartRow - 1),
					EndRowIndex:      int64(ConfigEndRow()),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						HorizontalAlignment: "LEFT",
						TextFormat:          &sheets.TextFormat{Bold: false},
					},
				},
				Fields: "userEnteredFormat.horizontalAlignment,userEnteredFormat.textFormat.bold",
			},
		},
	}

	// Bold each label row of the config block.
	for i := range ConfigProperties {
		labelRow := int64(ConfigStartRow + i*2)
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    labelRow - 1,
					EndRowIndex:      labelRow,
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		})
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// ConfigValues implements Client.
func (c *SheetsClient) ConfigValues(ctx context.Context, spreadsheetID string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	rng := fmt.Sprintf("A%d:A%d", ConfigStartRow, ConfigEndRow())
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	total := len(ConfigProperties) * 2
	padded := make([]string, total)
	for i, row := range resp.Values {
		if i >= total {
			break
		}
		if len(row) > 0 {
			padded[i] = cellString(row[0])
		}
	}

	values := make(map[string]string, len(ConfigProperties))
	for i, prop := range ConfigProperties {
		values[prop.Key] = padded[i*2+1]
	}
	return values, nil
}

// ReadRow implements Client.
func (c *SheetsClient) ReadRow(ctx context.Context, spreadsheetID string, row int) (Row, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	rng := fmt.Sprintf("A%d:L%d", row, row)
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return Row{}, wrapError(err)
	}
	if len(resp.Values) == 0 {
		return Row{}, nil
	}
	return rowFromValues(resp.Values[0]), nil
}

// ReadLiveRows implements Client.
func (c *SheetsClient) ReadLiveRows(ctx context.Context, spreadsheetID string, startRow int) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	rng := fmt.Sprintf("A%d:L", startRow)
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	rows := make([]Row, 0, len(resp.Values))
	for _, values := range resp.Values {
		rows = append(rows, rowFromValues(values))
	}
	return rows, nil
}

// SetCells implements Client. Updates are sent as one values batch in slice
// order, so earlier cells land before later ones.
func (c *SheetsClient) SetCells(ctx context.Context, spreadsheetID string, row int, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s%d", u.Col, row),
			Values: [][]interface{}{{u.Value}},
		})
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// NextArchiveRow implements Client. Trailing empty rows are trimmed from the
// API response, so the next free slot is right after the returned range.
func (c *SheetsClient) NextArchiveRow(ctx context.Context, spreadsheetID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	rng := fmt.Sprintf("%s%d:%s", ColArchivedSummary, TaskStartRow, ColArchivedOutput)
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, wrapError(err)
	}
	return TaskStartRow + len(resp.Values), nil
}

// WriteLiveRows implements Client.
func (c *SheetsClient) WriteLiveRows(ctx context.Context, spreadsheetID string, startRow int, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Request, r.Summary, r.Status, r.ExtraInput, r.Output, r.SessionToken,
		})
	}
	endRow := startRow + len(rows) - 1
	rng := fmt.Sprintf("%s%d:%s%d", ColRequest, startRow, ColSessionToken, endRow)
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// ClearLiveRow implements Client.
func (c *SheetsClient) ClearLiveRow(ctx context.Context, spreadsheetID string, row int) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	rng := fmt.Sprintf("%s%d:%s%d", ColRequest, row, ColSessionToken, row)
	_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// ApplyColumnFormat implements Client.
func (c *SheetsClient) ApplyColumnFormat(ctx context.Context, spreadsheetID string, col Column, format Format) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	sheetID, err := c.firstSheetID(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	cellFormat := &sheets.CellFormat{}
	var fields []string
	if format.Wrap != "" {
		cellFormat.WrapStrategy = string(format.Wrap)
		fields = append(fields, "userEnteredFormat.wrapStrategy")
	}
	if format.VerticalAlign != "" {
		cellFormat.VerticalAlignment = format.VerticalAlign
		fields = append(fields, "userEnteredFormat.verticalAlignment")
	}
	if len(fields) == 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      MaxRows,
					StartColumnIndex: colIndex(col),
					EndColumnIndex:   colIndex(col) + 1,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: cellFormat},
				Fields: strings.Join(fields, ","),
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// ApplyDropdown implements Client.
func (c *SheetsClient) ApplyDropdown(ctx context.Context, spreadsheetID string, col Column, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	sheetID, err := c.firstSheetID(ctx, spreadsheetID)
	if err != nil {
		return err
	}

	conditionValues := make([]*sheets.ConditionValue, 0, len(values))
	for _, v := range values {
		conditionValues = append(conditionValues, &sheets.ConditionValue{UserEnteredValue: v})
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(TaskStartRow - 1),
					EndRowIndex:      MaxRows,
					StartColumnIndex: colIndex(col),
					EndColumnIndex:   colIndex(col) + 1,
				},
				Rule: &sheets.DataValidationRule{
					Condition: &sheets.BooleanCondition{
						Type:   "ONE_OF_LIST",
						Values: conditionValues,
					},
					ShowCustomUi: true,
					Strict:       true,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// rowFromValues maps an A:L value row into a live-field snapshot.
func rowFromValues(values []interface{}) Row {
	cells := make([]string, 12)
	for i, v := range values {
		if i >= len(cells) {
			break
		}
		cells[i] = cellString(v)
	}
	return Row{
		Request:      cells[1],
		Summary:      cells[2],
		Status:       cells[3],
		ExtraInput:   cells[4],
		Output:       cells[5],
		SessionToken: cells[6],
	}
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func colIndex(col Column) int64 {
	return int64(col[0] - 'A')
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return fmt.Errorf("unable to access spreadsheet: share the sheet with your service-account email")
	}

	if strings.Contains(errStr, "404") {
		return fmt.Errorf("spreadsheet not found")
	}

	return err
}
