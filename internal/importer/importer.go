package importer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hrops/attendance-ledger/internal/attendance"
	"github.com/xuri/excelize/v2"
)

// Sheet columns, in order. The first row is a header and is skipped.
const (
	colEmployeeID = iota
	colCompanyID
	colDate
	colCheckIn
	colCheckOut
	colWorkFrom
	colStatus
	colLatitude
	colLongitude
	colCount
)

// Reconciler is the slice of the attendance service the importer drives.
type Reconciler interface {
	Reconcile(dto *attendance.ReconcileDTO) (*attendance.Attendance, error)
}

// RowError records a single failed row without aborting the import.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

type Summary struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Importer feeds attendance sheets through the reconciler, one row per
// employee-day. Rows are independent: a bad row is reported and skipped.
type Importer struct {
	reconciler Reconciler
	logger     *slog.Logger
}

func New(reconciler Reconciler, logger *slog.Logger) *Importer {
	return &Importer{reconciler: reconciler, logger: logger}
}

// ImportFile reads the first sheet of an XLSX workbook and reconciles every
// data row. Imported rows are marked manual: sheet uploads are
// administrative entries and skip geofencing.
func (i *Importer) ImportFile(path string) (*Summary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	summary := &Summary{}
	for idx, row := range rows {
		if idx == 0 {
			continue // header
		}
		summary.Rows++

		dto, err := parseRow(row)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Row: idx + 1, Err: err.Error()})
			i.logger.Warn("skipping invalid sheet row", "row", idx+1, "error", err)
			continue
		}

		if _, err := i.reconciler.Reconcile(dto); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Row: idx + 1, Err: err.Error()})
			i.logger.Error("row reconciliation failed", "row", idx+1, "error", err,
				"employee_id", dto.EmployeeID)
			continue
		}
		summary.Imported++
	}

	i.logger.Info("attendance sheet imported",
		"file", path,
		"rows", summary.Rows,
		"imported", summary.Imported,
		"failed", summary.Failed)

	return summary, nil
}

func parseRow(row []string) (*attendance.ReconcileDTO, error) {
	// GetRows trims trailing empty cells, so only the mandatory leading
	// columns are required.
	if len(row) <= colDate {
		return nil, fmt.Errorf("expected at least %d columns, got %d", colDate+1, len(row))
	}

	employeeID, err := strconv.ParseInt(strings.TrimSpace(row[colEmployeeID]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid employee id %q", row[colEmployeeID])
	}
	companyID, err := strconv.ParseInt(strings.TrimSpace(row[colCompanyID]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid company id %q", row[colCompanyID])
	}

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(row[colDate]), time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", row[colDate])
	}

	checkIn, err := parseEventTime(cell(row, colCheckIn), date)
	if err != nil {
		return nil, fmt.Errorf("invalid check-in: %w", err)
	}
	checkOut, err := parseEventTime(cell(row, colCheckOut), date)
	if err != nil {
		return nil, fmt.Errorf("invalid check-out: %w", err)
	}

	dto := &attendance.ReconcileDTO{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		WorkFrom:   strings.TrimSpace(cell(row, colWorkFrom)),
		Status:     strings.TrimSpace(cell(row, colStatus)),
		IsManual:   true,
	}

	if lat := strings.TrimSpace(cell(row, colLatitude)); lat != "" {
		v, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q", lat)
		}
		dto.Latitude = &v
	}
	if lon := strings.TrimSpace(cell(row, colLongitude)); lon != "" {
		v, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q", lon)
		}
		dto.Longitude = &v
	}

	return dto, nil
}

// parseEventTime accepts a bare HH:MM clock, interpreted on the row's date
// in local time, or a full RFC3339 timestamp.
func parseEventTime(value string, date time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse("15:04", value); err == nil {
		anchored := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
		return &anchored, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%q is neither HH:MM nor RFC3339", value)
	}
	return &t, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
