// Package export writes the flat notification report of a lookup database,
// either as ';'-delimited text or as an Excel workbook.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ekxhmi/ekxgen/compiler/gen"
	"github.com/ekxhmi/ekxgen/compiler/load"
	"github.com/ekxhmi/ekxgen/dialect"
)

// Format is a report file format.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// DefaultPath is the report file name of the legacy tool.
const DefaultPath = "EkxNotifications.csv"

// SheetName is the worksheet holding the report in XLSX output.
const SheetName = "Notifications"

// Columns is the header of the report.
var Columns = []string{
	"notification_type_id",
	"notification_name",
	"notification_class",
	"recover_action",
	"short_info",
	"long_info",
	"description",
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case CSV, XLSX:
		return f, nil
	default:
		return "", gen.NewConfigError("Format", s, "unsupported report format; use csv or xlsx")
	}
}

// FormatOf infers the format from the file extension. Anything but .xlsx is
// written as text.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return XLSX
	}
	return CSV
}

// Record returns the report columns of one notification.
func Record(n load.Notification) []string {
	return []string{
		strconv.FormatInt(n.ID, 10),
		n.Name,
		n.Class,
		strconv.FormatInt(n.RecoverAction, 10),
		n.ShortInfo,
		n.LongInfo,
		n.Description,
	}
}

// WriteCSV writes the report as ';'-delimited text with a header line.
// Fields holding the delimiter, quotes or line breaks are quoted.
func WriteCSV(w io.Writer, ns []load.Notification) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, n := range ns {
		if err := cw.Write(Record(n)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the report as a workbook with a single sheet. Ids and
// recover actions are stored as numbers.
func WriteXLSX(w io.Writer, ns []load.Notification) (rerr error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, n := range ns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{n.ID, n.Name, n.Class, n.RecoverAction, n.ShortInfo, n.LongInfo, n.Description}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// Write renders ns in the given format.
func Write(w io.Writer, format Format, ns []load.Notification) error {
	switch format {
	case CSV:
		return WriteCSV(w, ns)
	case XLSX:
		return WriteXLSX(w, ns)
	default:
		return gen.NewConfigError("Format", string(format), "unsupported report format; use csv or xlsx")
	}
}

// Exporter reads the notification report from a lookup database and writes
// it to a file.
type Exporter struct {
	drv dialect.Driver
	log zerolog.Logger
}

// NewExporter returns an exporter reading from drv. The driver stays owned
// by the caller.
func NewExporter(drv dialect.Driver, log zerolog.Logger) *Exporter {
	return &Exporter{drv: drv, log: log}
}

// Export writes the report to path, replacing the file atomically. It
// returns the number of notifications written.
func (e *Exporter) Export(ctx context.Context, path string, format Format) (int, error) {
	ns, err := load.NewReader(e.drv).ReadNotificationReport(ctx)
	if err != nil {
		return 0, err
	}
	for _, n := range ns {
		if n.Class == "" {
			e.log.Warn().Int64("notification", n.ID).Int64("class", n.ClassID).Msg("notification references a missing class")
		}
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, ns); err != nil {
		return 0, fmt.Errorf("render %s report: %w", format, err)
	}
	if err := gen.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, gen.NewGenerationError(gen.PhaseWrite, path, "", err)
	}
	e.log.Info().Str("path", path).Str("format", string(format)).Int("notifications", len(ns)).Msg("report exported")
	return len(ns), nil
}
