package manifest

import (
	"time"

	"github.com/juju/errors"
	"github.com/xuri/excelize/v2"

	"github.com/hailam/chaoslog/internal/ports"
)

const (
	unitsSheet   = "Units"
	membersSheet = "Members"
	runSheet     = "Run"
)

var (
	unitsHeader   = []interface{}{"Index", "Name", "Format", "Timestamp", "Marker", "Marker member", "Members", "Bytes", "Seconds", "Error"}
	membersHeader = []interface{}{"Unit", "Path", "Mode", "Bytes", "Has marker"}
)

// XLSXWriter writes the run summary as a workbook with one sheet for the
// run, one row per unit and one row per member.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

func (w *XLSXWriter) Ext() string { return ".xlsx" }

func (w *XLSXWriter) WriteManifest(path string, summary ports.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; reuse it for the run overview.
	if err := f.SetSheetName("Sheet1", runSheet); err != nil {
		return errors.Trace(err)
	}
	run := [][]interface{}{
		{"Run ID", summary.RunID},
		{"Output dir", summary.OutputDir},
		{"Started", summary.Started.Format(time.RFC3339)},
		{"Finished", summary.Finished.Format(time.RFC3339)},
		{"Requested", summary.Requested},
		{"Succeeded", summary.Succeeded},
		{"Failed", summary.Failed},
		{"Interrupted", summary.Interrupted},
	}
	if err := writeRows(f, runSheet, run); err != nil {
		return err
	}

	if _, err := f.NewSheet(unitsSheet); err != nil {
		return errors.Trace(err)
	}
	if _, err := f.NewSheet(membersSheet); err != nil {
		return errors.Trace(err)
	}

	units := [][]interface{}{unitsHeader}
	members := [][]interface{}{membersHeader}
	for _, u := range summary.Units {
		units = append(units, []interface{}{
			u.Index, u.Name, string(u.Format), u.Timestamp.Format(time.RFC3339),
			u.Marker, u.MarkerMember(), len(u.Members), u.Bytes, u.Duration.Seconds(), u.Err,
		})
		for _, m := range u.Members {
			members = append(members, []interface{}{u.Name, m.Path, m.Mode, m.Bytes, m.HasMarker})
		}
	}
	if err := writeRows(f, unitsSheet, units); err != nil {
		return err
	}
	if err := writeRows(f, membersSheet, members); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Annotatef(err, "saving workbook %s", path)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Trace(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Annotatef(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}
