// Package worklist reads and updates the outbound call-list workbook.
package worklist

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/calllist-cli/internal/config"
)

// Row is one data row of the call-list sheet. Index is the row's
// position within the sheet, header included, so it can be written
// back in place.
type Row struct {
	Index   int
	Subject string // store name
	Region  string // prefecture
	Phone   string // current output-cell value
}

// Workbook wraps an open call-list workbook. The whole file is kept in
// memory so unrelated sheets survive a save untouched.
type Workbook struct {
	file   *xlsx.File
	sheet  *xlsx.Sheet
	layout config.ExcelConfig
}

// Open loads the workbook at path and locates the call-list sheet.
func Open(path string, layout config.ExcelConfig) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "worklist: open file")
	}
	return fromFile(f, layout)
}

// OpenBinary loads a workbook from bytes, for uploaded files.
func OpenBinary(data []byte, layout config.ExcelConfig) (*Workbook, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "worklist: open binary")
	}
	return fromFile(f, layout)
}

func fromFile(f *xlsx.File, layout config.ExcelConfig) (*Workbook, error) {
	sheet, ok := f.Sheet[layout.SheetName]
	if !ok {
		return nil, eris.Errorf("worklist: sheet %q not found", layout.SheetName)
	}
	return &Workbook{file: f, sheet: sheet, layout: layout}, nil
}

// Rows returns the data rows (header excluded). Rows with an empty
// subject cell are omitted: there is nothing to look up.
func (w *Workbook) Rows() []Row {
	var rows []Row
	for i, row := range w.sheet.Rows {
		if i == 0 {
			continue
		}
		subject := strings.TrimSpace(cellAt(row, w.layout.SubjectCol))
		if subject == "" {
			continue
		}
		rows = append(rows, Row{
			Index:   i,
			Subject: subject,
			Region:  strings.TrimSpace(cellAt(row, w.layout.RegionCol)),
			Phone:   strings.TrimSpace(cellAt(row, w.layout.PhoneCol)),
		})
	}
	return rows
}

// SetPhone writes value into the output column of the given sheet row,
// padding the row with empty cells when it is shorter than the output
// column.
func (w *Workbook) SetPhone(rowIndex int, value string) error {
	if rowIndex <= 0 || rowIndex >= len(w.sheet.Rows) {
		return eris.Errorf("worklist: row index %d out of range", rowIndex)
	}
	row := w.sheet.Rows[rowIndex]
	for len(row.Cells) <= w.layout.PhoneCol {
		row.AddCell()
	}
	row.Cells[w.layout.PhoneCol].SetString(value)
	return nil
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	return eris.Wrap(w.file.Save(path), "worklist: save file")
}

// Write streams the workbook to out, for download responses.
func (w *Workbook) Write(out io.Writer) error {
	return eris.Wrap(w.file.Write(out), "worklist: write")
}

func cellAt(row *xlsx.Row, col int) string {
	if col < 0 || col >= len(row.Cells) {
		return ""
	}
	return row.Cells[col].String()
}
