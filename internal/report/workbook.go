// Package report builds the monthly operations workbook: seven sheets
// aggregated from the backing seed services into a single xlsx file.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an xlsx file under construction. Sheets are appended in
// call order, which fixes the tab order of the final file.
type Workbook struct {
	file   *excelize.File
	sheets int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSheet appends a named sheet. The first added sheet replaces the
// file's default one.
func (w *Workbook) AddSheet(name string) (*Sheet, error) {
	if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}
	if w.sheets == 0 {
		if err := w.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}
	w.sheets++
	return &Sheet{file: w.file, name: name, nextRow: 2}, nil
}

// Save writes the workbook to disk.
func (w *Workbook) Save(path string) error {
	return w.file.SaveAs(path)
}

// Bytes renders the workbook in memory, for emailing as an attachment.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheet is one workbook tab. Row 1 is reserved for the header; data rows
// always start at row 2, whether or not a header was set.
type Sheet struct {
	file    *excelize.File
	name    string
	headers []string
	index   map[string]int
	nextRow int
}

// SetHeader writes the header row and fixes the column order for AddRow.
func (s *Sheet) SetHeader(headers []string) error {
	s.headers = headers
	s.index = make(map[string]int, len(headers))
	for i, header := range headers {
		s.index[header] = i
		if err := s.setCell(i+1, 1, header); err != nil {
			return err
		}
	}
	return nil
}

// AddRow writes one data row keyed by header name. Columns absent from
// the map stay empty; a key that is not a header is an error.
func (s *Sheet) AddRow(row map[string]any) error {
	for key, value := range row {
		col, ok := s.index[key]
		if !ok {
			return fmt.Errorf("sheet %q has no column %q", s.name, key)
		}
		if err := s.setCell(col+1, s.nextRow, value); err != nil {
			return err
		}
	}
	s.nextRow++
	return nil
}

// Append writes one data row positionally, for sheets without a fixed
// header.
func (s *Sheet) Append(values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, s.nextRow)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(s.name, cell, &values); err != nil {
		return fmt.Errorf("sheet %q row %d: %w", s.name, s.nextRow, err)
	}
	s.nextRow++
	return nil
}

func (s *Sheet) setCell(col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.file.SetCellValue(s.name, cell, value); err != nil {
		return fmt.Errorf("sheet %q cell %s: %w", s.name, cell, err)
	}
	return nil
}
