package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alimgiray/prreport/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoRecords is returned when there is nothing to export; no file is written
var ErrNoRecords = errors.New("no pull request records to export")

// XLSXSheetName is the worksheet the XLSX export writes to
const XLSXSheetName = "Merged PRs"

type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// WriteCSV overwrites path with a header row taken from the first record's
// field names followed by one row per record.
func (s *ExportService) WriteCSV(path string, records []*models.PullRequestRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	for _, row := range table(records) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return file.Close()
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook
func (s *ExportService) WriteXLSX(path string, records []*models.PullRequestRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(XLSXSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for i, row := range table(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(XLSXSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// table renders records as rows, header first. Columns follow the first
// record; a field a later record lacks renders as "".
func table(records []*models.PullRequestRecord) [][]string {
	var header []string
	for _, field := range records[0].Fields() {
		header = append(header, field.Name)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, record := range records {
		values := make(map[string]string)
		for _, field := range record.Fields() {
			values[field.Name] = field.Value
		}
		row := make([]string, len(header))
		for i, name := range header {
			row[i] = values[name]
		}
		rows = append(rows, row)
	}
	return rows
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
