package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ledger-audit/internal/logging"
)

// Workbooks are persisted as a directory of CSV files, one per sheet, with an
// optional <sheet>.flags.csv sidecar carrying quarantine flags and notes.
// gocsv is not used here: it maps columns to struct fields, while a ledger
// sheet is a positional grid whose meaning depends on row and column indexes.

const flagsSuffix = ".flags.csv"

// LoadDir reads a workbook from a directory of per-sheet CSV files.
func LoadDir(dir string, logger logging.Logger) (*Workbook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading workbook directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, flagsSuffix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	wb := New()
	for _, name := range names {
		sheetName := strings.TrimSuffix(name, ".csv")
		sheet := wb.AddSheet(sheetName)
		if err := loadSheet(sheet, filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("loading sheet %s: %w", sheetName, err)
		}
		if err := loadFlags(sheet, filepath.Join(dir, sheetName+flagsSuffix)); err != nil {
			return nil, fmt.Errorf("loading flags for sheet %s: %w", sheetName, err)
		}
	}

	logger.Info("Loaded workbook",
		logging.Field{Key: logging.FieldFile, Value: dir},
		logging.Field{Key: logging.FieldCount, Value: len(names)})
	return wb, nil
}

func loadSheet(sheet *Sheet, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return err
	}
	for i, row := range rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			sheet.SetValueAt(i+1, j+1, v)
		}
	}
	return nil
}

func loadFlags(sheet *Sheet, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		ref := row[0]
		if err := sheet.Flag(ref); err != nil {
			return err
		}
		if len(row) > 1 && row[1] != "" {
			if err := sheet.SetNote(ref, row[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// SaveDir writes the workbook to a directory of per-sheet CSV files,
// creating the directory when needed.
func SaveDir(wb *Workbook, dir string, logger logging.Logger) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating workbook directory: %w", err)
	}

	for _, name := range wb.SheetNames() {
		sheet, _ := wb.Sheet(name)
		if err := saveSheet(sheet, filepath.Join(dir, name+".csv")); err != nil {
			return fmt.Errorf("saving sheet %s: %w", name, err)
		}
		if err := saveFlags(sheet, filepath.Join(dir, name+flagsSuffix)); err != nil {
			return fmt.Errorf("saving flags for sheet %s: %w", name, err)
		}
	}

	logger.Info("Saved workbook",
		logging.Field{Key: logging.FieldFile, Value: dir},
		logging.Field{Key: logging.FieldCount, Value: len(wb.SheetNames())})
	return nil
}

func saveSheet(sheet *Sheet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	for row := 1; row <= sheet.MaxRow(); row++ {
		record := make([]string, sheet.MaxCol())
		for col := 1; col <= sheet.MaxCol(); col++ {
			if v, ok := sheet.ValueAt(row, col); ok {
				record[col-1] = v
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func saveFlags(sheet *Sheet, path string) error {
	refs := sheet.FlaggedRefs()
	if len(refs) == 0 {
		// Stale sidecars from a previous run would resurrect old flags.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	for _, ref := range refs {
		if err := w.Write([]string{ref, sheet.Note(ref)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
