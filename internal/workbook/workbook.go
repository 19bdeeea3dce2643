// Package workbook provides the in-memory spreadsheet model the pipeline
// operates on: named sheets of cells addressed by A1-style references, with
// quarantine flags and annotations carried alongside values.
package workbook

import (
	"fmt"
	"sort"
)

type cellKey struct {
	row, col int
}

// Cell is one addressable spreadsheet cell. An erased cell keeps its flag and
// note but reports no value.
type Cell struct {
	Value    string
	HasValue bool
	Flagged  bool
	Note     string
}

// Sheet is a grid of cells belonging to one account (or summary) page.
type Sheet struct {
	name   string
	cells  map[cellKey]Cell
	maxRow int
	maxCol int
}

// Workbook is an ordered collection of named sheets.
type Workbook struct {
	order  []string
	sheets map[string]*Sheet
}

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{sheets: make(map[string]*Sheet)}
}

// SheetNames returns the sheet names in insertion order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.order))
	copy(names, w.order)
	return names
}

// Sheet returns the named sheet, or false when it does not exist.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.sheets[name]
	return s, ok
}

// AddSheet creates and returns a sheet. Adding an existing name returns the
// existing sheet.
func (w *Workbook) AddSheet(name string) *Sheet {
	if s, ok := w.sheets[name]; ok {
		return s
	}
	s := &Sheet{name: name, cells: make(map[cellKey]Cell)}
	w.sheets[name] = s
	w.order = append(w.order, name)
	return s
}

// DeleteSheet removes a sheet if present.
func (w *Workbook) DeleteSheet(name string) {
	if _, ok := w.sheets[name]; !ok {
		return
	}
	delete(w.sheets, name)
	for i, n := range w.order {
		if n == name {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Name returns the sheet name.
func (s *Sheet) Name() string {
	return s.name
}

// MaxRow returns the highest row number that ever held a cell.
func (s *Sheet) MaxRow() int {
	return s.maxRow
}

// MaxCol returns the highest column number that ever held a cell.
func (s *Sheet) MaxCol() int {
	return s.maxCol
}

func (s *Sheet) touch(row, col int) {
	if row > s.maxRow {
		s.maxRow = row
	}
	if col > s.maxCol {
		s.maxCol = col
	}
}

// Value returns the cell value at an A1 reference and whether the cell holds
// one. A malformed reference reads as absent.
func (s *Sheet) Value(ref string) (string, bool) {
	col, row, err := ParseRef(ref)
	if err != nil {
		return "", false
	}
	return s.ValueAt(row, col)
}

// ValueAt returns the cell value at 1-based row and column coordinates.
func (s *Sheet) ValueAt(row, col int) (string, bool) {
	c, ok := s.cells[cellKey{row, col}]
	if !ok || !c.HasValue {
		return "", false
	}
	return c.Value, true
}

// SetValue writes a value at an A1 reference.
func (s *Sheet) SetValue(ref, value string) error {
	col, row, err := ParseRef(ref)
	if err != nil {
		return err
	}
	s.SetValueAt(row, col, value)
	return nil
}

// SetValueAt writes a value at 1-based row and column coordinates.
func (s *Sheet) SetValueAt(row, col int, value string) {
	key := cellKey{row, col}
	c := s.cells[key]
	c.Value = value
	c.HasValue = true
	s.cells[key] = c
	s.touch(row, col)
}

// ClearValue erases the value at an A1 reference. Flag and note survive,
// which is what quarantine relies on.
func (s *Sheet) ClearValue(ref string) error {
	col, row, err := ParseRef(ref)
	if err != nil {
		return err
	}
	key := cellKey{row, col}
	c := s.cells[key]
	c.Value = ""
	c.HasValue = false
	s.cells[key] = c
	s.touch(row, col)
	return nil
}

// Flag marks the cell at an A1 reference as quarantined.
func (s *Sheet) Flag(ref string) error {
	col, row, err := ParseRef(ref)
	if err != nil {
		return err
	}
	key := cellKey{row, col}
	c := s.cells[key]
	c.Flagged = true
	s.cells[key] = c
	s.touch(row, col)
	return nil
}

// Flagged reports whether the cell at an A1 reference is quarantined.
func (s *Sheet) Flagged(ref string) bool {
	col, row, err := ParseRef(ref)
	if err != nil {
		return false
	}
	return s.cells[cellKey{row, col}].Flagged
}

// SetNote attaches an annotation to the cell at an A1 reference.
func (s *Sheet) SetNote(ref, note string) error {
	col, row, err := ParseRef(ref)
	if err != nil {
		return err
	}
	key := cellKey{row, col}
	c := s.cells[key]
	c.Note = note
	s.cells[key] = c
	s.touch(row, col)
	return nil
}

// Note returns the annotation at an A1 reference.
func (s *Sheet) Note(ref string) string {
	col, row, err := ParseRef(ref)
	if err != nil {
		return ""
	}
	return s.cells[cellKey{row, col}].Note
}

// Cell returns a copy of the cell at an A1 reference.
func (s *Sheet) Cell(ref string) (Cell, error) {
	col, row, err := ParseRef(ref)
	if err != nil {
		return Cell{}, err
	}
	return s.cells[cellKey{row, col}], nil
}

// FlaggedRefs returns every flagged cell reference in row-major order.
func (s *Sheet) FlaggedRefs() []string {
	var keys []cellKey
	for k, c := range s.cells {
		if c.Flagged {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})
	refs := make([]string, len(keys))
	for i, k := range keys {
		refs[i] = FormatRef(k.col, k.row)
	}
	return refs
}

// AppendRow writes the values as the next row after MaxRow, starting at
// column A, and returns the row number used.
func (s *Sheet) AppendRow(values ...string) int {
	row := s.maxRow + 1
	for i, v := range values {
		s.SetValueAt(row, i+1, v)
	}
	if len(values) == 0 {
		s.touch(row, 1)
	}
	return row
}

// Ref is a convenience for building an A1 reference from a column letter and
// row number.
func Ref(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}
