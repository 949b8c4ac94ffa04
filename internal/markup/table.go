package markup

import (
	"strings"

	"github.com/zonewatch/docreport/internal/domain"
)

// Assembler buffers consecutive raw table lines until the table run ends.
// The zero value is ready to use.
type Assembler struct {
	lines []string
}

// Add buffers one raw pipe-prefixed line.
func (a *Assembler) Add(line string) {
	a.lines = append(a.lines, line)
}

// Finalize normalizes the buffered lines into a table block and resets the
// buffer. Separator rows are dropped and every surviving row is right-padded
// to the widest row. A buffer with no data rows yields nil.
func (a *Assembler) Finalize() *domain.TableBlock {
	lines := a.lines
	a.lines = nil

	var rows [][]string
	for _, line := range lines {
		row := splitRow(line)
		if len(row) == 0 || isSeparatorRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	columns := 0
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < columns {
			row = append(row, "")
		}
		rows[i] = row
	}

	return &domain.TableBlock{Rows: rows, ColumnCount: columns}
}

// splitRow splits a raw table line on pipes, discarding the empty cells a
// leading or trailing delimiter produces and trimming the rest.
func splitRow(line string) []string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	row := make([]string, 0, len(cells))
	for _, cell := range cells {
		row = append(row, strings.TrimSpace(cell))
	}
	return row
}

// isSeparatorRow reports whether a row is a visual divider: its cells,
// concatenated, contain only '-', ':' and space characters.
func isSeparatorRow(row []string) bool {
	for _, r := range strings.Join(row, "") {
		switch r {
		case '-', ':', ' ':
		default:
			return false
		}
	}
	return true
}
