package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ImageRecord describes one embedded image accepted during extraction.
// Records are created by the extractor and read-only afterwards; the scratch
// file they point at is discarded when the next extraction run begins.
type ImageRecord struct {
	Label   string // sequential label, e.g. "figure-1"
	Path    string // scratch file holding the image bytes
	Caption string
	Index   int // 1-based acceptance order
}

// LabelForIndex returns the canonical label for an acceptance index.
func LabelForIndex(index int) string {
	return fmt.Sprintf("figure-%d", index)
}

// BlockKind enumerates the classified markup block types.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockBullet
	BlockParagraph
	BlockImageRef
	BlockTable
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockBullet:
		return "bullet"
	case BlockParagraph:
		return "paragraph"
	case BlockImageRef:
		return "image_ref"
	case BlockTable:
		return "table"
	}
	return "unknown"
}

// Block is one classified unit of generated report markup. Blank lines are
// consumed during classification and never surface as blocks.
type Block struct {
	Kind  BlockKind
	Level int    // heading level 1..4; headings only
	Text  string // heading/bullet/paragraph text, or the raw image label
	Table *TableBlock
}

// TableBlock is a normalized table. Separator rows are already removed and
// every row holds exactly ColumnCount cells; row 0 is the header.
type TableBlock struct {
	Rows        [][]string
	ColumnCount int
}

// DataRowCount returns the number of rows excluding the header row.
func (t *TableBlock) DataRowCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows) - 1
}

// RecordMap indexes image records by label for reference resolution.
func RecordMap(records []ImageRecord) map[string]ImageRecord {
	m := make(map[string]ImageRecord, len(records))
	for _, r := range records {
		m[r.Label] = r
	}
	return m
}

// CaptionListing renders the ordered "label: caption" listing handed to the
// summarizer so it knows which image tags it may emit.
func CaptionListing(records []ImageRecord) string {
	ordered := make([]ImageRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var b strings.Builder
	for _, r := range ordered {
		b.WriteString(r.Label)
		b.WriteString(": ")
		b.WriteString(r.Caption)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
