package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonewatch/docreport/internal/domain"
)

func TestParseClassifiesBlocks(t *testing.T) {
	input := `# Title
## Section
### Sub
#### Minor
- bullet one
* bullet two

plain paragraph
[[IMG: figure-1]]`

	blocks := Parse(input)
	require.Len(t, blocks, 8)

	assert.Equal(t, domain.Block{Kind: domain.BlockHeading, Level: 1, Text: "Title"}, blocks[0])
	assert.Equal(t, domain.Block{Kind: domain.BlockHeading, Level: 2, Text: "Section"}, blocks[1])
	assert.Equal(t, domain.Block{Kind: domain.BlockHeading, Level: 3, Text: "Sub"}, blocks[2])
	assert.Equal(t, domain.Block{Kind: domain.BlockHeading, Level: 4, Text: "Minor"}, blocks[3])
	assert.Equal(t, domain.Block{Kind: domain.BlockBullet, Text: "bullet one"}, blocks[4])
	assert.Equal(t, domain.Block{Kind: domain.BlockBullet, Text: "bullet two"}, blocks[5])
	assert.Equal(t, domain.Block{Kind: domain.BlockParagraph, Text: "plain paragraph"}, blocks[6])
	assert.Equal(t, domain.Block{Kind: domain.BlockImageRef, Text: "figure-1"}, blocks[7])
}

func TestParseImageTagBeatsParagraph(t *testing.T) {
	blocks := Parse("[[IMG:   figure-2  ]]")
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockImageRef, blocks[0].Kind)
	// Inner whitespace is kept for the resolver to trim.
	assert.Equal(t, "figure-2  ", blocks[0].Text)
}

func TestParseImageTagWithTrailingTextIsParagraph(t *testing.T) {
	blocks := Parse("[[IMG: figure-1]] and more")
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockParagraph, blocks[0].Kind)
}

func TestParseHashWithoutSpaceIsParagraph(t *testing.T) {
	blocks := Parse("#NoSpace")
	require.Len(t, blocks, 1)
	assert.Equal(t, domain.BlockParagraph, blocks[0].Kind)
}

func TestParseBlankLinesVanish(t *testing.T) {
	blocks := Parse("one\n\n\n   \ntwo")
	require.Len(t, blocks, 2)
	assert.Equal(t, "one", blocks[0].Text)
	assert.Equal(t, "two", blocks[1].Text)
}

func TestParseTable(t *testing.T) {
	input := `before
| A | B |
|---|---|
| 1 | 2 |
after`

	blocks := Parse(input)
	require.Len(t, blocks, 3)

	assert.Equal(t, domain.BlockParagraph, blocks[0].Kind)
	require.Equal(t, domain.BlockTable, blocks[1].Kind)
	assert.Equal(t, domain.BlockParagraph, blocks[2].Kind)

	table := blocks[1].Table
	assert.Equal(t, 2, table.ColumnCount)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, table.Rows)
	assert.Equal(t, 1, table.DataRowCount())
}

func TestParseTableAtEOF(t *testing.T) {
	blocks := Parse("| H |\n| v |")
	require.Len(t, blocks, 1)
	require.Equal(t, domain.BlockTable, blocks[0].Kind)
	assert.Equal(t, [][]string{{"H"}, {"v"}}, blocks[0].Table.Rows)
}

func TestParseTableEndingLineIsReprocessed(t *testing.T) {
	blocks := Parse("| H |\n| v |\n## Next")
	require.Len(t, blocks, 2)
	assert.Equal(t, domain.BlockTable, blocks[0].Kind)
	assert.Equal(t, domain.BlockHeading, blocks[1].Kind)
	assert.Equal(t, "Next", blocks[1].Text)
}

func TestParseSeparatorOnlyTableVanishes(t *testing.T) {
	blocks := Parse("|---|---|\n| :--- | ---: |")
	assert.Empty(t, blocks)
}

func TestParseTwoAdjacentTablesMerge(t *testing.T) {
	// Without a non-pipe line between them, consecutive table runs form
	// one table.
	blocks := Parse("| A |\n| 1 |\n| B | X |\n| 2 | Y |")
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Table.ColumnCount)
	require.Len(t, blocks[0].Table.Rows, 4)
}

func TestFinalizePadsRaggedRows(t *testing.T) {
	var a Assembler
	a.Add("| A | B | C |")
	a.Add("| 1 |")

	table := a.Finalize()
	require.NotNil(t, table)
	assert.Equal(t, 3, table.ColumnCount)
	assert.Equal(t, []string{"1", "", ""}, table.Rows[1])
}

func TestFinalizeEmptyCellsRowIsSeparator(t *testing.T) {
	var a Assembler
	a.Add("||")
	a.Add("|  |  |")

	assert.Nil(t, a.Finalize())
}

func TestFinalizeResetsBuffer(t *testing.T) {
	var a Assembler
	a.Add("| A |")
	require.NotNil(t, a.Finalize())
	assert.Nil(t, a.Finalize())
}

func TestSplitRowTrimsCells(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", ""}, splitRow("|  a | b c | |"))
}
