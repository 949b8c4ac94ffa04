package layout

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return New(config.Default().Layout, 170, zerolog.Nop())
}

func pngFixture(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	return path
}

func TestBuildStartsWithTitleBlock(t *testing.T) {
	units := testEngine(t).Build("annual", nil, nil)
	require.Len(t, units, 3)

	assert.Equal(t, UnitText, units[0].Kind)
	assert.Equal(t, StyleTitle, units[0].Style)
	assert.Equal(t, "annual — Summary Report", PlainLine(units[0].Lines[0]))
	assert.Equal(t, UnitRule, units[1].Kind)
	assert.Equal(t, UnitSpacer, units[2].Kind)
}

func TestBuildTopHeadingBreakSuppressedNearStart(t *testing.T) {
	blocks := []domain.Block{
		{Kind: domain.BlockHeading, Level: 1, Text: "First"},
	}
	units := testEngine(t).Build("doc", blocks, nil)

	// Title block (3 units) then the heading group; no page break.
	require.Len(t, units, 4)
	assert.Equal(t, UnitGroup, units[3].Kind)
}

func TestBuildTopHeadingForcesBreakLater(t *testing.T) {
	blocks := []domain.Block{
		{Kind: domain.BlockHeading, Level: 1, Text: "First"},
		{Kind: domain.BlockParagraph, Text: "p1"},
		{Kind: domain.BlockParagraph, Text: "p2"},
		{Kind: domain.BlockHeading, Level: 1, Text: "Second"},
	}
	units := testEngine(t).Build("doc", blocks, nil)

	// 3 title units + group + 2 paragraphs, then the break and the group.
	require.Len(t, units, 8)
	assert.Equal(t, UnitPageBreak, units[6].Kind)
	assert.Equal(t, UnitGroup, units[7].Kind)
}

func TestBuildSubheadingsKeepWithNext(t *testing.T) {
	blocks := []domain.Block{
		{Kind: domain.BlockHeading, Level: 2, Text: "Section"},
		{Kind: domain.BlockHeading, Level: 3, Text: "Sub"},
	}
	units := testEngine(t).Build("doc", blocks, nil)
	require.Len(t, units, 5)

	assert.Equal(t, StyleH2, units[3].Style)
	assert.True(t, units[3].KeepWithNext)
	assert.Equal(t, StyleH3, units[4].Style)
	assert.True(t, units[4].KeepWithNext)
}

func TestBuildLevelFourIsBoldBody(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockHeading, Level: 4, Text: "Minor"}}
	units := testEngine(t).Build("doc", blocks, nil)
	require.Len(t, units, 4)

	u := units[3]
	assert.Equal(t, StyleBody, u.Style)
	assert.False(t, u.KeepWithNext)
	require.Len(t, u.Lines[0], 1)
	assert.True(t, u.Lines[0][0].Bold)
	assert.Equal(t, "Minor", u.Lines[0][0].Text)
}

func TestBuildBulletGlyph(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockBullet, Text: "a **bold** point"}}
	units := testEngine(t).Build("doc", blocks, nil)
	require.Len(t, units, 4)

	line := units[3].Lines[0]
	assert.Equal(t, "• ", line[0].Text)
	assert.Equal(t, "• a bold point", PlainLine(line))
}

func TestBuildUnresolvedImageLabelSkipped(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockImageRef, Text: "figure-9"}}
	units := testEngine(t).Build("doc", blocks, map[string]domain.ImageRecord{})
	assert.Len(t, units, 3, "only the title block remains")
}

func TestBuildImageGroupWithCaption(t *testing.T) {
	path := pngFixture(t, 60, 40)
	images := map[string]domain.ImageRecord{
		"figure-1": {Label: "figure-1", Path: path, Caption: "a diagram", Index: 1},
	}
	blocks := []domain.Block{{Kind: domain.BlockImageRef, Text: " figure-1 "}}

	units := testEngine(t).Build("doc", blocks, images)
	require.Len(t, units, 4)

	g := units[3]
	require.Equal(t, UnitGroup, g.Kind)
	require.Len(t, g.Children, 5)

	img := g.Children[1]
	assert.Equal(t, UnitImage, img.Kind)
	assert.Equal(t, path, img.ImagePath)

	caption := g.Children[3]
	assert.Equal(t, StyleCaption, caption.Style)
	assert.Equal(t, "▲ a diagram", PlainLine(caption.Lines[0]))
}

func TestDisplaySizeNaturalFit(t *testing.T) {
	e := testEngine(t)
	// 288x144 px at 72dpi is 101.6x50.8mm, inside both bounds.
	w, h, err := e.displaySize(pngFixture(t, 288, 144))
	require.NoError(t, err)
	assert.InDelta(t, 101.6, w, 0.01)
	assert.InDelta(t, 50.8, h, 0.01)
}

func TestDisplaySizeWidthBound(t *testing.T) {
	e := testEngine(t)
	// 1000x200 px is 352.8mm wide; width clamps to 170 and height follows.
	w, h, err := e.displaySize(pngFixture(t, 1000, 200))
	require.NoError(t, err)
	assert.InDelta(t, 170, w, 0.01)
	assert.InDelta(t, 34, h, 0.01)
}

func TestDisplaySizeHeightBound(t *testing.T) {
	e := testEngine(t)
	// 200x2000 px is 705.6mm tall; height clamps to 100 and width follows.
	w, h, err := e.displaySize(pngFixture(t, 200, 2000))
	require.NoError(t, err)
	assert.InDelta(t, 100, h, 0.01)
	assert.InDelta(t, 10, w, 0.01)
}

func TestDisplaySizeBothBounds(t *testing.T) {
	e := testEngine(t)
	// Width clamps first, then the resulting height still exceeds the
	// maximum, so the height bound wins.
	w, h, err := e.displaySize(pngFixture(t, 600, 600))
	require.NoError(t, err)
	assert.InDelta(t, 100, h, 0.01)
	assert.InDelta(t, 100, w, 0.01)
}

func tableWithDataRows(n int) *domain.TableBlock {
	rows := [][]string{{"H1", "H2"}}
	for i := 0; i < n; i++ {
		rows = append(rows, []string{"a", "b"})
	}
	return &domain.TableBlock{Rows: rows, ColumnCount: 2}
}

func TestBuildSmallTableNotSplittable(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockTable, Table: tableWithDataRows(29)}}
	units := testEngine(t).Build("doc", blocks, nil)
	require.Len(t, units, 6)

	assert.Equal(t, UnitSpacer, units[3].Kind)
	assert.Equal(t, UnitTable, units[4].Kind)
	assert.False(t, units[4].Splittable)
	assert.Equal(t, UnitSpacer, units[5].Kind)
}

func TestBuildLargeTableSplittable(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockTable, Table: tableWithDataRows(30)}}
	units := testEngine(t).Build("doc", blocks, nil)
	require.Len(t, units, 6)
	assert.True(t, units[4].Splittable)
}
