// Package render serializes layout units into a paginated PDF document. It
// enforces the grouping policy the layout engine declares: non-splittable
// groups and small tables move to a fresh page rather than break, subheadings
// stay attached to the unit that follows them, and table header rows repeat
// on every page a table spans.
package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
	"github.com/zonewatch/docreport/internal/layout"
)

const (
	tableFontSize   = 9
	tableLineHeight = 3.9 // mm
	tableCellPad    = 1.4 // mm
)

// Writer serializes layout units to timestamped PDF files in the output
// directory. Any serialization failure is fatal for the whole document.
type Writer struct {
	outputDir string
	cfg       config.LayoutConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewWriter creates a document writer targeting outputDir.
func NewWriter(outputDir string, cfg config.LayoutConfig, log zerolog.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Write renders the unit list to {stem}_{timestamp}.pdf and returns the
// output path. Per-unit image and table failures are logged and skipped;
// a failure producing the file itself returns a build error.
func (w *Writer) Write(stem string, units []layout.Unit) (string, error) {
	name := fmt.Sprintf("%s_%s.pdf", stem, w.now().Format("20060102150405"))
	outPath := filepath.Join(w.outputDir, name)

	r := newRenderer(w.cfg, w.log)
	r.renderAll(units)

	if err := r.pdf.OutputFileAndClose(outPath); err != nil {
		return "", domain.BuildError("write document "+outPath, err)
	}
	return outPath, nil
}

// textStyle describes one fixed text style, dimensions in mm.
type textStyle struct {
	size        float64
	lineHeight  float64
	spaceBefore float64
	spaceAfter  float64
	indent      float64
	centered    bool
	r, g, b     int
}

func documentStyles() map[layout.Style]textStyle {
	return map[layout.Style]textStyle{
		layout.StyleTitle:   {size: 24, lineHeight: 10.5, spaceAfter: 7, centered: true},
		layout.StyleH1:      {size: 18, lineHeight: 8, spaceAfter: 3.5},
		layout.StyleH2:      {size: 14, lineHeight: 6.3, spaceBefore: 5.3, spaceAfter: 1.8, r: 0, g: 0, b: 139},
		layout.StyleH3:      {size: 12, lineHeight: 5.6, spaceBefore: 3.5, spaceAfter: 0.7},
		layout.StyleBody:    {size: 10.5, lineHeight: 5.6, spaceAfter: 2.1},
		layout.StyleBullet:  {size: 10.5, lineHeight: 5.6, spaceAfter: 0.7, indent: 5.3},
		layout.StyleCaption: {size: 9, lineHeight: 4.5, centered: true, r: 105, g: 105, b: 105},
	}
}

type renderer struct {
	pdf      *gofpdf.Fpdf
	font     string
	styles   map[layout.Style]textStyle
	leftX    float64
	contentW float64
	bottomY  float64
	topY     float64
	log      zerolog.Logger
}

func newRenderer(cfg config.LayoutConfig, log zerolog.Logger) *renderer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	margin := cfg.PageMarginMM
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)

	font := registerBodyFont(pdf)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	return &renderer{
		pdf:      pdf,
		font:     font,
		styles:   documentStyles(),
		leftX:    margin,
		contentW: pageW - 2*margin,
		bottomY:  pageH - margin,
		topY:     margin,
		log:      log,
	}
}

func (r *renderer) remaining() float64 {
	return r.bottomY - r.pdf.GetY()
}

func (r *renderer) usable() float64 {
	return r.bottomY - r.topY
}

func (r *renderer) renderAll(units []layout.Unit) {
	for _, u := range units {
		if u.Kind == layout.UnitText && u.KeepWithNext {
			// Keep the heading off the last line of the page.
			need := r.measure(u) + r.styles[layout.StyleBody].lineHeight
			if need > r.remaining() && need <= r.usable() {
				r.pdf.AddPage()
			}
		}
		r.renderUnit(u)
	}
}

func (r *renderer) renderUnit(u layout.Unit) {
	switch u.Kind {
	case layout.UnitPageBreak:
		r.pdf.AddPage()

	case layout.UnitSpacer:
		r.pdf.Ln(u.Height)

	case layout.UnitRule:
		r.renderRule(u)

	case layout.UnitText:
		r.renderText(u)

	case layout.UnitImage:
		r.renderImage(u)

	case layout.UnitTable:
		r.renderTable(u)

	case layout.UnitGroup:
		need := r.measureAll(u.Children)
		if need > r.remaining() && need <= r.usable() {
			r.pdf.AddPage()
		}
		for _, child := range u.Children {
			r.renderUnit(child)
		}
	}

	if !r.pdf.Ok() {
		// Per-unit failures degrade the document instead of aborting it.
		r.log.Warn().Err(domain.RenderError("unit skipped", r.pdf.Error())).Msg("render failure")
		r.pdf.ClearError()
	}
}

func (r *renderer) renderRule(u layout.Unit) {
	y := r.pdf.GetY()
	r.pdf.SetLineWidth(u.Height)
	r.pdf.SetDrawColor(90, 90, 90)
	r.pdf.Line(r.leftX, y, r.leftX+r.contentW, y)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.Ln(2)
}

func (r *renderer) renderText(u layout.Unit) {
	st := r.styles[u.Style]
	if st.spaceBefore > 0 {
		r.pdf.Ln(st.spaceBefore)
	}
	r.pdf.SetTextColor(st.r, st.g, st.b)

	if st.centered {
		r.setFont(st, false)
		for _, line := range u.Lines {
			r.pdf.MultiCell(r.contentW, st.lineHeight, layout.PlainLine(line), "", "C", false)
		}
	} else {
		if st.indent > 0 {
			r.pdf.SetLeftMargin(r.leftX + st.indent)
			defer r.pdf.SetLeftMargin(r.leftX)
		}
		for _, line := range u.Lines {
			r.pdf.SetX(r.leftX + st.indent)
			for _, span := range line {
				r.setFont(st, span.Bold)
				r.pdf.Write(st.lineHeight, span.Text)
			}
			r.pdf.Ln(st.lineHeight)
		}
	}

	r.pdf.SetTextColor(0, 0, 0)
	if st.spaceAfter > 0 {
		r.pdf.Ln(st.spaceAfter)
	}
}

func (r *renderer) renderImage(u layout.Unit) {
	if u.HeightMM > r.remaining() && u.HeightMM <= r.usable() {
		r.pdf.AddPage()
	}
	x := r.leftX + (r.contentW-u.WidthMM)/2
	y := r.pdf.GetY()
	r.pdf.ImageOptions(u.ImagePath, x, y, u.WidthMM, u.HeightMM, false,
		gofpdf.ImageOptions{ReadDpi: false}, 0, "")
	r.pdf.SetY(y + u.HeightMM)
}

func (r *renderer) renderTable(u layout.Unit) {
	t := u.Table
	if t == nil || t.ColumnCount == 0 || len(t.Rows) == 0 {
		return
	}
	colW := r.contentW / float64(t.ColumnCount)

	if !u.Splittable {
		need := r.measureTable(t, colW)
		if need > r.remaining() && need <= r.usable() {
			r.pdf.AddPage()
		}
	}

	r.pdf.SetAutoPageBreak(false, r.topY)
	defer r.pdf.SetAutoPageBreak(true, r.topY)

	for i, row := range t.Rows {
		rh := r.rowHeight(row, colW)
		if i > 0 && r.pdf.GetY()+rh > r.bottomY {
			r.pdf.AddPage()
			// The header row repeats on every page the table spans.
			r.drawRow(t.Rows[0], colW, true)
		}
		r.drawRow(row, colW, i == 0)
	}
}

func (r *renderer) drawRow(row []string, colW float64, header bool) {
	rh := r.rowHeight(row, colW)
	x0 := r.leftX
	y0 := r.pdf.GetY()

	for j, cell := range row {
		x := x0 + float64(j)*colW
		if header {
			r.pdf.SetFillColor(240, 248, 255) // alice blue
			r.pdf.Rect(x, y0, colW, rh, "FD")
		} else {
			r.pdf.Rect(x, y0, colW, rh, "D")
		}

		text, bold := cellText(cell)
		align := "L"
		if header {
			align = "C"
		}
		style := ""
		if bold {
			style = "B"
		}
		r.pdf.SetFont(r.font, style, tableFontSize)
		r.pdf.SetXY(x+tableCellPad, y0+tableCellPad)
		r.pdf.MultiCell(colW-2*tableCellPad, tableLineHeight, text, "", align, false)
	}

	r.pdf.SetXY(x0, y0+rh)
}

// cellText flattens a cell to renderable text: break markers become line
// breaks, and a cell wholly wrapped in a bold span renders bold. Inline
// partial emphasis inside a fixed-width cell is flattened to plain text.
func cellText(cell string) (string, bool) {
	lines := layout.NormalizeInline(cell)
	if len(lines) == 1 && len(lines[0]) == 1 && lines[0][0].Bold {
		return lines[0][0].Text, true
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, layout.PlainLine(line))
	}
	return strings.Join(parts, "\n"), false
}

func (r *renderer) rowHeight(row []string, colW float64) float64 {
	r.pdf.SetFont(r.font, "", tableFontSize)
	maxLines := 1
	for _, cell := range row {
		text, _ := cellText(cell)
		lines := 0
		for _, logical := range strings.Split(text, "\n") {
			wrapped := r.pdf.SplitText(logical, colW-2*tableCellPad)
			if len(wrapped) == 0 {
				wrapped = []string{""}
			}
			lines += len(wrapped)
		}
		if lines > maxLines {
			maxLines = lines
		}
	}
	return float64(maxLines)*tableLineHeight + 2*tableCellPad
}

func (r *renderer) setFont(st textStyle, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	r.pdf.SetFont(r.font, style, st.size)
}

// measure estimates the rendered height of a unit for grouping decisions.
func (r *renderer) measure(u layout.Unit) float64 {
	switch u.Kind {
	case layout.UnitSpacer:
		return u.Height
	case layout.UnitRule:
		return u.Height + 2
	case layout.UnitImage:
		return u.HeightMM
	case layout.UnitText:
		st := r.styles[u.Style]
		r.setFont(st, false)
		lines := 0
		for _, line := range u.Lines {
			wrapped := r.pdf.SplitText(layout.PlainLine(line), r.contentW-st.indent)
			if len(wrapped) == 0 {
				wrapped = []string{""}
			}
			lines += len(wrapped)
		}
		return st.spaceBefore + float64(lines)*st.lineHeight + st.spaceAfter
	case layout.UnitTable:
		if u.Table == nil || u.Table.ColumnCount == 0 {
			return 0
		}
		return r.measureTable(u.Table, r.contentW/float64(u.Table.ColumnCount))
	case layout.UnitGroup:
		return r.measureAll(u.Children)
	}
	return 0
}

func (r *renderer) measureAll(units []layout.Unit) float64 {
	var total float64
	for _, u := range units {
		total += r.measure(u)
	}
	return total
}

func (r *renderer) measureTable(t *domain.TableBlock, colW float64) float64 {
	var total float64
	for _, row := range t.Rows {
		total += r.rowHeight(row, colW)
	}
	return total
}
