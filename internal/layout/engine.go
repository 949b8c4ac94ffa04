// Package layout turns the parsed block stream into an ordered list of
// renderable units with pagination and grouping policy applied: forced page
// breaks before top-level headings, keep-with-next subheadings, aspect-scaled
// images grouped with their captions, and non-splittable small tables.
package layout

import (
	"image"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
)

// pixels are treated as 1/72 inch when deriving natural image size.
const mmPerPixel = 25.4 / 72.0

// Engine builds layout units from blocks. It keeps a running count of
// emitted units so early top-level headings do not force a page break.
type Engine struct {
	cfg          config.LayoutConfig
	contentWidth float64 // usable width between margins, mm
	log          zerolog.Logger
}

// New creates a layout engine for the given content width in millimeters.
func New(cfg config.LayoutConfig, contentWidthMM float64, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		contentWidth: contentWidthMM,
		log:          log,
	}
}

// Build converts the block stream into ordered layout units. Output order is
// exactly the block order; spacing is inserted by layout style. Unresolved
// image labels and per-unit render preparation failures are skipped silently
// with respect to the document (logged, never fatal).
func (e *Engine) Build(title string, blocks []domain.Block, images map[string]domain.ImageRecord) []Unit {
	units := []Unit{
		textUnit(StyleTitle, plainSpans(title+" — Summary Report")),
		rule(0.7),
		spacer(10),
	}

	for _, block := range blocks {
		switch block.Kind {
		case domain.BlockHeading:
			units = e.appendHeading(units, block)

		case domain.BlockBullet:
			lines := NormalizeInline(block.Text)
			lines[0] = append([]Span{{Text: "• "}}, lines[0]...)
			units = append(units, textUnit(StyleBullet, lines))

		case domain.BlockParagraph:
			units = append(units, textUnit(StyleBody, NormalizeInline(block.Text)))

		case domain.BlockImageRef:
			if unit, ok := e.imageUnit(block.Text, images); ok {
				units = append(units, unit)
			}

		case domain.BlockTable:
			units = append(units,
				spacer(2),
				Unit{
					Kind:       UnitTable,
					Table:      block.Table,
					Splittable: block.Table.DataRowCount() >= e.cfg.SmallTableRows,
				},
				spacer(5),
			)
		}
	}

	return units
}

func (e *Engine) appendHeading(units []Unit, block domain.Block) []Unit {
	switch block.Level {
	case 1:
		// The heading, its rule and surrounding spacing render as one
		// atomic group on a fresh page, except near the document start.
		if len(units) > e.cfg.BreakWindowUnits {
			units = append(units, Unit{Kind: UnitPageBreak})
		}
		return append(units, group(
			spacer(5),
			textUnit(StyleH1, plainSpans(block.Text)),
			rule(0.35),
			spacer(3),
		))
	case 2:
		u := textUnit(StyleH2, plainSpans(block.Text))
		u.KeepWithNext = true
		return append(units, u)
	case 3:
		u := textUnit(StyleH3, plainSpans(block.Text))
		u.KeepWithNext = true
		return append(units, u)
	default:
		// Level 4 is emphasized body text, not a distinct heading style.
		return append(units, textUnit(StyleBody, [][]Span{{Span{Text: block.Text, Bold: true}}}))
	}
}

// imageUnit resolves an image reference into a non-splittable group of
// spacing, the scaled image and its caption line. A label with no record
// resolves to nothing; a load failure is logged and skipped.
func (e *Engine) imageUnit(label string, images map[string]domain.ImageRecord) (Unit, bool) {
	rec, ok := images[strings.TrimSpace(label)]
	if !ok {
		return Unit{}, false
	}

	w, h, err := e.displaySize(rec.Path)
	if err != nil {
		e.log.Warn().Err(domain.RenderError("skipping image "+rec.Label, err)).
			Str("label", rec.Label).Msg("image unit dropped")
		return Unit{}, false
	}

	return group(
		spacer(2),
		Unit{Kind: UnitImage, ImagePath: rec.Path, WidthMM: w, HeightMM: h},
		spacer(1),
		textUnit(StyleCaption, plainSpans("▲ "+rec.Caption)),
		spacer(5),
	), true
}

// displaySize computes display dimensions preserving aspect ratio: bound by
// content width first, then by the maximum image height, re-deriving width
// when the height bound applies.
func (e *Engine) displaySize(path string) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, domain.RenderError("image has no dimensions", nil)
	}

	w := float64(cfg.Width) * mmPerPixel
	h := float64(cfg.Height) * mmPerPixel
	aspect := h / w

	if w > e.contentWidth {
		w = e.contentWidth
		h = w * aspect
	}
	if h > e.cfg.MaxImageHeightMM {
		h = e.cfg.MaxImageHeightMM
		w = h / aspect
	}
	return w, h, nil
}
