package layout

import "github.com/zonewatch/docreport/internal/domain"

// Style identifies one of the fixed text styles of the generated document.
type Style int

const (
	StyleTitle Style = iota
	StyleH1
	StyleH2
	StyleH3
	StyleBody
	StyleBullet
	StyleCaption
)

// UnitKind enumerates renderable layout unit types.
type UnitKind int

const (
	UnitText UnitKind = iota
	UnitRule
	UnitSpacer
	UnitPageBreak
	UnitImage
	UnitTable
	UnitGroup
)

// Unit is one placeable element of the paginated document. Exactly the
// fields for its kind are set.
type Unit struct {
	Kind UnitKind

	// UnitText
	Lines        [][]Span
	Style        Style
	KeepWithNext bool // never the last element on a page

	// UnitSpacer height or UnitRule thickness, in mm.
	Height float64

	// UnitImage
	ImagePath string
	WidthMM   float64
	HeightMM  float64

	// UnitTable. A non-splittable table renders entirely on one page.
	Table      *domain.TableBlock
	Splittable bool

	// UnitGroup: children render together, never across a page boundary.
	Children []Unit
}

func textUnit(style Style, lines [][]Span) Unit {
	return Unit{Kind: UnitText, Style: style, Lines: lines}
}

func spacer(heightMM float64) Unit {
	return Unit{Kind: UnitSpacer, Height: heightMM}
}

func rule(thicknessMM float64) Unit {
	return Unit{Kind: UnitRule, Height: thicknessMM}
}

func group(children ...Unit) Unit {
	return Unit{Kind: UnitGroup, Children: children}
}
