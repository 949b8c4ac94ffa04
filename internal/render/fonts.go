package render

import (
	"os"

	"github.com/jung-kurt/gofpdf"
)

const bodyFontFamily = "report"

// fontCandidate is a regular/bold TTF pair probed on the host system.
type fontCandidate struct {
	regular string
	bold    string
}

var fontCandidates = []fontCandidate{
	{"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"},
	{"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf", "/usr/share/fonts/truetype/noto/NotoSans-Bold.ttf"},
	{"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttf", ""},
	{"/System/Library/Fonts/Supplemental/Arial.ttf", "/System/Library/Fonts/Supplemental/Arial Bold.ttf"},
	{"C:/Windows/Fonts/arial.ttf", "C:/Windows/Fonts/arialbd.ttf"},
}

// registerBodyFont registers the first available system TTF as the document
// font (UTF-8 capable) and returns its family name. With no candidate
// present it falls back to the built-in Helvetica, which covers Latin only.
func registerBodyFont(pdf *gofpdf.Fpdf) string {
	for _, c := range fontCandidates {
		if _, err := os.Stat(c.regular); err != nil {
			continue
		}
		pdf.AddUTF8Font(bodyFontFamily, "", c.regular)

		bold := c.bold
		if bold != "" {
			if _, err := os.Stat(bold); err != nil {
				bold = ""
			}
		}
		if bold == "" {
			bold = c.regular
		}
		pdf.AddUTF8Font(bodyFontFamily, "B", bold)

		if pdf.Ok() {
			return bodyFontFamily
		}
		pdf.ClearError()
	}
	return "Helvetica"
}
