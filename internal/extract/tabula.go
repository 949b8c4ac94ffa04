package extract

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/tsawler/tabula/reader"

	"github.com/zonewatch/docreport/internal/domain"
)

// tabulaSource adapts the tabula PDF reader to the imageSource interface.
type tabulaSource struct {
	r     *reader.Reader
	pages int
	log   zerolog.Logger
}

func openTabulaSource(pdfPath string, log zerolog.Logger) (*tabulaSource, error) {
	r, err := reader.Open(pdfPath)
	if err != nil {
		return nil, domain.ExtractionError("open document images "+pdfPath, err)
	}
	pages, err := r.PageCount()
	if err != nil {
		_ = r.Close()
		return nil, domain.ExtractionError("count pages of "+pdfPath, err)
	}
	return &tabulaSource{r: r, pages: pages, log: log}, nil
}

func (s *tabulaSource) PageCount() int { return s.pages }

// PageImages returns the embedded image XObjects of one page as file-ready
// bytes. JPEG streams pass through untouched; everything else is re-encoded
// as PNG from the decoded pixel data. An image that cannot be re-encoded is
// skipped, not fatal.
func (s *tabulaSource) PageImages(index int) ([]rawImage, error) {
	page, err := s.r.GetPage(index)
	if err != nil {
		return nil, err
	}
	imgs, err := s.r.ExtractPageImages(page)
	if err != nil {
		return nil, err
	}

	candidates := make([]rawImage, 0, len(imgs))
	for _, img := range imgs {
		if strings.EqualFold(img.Filter, "DCTDecode") {
			// The decoded stream of a DCT image is the JPEG file itself.
			candidates = append(candidates, rawImage{data: img.Data, ext: "jpg"})
			continue
		}
		data, err := img.ToPNG()
		if err != nil {
			s.log.Debug().Err(err).Str("name", img.Name).Int("page", index+1).
				Msg("unconvertible image skipped")
			continue
		}
		candidates = append(candidates, rawImage{data: data, ext: "png"})
	}
	return candidates, nil
}

func (s *tabulaSource) Close() error { return s.r.Close() }
