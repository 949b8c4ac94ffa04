// Package extract harvests the raw material for report generation from a
// source PDF: the concatenated page text and the embedded images worth
// captioning. Text comes from MuPDF (go-fitz); embedded image XObjects come
// from tabula, which exposes the per-page image streams MuPDF does not.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
)

// Extractor pulls text and captioned images out of one source document at a
// time. The scratch directory is shared state, cleared at the start of every
// run: concurrent extractions would race on it and need isolated scratch
// directories instead.
type Extractor struct {
	cfg        config.ExtractConfig
	scratchDir string
	captioner  domain.Captioner
	log        zerolog.Logger
}

// New creates an extractor persisting accepted images under scratchDir.
func New(cfg config.ExtractConfig, scratchDir string, captioner domain.Captioner, log zerolog.Logger) *Extractor {
	return &Extractor{
		cfg:        cfg,
		scratchDir: scratchDir,
		captioner:  captioner,
		log:        log,
	}
}

// Extract returns the full document text (pages concatenated in source
// order) and the ordered image records. A document that cannot be opened or
// read is fatal; a single image that cannot be captioned is dropped.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (string, []domain.ImageRecord, error) {
	if err := e.resetScratch(); err != nil {
		return "", nil, err
	}

	text, err := e.pageText(pdfPath)
	if err != nil {
		return "", nil, err
	}

	src, err := openTabulaSource(pdfPath, e.log)
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	records, err := e.harvest(ctx, src)
	if err != nil {
		return "", nil, err
	}

	return text, records, nil
}

// pageText concatenates per-page text in source order, with no separator.
func (e *Extractor) pageText(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", domain.ExtractionError("open document "+pdfPath, err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", domain.ExtractionError(fmt.Sprintf("read text of page %d", n+1), err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

// rawImage is one embedded image candidate: the bytes that would be
// persisted and the file extension matching their format.
type rawImage struct {
	data []byte
	ext  string
}

// imageSource yields embedded image candidates page by page.
type imageSource interface {
	PageCount() int
	PageImages(index int) ([]rawImage, error)
	Close() error
}

// harvest applies the acceptance policy over the candidate stream: images
// below the byte threshold are decorative noise, scanning stops entirely
// once the cap is reached, and each accepted image is persisted and
// captioned. Labels follow acceptance order, not page order; a caption
// failure drops the image and frees its label slot.
func (e *Extractor) harvest(ctx context.Context, src imageSource) ([]domain.ImageRecord, error) {
	var records []domain.ImageRecord

	for page := 0; page < src.PageCount(); page++ {
		if len(records) >= e.cfg.MaxImages {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := src.PageImages(page)
		if err != nil {
			e.log.Warn().Err(err).Int("page", page+1).Msg("skipping page images")
			continue
		}

		for _, candidate := range candidates {
			if len(records) >= e.cfg.MaxImages {
				break
			}
			if len(candidate.data) < e.cfg.MinImageBytes {
				continue
			}

			index := len(records) + 1
			rec, err := e.accept(ctx, candidate, index)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				e.log.Warn().Err(err).Int("index", index).Msg("image dropped")
				continue
			}
			records = append(records, rec)
			e.log.Info().Str("label", rec.Label).Str("caption", rec.Caption).Msg("image accepted")
		}
	}

	return records, nil
}

// accept persists one candidate to scratch and captions it. On caption
// failure the scratch file is removed so the acceptance index can be reused.
func (e *Extractor) accept(ctx context.Context, candidate rawImage, index int) (domain.ImageRecord, error) {
	label := domain.LabelForIndex(index)
	path := filepath.Join(e.scratchDir, fmt.Sprintf("%s.%s", label, candidate.ext))

	if err := os.WriteFile(path, candidate.data, 0o644); err != nil {
		return domain.ImageRecord{}, domain.ExtractionError("persist image "+label, err)
	}

	caption, err := e.captioner.Caption(ctx, candidate.data, index)
	if err != nil {
		_ = os.Remove(path)
		return domain.ImageRecord{}, domain.CaptionError("caption "+label, err)
	}

	return domain.ImageRecord{
		Label:   label,
		Path:    path,
		Caption: strings.TrimSpace(caption),
		Index:   index,
	}, nil
}

// resetScratch clears and recreates the scratch directory. Every extraction
// run starts from an empty scratch; records from the previous run become
// invalid at this point.
func (e *Extractor) resetScratch() error {
	if err := os.RemoveAll(e.scratchDir); err != nil {
		return domain.ExtractionError("clear scratch "+e.scratchDir, err)
	}
	if err := os.MkdirAll(e.scratchDir, 0o755); err != nil {
		return domain.ExtractionError("create scratch "+e.scratchDir, err)
	}
	return nil
}
