// Package pipeline orchestrates one document run: extraction, report
// generation, markup parsing, layout and PDF serialization.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/domain"
	"github.com/zonewatch/docreport/internal/layout"
	"github.com/zonewatch/docreport/internal/markup"
	"github.com/zonewatch/docreport/internal/render"
)

// ContentExtractor pulls text and captioned images from a source document.
type ContentExtractor interface {
	Extract(ctx context.Context, pdfPath string) (string, []domain.ImageRecord, error)
}

// Pipeline runs the full document flow. Extraction and summarization
// failures are fatal for the document; downstream stages degrade per unit.
type Pipeline struct {
	extractor  ContentExtractor
	summarizer domain.Summarizer
	engine     *layout.Engine
	writer     *render.Writer
	log        zerolog.Logger
}

// New assembles a pipeline from its stages.
func New(extractor ContentExtractor, summarizer domain.Summarizer, engine *layout.Engine, writer *render.Writer, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		summarizer: summarizer,
		engine:     engine,
		writer:     writer,
		log:        log,
	}
}

// Run processes one source document and returns the generated report path.
func (p *Pipeline) Run(ctx context.Context, pdfPath, instruction string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	start := time.Now()

	text, images, err := p.extractor.Extract(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	p.log.Info().Str("document", stem).
		Int("text_chars", len(text)).
		Int("images", len(images)).
		Msg("extraction complete")

	report, err := p.summarizer.Summarize(ctx, text, domain.CaptionListing(images), instruction)
	if err != nil {
		return "", err
	}

	blocks := markup.Parse(report)
	p.log.Debug().Str("document", stem).Int("blocks", len(blocks)).Msg("report parsed")

	units := p.engine.Build(stem, blocks, domain.RecordMap(images))

	outPath, err := p.writer.Write(stem, units)
	if err != nil {
		return "", err
	}

	p.log.Info().Str("document", stem).
		Str("output", outPath).
		Dur("elapsed", time.Since(start)).
		Msg("report generated")
	return outPath, nil
}
