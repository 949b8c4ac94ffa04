// Package markup parses the constrained report dialect produced by the
// summarizer: hash headings (levels 1-4), dash/star bullets, pipe tables,
// whole-line image tags, and plain paragraphs. Anything unrecognized is a
// paragraph.
package markup

import (
	"regexp"
	"strings"

	"github.com/zonewatch/docreport/internal/domain"
)

// state of the line machine.
type state int

const (
	stateNormal state = iota
	stateInTable
)

var imageTagPattern = regexp.MustCompile(`^\[\[IMG:\s*(.*?)\]\]$`)

// classifier inspects one trimmed line and, when it matches, returns the
// block to emit. emit=false with ok=true consumes the line silently (blanks).
type classifier func(line string) (block domain.Block, emit bool, ok bool)

// classifiers run in fixed priority order; the first match wins. Keeping the
// order in one slice stops prefix checks from silently drifting apart.
var classifiers = []classifier{
	classifyImageTag,
	headingClassifier("# ", 1),
	headingClassifier("## ", 2),
	headingClassifier("### ", 3),
	headingClassifier("#### ", 4),
	classifyBullet,
	classifyBlank,
	classifyParagraph,
}

func classifyImageTag(line string) (domain.Block, bool, bool) {
	m := imageTagPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.Block{}, false, false
	}
	return domain.Block{Kind: domain.BlockImageRef, Text: m[1]}, true, true
}

func headingClassifier(prefix string, level int) classifier {
	return func(line string) (domain.Block, bool, bool) {
		if !strings.HasPrefix(line, prefix) {
			return domain.Block{}, false, false
		}
		text := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		return domain.Block{Kind: domain.BlockHeading, Level: level, Text: text}, true, true
	}
}

func classifyBullet(line string) (domain.Block, bool, bool) {
	if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
		return domain.Block{}, false, false
	}
	return domain.Block{Kind: domain.BlockBullet, Text: strings.TrimSpace(line[2:])}, true, true
}

func classifyBlank(line string) (domain.Block, bool, bool) {
	if line != "" {
		return domain.Block{}, false, false
	}
	return domain.Block{}, false, true
}

func classifyParagraph(line string) (domain.Block, bool, bool) {
	return domain.Block{Kind: domain.BlockParagraph, Text: line}, true, true
}

// Parse classifies the generated report text into an ordered block stream.
// Consecutive pipe-prefixed lines are buffered and finalized into a single
// normalized table block; the line that ends a table run is reprocessed under
// normal classification.
func Parse(input string) []domain.Block {
	var blocks []domain.Block
	var assembler Assembler
	st := stateNormal

	flush := func() {
		if table := assembler.Finalize(); table != nil {
			blocks = append(blocks, domain.Block{Kind: domain.BlockTable, Table: table})
		}
		st = stateNormal
	}

	for _, raw := range strings.Split(input, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "|") {
			st = stateInTable
			assembler.Add(line)
			continue
		}
		if st == stateInTable {
			flush()
		}

		for _, classify := range classifiers {
			block, emit, ok := classify(line)
			if !ok {
				continue
			}
			if emit {
				blocks = append(blocks, block)
			}
			break
		}
	}

	if st == stateInTable {
		flush()
	}

	return blocks
}
