// Package chat answers questions about previously generated reports. Report
// text is chunked and embedded once at startup; each question retrieves the
// single most similar chunk and hands it to the model as reference material
// when the similarity clears the threshold.
package chat

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"github.com/zonewatch/docreport/internal/config"
	"github.com/zonewatch/docreport/internal/domain"
)

// LoadChunks reads every PDF in dir and splits the text into chunks sized
// for embedding. A missing directory is created and yields no chunks; a
// single unreadable file is logged and skipped.
func LoadChunks(dir string, cfg config.ChatConfig, log zerolog.Logger) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.ConfigError("create report directory "+dir, err)
		}
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, domain.ConfigError("scan report directory "+dir, err)
	}

	var chunks []string
	for _, file := range files {
		text, err := documentText(file)
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("skipping unreadable report")
			continue
		}
		chunks = append(chunks, ChunkText(text, cfg.ChunkSize, cfg.MinChunkChars)...)
	}
	return chunks, nil
}

func documentText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", err
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ChunkText splits text into fixed-size chunks, measured in characters, and
// drops chunks at or below minChars as noise (typically the short tail).
func ChunkText(text string, size, minChars int) []string {
	if size <= 0 {
		return nil
	}
	runes := []rune(text)

	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := runes[i:end]
		if len(chunk) > minChars {
			chunks = append(chunks, string(chunk))
		}
	}
	return chunks
}

// Index holds the embedded report chunks for similarity search.
type Index struct {
	chunks   []string
	vectors  [][]float32
	embedder domain.Embedder
}

// BuildIndex embeds all chunks, reusing cached vectors where available. The
// cache may be nil, in which case every chunk is embedded fresh.
func BuildIndex(ctx context.Context, chunks []string, embedder domain.Embedder, cache *Cache, log zerolog.Logger) (*Index, error) {
	idx := &Index{
		chunks:   chunks,
		vectors:  make([][]float32, len(chunks)),
		embedder: embedder,
	}

	var missing []string
	var missingAt []int
	for i, chunk := range chunks {
		if cache != nil {
			vec, ok, err := cache.Get(chunk)
			if err != nil {
				log.Warn().Err(err).Msg("embedding cache read failed")
			} else if ok {
				idx.vectors[i] = vec
				continue
			}
		}
		missing = append(missing, chunk)
		missingAt = append(missingAt, i)
	}

	if len(missing) > 0 {
		vectors, err := embedder.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			idx.vectors[missingAt[j]] = vec
			if cache != nil {
				if err := cache.Put(missing[j], vec); err != nil {
					log.Warn().Err(err).Msg("embedding cache write failed")
				}
			}
		}
	}

	log.Info().Int("chunks", len(chunks)).Int("embedded", len(missing)).Msg("index ready")
	return idx, nil
}

// Empty reports whether the index has no chunks to search.
func (idx *Index) Empty() bool {
	return len(idx.chunks) == 0
}

// Search returns the chunk most similar to the query and its cosine score.
func (idx *Index) Search(ctx context.Context, query string) (string, float64, error) {
	if idx.Empty() {
		return "", 0, nil
	}

	vectors, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", 0, err
	}
	if len(vectors) == 0 {
		return "", 0, domain.APIError("no embedding for query", nil)
	}
	queryVec := vectors[0]

	best := 0
	bestScore := math.Inf(-1)
	for i, vec := range idx.vectors {
		score := cosine(queryVec, vec)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return idx.chunks[best], bestScore, nil
}

// cosine computes cosine similarity between two vectors. Mismatched lengths
// compare over the shorter prefix; a zero vector scores 0.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
