package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonewatch/docreport/internal/config"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			return nil, errors.New("no vector for text")
		}
		out[i] = vec
	}
	return out, nil
}

type fakeResponder struct {
	reply      string
	err        error
	gotPrompts []string
}

func (f *fakeResponder) Respond(_ context.Context, prompt string) (string, error) {
	f.gotPrompts = append(f.gotPrompts, prompt)
	return f.reply, f.err
}

func TestChunkText(t *testing.T) {
	long := strings.Repeat("a", 500) + strings.Repeat("b", 500) + strings.Repeat("c", 60)
	chunks := ChunkText(long, 500, 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("a", 500), chunks[0])
	assert.Equal(t, strings.Repeat("c", 60), chunks[2])

	// The trailing chunk is dropped when at or below the minimum.
	chunks = ChunkText(strings.Repeat("a", 550), 500, 50)
	require.Len(t, chunks, 1)

	// Chunking counts characters, not bytes.
	jp := strings.Repeat("あ", 120)
	chunks = ChunkText(jp, 100, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.Repeat("あ", 100), chunks[0])
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestSearchReturnsBestChunk(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"uptime was excellent this quarter": {1, 0},
		"the office plants need watering":   {0, 1},
		"what was the uptime?":              {0.9, 0.1},
	}}

	idx, err := BuildIndex(context.Background(),
		[]string{"uptime was excellent this quarter", "the office plants need watering"},
		emb, nil, zerolog.Nop())
	require.NoError(t, err)

	chunk, score, err := idx.Search(context.Background(), "what was the uptime?")
	require.NoError(t, err)
	assert.Equal(t, "uptime was excellent this quarter", chunk)
	assert.Greater(t, score, 0.9)
}

func TestBuildIndexUsesCache(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "embeddings.db"), "test/embedding")
	require.NoError(t, err)
	defer cache.Close()

	emb := &fakeEmbedder{vectors: map[string][]float32{"chunk one": {0.5, 0.5}}}

	_, err = BuildIndex(context.Background(), []string{"chunk one"}, emb, cache, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)

	// Second build finds the vector in the cache and never calls the API.
	idx, err := BuildIndex(context.Background(), []string{"chunk one"}, emb, cache, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, []float32{0.5, 0.5}, idx.vectors[0])
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "embeddings.db"), "model-a")
	require.NoError(t, err)
	defer cache.Close()

	vec := []float32{0.1, -2.5, 3.75}
	require.NoError(t, cache.Put("some text", vec))

	got, ok, err := cache.Get("some text")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok, err = cache.Get("other text")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheKeysByModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")

	a, err := OpenCache(path, "model-a")
	require.NoError(t, err)
	require.NoError(t, a.Put("text", []float32{1}))
	require.NoError(t, a.Close())

	b, err := OpenCache(path, "model-b")
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := b.Get("text")
	require.NoError(t, err)
	assert.False(t, ok, "vectors from another model must not be served")
}

func TestFormatHistoryTOON(t *testing.T) {
	assert.Equal(t, "", FormatHistoryTOON(nil))

	history := []Turn{
		{Role: "user", Content: "first, question\nsecond line"},
		{Role: "model", Content: "the answer"},
	}
	got := FormatHistoryTOON(history)
	assert.Equal(t, "\nhistory[2]{role, content}:\nuser, first， question second line\nmodel, the answer\n", got)
}

func sessionConfig() config.ChatConfig {
	cfg := config.Default().Chat
	cfg.HistoryLimit = 4
	return cfg
}

func TestAskAttachesReferenceAboveThreshold(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"relevant chunk": {1, 0},
		"query":          {1, 0},
	}}
	idx, err := BuildIndex(context.Background(), []string{"relevant chunk"}, emb, nil, zerolog.Nop())
	require.NoError(t, err)

	resp := &fakeResponder{reply: "  an answer  "}
	s := NewSession(resp, idx, sessionConfig(), zerolog.Nop())

	reply, err := s.Ask(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, "an answer", reply.Text)
	assert.True(t, reply.RAGUsed)

	require.Len(t, resp.gotPrompts, 1)
	assert.Contains(t, resp.gotPrompts[0], "reference_material{content}:")
	assert.Contains(t, resp.gotPrompts[0], "relevant chunk")
}

func TestAskSkipsReferenceBelowThreshold(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"unrelated chunk": {1, 0},
		"query":           {0, 1},
	}}
	idx, err := BuildIndex(context.Background(), []string{"unrelated chunk"}, emb, nil, zerolog.Nop())
	require.NoError(t, err)

	resp := &fakeResponder{reply: "plain answer"}
	s := NewSession(resp, idx, sessionConfig(), zerolog.Nop())

	reply, err := s.Ask(context.Background(), "query")
	require.NoError(t, err)
	assert.False(t, reply.RAGUsed)
	assert.NotContains(t, resp.gotPrompts[0], "reference_material")
}

func TestAskKeepsBoundedHistory(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	idx, err := BuildIndex(context.Background(), nil, emb, nil, zerolog.Nop())
	require.NoError(t, err)

	resp := &fakeResponder{reply: "ok"}
	s := NewSession(resp, idx, sessionConfig(), zerolog.Nop())

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		_, err := s.Ask(context.Background(), q)
		require.NoError(t, err)
	}

	// Limit 4 keeps the last two exchanges.
	require.Len(t, s.history, 4)
	assert.Equal(t, "q3", s.history[0].Content)

	// The prompt of the final ask carries only the trimmed history.
	last := resp.gotPrompts[len(resp.gotPrompts)-1]
	assert.Contains(t, last, "history[4]{role, content}:")
	assert.Contains(t, last, "q2")
	assert.NotContains(t, last, "q1")
}
