package domain

import "context"

// Captioner produces a short description for one extracted image. The index
// is the image's 1-based acceptance order, used to phrase the request.
type Captioner interface {
	Caption(ctx context.Context, imageData []byte, index int) (string, error)
}

// Summarizer turns the extracted document text plus the ordered image caption
// listing into report markup following the generation grammar.
type Summarizer interface {
	Summarize(ctx context.Context, text, imageListing, instruction string) (string, error)
}

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
