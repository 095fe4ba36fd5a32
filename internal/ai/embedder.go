package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Embedder converts report text into a fixed-length vector via the hosted
// embeddings endpoint. A failed call yields an explicit unavailable outcome,
// never a numeric placeholder: a zero vector would read as orthogonal in the
// cosine stage and silently corrupt duplicate detection.
type Embedder struct {
	client embeddingClient
	model  openai.EmbeddingModel
	log    *zap.SugaredLogger
}

// NewEmbedder creates an embedder for the given model identifier.
func NewEmbedder(client embeddingClient, embeddingModel string, log *zap.SugaredLogger) *Embedder {
	return &Embedder{
		client: client,
		model:  openai.EmbeddingModel(embeddingModel),
		log:    log,
	}
}

// Embed returns the embedding vector and true on success, or (nil, false)
// when the embedding is unavailable.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, bool) {
	if text == "" {
		return nil, false
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		e.log.Warnw("embedding call failed, continuing without embedding", "error", err)
		return nil, false
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		e.log.Warnw("embedding response empty, continuing without embedding")
		return nil, false
	}

	return resp.Data[0].Embedding, true
}
