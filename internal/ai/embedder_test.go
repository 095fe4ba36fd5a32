package ai

import (
	"context"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbeddings struct {
	vector []float32
	err    error
}

func (f *fakeEmbeddings) CreateEmbeddings(_ context.Context, _ openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if f.err != nil {
		return openai.EmbeddingResponse{}, f.err
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: f.vector}},
	}, nil
}

func TestEmbedSuccess(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddings{vector: []float32{0.1, 0.2, 0.3}}, "text-embedding-3-small", zap.NewNop().Sugar())

	vec, ok := e.Embed(context.Background(), "Reflected XSS in search")
	require.True(t, ok)
	assert.Len(t, vec, 3)
}

func TestEmbedUnavailableOnError(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddings{err: fmt.Errorf("503 service unavailable")}, "text-embedding-3-small", zap.NewNop().Sugar())

	vec, ok := e.Embed(context.Background(), "some text")
	assert.False(t, ok)
	assert.Nil(t, vec, "unavailable must not produce a placeholder vector")
}

func TestEmbedUnavailableOnEmptyResponse(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddings{}, "text-embedding-3-small", zap.NewNop().Sugar())

	vec, ok := e.Embed(context.Background(), "some text")
	assert.False(t, ok)
	assert.Nil(t, vec)
}

func TestEmbedEmptyTextShortCircuits(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddings{vector: []float32{1}}, "text-embedding-3-small", zap.NewNop().Sugar())

	vec, ok := e.Embed(context.Background(), "")
	assert.False(t, ok)
	assert.Nil(t, vec)
}
