package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	embeddings []StoredEmbedding
	calls      int
	err        error
}

func (f *fakeSource) EmbeddedReports(_ context.Context, excludeKey string) ([]StoredEmbedding, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []StoredEmbedding
	for _, e := range f.embeddings {
		if e.ReportKey != excludeKey {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestCosineSimilarityBounds(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-3, 1, 2}

	sim := CosineSimilarity(a, b)
	assert.GreaterOrEqual(t, sim, -1.0)
	assert.LessOrEqual(t, sim, 1.0)

	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity(a, []float32{-1, -2, -3}), 1e-9)
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}

	assert.Equal(t, 0.0, CosineSimilarity(zero, v))
	assert.Equal(t, 0.0, CosineSimilarity(v, zero))
	assert.Equal(t, 0.0, CosineSimilarity(zero, zero))
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
}

func TestFindSimilarThresholdSortAndCap(t *testing.T) {
	query := []float32{1, 0}
	source := &fakeSource{}

	// 12 candidates above the threshold at distinct similarities plus one
	// well below it.
	for i := 0; i < 12; i++ {
		angle := float32(i) * 0.01
		source.embeddings = append(source.embeddings, StoredEmbedding{
			ReportKey: fmt.Sprintf("r%d", i),
			Title:     fmt.Sprintf("report %d", i),
			Status:    "NEW",
			Vector:    []float32{1, angle},
		})
	}
	source.embeddings = append(source.embeddings, StoredEmbedding{
		ReportKey: "far",
		Vector:    []float32{0, 1},
	})

	detector := NewDetector(source, 10, zap.NewNop().Sugar())
	matches, err := detector.FindSimilar(context.Background(), query, 0.85, "")
	require.NoError(t, err)

	require.Len(t, matches, 10)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.85)
		assert.NotEqual(t, "far", m.ReportKey)
	}
	// Best match is the exactly-aligned candidate.
	assert.Equal(t, "r0", matches[0].ReportKey)
}

func TestFindSimilarExcludesReport(t *testing.T) {
	source := &fakeSource{embeddings: []StoredEmbedding{
		{ReportKey: "self", Vector: []float32{1, 0}},
		{ReportKey: "other", Title: "dup", Status: "NEW", Vector: []float32{1, 0}},
	}}

	detector := NewDetector(source, 10, zap.NewNop().Sugar())
	matches, err := detector.FindSimilar(context.Background(), []float32{1, 0}, 0.85, "self")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "other", matches[0].ReportKey)
}

func TestFindSimilarUnavailableShortCircuit(t *testing.T) {
	source := &fakeSource{}
	detector := NewDetector(source, 10, zap.NewNop().Sugar())

	matches, err := detector.FindSimilar(context.Background(), nil, 0.85, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, source.calls, "no storage access for unavailable embedding")
}

func TestFindSimilarSkipsCorruptCandidates(t *testing.T) {
	source := &fakeSource{embeddings: []StoredEmbedding{
		{ReportKey: "corrupt", Vector: nil},
		{ReportKey: "short", Vector: []float32{1}},
		{ReportKey: "good", Title: "ok", Vector: []float32{1, 0}},
	}}

	detector := NewDetector(source, 10, zap.NewNop().Sugar())
	matches, err := detector.FindSimilar(context.Background(), []float32{1, 0}, 0.85, "")
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "good", matches[0].ReportKey)
}
