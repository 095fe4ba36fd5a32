package ai

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/bughive/triage-backend/model"
)

// StoredEmbedding is one previously-embedded report loaded for a scan.
type StoredEmbedding struct {
	ReportKey string    `json:"report_key"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Vector    []float32 `json:"vector"`
}

// EmbeddingSource loads the embeddings of all reports other than the
// excluded one. Reports without a stored embedding are not returned.
type EmbeddingSource interface {
	EmbeddedReports(ctx context.Context, excludeKey string) ([]StoredEmbedding, error)
}

// Detector performs a brute-force cosine-similarity scan over stored report
// embeddings. The report corpus is small enough that a linear scan per
// submission is the whole index.
type Detector struct {
	source     EmbeddingSource
	maxMatches int
	log        *zap.SugaredLogger
}

// NewDetector creates a duplicate detector capped at maxMatches results.
func NewDetector(source EmbeddingSource, maxMatches int, log *zap.SugaredLogger) *Detector {
	return &Detector{
		source:     source,
		maxMatches: maxMatches,
		log:        log,
	}
}

// FindSimilar returns stored reports whose similarity to the query embedding
// is at or above threshold, sorted descending, capped at maxMatches. A nil or
// empty query short-circuits to an empty result without touching storage.
func (d *Detector) FindSimilar(ctx context.Context, query []float32, threshold float64, excludeKey string) ([]model.SimilarityMatch, error) {
	if len(query) == 0 {
		return nil, nil
	}

	candidates, err := d.source.EmbeddedReports(ctx, excludeKey)
	if err != nil {
		return nil, err
	}

	var matches []model.SimilarityMatch
	for _, candidate := range candidates {
		if len(candidate.Vector) == 0 {
			// Corrupt or missing stored vector: skip this candidate only.
			d.log.Warnw("skipping report with unreadable embedding", "report", candidate.ReportKey)
			continue
		}

		similarity := CosineSimilarity(query, candidate.Vector)
		if similarity < threshold {
			continue
		}

		matches = append(matches, model.SimilarityMatch{
			ReportKey:  candidate.ReportKey,
			Title:      candidate.Title,
			Status:     candidate.Status,
			Similarity: similarity,
		})
	}

	// Stable sort keeps scan order as the tiebreak.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > d.maxMatches {
		matches = matches[:d.maxMatches]
	}

	return matches, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths and zero-magnitude vectors yield 0 rather than an error,
// treating degenerate input as maximally dissimilar.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
