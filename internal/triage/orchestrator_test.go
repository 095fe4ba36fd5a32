package triage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/model"
)

type fakeStore struct {
	report *model.Report

	savedAnalysis    *model.ReportAnalysis
	savedEmbedding   []float32
	savedDuplicateOf string
	saveErr          error
	comments         []*model.ReportComment
	hasSystemActor   bool
}

func (f *fakeStore) GetReport(_ context.Context, key string) (*model.Report, error) {
	if f.report == nil {
		return nil, fmt.Errorf("report %s not found", key)
	}
	return f.report, nil
}

func (f *fakeStore) SaveAnalysis(_ context.Context, _ string, analysis *model.ReportAnalysis, embedding []float32, duplicateOf string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedAnalysis = analysis
	f.savedEmbedding = embedding
	f.savedDuplicateOf = duplicateOf
	return nil
}

func (f *fakeStore) AddComment(_ context.Context, c *model.ReportComment) error {
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakeStore) HasUser(_ context.Context, _ string) (bool, error) {
	return f.hasSystemActor, nil
}

type fakeClassifier struct {
	result model.ClassificationResult
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _, _, _ string) model.ClassificationResult {
	f.calls++
	return f.result
}

type fakeEmbedder struct {
	vector []float32
	ok     bool
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, bool) {
	f.calls++
	return f.vector, f.ok
}

type fakeFinder struct {
	matches   []model.SimilarityMatch
	err       error
	gotQuery  []float32
	gotExcl   string
	threshold float64
}

func (f *fakeFinder) FindSimilar(_ context.Context, query []float32, threshold float64, excludeKey string) ([]model.SimilarityMatch, error) {
	f.gotQuery = query
	f.gotExcl = excludeKey
	f.threshold = threshold
	return f.matches, f.err
}

type fakeAssigner struct {
	result assign.Result
	err    error
	calls  int
}

func (f *fakeAssigner) Assign(_ context.Context, _, _, _, _ string) (assign.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) PublishEngineerAssigned(_ context.Context, _, _, _, _, _ string) error {
	f.published++
	return f.err
}

type fixture struct {
	store      *fakeStore
	classifier *fakeClassifier
	embedder   *fakeEmbedder
	finder     *fakeFinder
	assigner   *fakeAssigner
	publisher  *fakePublisher
	orch       *Orchestrator
}

func newFixture(report *model.Report) *fixture {
	f := &fixture{
		store: &fakeStore{report: report, hasSystemActor: true},
		classifier: &fakeClassifier{result: model.ClassificationResult{
			BugType:       "XSS",
			Severity:      model.SeverityHigh,
			Confidence:    0.9,
			Summary:       "reflected XSS",
			SuggestedTeam: "frontend",
		}},
		embedder: &fakeEmbedder{vector: []float32{0.1, 0.2}, ok: true},
		finder:   &fakeFinder{},
		assigner: &fakeAssigner{result: assign.Result{Assigned: true, Engineer: "alice", Team: "frontend"}},
		publisher: &fakePublisher{},
	}
	f.orch = NewOrchestrator(config.Default(), f.store, f.classifier, f.embedder,
		f.finder, f.assigner, f.publisher, zap.NewNop().Sugar())
	return f
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(model.NewReport("Reflected XSS", "the q param is echoed"))
	f.store.report.Key = "r1"

	summary, err := f.orch.Run(context.Background(), "r1")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, "XSS", summary.BugType)
	assert.Equal(t, model.SeverityHigh, summary.Severity)
	assert.True(t, summary.Assigned)
	assert.Equal(t, "alice", summary.AssignedTo)
	assert.Equal(t, "frontend", summary.AssignedTeam)

	require.NotNil(t, f.store.savedAnalysis)
	assert.Equal(t, []float32{0.1, 0.2}, f.store.savedEmbedding)
	assert.Empty(t, f.store.savedDuplicateOf)
	assert.Equal(t, 1, f.publisher.published)
	assert.Equal(t, "r1", f.finder.gotExcl, "report must not match itself")
}

func TestRunDuplicatePath(t *testing.T) {
	f := newFixture(model.NewReport("XSS again", "same bug"))
	f.store.report.Key = "r2"
	f.finder.matches = []model.SimilarityMatch{
		{ReportKey: "r1", Title: "Reflected XSS", Status: model.StatusInProgress, Similarity: 0.91},
		{ReportKey: "r0", Title: "Old XSS", Status: model.StatusResolved, Similarity: 0.87},
	}

	summary, err := f.orch.Run(context.Background(), "r2")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.DuplicatesFound)
	assert.Equal(t, "r1", summary.DuplicateOf, "highest similarity wins")
	assert.Equal(t, "r1", f.store.savedDuplicateOf)

	assert.False(t, summary.Assigned)
	assert.Equal(t, 0, f.assigner.calls, "duplicates are never assigned")
	assert.Equal(t, 0, f.publisher.published)

	require.Len(t, f.store.comments, 1)
	assert.True(t, f.store.comments[0].System)
	assert.Contains(t, f.store.comments[0].Body, "91%")
	assert.Contains(t, f.store.comments[0].Body, "r1")
}

func TestRunDuplicateWithoutSystemActor(t *testing.T) {
	f := newFixture(model.NewReport("dup", "d"))
	f.store.report.Key = "r3"
	f.store.hasSystemActor = false
	f.finder.matches = []model.SimilarityMatch{{ReportKey: "r1", Title: "orig", Similarity: 0.9}}

	summary, err := f.orch.Run(context.Background(), "r3")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, "r1", f.store.savedDuplicateOf, "duplicate marking proceeds without the comment")
	assert.Empty(t, f.store.comments)
}

func TestRunClassifierOutageUsesFallbackConfidence(t *testing.T) {
	f := newFixture(model.NewReport("SQL injection in login", "the username field hits the DB raw"))
	f.store.report.Key = "r4"
	f.classifier.result = model.ClassificationResult{
		BugType:       "SQL Injection",
		Severity:      model.SeverityHigh,
		Confidence:    0.3,
		Summary:       "SQL injection in login",
		SuggestedTeam: "security",
	}

	summary, err := f.orch.Run(context.Background(), "r4")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 0.3, summary.Confidence)
	require.NotNil(t, f.store.savedAnalysis, "fallback classifications are persisted like any other")
}

func TestRunEmbeddingUnavailableSkipsDedup(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r5"
	f.embedder.vector = nil
	f.embedder.ok = false

	summary, err := f.orch.Run(context.Background(), "r5")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Nil(t, f.finder.gotQuery, "detector receives a nil query and short-circuits")
	assert.Nil(t, f.store.savedEmbedding, "no placeholder vector is ever stored")
	assert.True(t, summary.Assigned, "classification and assignment continue without dedup")
}

func TestRunMemoizesPersistedAnalysis(t *testing.T) {
	report := model.NewReport("t", "d")
	report.Key = "r6"
	report.Analysis = &model.ReportAnalysis{ClassificationResult: model.ClassificationResult{
		BugType:  "CSRF",
		Severity: model.SeverityMedium,
	}}
	report.Embedding = []float32{0.5, 0.5}

	f := newFixture(report)

	summary, err := f.orch.Run(context.Background(), "r6")
	require.NoError(t, err)

	assert.Equal(t, "CSRF", summary.BugType)
	assert.Equal(t, 0, f.classifier.calls, "persisted judgement is reused")
	assert.Equal(t, 0, f.embedder.calls, "persisted vector is reused")
	assert.Equal(t, []float32{0.5, 0.5}, f.finder.gotQuery)
}

func TestRunSkipsAssignmentWhenAlreadyAssigned(t *testing.T) {
	report := model.NewReport("t", "d")
	report.Key = "r11"
	report.Status = model.StatusInProgress
	report.AssignedTo = "alice"
	report.Analysis = &model.ReportAnalysis{ClassificationResult: model.ClassificationResult{
		BugType:  "XSS",
		Severity: model.SeverityHigh,
	}}
	report.Embedding = []float32{0.5, 0.5}

	f := newFixture(report)

	summary, err := f.orch.Run(context.Background(), "r11")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.True(t, summary.Assigned)
	assert.Equal(t, "alice", summary.AssignedTo)
	assert.Equal(t, 0, f.assigner.calls, "an assigned report is never re-routed")
	assert.Equal(t, 0, f.publisher.published, "the notification is not re-emitted")
}

func TestRunAssignmentWriteFailureIsFatal(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r12"
	f.assigner.err = fmt.Errorf("assignment collection unavailable")

	summary, err := f.orch.Run(context.Background(), "r12")
	require.Error(t, err, "an infrastructure fault must surface for retry, unlike an empty pool")
	assert.False(t, summary.Success)
	assert.Equal(t, 0, f.publisher.published)
}

func TestRunDedupScanFailureDegrades(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r7"
	f.finder.err = fmt.Errorf("cursor timeout")

	summary, err := f.orch.Run(context.Background(), "r7")
	require.NoError(t, err)

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.DuplicatesFound)
	assert.True(t, summary.Assigned)
}

func TestRunNoEngineersLeavesReportNew(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r8"
	f.assigner.result = assign.Result{Assigned: false, Reason: "no engineers available"}

	summary, err := f.orch.Run(context.Background(), "r8")
	require.NoError(t, err)

	assert.True(t, summary.Success, "an unassignable report is still triaged")
	assert.False(t, summary.Assigned)
	assert.Equal(t, "no engineers available", summary.FailureReason)
	assert.Equal(t, 0, f.publisher.published)
}

func TestRunMissingReportIsFatal(t *testing.T) {
	f := newFixture(nil)

	_, err := f.orch.Run(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRunPersistFailureIsFatal(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r9"
	f.store.saveErr = fmt.Errorf("write conflict")

	_, err := f.orch.Run(context.Background(), "r9")
	require.Error(t, err)
	assert.Equal(t, 0, f.assigner.calls, "no assignment without a persisted analysis")
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(model.NewReport("t", "d"))
	f.store.report.Key = "r10"
	f.publisher.err = fmt.Errorf("broker unreachable")

	summary, err := f.orch.Run(context.Background(), "r10")
	require.NoError(t, err)
	assert.True(t, summary.Assigned)
}
