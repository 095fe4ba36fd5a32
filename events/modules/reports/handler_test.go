package reports

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bughive/triage-backend/model"
)

type fakeRunner struct {
	summary model.TriageSummary
	runs    []string
}

func (f *fakeRunner) Run(_ context.Context, reportKey string) (model.TriageSummary, error) {
	f.runs = append(f.runs, reportKey)
	return f.summary, nil
}

func TestHandleReportSubmitted(t *testing.T) {
	payload, err := json.Marshal(ReportSubmittedEvent{
		EventType: "report.submitted",
		ReportKey: "r1",
		Title:     "XSS in search",
	})
	require.NoError(t, err)

	runner := &fakeRunner{summary: model.TriageSummary{ReportKey: "r1", Success: true, Assigned: true, AssignedTo: "alice"}}
	require.NoError(t, HandleReportSubmitted(context.Background(), payload, runner))
	assert.Equal(t, []string{"r1"}, runner.runs)
}

func TestHandleReportSubmittedRejectsMalformedPayload(t *testing.T) {
	runner := &fakeRunner{}
	err := HandleReportSubmitted(context.Background(), []byte("not json"), runner)
	require.Error(t, err)
	assert.Empty(t, runner.runs)
}

func TestHandleReportSubmittedRejectsMissingKey(t *testing.T) {
	runner := &fakeRunner{}
	err := HandleReportSubmitted(context.Background(), []byte(`{"event_type":"report.submitted"}`), runner)
	require.Error(t, err)
	assert.Empty(t, runner.runs)
}
