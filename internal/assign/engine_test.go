package assign

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/model"
)

type fakeDirectory struct {
	byTeam map[string][]Candidate
	all    []Candidate
	users  map[string]*model.User
}

func (f *fakeDirectory) EngineersByTeam(_ context.Context, team string) ([]Candidate, error) {
	return f.byTeam[team], nil
}

func (f *fakeDirectory) Engineers(_ context.Context) ([]Candidate, error) {
	return f.all, nil
}

func (f *fakeDirectory) GetUser(_ context.Context, username string) (*model.User, error) {
	return f.users[username], nil
}

type fakeRecorder struct {
	assignments []*model.Assignment
	retired     []string
	assignees   map[string]string
	comments    []*model.ReportComment
	failCreate  bool
}

func (f *fakeRecorder) CreateAssignment(_ context.Context, a *model.Assignment) error {
	if f.failCreate {
		return fmt.Errorf("db down")
	}
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeRecorder) RetireActiveAssignments(_ context.Context, reportKey string) error {
	f.retired = append(f.retired, reportKey)
	return nil
}

func (f *fakeRecorder) SetReportAssignee(_ context.Context, reportKey, engineer string) error {
	if f.assignees == nil {
		f.assignees = make(map[string]string)
	}
	f.assignees[reportKey] = engineer
	return nil
}

func (f *fakeRecorder) AddComment(_ context.Context, c *model.ReportComment) error {
	f.comments = append(f.comments, c)
	return nil
}

func newEngine(dir *fakeDirectory, rec *fakeRecorder) *Engine {
	return NewEngine(config.Default(), dir, rec, zap.NewNop().Sugar())
}

func TestAssignPrefersLeastLoaded(t *testing.T) {
	dir := &fakeDirectory{byTeam: map[string][]Candidate{
		"frontend": {
			{Username: "busy", Team: "frontend", ActiveReports: 5},
			{Username: "idle", Team: "frontend", ActiveReports: 1},
		},
	}}
	rec := &fakeRecorder{}

	result, err := newEngine(dir, rec).Assign(context.Background(), "r1", "XSS", model.SeverityHigh, "system")
	require.NoError(t, err)

	assert.True(t, result.Assigned)
	assert.Equal(t, "idle", result.Engineer)
	require.Len(t, rec.assignments, 1)
	assert.Equal(t, model.AssignmentActive, rec.assignments[0].Status)
	assert.Equal(t, "system", rec.assignments[0].AssignedBy)
	assert.Equal(t, "idle", rec.assignees["r1"])
}

func TestAssignScoringMonotonicity(t *testing.T) {
	// Holding everything else equal, more active reports must never win.
	e := newEngine(&fakeDirectory{}, &fakeRecorder{})

	for active := 0; active < 20; active++ {
		lighter := e.score(Candidate{Team: "backend", ActiveReports: active}, "backend", model.SeverityHigh)
		heavier := e.score(Candidate{Team: "backend", ActiveReports: active + 1}, "backend", model.SeverityHigh)
		assert.Greater(t, lighter, heavier)
	}
}

func TestAssignCriticalStackPenalty(t *testing.T) {
	e := newEngine(&fakeDirectory{}, &fakeRecorder{})
	loaded := Candidate{Team: "security", CriticalReports: 2}

	base := e.score(loaded, "security", model.SeverityHigh)
	critical := e.score(loaded, "security", model.SeverityCritical)

	// 30 extra points per existing critical report when the new one is CRITICAL.
	assert.Equal(t, base-60, critical)
}

func TestAssignTeamBonusInPoolFallback(t *testing.T) {
	dir := &fakeDirectory{
		byTeam: map[string][]Candidate{},
		all: []Candidate{
			{Username: "sec", Team: "security", ActiveReports: 2},
			{Username: "fe", Team: "frontend", ActiveReports: 2},
		},
	}
	rec := &fakeRecorder{}

	// CSRF maps to security; in the global pool the security engineer wins
	// on the team bonus despite identical workload.
	result, err := newEngine(dir, rec).Assign(context.Background(), "r2", "CSRF", model.SeverityMedium, "system")
	require.NoError(t, err)
	assert.Equal(t, "sec", result.Engineer)
	assert.Contains(t, result.Reason, "global engineer pool")
}

func TestAssignUnknownBugTypeDefaultsToSecurity(t *testing.T) {
	dir := &fakeDirectory{byTeam: map[string][]Candidate{
		"security": {{Username: "sec", Team: "security"}},
	}}
	rec := &fakeRecorder{}

	result, err := newEngine(dir, rec).Assign(context.Background(), "r3", "Quantum Hacking", model.SeverityLow, "system")
	require.NoError(t, err)
	assert.True(t, result.Assigned)
	assert.Equal(t, "sec", result.Engineer)
}

func TestAssignNoEngineersAtAll(t *testing.T) {
	dir := &fakeDirectory{byTeam: map[string][]Candidate{}}
	rec := &fakeRecorder{}

	result, err := newEngine(dir, rec).Assign(context.Background(), "r4", "XSS", model.SeverityHigh, "system")
	require.NoError(t, err)

	assert.False(t, result.Assigned)
	assert.Equal(t, "no engineers available", result.Reason)
	assert.Empty(t, rec.assignments, "no assignment record on failure")
	assert.Empty(t, rec.assignees, "report status must stay unchanged")
}

func TestAssignStableTieBreak(t *testing.T) {
	dir := &fakeDirectory{byTeam: map[string][]Candidate{
		"backend": {
			{Username: "first", Team: "backend", ActiveReports: 3},
			{Username: "second", Team: "backend", ActiveReports: 3},
		},
	}}
	rec := &fakeRecorder{}

	result, err := newEngine(dir, rec).Assign(context.Background(), "r5", "SQL Injection", model.SeverityHigh, "system")
	require.NoError(t, err)
	assert.Equal(t, "first", result.Engineer)
}

func TestReassignHappyPath(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*model.User{
		"neweng": {Username: "neweng", Role: model.RoleEngineer, Team: "backend"},
	}}
	rec := &fakeRecorder{}

	result, err := newEngine(dir, rec).Reassign(context.Background(), "r6", "neweng", "admin", "vacation coverage")
	require.NoError(t, err)

	assert.True(t, result.Assigned)
	assert.Equal(t, []string{"r6"}, rec.retired)
	require.Len(t, rec.assignments, 1)
	assert.Equal(t, "neweng", rec.assignments[0].Engineer)
	require.Len(t, rec.comments, 1)
	assert.Contains(t, rec.comments[0].Body, "vacation coverage")
}

func TestReassignRejectsNonEngineer(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*model.User{
		"viewer": {Username: "viewer", Role: model.RoleViewer},
	}}
	rec := &fakeRecorder{}

	_, err := newEngine(dir, rec).Reassign(context.Background(), "r7", "viewer", "admin", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only engineers")
	assert.Empty(t, rec.retired)
}

func TestReassignRejectsUnknownUser(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*model.User{}}
	rec := &fakeRecorder{}

	_, err := newEngine(dir, rec).Reassign(context.Background(), "r8", "ghost", "admin", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
