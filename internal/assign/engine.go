// Package assign routes classified reports to engineers by team and
// workload, and maintains the append-only assignment history.
package assign

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/model"
)

// Candidate is an engineer with their current derived workload. Workload is
// computed on demand from the report relation, never stored.
type Candidate struct {
	Username        string `json:"username"`
	Team            string `json:"team"`
	ActiveReports   int    `json:"active_reports"`   // reports assigned with status NEW or IN_PROGRESS
	CriticalReports int    `json:"critical_reports"` // CRITICAL-severity reports among the active ones
}

// Directory loads engineers and their workloads.
type Directory interface {
	// EngineersByTeam returns engineer-role users on the given team.
	EngineersByTeam(ctx context.Context, team string) ([]Candidate, error)
	// Engineers returns all engineer-role users regardless of team.
	Engineers(ctx context.Context) ([]Candidate, error)
	// GetUser loads a user by username; returns nil when absent.
	GetUser(ctx context.Context, username string) (*model.User, error)
}

// Recorder persists assignment outcomes.
type Recorder interface {
	CreateAssignment(ctx context.Context, assignment *model.Assignment) error
	// RetireActiveAssignments marks all ACTIVE assignments for the report
	// as REASSIGNED. History records are never deleted.
	RetireActiveAssignments(ctx context.Context, reportKey string) error
	// SetReportAssignee sets the report's engineer and moves it to IN_PROGRESS.
	SetReportAssignee(ctx context.Context, reportKey, engineer string) error
	AddComment(ctx context.Context, comment *model.ReportComment) error
}

// Result is the outcome of an assignment attempt. A false Assigned with a
// Reason is a reported, non-retried outcome, not an error.
type Result struct {
	Assigned bool   `json:"assigned"`
	Engineer string `json:"engineer,omitempty"`
	Team     string `json:"team,omitempty"`
	Reason   string `json:"reason"`
}

// Engine picks the best-scoring engineer for a classified report.
type Engine struct {
	cfg *config.Config
	dir Directory
	rec Recorder
	log *zap.SugaredLogger
}

// NewEngine creates an assignment engine.
func NewEngine(cfg *config.Config, dir Directory, rec Recorder, log *zap.SugaredLogger) *Engine {
	return &Engine{cfg: cfg, dir: dir, rec: rec, log: log}
}

// Assign maps the bug type to a team, scores that team's engineers by
// workload, and records the winning assignment. When the team has no
// engineers the whole engineer pool is scored instead. Returns an
// unassigned Result when no engineers exist at all.
func (e *Engine) Assign(ctx context.Context, reportKey, bugType, severity, assignedBy string) (Result, error) {
	team := e.cfg.TeamFor(bugType)

	candidates, err := e.dir.EngineersByTeam(ctx, team)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load %s team engineers: %w", team, err)
	}

	poolFallback := false
	if len(candidates) == 0 {
		candidates, err = e.dir.Engineers(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to load engineer pool: %w", err)
		}
		poolFallback = true
	}

	if len(candidates) == 0 {
		e.log.Warnw("no engineers available for assignment", "report", reportKey, "team", team)
		return Result{
			Assigned: false,
			Team:     team,
			Reason:   "no engineers available",
		}, nil
	}

	best := candidates[0]
	bestScore := e.score(best, team, severity)
	for _, candidate := range candidates[1:] {
		if s := e.score(candidate, team, severity); s > bestScore {
			best = candidate
			bestScore = s
		}
	}

	reason := fmt.Sprintf("Assigned to %s (team %s, score %d): %d active, %d critical",
		best.Username, team, bestScore, best.ActiveReports, best.CriticalReports)
	if poolFallback {
		reason += "; team pool was empty, used global engineer pool"
	}

	assignment := model.NewAssignment(reportKey, best.Username, assignedBy, reason)
	if err := e.rec.CreateAssignment(ctx, assignment); err != nil {
		return Result{}, fmt.Errorf("failed to record assignment: %w", err)
	}
	if err := e.rec.SetReportAssignee(ctx, reportKey, best.Username); err != nil {
		return Result{}, fmt.Errorf("failed to update report assignee: %w", err)
	}

	e.log.Infow("report assigned", "report", reportKey, "engineer", best.Username, "team", team, "score", bestScore)

	return Result{
		Assigned: true,
		Engineer: best.Username,
		Team:     best.Team,
		Reason:   reason,
	}, nil
}

// score computes the workload score for one candidate. Higher is better.
func (e *Engine) score(c Candidate, team, severity string) int {
	w := e.cfg.Weights

	score := w.Base
	score -= w.ActivePenalty * c.ActiveReports
	score -= w.CriticalPenalty * c.CriticalReports
	if c.Team == team {
		score += w.TeamBonus
	}
	if severity == model.SeverityCritical {
		// Stacks with the critical penalty above: piling new CRITICAL
		// work on an already-loaded engineer is doubly discouraged.
		score -= w.CriticalStackPenalty * c.CriticalReports
	}
	return score
}

// Reassign retires the report's ACTIVE assignment, creates a new one to the
// named engineer and appends an audit comment. The target must be an
// engineer-role user.
func (e *Engine) Reassign(ctx context.Context, reportKey, newEngineer, actor, reason string) (Result, error) {
	user, err := e.dir.GetUser(ctx, newEngineer)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load user %s: %w", newEngineer, err)
	}
	if user == nil {
		return Result{}, fmt.Errorf("user %s not found", newEngineer)
	}
	if !user.IsEngineer() {
		return Result{}, fmt.Errorf("user %s has role %s, only engineers can be assigned", newEngineer, user.Role)
	}

	if err := e.rec.RetireActiveAssignments(ctx, reportKey); err != nil {
		return Result{}, fmt.Errorf("failed to retire active assignments: %w", err)
	}

	note := fmt.Sprintf("Reassigned to %s by %s", newEngineer, actor)
	if reason != "" {
		note += ": " + reason
	}

	assignment := model.NewAssignment(reportKey, newEngineer, actor, note)
	if err := e.rec.CreateAssignment(ctx, assignment); err != nil {
		return Result{}, fmt.Errorf("failed to record assignment: %w", err)
	}
	if err := e.rec.SetReportAssignee(ctx, reportKey, newEngineer); err != nil {
		return Result{}, fmt.Errorf("failed to update report assignee: %w", err)
	}

	if err := e.rec.AddComment(ctx, model.NewReportComment(reportKey, actor, note)); err != nil {
		// The reassignment itself succeeded; a missing audit comment is
		// logged, not surfaced.
		e.log.Warnw("failed to write reassignment comment", "report", reportKey, "error", err)
	}

	return Result{
		Assigned: true,
		Engineer: newEngineer,
		Team:     user.Team,
		Reason:   note,
	}, nil
}
