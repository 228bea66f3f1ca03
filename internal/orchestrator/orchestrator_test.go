package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gantrylabs/gantry/internal/agent"
	"github.com/gantrylabs/gantry/internal/budget"
	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/pipeline"
	"github.com/gantrylabs/gantry/internal/pr"
	"github.com/gantrylabs/gantry/internal/prd"
	"github.com/gantrylabs/gantry/internal/worktree"
)

// nopExecutor satisfies worktree.CommandExecutor with empty successful
// output for every git invocation.
type nopExecutor struct{}

func (nopExecutor) Run(_ context.Context, _ string, _ string, _ ...string) ([]byte, error) {
	return nil, nil
}

// fakeEngine reports immediate success without writing a sentinel, so
// the orchestrator falls back to exit-status completion.
type fakeEngine struct {
	executed []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Execute(_ context.Context, req agent.Request) (agent.Response, error) {
	f.executed = append(f.executed, req.Workdir)
	return agent.Response{Success: true}, nil
}

type passRunner struct{}

func (passRunner) Run(_ context.Context, command, _ string) pipeline.CommandResult {
	return pipeline.CommandResult{Command: command, Success: true}
}

type passVCS struct{}

func (passVCS) Rebase(_ context.Context, _, _ string) pipeline.RebaseResult {
	return pipeline.RebaseResult{Success: true}
}

func (passVCS) Diff(_ context.Context, _, _, _ string) ([]string, error) {
	return []string{"internal/api/server.go"}, nil
}

type fakePRRunner struct{}

func (fakePRRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return []byte("https://github.com/acme/widgets/pull/1"), nil
}

func testDocument(tasks ...prd.Task) *prd.Document {
	return &prd.Document{
		Title: "test",
		Phases: []prd.Phase{{
			ID:    "phase-1",
			Name:  "Phase 1",
			Tasks: tasks,
		}},
	}
}

func newTestOrchestrator(cfg *config.Config, doc *prd.Document, engine agent.Engine, tracker *budget.Tracker) *Orchestrator {
	git := worktree.NewGitWithExecutor(nopExecutor{})
	manager := worktree.NewManagerWithExecutor("/repo", "/run", nopExecutor{}, nil)
	checks := pipeline.New(passRunner{}, passVCS{}, nil, pipeline.Commands{Build: "make build"}, nil)
	prs := pr.NewClientWithRunner("/repo", fakePRRunner{})
	return New(cfg, doc, engine, git, manager, checks, tracker, prs, nil)
}

func TestRun_IndependentTasksComplete(t *testing.T) {
	doc := testDocument(
		prd.Task{ID: "task-1", Title: "One", Complexity: 3},
		prd.Task{ID: "task-2", Title: "Two", Complexity: 2},
	)
	cfg := config.Default()
	tracker := budget.NewTracker(budget.Config{}, nil)

	o := newTestOrchestrator(cfg, doc, &fakeEngine{}, tracker)
	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Tasks) != 2 {
		t.Fatalf("Tasks = %v", result.Tasks)
	}
	counts := result.Counts()
	if counts[StatusComplete] != 2 {
		t.Errorf("Counts = %v", counts)
	}
	for _, task := range result.Tasks {
		if task.PRURL == "" {
			t.Errorf("Task %s has no PR URL", task.TaskID)
		}
		if task.Check == nil || !task.Check.Success {
			t.Errorf("Task %s check = %+v", task.TaskID, task.Check)
		}
	}
	if result.Stopped {
		t.Errorf("Run should not have stopped: %q", result.StoppedReason)
	}

	if len(tracker.Records()) != 2 {
		t.Errorf("Expected 2 cost records, got %d", len(tracker.Records()))
	}
}

func TestRun_SchedulingFailureAbortsBeforeDispatch(t *testing.T) {
	doc := testDocument(
		prd.Task{ID: "task-1", Title: "One", Complexity: 1, DependsOn: []string{"task-2"}},
		prd.Task{ID: "task-2", Title: "Two", Complexity: 1, DependsOn: []string{"task-1"}},
	)
	engine := &fakeEngine{}
	o := newTestOrchestrator(config.Default(), doc, engine, budget.NewTracker(budget.Config{}, nil))

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("Expected planning error for dependency cycle")
	}
	if len(engine.executed) != 0 {
		t.Errorf("No tasks may be dispatched after a planning failure, ran %v", engine.executed)
	}
}

func TestRun_SessionViolationStopsLaterWaves(t *testing.T) {
	doc := testDocument(
		prd.Task{ID: "task-1", Title: "One", Complexity: 5, EstimatedIterations: 10},
		prd.Task{ID: "task-2", Title: "Two", Complexity: 1, DependsOn: []string{"task-1"}},
	)
	cfg := config.Default()
	// task-1's estimate (5 * 10 * 0.1 = 5.0) blows the session cap.
	tracker := budget.NewTracker(budget.Config{SessionCap: 1}, nil)

	engine := &fakeEngine{}
	o := newTestOrchestrator(cfg, doc, engine, tracker)
	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Stopped {
		t.Fatal("Expected the run to stop on session violation")
	}
	if len(engine.executed) != 1 {
		t.Errorf("Expected only task-1 to be dispatched, ran %d", len(engine.executed))
	}

	counts := result.Counts()
	if counts[StatusComplete] != 1 || counts[StatusSkipped] != 1 {
		t.Errorf("Counts = %v", counts)
	}

	// Already-spent cost stays on the books.
	if tracker.SessionCost() != 5 {
		t.Errorf("SessionCost = %v", tracker.SessionCost())
	}
}

func TestPlan_ComputesWaves(t *testing.T) {
	phase := &prd.Phase{ID: "phase-1", Tasks: []prd.Task{
		{ID: "task-1", Complexity: 1},
		{ID: "task-2", Complexity: 1, DependsOn: []string{"task-1"}},
		{ID: "task-3", Complexity: 1, Files: []string{"shared.go"}},
		{ID: "task-4", Complexity: 1, Files: []string{"shared.go"}},
	}}

	plan, groups, err := Plan(phase)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(groups.Sequential) != 1 {
		t.Errorf("Sequential groups = %v", groups.GroupIDs())
	}
	if plan.WaveOf("task-1") >= plan.WaveOf("task-2") {
		t.Errorf("Dependency order violated: %v", plan.Waves)
	}
	if plan.WaveOf("task-3") >= plan.WaveOf("task-4") {
		t.Errorf("Overlap chain order violated: %v", plan.Waves)
	}
}

// sentinelEngine simulates an agent that writes its completion report
// into the worktree before exiting, the way the prompt instructs.
type sentinelEngine struct {
	report agent.CompletionFile
}

func (e *sentinelEngine) Name() string { return "fake" }

func (e *sentinelEngine) Execute(_ context.Context, req agent.Request) (agent.Response, error) {
	_ = os.MkdirAll(req.Workdir, 0o755)
	data, _ := json.Marshal(e.report)
	_ = os.WriteFile(filepath.Join(req.Workdir, agent.CompletionFileName), data, 0o644)
	return agent.Response{Success: true}, nil
}

// stdoutEngine simulates an agent that prints its report instead of
// writing the sentinel file.
type stdoutEngine struct {
	stdout string
}

func (e *stdoutEngine) Name() string { return "fake" }

func (e *stdoutEngine) Execute(_ context.Context, _ agent.Request) (agent.Response, error) {
	return agent.Response{Success: true, Stdout: e.stdout}, nil
}

func TestRun_SentinelReportFlowsThroughDispatch(t *testing.T) {
	doc := testDocument(prd.Task{ID: "task-1", Title: "One", Complexity: 3})
	tracker := budget.NewTracker(budget.Config{}, nil)
	engine := &sentinelEngine{report: agent.CompletionFile{
		TaskID:     "task-1",
		Status:     "blocked",
		ActualCost: 3.25,
		Issues:     []string{"schema undecided"},
	}}

	git := worktree.NewGitWithExecutor(nopExecutor{})
	manager := worktree.NewManagerWithExecutor("/repo", t.TempDir(), nopExecutor{}, nil)
	checks := pipeline.New(passRunner{}, passVCS{}, nil, pipeline.Commands{Build: "make build"}, nil)
	prs := pr.NewClientWithRunner("/repo", fakePRRunner{})
	o := New(config.Default(), doc, engine, git, manager, checks, tracker, prs, nil)

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts := result.Counts(); counts[StatusBlocked] != 1 {
		t.Errorf("Counts = %v", counts)
	}

	records := tracker.Records()
	if len(records) != 1 {
		t.Fatalf("Records = %v", records)
	}
	if records[0].ActualCost != 3.25 || records[0].Source != budget.SourceEngine {
		t.Errorf("Record = %+v", records[0])
	}
}

func TestRun_StdoutReportUsedWhenSentinelMissing(t *testing.T) {
	doc := testDocument(prd.Task{ID: "task-1", Title: "One", Complexity: 3})
	tracker := budget.NewTracker(budget.Config{}, nil)
	engine := &stdoutEngine{
		stdout: "Work finished.\n\n```json\n{\"task_id\": \"task-1\", \"status\": \"complete\", \"actual_cost\": 1.5}\n```\n",
	}

	o := newTestOrchestrator(config.Default(), doc, engine, tracker)
	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts := result.Counts(); counts[StatusComplete] != 1 {
		t.Fatalf("Counts = %v", counts)
	}

	records := tracker.Records()
	if len(records) != 1 {
		t.Fatalf("Records = %v", records)
	}
	if records[0].ActualCost != 1.5 || records[0].Source != budget.SourceEngine {
		t.Errorf("Record = %+v", records[0])
	}
}
