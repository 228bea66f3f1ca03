package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/gantrylabs/gantry/internal/agent"
	"github.com/gantrylabs/gantry/internal/budget"
	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/depgraph"
	"github.com/gantrylabs/gantry/internal/filelock"
	"github.com/gantrylabs/gantry/internal/logging"
	"github.com/gantrylabs/gantry/internal/overlap"
	"github.com/gantrylabs/gantry/internal/pipeline"
	"github.com/gantrylabs/gantry/internal/pr"
	"github.com/gantrylabs/gantry/internal/prd"
	"github.com/gantrylabs/gantry/internal/schedule"
	"github.com/gantrylabs/gantry/internal/worktree"
)

// Orchestrator drives the execution of a requirements document.
type Orchestrator struct {
	cfg       *config.Config
	doc       *prd.Document
	engine    agent.Engine
	git       *worktree.Git
	worktrees *worktree.Manager
	checks    *pipeline.Pipeline
	tracker   *budget.Tracker
	prs       *pr.Client
	logger    *logging.Logger

	// claims guards against two live tasks touching the same file when
	// the declared file sets turn out to be wrong.
	claims *filelock.Registry

	// stopped flips when a session budget violation or cancellation
	// stops dispatch of new tasks.
	stopped atomic.Bool

	mu      sync.Mutex
	results []TaskResult
}

// New wires an Orchestrator from its collaborators. A nil logger
// discards output.
func New(cfg *config.Config, doc *prd.Document, engine agent.Engine, git *worktree.Git,
	worktrees *worktree.Manager, checks *pipeline.Pipeline, tracker *budget.Tracker,
	prs *pr.Client, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Orchestrator{
		cfg:       cfg,
		doc:       doc,
		engine:    engine,
		git:       git,
		worktrees: worktrees,
		checks:    checks,
		tracker:   tracker,
		prs:       prs,
		logger:    logger,
		claims:    filelock.NewRegistry(),
	}
}

// Plan computes the execution plan for one phase without running
// anything. Scheduling failures are fatal; no partial plan is returned.
func Plan(phase *prd.Phase) (*schedule.Plan, *overlap.Result, error) {
	graph, err := depgraph.Build(phase.Tasks)
	if err != nil {
		return nil, nil, err
	}
	groups := overlap.Group(phase.Tasks)
	plan, err := schedule.Build(graph, groups)
	if err != nil {
		return nil, nil, err
	}
	return plan, groups, nil
}

// Run executes every phase of the document in order and returns the
// aggregated result. Scheduling failures abort the run before any task
// is dispatched; per-task failures are recorded and do not stop other
// tasks.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	// Plan every phase up front so a scheduling error in a later phase
	// aborts before any work starts.
	plans := make(map[string]*schedule.Plan, len(o.doc.Phases))
	for i := range o.doc.Phases {
		phase := &o.doc.Phases[i]
		plan, _, err := Plan(phase)
		if err != nil {
			return nil, fmt.Errorf("planning phase %s: %w", phase.ID, err)
		}
		plans[phase.ID] = plan
	}

	o.registerBudgets()

	for i := range o.doc.Phases {
		phase := &o.doc.Phases[i]
		if o.stopped.Load() || ctx.Err() != nil {
			o.skipPhase(phase, plans[phase.ID])
			continue
		}
		o.runPhase(ctx, phase, plans[phase.ID])
	}

	result := &RunResult{Tasks: o.snapshot()}
	if o.stopped.Load() {
		result.Stopped = true
		result.StoppedReason = "session budget exceeded"
	}
	if err := ctx.Err(); err != nil {
		result.Stopped = true
		result.StoppedReason = err.Error()
	}
	return result, nil
}

func (o *Orchestrator) registerBudgets() {
	for _, phase := range o.doc.Phases {
		cap := phase.BudgetCap
		if override, ok := o.cfg.Budget.PhaseCaps[phase.ID]; ok {
			cap = override
		}
		o.tracker.RegisterPhase(phase.ID, cap)
		for _, task := range phase.Tasks {
			o.tracker.RegisterTask(task.ID, task.CostCeiling)
		}
	}
}

func (o *Orchestrator) runPhase(ctx context.Context, phase *prd.Phase, plan *schedule.Plan) {
	log := o.logger.WithPhase(phase.ID)
	log.Info("phase starting", "tasks", len(phase.Tasks), "waves", len(plan.Waves))

	for wave, members := range plan.Waves {
		if o.stopped.Load() || ctx.Err() != nil {
			for _, taskID := range members {
				o.record(TaskResult{TaskID: taskID, PhaseID: phase.ID, Wave: wave, Status: StatusSkipped})
			}
			continue
		}

		p := pool.New().WithMaxGoroutines(o.cfg.Run.MaxParallel)
		for _, taskID := range members {
			task := phase.TaskByID(taskID)
			p.Go(func() {
				o.record(o.runTask(ctx, phase, *task, wave))
			})
		}
		p.Wait()
	}
}

func (o *Orchestrator) skipPhase(phase *prd.Phase, plan *schedule.Plan) {
	for wave, members := range plan.Waves {
		for _, taskID := range members {
			o.record(TaskResult{TaskID: taskID, PhaseID: phase.ID, Wave: wave, Status: StatusSkipped})
		}
	}
}

// runTask executes one task attempt end to end: worktree, agent,
// budget observation, validation pipeline, PR.
func (o *Orchestrator) runTask(ctx context.Context, phase *prd.Phase, task prd.Task, wave int) TaskResult {
	log := o.logger.WithTask(task.ID)
	result := TaskResult{TaskID: task.ID, PhaseID: phase.ID, Wave: wave}

	if err := o.claims.ClaimAll(task.ID, task.Files); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	defer o.claims.ReleaseAll(task.ID)

	target := phase.Branch
	if target == "" {
		target = o.cfg.Run.TargetBranch
	}

	workdir, err := o.worktrees.Create(ctx, task.ID, target)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	if !o.cfg.Run.KeepWorktrees {
		defer func() {
			if err := o.worktrees.Remove(context.WithoutCancel(ctx), task.ID); err != nil {
				log.Warn("failed to remove worktree", "error", err.Error())
			}
		}()
	}

	completion, err := o.dispatchAgent(ctx, task, workdir)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	o.observeCost(task, phase, completion)

	if !completion.Complete() {
		result.Status = StatusBlocked
		result.Error = fmt.Sprintf("agent reported status %q", completion.Status)
		return result
	}

	// Agents are told to commit as they go; sweep up anything left.
	if err := o.git.CommitAll(ctx, workdir, fmt.Sprintf("%s: %s", task.ID, task.Title)); err != nil {
		log.Warn("failed to commit agent changes", "error", err.Error())
	}

	check, err := o.checks.Run(ctx, task.ID, workdir, target)
	result.Check = check
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	url, err := o.createPR(ctx, task, target, workdir, completion, check)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = StatusComplete
	result.PRURL = url
	return result
}

// dispatchAgent runs the engine and recovers its completion report,
// preferring the sentinel file over stdout parsing. A watcher on the
// worktree picks the sentinel up as soon as the agent writes it, so a
// report survives even when the agent process is later killed.
func (o *Orchestrator) dispatchAgent(ctx context.Context, task prd.Task, workdir string) (*agent.CompletionFile, error) {
	prompt, err := buildPrompt(task)
	if err != nil {
		return nil, err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	sentinels := make(chan *agent.CompletionFile, 1)
	go func() {
		if file, err := agent.WaitForCompletion(watchCtx, workdir); err == nil {
			sentinels <- file
		}
	}()

	response, err := o.engine.Execute(ctx, agent.Request{
		Prompt:  prompt,
		Workdir: workdir,
		Timeout: o.cfg.Engine.Timeout(),
	})
	stopWatch()
	if err != nil {
		select {
		case completion := <-sentinels:
			return completion, nil
		default:
			return nil, err
		}
	}

	select {
	case completion := <-sentinels:
		return completion, nil
	default:
	}
	if completion, err := agent.ReadCompletionFile(workdir); err == nil {
		return completion, nil
	}

	// No usable sentinel; the agent may have printed its report instead.
	if parsed := agent.ParseCompletion(response.Stdout); parsed.Success {
		return &parsed.Data, nil
	}

	if !response.Success {
		return nil, fmt.Errorf("agent exited with code %d and wrote no completion file", response.ExitCode)
	}

	// The agent finished without a self-report; treat its clean exit as
	// completion.
	return &agent.CompletionFile{TaskID: task.ID, Status: "complete"}, nil
}

// observeCost records the attempt's spend and reacts to violations: a
// session violation stops dispatch of new tasks, task and phase
// violations are surfaced but only affect reporting.
func (o *Orchestrator) observeCost(task prd.Task, phase *prd.Phase, completion *agent.CompletionFile) {
	cost := completion.ActualCost
	source := budget.SourceEngine
	if cost == 0 {
		cost = estimateCost(task)
		source = budget.SourceEstimate
	}

	violations := o.tracker.Observe(budget.Record{
		TaskID:        task.ID,
		PhaseID:       phase.ID,
		Engine:        o.engine.Name(),
		EstimatedCost: estimateCost(task),
		ActualCost:    cost,
		Iterations:    completion.Iterations,
		Timestamp:     time.Now(),
		Source:        source,
	})

	for _, violation := range violations {
		if _, ok := violation.(*budget.SessionBudgetViolation); ok {
			o.logger.Error("session budget exceeded, stopping dispatch", "detail", violation.Error())
			o.stopped.Store(true)
		}
	}
}

func (o *Orchestrator) createPR(ctx context.Context, task prd.Task, target, workdir string,
	completion *agent.CompletionFile, check *pipeline.CheckResult) (string, error) {
	body, err := pr.RenderBody(o.cfg.PR.Template, pr.TemplateData{
		TaskID:       task.ID,
		TaskTitle:    task.Title,
		Summary:      completion.Summary,
		Branch:       worktree.TaskBranch(task.ID),
		ChangedFiles: check.ChangedFiles,
		CautionFiles: check.CautionFiles,
		LinkedIssue:  pr.ExtractIssueReference(task.Description),
	})
	if err != nil {
		return "", err
	}

	branch := worktree.TaskBranch(task.ID)
	if err := o.git.Push(ctx, workdir, branch); err != nil {
		return "", err
	}

	return o.prs.Create(ctx, pr.Options{
		Title:     task.Title,
		Body:      body,
		Branch:    branch,
		Base:      target,
		Draft:     o.cfg.PR.Draft,
		Labels:    o.cfg.PR.Labels,
		Reviewers: pr.ResolveReviewers(check.ChangedFiles, o.cfg.PR.Reviewers.Default, o.cfg.PR.Reviewers.ByPath),
	})
}

// estimateCost is a rough pre-run estimate used when the agent reports
// no actual spend: complexity-proportional with a floor.
func estimateCost(task prd.Task) float64 {
	iterations := task.EstimatedIterations
	if iterations < 1 {
		iterations = 1
	}
	return float64(task.Complexity) * float64(iterations) * 0.1
}

func (o *Orchestrator) record(result TaskResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *Orchestrator) snapshot() []TaskResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TaskResult(nil), o.results...)
}
