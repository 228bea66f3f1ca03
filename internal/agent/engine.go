package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/gantrylabs/gantry/internal/logging"
)

// Request describes one agent invocation.
type Request struct {
	// Prompt is the full instruction text passed to the agent.
	Prompt string

	// Workdir is the isolated working copy the agent operates in.
	Workdir string

	// Env holds additional environment variables as KEY=VALUE pairs.
	Env []string

	// Timeout bounds the invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
}

// Response is the outcome of one agent invocation.
type Response struct {
	Success    bool
	ExitCode   int
	Stdout     string
	Stderr     string
	DurationMs int64
}

// Engine is an external coding-agent process the orchestrator can
// dispatch work to.
type Engine interface {
	// Name identifies the engine in cost records and logs.
	Name() string

	// Execute runs the agent to completion. A non-zero agent exit is
	// reported in the Response, not as an error; errors are reserved
	// for failures to start or supervise the process.
	Execute(ctx context.Context, req Request) (Response, error)
}

// ClaudeEngine drives the claude CLI in headless (print) mode.
type ClaudeEngine struct {
	// Binary is the executable to invoke. Defaults to "claude".
	Binary string

	// Model selects the model to run. Empty uses the CLI's default.
	Model string

	// ExtraArgs are appended after the standard headless flags.
	ExtraArgs []string

	logger *logging.Logger
}

// NewClaudeEngine creates a ClaudeEngine. A nil logger discards output.
func NewClaudeEngine(logger *logging.Logger) *ClaudeEngine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ClaudeEngine{Binary: "claude", logger: logger}
}

func (e *ClaudeEngine) Name() string {
	return "claude"
}

// Execute runs the agent headless in req.Workdir and captures its full
// output.
func (e *ClaudeEngine) Execute(ctx context.Context, req Request) (Response, error) {
	if req.Prompt == "" {
		return Response{}, fmt.Errorf("agent request has no prompt")
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	binary := e.Binary
	if binary == "" {
		binary = "claude"
	}

	args := []string{"-p", req.Prompt, "--dangerously-skip-permissions"}
	if e.Model != "" {
		args = append(args, "--model", e.Model)
	}
	args = append(args, e.ExtraArgs...)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = req.Workdir
	cmd.Env = append(os.Environ(), req.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("agent starting", "engine", e.Name(), "workdir", req.Workdir)

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	response := Response{
		Success:    err == nil,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: elapsed.Milliseconds(),
	}

	if err != nil {
		response.ExitCode = -1
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return response, fmt.Errorf("failed to run agent %s: %w", binary, err)
		}
		response.ExitCode = exitErr.ExitCode()
	}

	e.logger.Info("agent finished",
		"engine", e.Name(),
		"success", response.Success,
		"exit_code", response.ExitCode,
		"duration_ms", response.DurationMs)

	return response, nil
}
