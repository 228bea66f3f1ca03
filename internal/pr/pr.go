// Package pr creates pull requests for validated task branches via the
// gh CLI.
package pr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Options configures one PR creation.
type Options struct {
	Title     string
	Body      string
	Branch    string
	Base      string
	Draft     bool
	Reviewers []string
	Labels    []string
}

// Runner abstracts gh invocation for testability.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

type ghRunner struct{}

func (ghRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Client creates PRs in one repository.
type Client struct {
	dir    string
	runner Runner
}

// NewClient creates a Client operating in the given repository
// directory.
func NewClient(dir string) *Client {
	return &Client{dir: dir, runner: ghRunner{}}
}

// NewClientWithRunner creates a Client with a custom runner, for tests.
func NewClientWithRunner(dir string, runner Runner) *Client {
	return &Client{dir: dir, runner: runner}
}

// Create opens a pull request and returns its URL. Base targets a
// branch other than the repository default when set, which lets phase
// branches stack on one another.
func (c *Client) Create(ctx context.Context, opts Options) (string, error) {
	if opts.Title == "" {
		return "", fmt.Errorf("pr title is required")
	}
	if opts.Branch == "" {
		return "", fmt.Errorf("pr head branch is required")
	}

	args := []string{"pr", "create",
		"--title", opts.Title,
		"--body", opts.Body,
		"--head", opts.Branch,
	}
	if opts.Base != "" {
		args = append(args, "--base", opts.Base)
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	for _, reviewer := range opts.Reviewers {
		args = append(args, "--reviewer", reviewer)
	}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}

	output, err := c.runner.Run(ctx, c.dir, args...)
	if err != nil {
		return "", fmt.Errorf("failed to create PR: %w\n%s", err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}
