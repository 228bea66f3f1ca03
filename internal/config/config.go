// Package config loads and validates gantry's configuration.
//
// Configuration is read from config.yaml in the user config directory,
// overridable per-repository with a .gantry.yaml at the repo root and
// through GANTRY_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete gantry configuration.
type Config struct {
	Commands   CommandsConfig   `mapstructure:"commands"`
	Boundaries BoundariesConfig `mapstructure:"boundaries"`
	Budget     BudgetConfig     `mapstructure:"budget"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Run        RunConfig        `mapstructure:"run"`
	PR         PRConfig         `mapstructure:"pr"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// CommandsConfig holds the external commands the validation pipeline
// runs in each task worktree.
type CommandsConfig struct {
	// Build is the build command. Required for the run command.
	Build string `mapstructure:"build"`
	// Typecheck is the type-check command. Empty skips the typecheck
	// step entirely.
	Typecheck string `mapstructure:"typecheck"`
}

// BoundariesConfig holds the file-path safety rules applied to every
// task's changed files.
type BoundariesConfig struct {
	// NeverTouch patterns forbid changes outright. Glob syntax with **
	// support.
	NeverTouch []string `mapstructure:"never_touch"`
	// RequireReview patterns flag changes for closer review without
	// failing the task.
	RequireReview []string `mapstructure:"require_review"`
}

// BudgetConfig holds the per-scope cost caps.
type BudgetConfig struct {
	// DefaultTaskCeiling applies to tasks without a declared ceiling.
	// Zero disables the default.
	DefaultTaskCeiling float64 `mapstructure:"default_task_ceiling"`
	// SessionCap bounds total spend across a run. Zero disables it.
	SessionCap float64 `mapstructure:"session_cap"`
	// PhaseCaps overrides per-phase caps by phase id, taking precedence
	// over caps declared in the requirements document.
	PhaseCaps map[string]float64 `mapstructure:"phase_caps"`
	// WarnThreshold is the fraction of SessionCap at which warnings start.
	// Must be in (0, 1]; zero disables the early warning.
	WarnThreshold float64 `mapstructure:"warn_threshold"`
}

// EngineConfig controls the external coding agent.
type EngineConfig struct {
	// Binary is the agent executable (default: "claude").
	Binary string `mapstructure:"binary"`
	// Model selects the agent model. Empty uses the engine's default.
	Model string `mapstructure:"model"`
	// TimeoutMinutes bounds one agent invocation. Zero disables the
	// timeout.
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
	// ExtraArgs are appended to every agent invocation.
	ExtraArgs []string `mapstructure:"extra_args"`
}

// Timeout returns the agent timeout as a duration.
func (c *EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// RunConfig controls the orchestration loop.
type RunConfig struct {
	// MaxParallel bounds concurrent task dispatch within a wave.
	MaxParallel int `mapstructure:"max_parallel"`
	// WorktreeDir is where task worktrees are materialized. Relative
	// paths resolve against the repository root.
	WorktreeDir string `mapstructure:"worktree_dir"`
	// TargetBranch is the branch task work rebases onto and PRs target
	// when the phase declares none.
	TargetBranch string `mapstructure:"target_branch"`
	// KeepWorktrees leaves task worktrees in place after the run for
	// inspection.
	KeepWorktrees bool `mapstructure:"keep_worktrees"`
}

// PRConfig controls pull request creation.
type PRConfig struct {
	// Draft creates PRs as drafts.
	Draft bool `mapstructure:"draft"`
	// Template is a custom PR body template in Go text/template syntax.
	Template string `mapstructure:"template"`
	// Labels are added to every PR.
	Labels []string `mapstructure:"labels"`
	// Reviewers configures automatic reviewer assignment.
	Reviewers ReviewerConfig `mapstructure:"reviewers"`
}

// ReviewerConfig controls automatic reviewer assignment.
type ReviewerConfig struct {
	// Default reviewers are always assigned.
	Default []string `mapstructure:"default"`
	// ByPath maps file path glob patterns to reviewers.
	ByPath map[string][]string `mapstructure:"by_path"`
}

// LoggingConfig controls the structured debug log.
type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Commands: CommandsConfig{},
		Boundaries: BoundariesConfig{
			NeverTouch: []string{".git/**"},
		},
		Budget: BudgetConfig{
			DefaultTaskCeiling: 0,
			SessionCap:         0,
			WarnThreshold:      0.8,
		},
		Engine: EngineConfig{
			Binary:         "claude",
			TimeoutMinutes: 60,
		},
		Run: RunConfig{
			MaxParallel:  1,
			WorktreeDir:  ".gantry/worktrees",
			TargetBranch: "main",
		},
		PR: PRConfig{
			Draft: false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("commands.build", defaults.Commands.Build)
	viper.SetDefault("commands.typecheck", defaults.Commands.Typecheck)

	viper.SetDefault("boundaries.never_touch", defaults.Boundaries.NeverTouch)
	viper.SetDefault("boundaries.require_review", defaults.Boundaries.RequireReview)

	viper.SetDefault("budget.default_task_ceiling", defaults.Budget.DefaultTaskCeiling)
	viper.SetDefault("budget.session_cap", defaults.Budget.SessionCap)
	viper.SetDefault("budget.phase_caps", defaults.Budget.PhaseCaps)
	viper.SetDefault("budget.warn_threshold", defaults.Budget.WarnThreshold)

	viper.SetDefault("engine.binary", defaults.Engine.Binary)
	viper.SetDefault("engine.model", defaults.Engine.Model)
	viper.SetDefault("engine.timeout_minutes", defaults.Engine.TimeoutMinutes)
	viper.SetDefault("engine.extra_args", defaults.Engine.ExtraArgs)

	viper.SetDefault("run.max_parallel", defaults.Run.MaxParallel)
	viper.SetDefault("run.worktree_dir", defaults.Run.WorktreeDir)
	viper.SetDefault("run.target_branch", defaults.Run.TargetBranch)
	viper.SetDefault("run.keep_worktrees", defaults.Run.KeepWorktrees)

	viper.SetDefault("pr.draft", defaults.PR.Draft)
	viper.SetDefault("pr.template", defaults.PR.Template)
	viper.SetDefault("pr.labels", defaults.PR.Labels)
	viper.SetDefault("pr.reviewers.default", defaults.PR.Reviewers.Default)
	viper.SetDefault("pr.reviewers.by_path", defaults.PR.Reviewers.ByPath)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config and validates
// it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gantry")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gantry"
	}
	return filepath.Join(home, ".config", "gantry")
}

// ConfigFile returns the path to the user config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
