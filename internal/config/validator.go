package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "budget.session_cap")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns every
// validation error found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateBoundaries()...)
	errors = append(errors, c.validateBudget()...)
	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

// validateBoundaries checks that every boundary pattern is valid glob
// syntax. A malformed pattern would otherwise silently never match,
// which for never-touch rules means silently not protecting a path.
func (c *Config) validateBoundaries() []ValidationError {
	var errors []ValidationError
	for _, pattern := range c.Boundaries.NeverTouch {
		if !doublestar.ValidatePattern(pattern) {
			errors = append(errors, ValidationError{
				Field:   "boundaries.never_touch",
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}
	for _, pattern := range c.Boundaries.RequireReview {
		if !doublestar.ValidatePattern(pattern) {
			errors = append(errors, ValidationError{
				Field:   "boundaries.require_review",
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}
	return errors
}

func (c *Config) validateBudget() []ValidationError {
	var errors []ValidationError
	if c.Budget.DefaultTaskCeiling < 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.default_task_ceiling",
			Value:   c.Budget.DefaultTaskCeiling,
			Message: "must be zero or positive",
		})
	}
	if c.Budget.SessionCap < 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.session_cap",
			Value:   c.Budget.SessionCap,
			Message: "must be zero or positive",
		})
	}
	for phaseID, cap := range c.Budget.PhaseCaps {
		if cap < 0 {
			errors = append(errors, ValidationError{
				Field:   "budget.phase_caps." + phaseID,
				Value:   cap,
				Message: "must be zero or positive",
			})
		}
	}
	if c.Budget.WarnThreshold < 0 || c.Budget.WarnThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "budget.warn_threshold",
			Value:   c.Budget.WarnThreshold,
			Message: "must be between 0 and 1",
		})
	}
	return errors
}

func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError
	if c.Engine.Binary == "" {
		errors = append(errors, ValidationError{
			Field:   "engine.binary",
			Value:   c.Engine.Binary,
			Message: "must not be empty",
		})
	}
	if c.Engine.TimeoutMinutes < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.timeout_minutes",
			Value:   c.Engine.TimeoutMinutes,
			Message: "must be zero or positive",
		})
	}
	return errors
}

func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError
	if c.Run.MaxParallel < 1 {
		errors = append(errors, ValidationError{
			Field:   "run.max_parallel",
			Value:   c.Run.MaxParallel,
			Message: "must be at least 1",
		})
	}
	if c.Run.TargetBranch == "" {
		errors = append(errors, ValidationError{
			Field:   "run.target_branch",
			Value:   c.Run.TargetBranch,
			Message: "must not be empty",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be zero or positive",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be zero or positive",
		})
	}
	return errors
}
