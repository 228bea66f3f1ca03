package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("Default config must validate, got %v", errs)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Binary != "claude" {
		t.Errorf("Engine.Binary = %q", cfg.Engine.Binary)
	}
	if cfg.Run.MaxParallel != 1 {
		t.Errorf("Run.MaxParallel = %d", cfg.Run.MaxParallel)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("run.max_parallel", 0)
	viper.Set("logging.level", "loud")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "run.max_parallel") || !strings.Contains(msg, "logging.level") {
		t.Errorf("Error = %q", msg)
	}
}

func TestValidateBoundaries(t *testing.T) {
	cfg := Default()
	cfg.Boundaries.NeverTouch = []string{"secrets/**", "[invalid"}

	errs := cfg.Validate()
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	if errs[0].Field != "boundaries.never_touch" || errs[0].Value != "[invalid" {
		t.Errorf("Error = %+v", errs[0])
	}
}

func TestValidateBudgetNegativeCaps(t *testing.T) {
	cfg := Default()
	cfg.Budget.SessionCap = -5
	cfg.Budget.PhaseCaps = map[string]float64{"phase-1": -1}

	errs := cfg.Validate()
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %v", errs)
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("Error = %q", msg)
	}

	one := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	if one.Error() != "a: bad (got: 1)" {
		t.Errorf("Error = %q", one.Error())
	}
}
