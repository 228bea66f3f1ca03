package structured

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options controls parsing behavior. The zero value is not useful; use
// DefaultOptions as a starting point.
type Options struct {
	// AllowFallback marks failure results as recoverable: the raw text
	// is preserved and UsedFallback is set so callers can degrade to
	// unstructured handling.
	AllowFallback bool

	// MaxParseAttempts bounds how many extraction candidates are tried
	// before giving up.
	MaxParseAttempts int

	// StripMarkdownBlocks tries the interior of a fenced code block as
	// the first parse candidate.
	StripMarkdownBlocks bool
}

// DefaultOptions returns the standard parsing options: fallback
// allowed, three parse attempts, markdown stripping on.
func DefaultOptions() Options {
	return Options{
		AllowFallback:       true,
		MaxParseAttempts:    3,
		StripMarkdownBlocks: true,
	}
}

// Result is the outcome of one validation attempt. Data is meaningful
// only when Success is true. Raw always holds the text that produced
// the result. UsedFallback true implies Success is false and the caller
// is expected to recover from Raw.
type Result[T any] struct {
	Success      bool
	Data         T
	Raw          string
	Errors       []FieldError
	UsedFallback bool
}

// Parse extracts, parses, and schema-validates a typed value from raw
// agent output. It never returns an error; all failure modes are
// captured in the Result.
func Parse[T any](raw string, schema Schema, opts Options) Result[T] {
	result := Result[T]{Raw: raw}

	if opts.MaxParseAttempts <= 0 {
		opts.MaxParseAttempts = DefaultOptions().MaxParseAttempts
	}

	var parsed any
	parseOK := false
	var lastErr error

	attempts := 0
	for _, candidate := range candidates(raw, opts.StripMarkdownBlocks) {
		if attempts >= opts.MaxParseAttempts {
			break
		}
		attempts++
		var value any
		if err := json.Unmarshal([]byte(candidate), &value); err != nil {
			lastErr = err
			continue
		}
		parsed = value
		parseOK = true
		break
	}

	if !parseOK {
		if lastErr == nil {
			lastErr = fmt.Errorf("no JSON candidate found in output")
		}
		result.UsedFallback = opts.AllowFallback
		result.Errors = []FieldError{{
			Path:     "",
			Message:  fmt.Sprintf("failed to parse JSON: %v", lastErr),
			Expected: "valid JSON",
			Received: truncateReceived(raw),
		}}
		return result
	}

	if errs := schema.validate(parsed); len(errs) > 0 {
		result.UsedFallback = opts.AllowFallback
		result.Errors = errs
		return result
	}

	data, err := decode[T](parsed)
	if err != nil {
		result.UsedFallback = opts.AllowFallback
		result.Errors = []FieldError{{
			Path:     "",
			Message:  fmt.Sprintf("failed to decode payload: %v", err),
			Expected: "payload matching target type",
			Received: truncateReceived(parsed),
		}}
		return result
	}

	result.Success = true
	result.Data = data
	return result
}

// ParseStrict is the assert-style variant: any parse or validation
// failure is returned as an error rather than a failure result. Used at
// call sites that cannot tolerate unstructured data.
func ParseStrict[T any](raw string, schema Schema) (T, error) {
	opts := DefaultOptions()
	opts.AllowFallback = false
	result := Parse[T](raw, schema, opts)
	if !result.Success {
		var zero T
		if len(result.Errors) > 0 {
			return zero, fmt.Errorf("structured output validation failed: %w", result.Errors[0])
		}
		return zero, fmt.Errorf("structured output validation failed")
	}
	return result.Data, nil
}

// ParseBestEffort returns the typed value when validation succeeds and
// the zero value otherwise.
func ParseBestEffort[T any](raw string, schema Schema) T {
	return Parse[T](raw, schema, DefaultOptions()).Data
}

// decode converts a parsed JSON value into the target type. Field names
// follow json struct tags so the same types serve both direct unmarshal
// and recovered-candidate paths.
func decode[T any](value any) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(value); err != nil {
		return out, err
	}
	return out, nil
}
