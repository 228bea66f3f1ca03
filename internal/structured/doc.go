// Package structured recovers typed data from free-form agent output.
//
// Agent processes are asked to emit JSON, but the surrounding text is
// unreliable: payloads arrive wrapped in markdown fences, prefixed with
// prose, or with trailing commas. This package extracts candidate JSON
// spans from the raw text, parses the first one that succeeds, and
// validates the result against a declared schema.
//
// Failures are values, not panics: the default entry point returns a
// Result carrying the raw text so callers can degrade gracefully. The
// strict variant raises an error instead, for call sites that cannot
// tolerate unstructured data.
package structured
