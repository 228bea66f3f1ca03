package structured

import (
	"fmt"
	"strings"
)

// Kind identifies the JSON type a schema field expects.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindObject Kind = "object"
	KindArray  Kind = "array"
)

// Field declares one expected field in a parsed payload. Path is a
// dot-separated route from the document root ("plan.summary"); each
// segment descends into a nested object.
type Field struct {
	Path     string
	Kind     Kind
	Required bool
}

// Schema describes the expected shape of a parsed payload. A zero
// Schema accepts anything.
type Schema struct {
	Fields []Field
}

// FieldError describes one schema violation: which field, what was
// expected, and what actually arrived.
type FieldError struct {
	Path     string
	Message  string
	Expected string
	Received string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (expected %s, received %q)", e.Path, e.Message, e.Expected, e.Received)
}

// receivedLimit bounds how much of a received value is echoed back in a
// FieldError, keeping reports readable when agents emit large blobs.
const receivedLimit = 100

func truncateReceived(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > receivedLimit {
		return s[:receivedLimit]
	}
	return s
}

// validate checks a parsed JSON value against the schema and returns
// one FieldError per violated field.
func (s Schema) validate(value any) []FieldError {
	var errs []FieldError
	for _, field := range s.Fields {
		got, found := lookupPath(value, field.Path)
		if !found {
			if field.Required {
				errs = append(errs, FieldError{
					Path:     field.Path,
					Message:  "required field missing",
					Expected: string(field.Kind),
					Received: "",
				})
			}
			continue
		}
		if !kindMatches(field.Kind, got) {
			errs = append(errs, FieldError{
				Path:     field.Path,
				Message:  "wrong type",
				Expected: string(field.Kind),
				Received: truncateReceived(got),
			})
		}
	}
	return errs
}

// lookupPath descends a dot-separated path through nested objects.
func lookupPath(value any, path string) (any, bool) {
	current := value
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func kindMatches(kind Kind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		// encoding/json decodes all JSON numbers as float64.
		_, ok := value.(float64)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindArray:
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}
