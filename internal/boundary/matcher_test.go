package boundary

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		file    string
		pattern string
		want    bool
	}{
		{"db/schema.sql", "db/**", true},
		{"db/migrations/001.sql", "db/**", true},
		{"internal/order/order.go", "db/**", false},
		{"api/handler.go", "**/*.go", true},
		{"handler.go", "**/*.go", true},
		{"secrets.env", "*.env", true},
		{"config/secrets.env", "*.env", false},
		{"a/b/c.txt", "a/*/c.txt", true},
		{"a/b.txt", "[", false}, // malformed pattern matches nothing
	}

	for _, tt := range tests {
		if got := Matches(tt.file, tt.pattern); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.file, tt.pattern, got, tt.want)
		}
	}
}

func TestClassify_ForbiddenAndCaution(t *testing.T) {
	m := NewMatcher(
		[]string{"db/**", "*.env"},
		[]string{"api/**"},
	)

	c := m.Classify([]string{
		"db/schema.sql",
		"api/handler.go",
		"internal/safe.go",
		"prod.env",
	})

	if len(c.Violations) != 2 {
		t.Fatalf("Expected 2 violations, got %v", c.Violations)
	}
	if c.Violations[0].File != "db/schema.sql" || c.Violations[0].Pattern != "db/**" {
		t.Errorf("Violations[0] = %+v", c.Violations[0])
	}
	if c.Violations[1].File != "prod.env" || c.Violations[1].Pattern != "*.env" {
		t.Errorf("Violations[1] = %+v", c.Violations[1])
	}

	if !reflect.DeepEqual(c.Caution, []string{"api/handler.go"}) {
		t.Errorf("Caution = %v, want [api/handler.go]", c.Caution)
	}
}

func TestClassify_FileCanMatchBothLists(t *testing.T) {
	m := NewMatcher([]string{"db/**"}, []string{"db/**"})

	c := m.Classify([]string{"db/schema.sql"})

	if len(c.Violations) != 1 {
		t.Errorf("Expected violation for db/schema.sql, got %v", c.Violations)
	}
	if len(c.Caution) != 1 {
		t.Errorf("Expected caution entry as well, got %v", c.Caution)
	}
}

func TestClassify_NoPatterns(t *testing.T) {
	m := NewMatcher(nil, nil)

	c := m.Classify([]string{"anything.go"})
	if len(c.Violations) != 0 || len(c.Caution) != 0 {
		t.Errorf("Expected empty classification, got %+v", c)
	}
}

func TestClassify_FirstMatchingPatternReported(t *testing.T) {
	m := NewMatcher([]string{"db/**", "**/*.sql"}, nil)

	c := m.Classify([]string{"db/schema.sql"})
	if len(c.Violations) != 1 {
		t.Fatalf("Expected a single violation per file, got %v", c.Violations)
	}
	if c.Violations[0].Pattern != "db/**" {
		t.Errorf("Expected first pattern in config order, got %q", c.Violations[0].Pattern)
	}
}
