package pr

import (
	"context"
	"strings"
	"testing"
)

func TestRenderBody_Default(t *testing.T) {
	body, err := RenderBody("", TemplateData{
		TaskTitle:    "Add request tracing",
		Summary:      "Added middleware and propagation helpers.",
		ChangedFiles: []string{"internal/api/middleware.go", "internal/api/trace.go"},
		CautionFiles: []string{"internal/api/middleware.go"},
		LinkedIssue:  "#42",
	})
	if err != nil {
		t.Fatalf("RenderBody failed: %v", err)
	}
	for _, want := range []string{
		"## Add request tracing",
		"- internal/api/middleware.go",
		"### Needs careful review",
		"Closes #42",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderBody_CustomTemplate(t *testing.T) {
	body, err := RenderBody("Task {{.TaskID}} on {{.Branch}}", TemplateData{TaskID: "task-1", Branch: "gantry/task-1"})
	if err != nil {
		t.Fatalf("RenderBody failed: %v", err)
	}
	if body != "Task task-1 on gantry/task-1" {
		t.Errorf("Body = %q", body)
	}
}

func TestExtractIssueReference(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"This fixes #123 for good", "#123"},
		{"Closes   #7", "#7"},
		{"see #42 for context", "#42"},
		{"no reference here", ""},
	}
	for _, tc := range cases {
		if got := ExtractIssueReference(tc.text); got != tc.want {
			t.Errorf("ExtractIssueReference(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestResolveReviewers(t *testing.T) {
	got := ResolveReviewers(
		[]string{"internal/api/server.go", "docs/readme.md"},
		[]string{"@alice"},
		map[string][]string{
			"internal/api/**": {"bob"},
			"db/**":           {"carol"},
		},
	)
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Reviewers = %v", got)
	}
}

type fakeGH struct {
	args   []string
	output string
	err    error
}

func (f *fakeGH) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.args = args
	return []byte(f.output), f.err
}

func TestCreate_BuildsArgs(t *testing.T) {
	gh := &fakeGH{output: "https://github.com/acme/widgets/pull/9\n"}
	client := NewClientWithRunner("/repo", gh)

	url, err := client.Create(context.Background(), Options{
		Title:     "Add tracing",
		Body:      "body",
		Branch:    "gantry/task-1",
		Base:      "phase-1",
		Draft:     true,
		Reviewers: []string{"alice"},
		Labels:    []string{"automated"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if url != "https://github.com/acme/widgets/pull/9" {
		t.Errorf("URL = %q", url)
	}

	joined := strings.Join(gh.args, " ")
	for _, want := range []string{
		"pr create",
		"--head gantry/task-1",
		"--base phase-1",
		"--draft",
		"--reviewer alice",
		"--label automated",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Args missing %q: %v", want, gh.args)
		}
	}
}

func TestCreate_RequiresTitleAndBranch(t *testing.T) {
	client := NewClientWithRunner("/repo", &fakeGH{})
	if _, err := client.Create(context.Background(), Options{Branch: "b"}); err == nil {
		t.Error("Expected error for missing title")
	}
	if _, err := client.Create(context.Background(), Options{Title: "t"}); err == nil {
		t.Error("Expected error for missing branch")
	}
}
