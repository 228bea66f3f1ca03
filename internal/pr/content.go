package pr

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
)

// TemplateData is the data available to PR body templates.
type TemplateData struct {
	// TaskID and TaskTitle identify the work item.
	TaskID    string
	TaskTitle string

	// Summary is the agent's own completion summary, when available.
	Summary string

	// Branch is the head branch name.
	Branch string

	// ChangedFiles lists the paths modified relative to the base.
	ChangedFiles []string

	// CautionFiles lists changed paths flagged for closer review.
	CautionFiles []string

	// LinkedIssue is a detected issue reference such as "#42".
	LinkedIssue string
}

// DefaultBodyTemplate is used when configuration supplies no custom
// template.
const DefaultBodyTemplate = `## {{.TaskTitle}}

{{if .Summary}}{{.Summary}}

{{end}}### Changed files
{{range .ChangedFiles}}- {{.}}
{{end}}{{if .CautionFiles}}
### Needs careful review
{{range .CautionFiles}}- {{.}}
{{end}}{{end}}{{if .LinkedIssue}}
Closes {{.LinkedIssue}}
{{end}}`

// RenderBody renders a PR body template. An empty template string uses
// DefaultBodyTemplate.
func RenderBody(tmplStr string, data TemplateData) (string, error) {
	if tmplStr == "" {
		tmplStr = DefaultBodyTemplate
	}
	tmpl, err := template.New("pr-body").Parse(tmplStr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var issueRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:fixes|fix|closes|close|resolves|resolve)\s*#(\d+)`),
	regexp.MustCompile(`#(\d+)`),
}

// ExtractIssueReference finds the first issue reference in text,
// preferring explicit closing keywords over bare "#N" mentions.
func ExtractIssueReference(text string) string {
	for _, pattern := range issueRefPatterns {
		if matches := pattern.FindStringSubmatch(text); len(matches) > 1 {
			return "#" + matches[1]
		}
	}
	return ""
}

// ResolveReviewers selects reviewers for a change set: path-routed
// reviewers whose patterns match any changed file, plus the defaults,
// deduplicated and sorted.
func ResolveReviewers(changedFiles, defaults []string, byPath map[string][]string) []string {
	seen := make(map[string]bool)
	for _, reviewer := range defaults {
		seen[normalizeReviewer(reviewer)] = true
	}

	for pattern, reviewers := range byPath {
		for _, file := range changedFiles {
			ok, err := doublestar.Match(pattern, file)
			if err != nil || !ok {
				continue
			}
			for _, reviewer := range reviewers {
				seen[normalizeReviewer(reviewer)] = true
			}
			break
		}
	}

	result := make([]string, 0, len(seen))
	for reviewer := range seen {
		if reviewer != "" {
			result = append(result, reviewer)
		}
	}
	sort.Strings(result)
	return result
}

func normalizeReviewer(reviewer string) string {
	return strings.TrimPrefix(strings.TrimSpace(reviewer), "@")
}
