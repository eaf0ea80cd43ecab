// Package checklist parses the best-practice checklist document into a
// section-keyed table of items. The markdown document is the single source
// of truth for what gets checked.
package checklist

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/helmcode/genie-ai/pkg/model"
)

// Sections lists the recognized schema paths, in walkthrough order.
var Sections = []string{
	"config.sample_questions",
	"data_sources.tables",
	"data_sources.metric_views",
	"instructions.text_instructions",
	"instructions.example_question_sqls",
	"instructions.sql_functions",
	"instructions.join_specs",
	"instructions.sql_snippets.filters",
	"instructions.sql_snippets.expressions",
	"instructions.sql_snippets.measures",
	"benchmarks.questions",
}

var recognized = func() map[string]bool {
	m := make(map[string]bool, len(Sections))
	for _, s := range Sections {
		m[s] = true
	}
	return m
}()

// IsRecognized reports whether a section path is part of the analysis surface.
func IsRecognized(section string) bool {
	return recognized[section]
}

//go:embed docs/checklist-by-schema.md
var defaultDocument string

// Document returns the raw checklist markdown shipped with the binary.
func Document() string {
	return defaultDocument
}

var (
	quoteRe    = regexp.MustCompile("[`'\"]")
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	hyphenRe   = regexp.MustCompile(`-+`)
	headingRe  = regexp.MustCompile("`([^`]+)`")
	tagRe      = regexp.MustCompile(`\*\*\[(P|L)\]\*\*\s*`)
)

// Slugify converts description text to a stable item ID.
//
//	"At least 1 table is configured" -> "at-least-1-table-is-configured"
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = quoteRe.ReplaceAllString(slug, "")
	slug = nonAlnumRe.ReplaceAllString(slug, " ")
	slug = spaceRe.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = hyphenRe.ReplaceAllString(slug, "-")
	return slug
}

// Parse extracts checklist items from a markdown document.
//
// Heading levels denote nesting: `## `name`` sets the top path segment,
// `### `name`` the second and `#### `name`` the third. Each checkbox line
// "- [ ] ..." belongs to the path built from the active segments. Items
// under unrecognized or partial paths are discarded. Every recognized
// section is present in the result, possibly with an empty item list.
func Parse(document string) map[string][]model.ChecklistItem {
	result := make(map[string][]model.ChecklistItem, len(Sections))
	for _, s := range Sections {
		result[s] = []model.ChecklistItem{}
	}

	var h2, h3, h4 string
	for _, line := range strings.Split(document, "\n") {
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "## "):
			h2, h3, h4 = headingName(stripped), "", ""
		case strings.HasPrefix(stripped, "### "):
			h3, h4 = headingName(stripped), ""
		case strings.HasPrefix(stripped, "#### "):
			h4 = headingName(stripped)
		case strings.HasPrefix(stripped, "- [ ]"):
			text := tagRe.ReplaceAllString(strings.TrimSpace(stripped[5:]), "")
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			var path string
			switch {
			case h4 != "":
				path = h2 + "." + h3 + "." + h4
			case h3 != "":
				path = h2 + "." + h3
			default:
				continue
			}
			if !recognized[path] {
				continue
			}
			result[path] = append(result[path], model.ChecklistItem{
				ID:          Slugify(text),
				Description: text,
			})
		}
	}
	return result
}

func headingName(line string) string {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

var (
	cacheMu sync.Mutex
	cached  map[string][]model.ChecklistItem
)

// Items returns all checklist items parsed from the default document,
// memoized for the process lifetime.
func Items() map[string][]model.ChecklistItem {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached == nil {
		cached = Parse(defaultDocument)
	}
	return cached
}

// ItemsForSection returns the checklist items for one section. The result
// is empty for unrecognized sections.
func ItemsForSection(section string) []model.ChecklistItem {
	return Items()[section]
}

// ClearCache drops the memoized parse result. Intended for tests and
// hot-reload scenarios.
func ClearCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cached = nil
}

// ParseFile parses a checklist document from disk. Checklist content is
// required, so a read failure is returned to the caller as-is.
func ParseFile(path string) (map[string][]model.ChecklistItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist document: %w", err)
	}
	return Parse(string(data)), nil
}
