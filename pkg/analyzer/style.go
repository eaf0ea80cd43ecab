package analyzer

import (
	"fmt"
	"math"
	"sort"

	"github.com/helmcode/genie-ai/pkg/model"
)

// styleOrder fixes the tie-break order for style scoring. On equal scores
// the earlier style wins.
var styleOrder = []model.ConfigStyle{
	model.StyleMetricViewsFocused,
	model.StyleTablesWithKnowledgeBase,
	model.StyleExampleDriven,
	model.StyleMinimalViable,
	model.StyleHybrid,
}

var styleDescriptions = map[model.ConfigStyle]string{
	model.StyleMetricViewsFocused: "This space is optimized around metric views, providing pre-computed " +
		"aggregations that guide Genie toward accurate analytical queries.",
	model.StyleTablesWithKnowledgeBase: "This space uses a rich knowledge base of instructions, snippets, and " +
		"join specifications to help Genie navigate complex table relationships.",
	model.StyleExampleDriven: "This space teaches Genie through extensive example SQL queries, " +
		"showing the expected patterns for various question types.",
	model.StyleMinimalViable: "This space has a basic configuration that could benefit from " +
		"additional context to improve Genie's accuracy.",
	model.StyleHybrid: "This space uses a balanced approach, combining multiple " +
		"configuration strategies to guide Genie.",
}

// DetectStyle classifies the authoring style of a space from structural
// counts alone. It is pure: no LLM calls, no I/O, and the input tree is
// never mutated.
func DetectStyle(tree map[string]any) model.StyleDetectionResult {
	ind := gatherIndicators(tree)

	totalItems := ind.TablesCount + ind.MetricViewsCount + ind.TextInstructionsCount +
		ind.ExampleSQLsCount + ind.TotalSnippets

	scores := make(map[model.ConfigStyle]float64, len(styleOrder))

	mvScore := 0.0
	if ind.MetricViewsCount >= 3 {
		mvScore += 0.6
	}
	if ind.MetricViewsCount >= 5 {
		mvScore += 0.2
	}
	if ind.MetricViewsCount > ind.TablesCount {
		mvScore += 0.2
	}
	scores[model.StyleMetricViewsFocused] = mvScore

	tkbScore := 0.0
	if ind.TablesCount >= 3 {
		tkbScore += 0.3
	}
	if ind.TablesCount >= 5 {
		tkbScore += 0.2
	}
	if ind.HasRichInstructions {
		tkbScore += 0.25
	}
	if ind.TotalSnippets >= 3 {
		tkbScore += 0.15
	}
	if ind.JoinSpecsCount >= 1 {
		tkbScore += 0.1
	}
	scores[model.StyleTablesWithKnowledgeBase] = tkbScore

	edScore := 0.0
	if ind.ExampleSQLsCount >= 3 {
		edScore += 0.3
	}
	if ind.ExampleSQLsCount >= 5 {
		edScore += 0.4
	}
	if ind.ExampleSQLsCount >= 10 {
		edScore += 0.3
	}
	scores[model.StyleExampleDriven] = edScore

	// Minimal only applies when something is configured and no strong
	// pattern is present. A completely empty tree is not "minimal viable",
	// it is no signal at all.
	hasStrongPattern := ind.MetricViewsCount >= 3 || ind.TablesCount >= 3 ||
		ind.ExampleSQLsCount >= 3 || ind.HasRichInstructions
	minScore := 0.0
	if !hasStrongPattern && totalItems > 0 {
		switch {
		case totalItems <= 3:
			minScore = 0.7
		case totalItems <= 5:
			minScore = 0.5
		case totalItems <= 8:
			minScore = 0.3
		}
	}
	scores[model.StyleMinimalViable] = minScore

	strongAreas := 0
	if ind.MetricViewsCount >= 2 {
		strongAreas++
	}
	if ind.TablesCount >= 2 {
		strongAreas++
	}
	if ind.ExampleSQLsCount >= 2 {
		strongAreas++
	}
	if ind.TotalSnippets >= 2 {
		strongAreas++
	}
	if ind.HasRichInstructions {
		strongAreas++
	}
	hybridScore := 0.0
	if strongAreas >= 3 {
		hybridScore += 0.5
	}
	if strongAreas >= 4 {
		hybridScore += 0.3
	}
	if strongAreas == 5 {
		hybridScore += 0.2
	}
	scores[model.StyleHybrid] = hybridScore

	best := styleOrder[0]
	for _, style := range styleOrder[1:] {
		if scores[style] > scores[best] {
			best = style
		}
	}
	bestScore := scores[best]

	sorted := make([]float64, 0, len(scores))
	for _, s := range scores {
		sorted = append(sorted, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	margin := sorted[0] - sorted[1]

	confidence := math.Min(1.0, bestScore*0.7+margin*0.3)
	if bestScore < 0.3 {
		best = model.StyleHybrid
		confidence = 0.3
	}

	return model.StyleDetectionResult{
		DetectedStyle: best,
		Confidence:    math.Round(confidence*100) / 100,
		Indicators:    ind,
		Description:   styleDescriptions[best],
	}
}

func gatherIndicators(tree map[string]any) model.StyleIndicators {
	ind := model.StyleIndicators{
		TablesCount:           countAt(tree, "data_sources.tables"),
		MetricViewsCount:      countAt(tree, "data_sources.metric_views"),
		TextInstructionsCount: countAt(tree, "instructions.text_instructions"),
		ExampleSQLsCount:      countAt(tree, "instructions.example_question_sqls"),
		SQLFunctionsCount:     countAt(tree, "instructions.sql_functions"),
		JoinSpecsCount:        countAt(tree, "instructions.join_specs"),
		FiltersCount:          countAt(tree, "instructions.sql_snippets.filters"),
		ExpressionsCount:      countAt(tree, "instructions.sql_snippets.expressions"),
		MeasuresCount:         countAt(tree, "instructions.sql_snippets.measures"),
		BenchmarksCount:       countAt(tree, "benchmarks.questions"),
		HasRichInstructions:   hasRichContent(tree, "instructions.text_instructions", 200),
	}
	ind.TotalSnippets = ind.FiltersCount + ind.ExpressionsCount + ind.MeasuresCount
	return ind
}

func countAt(tree map[string]any, path string) int {
	if list, ok := SectionData(tree, path).([]any); ok {
		return len(list)
	}
	return 0
}

// hasRichContent reports whether the list at path carries at least minChars
// of content text in total.
func hasRichContent(tree map[string]any, path string, minChars int) bool {
	list, ok := SectionData(tree, path).([]any)
	if !ok {
		return false
	}
	total := 0
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			total += len(contentText(m["content"]))
		} else {
			total += len(fmt.Sprint(item))
		}
	}
	return total >= minChars
}

// contentText flattens a content value that may be a string or a list of
// strings.
func contentText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		var out string
		for _, part := range val {
			if s, ok := part.(string); ok {
				out += s
			}
		}
		return out
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
