// Package checks implements the deterministic side of the checklist: pure
// functions over section data producing pass/fail results with details.
// Qualitative items are left to the LLM judge in pkg/analyzer.
package checks

import (
	"fmt"
	"strings"

	"github.com/helmcode/genie-ai/pkg/checklist"
	"github.com/helmcode/genie-ai/pkg/model"
)

const detailNotConfigured = "Section not configured"

// Thresholds for the quality ratio checks. These values encode product
// policy, not an algorithmic necessity.
const (
	descriptionCoverage = 0.5
	synonymCoverage     = 0.2
	exclusionExemptMax  = 5
)

// Item descriptions, mirrored in docs/checklist-by-schema.md. Slugs derived
// from these must match the parsed checklist ids.
const (
	descSampleQuestions  = "At least 1 sample question is configured"
	descTablesExist      = "At least 1 table is configured"
	descColumnDescCover  = "At least 50% of columns have descriptions"
	descColumnSynCover   = "At least 20% of columns have synonyms"
	descColumnExclusions = "Unused columns are excluded (small tables exempt)"
	descMetricViewsExist = "At least 1 metric view is configured"
	descTextInstruction  = "A text instruction is configured"
	descExampleSQLs      = "At least 1 example question SQL pair is configured"
	descSQLFunctions     = "At least 1 SQL function is configured"
	descJoinSpecs        = "Join specs are configured for multi-table spaces"
	descFilterSnippets   = "At least 1 filter snippet is configured"
	descExprSnippets     = "At least 1 expression snippet is configured"
	descMeasureSnippets  = "At least 1 measure snippet is configured"
	descBenchmarks       = "At least 1 benchmark question is configured"
)

func result(desc string, passed bool, details string) model.EvaluatedItem {
	return model.EvaluatedItem{
		ID:          checklist.Slugify(desc),
		Description: desc,
		Passed:      passed,
		Details:     details,
	}
}

func notConfigured(desc string) model.EvaluatedItem {
	return result(desc, false, detailNotConfigured)
}

// asList treats anything that is not a sequence as an empty one. Checks must
// be total over malformed-but-plausible input.
func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// countCheck covers the "at least 1 X is configured" family.
func countCheck(desc, noun string, data any) model.EvaluatedItem {
	if data == nil {
		return notConfigured(desc)
	}
	n := len(asList(data))
	return result(desc, n >= 1, fmt.Sprintf("Found %d %s(s)", n, noun))
}

// CheckSampleQuestionsExist verifies at least one sample question.
func CheckSampleQuestionsExist(data any) model.EvaluatedItem {
	return countCheck(descSampleQuestions, "sample question", data)
}

// CheckTablesExist verifies at least one table.
func CheckTablesExist(data any) model.EvaluatedItem {
	return countCheck(descTablesExist, "table", data)
}

// CheckMetricViewsExist verifies at least one metric view.
func CheckMetricViewsExist(data any) model.EvaluatedItem {
	return countCheck(descMetricViewsExist, "metric view", data)
}

// CheckTextInstructionExists verifies a text instruction is present.
func CheckTextInstructionExists(data any) model.EvaluatedItem {
	if data == nil {
		return notConfigured(descTextInstruction)
	}
	n := len(asList(data))
	return result(descTextInstruction, n >= 1, fmt.Sprintf("Found %d text instruction(s)", n))
}

// CheckExampleSQLsExist verifies at least one example question/SQL pair.
func CheckExampleSQLsExist(data any) model.EvaluatedItem {
	return countCheck(descExampleSQLs, "example question SQL pair", data)
}

// CheckSQLFunctionsExist verifies at least one SQL function.
func CheckSQLFunctionsExist(data any) model.EvaluatedItem {
	return countCheck(descSQLFunctions, "SQL function", data)
}

// CheckFilterSnippetsExist verifies at least one filter snippet.
func CheckFilterSnippetsExist(data any) model.EvaluatedItem {
	return countCheck(descFilterSnippets, "filter snippet", data)
}

// CheckExpressionSnippetsExist verifies at least one expression snippet.
func CheckExpressionSnippetsExist(data any) model.EvaluatedItem {
	return countCheck(descExprSnippets, "expression snippet", data)
}

// CheckMeasureSnippetsExist verifies at least one measure snippet.
func CheckMeasureSnippetsExist(data any) model.EvaluatedItem {
	return countCheck(descMeasureSnippets, "measure snippet", data)
}

// CheckBenchmarkQuestionsExist verifies at least one benchmark question.
func CheckBenchmarkQuestionsExist(data any) model.EvaluatedItem {
	return countCheck(descBenchmarks, "benchmark question", data)
}

// hasText reports whether a field carries non-empty text. The schema stores
// these fields either as a bare string or as an array of strings.
func hasText(v any) bool {
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				return true
			}
		}
	}
	return false
}

func columnConfigs(tables any) []map[string]any {
	var cols []map[string]any
	for _, t := range asList(tables) {
		table := asMap(t)
		for _, c := range asList(table["column_configs"]) {
			if col := asMap(c); col != nil {
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// CheckColumnDescriptions verifies that at least half of the configured
// columns carry a description. Zero columns is a failure, not N/A.
func CheckColumnDescriptions(data any) model.EvaluatedItem {
	if data == nil {
		return notConfigured(descColumnDescCover)
	}
	cols := columnConfigs(data)
	if len(cols) == 0 {
		return result(descColumnDescCover, false, "No columns configured")
	}
	described := 0
	for _, col := range cols {
		if hasText(col["description"]) {
			described++
		}
	}
	ratio := float64(described) / float64(len(cols))
	details := fmt.Sprintf("%d of %d columns have descriptions (%.0f%%)", described, len(cols), ratio*100)
	return result(descColumnDescCover, ratio >= descriptionCoverage, details)
}

// CheckColumnSynonyms verifies that at least 20% of columns have synonyms.
func CheckColumnSynonyms(data any) model.EvaluatedItem {
	if data == nil {
		return notConfigured(descColumnSynCover)
	}
	cols := columnConfigs(data)
	if len(cols) == 0 {
		return result(descColumnSynCover, false, "No columns configured")
	}
	withSynonyms := 0
	for _, col := range cols {
		if hasText(col["synonyms"]) {
			withSynonyms++
		}
	}
	ratio := float64(withSynonyms) / float64(len(cols))
	details := fmt.Sprintf("%d of %d columns have synonyms (%.0f%%)", withSynonyms, len(cols), ratio*100)
	return result(descColumnSynCover, ratio >= synonymCoverage, details)
}

// CheckColumnExclusions verifies that wide schemas exclude unused columns.
// Small collections are exempt: with 5 or fewer total columns the check
// passes automatically.
func CheckColumnExclusions(data any) model.EvaluatedItem {
	if data == nil {
		return notConfigured(descColumnExclusions)
	}
	cols := columnConfigs(data)
	if len(cols) <= exclusionExemptMax {
		return result(descColumnExclusions, true,
			fmt.Sprintf("Only %d column(s) configured; exclusion not required", len(cols)))
	}
	excluded := 0
	for _, col := range cols {
		if b, ok := col["exclude"].(bool); ok && b {
			excluded++
		}
	}
	details := fmt.Sprintf("%d of %d columns excluded", excluded, len(cols))
	return result(descColumnExclusions, excluded >= 1, details)
}

// CheckJoinSpecs is the one cross-section check: zero join specs always
// fails, and the failure detail carries the observed table count so the
// reader can judge how much it matters.
func CheckJoinSpecs(data any, tableCount int) model.EvaluatedItem {
	if data == nil {
		return result(descJoinSpecs, false,
			fmt.Sprintf("%s (%d table(s) in space)", detailNotConfigured, tableCount))
	}
	n := len(asList(data))
	if n == 0 {
		return result(descJoinSpecs, false,
			fmt.Sprintf("No join specs configured (%d table(s) in space)", tableCount))
	}
	return result(descJoinSpecs, true, fmt.Sprintf("Found %d join spec(s)", n))
}

// valueAt walks a dot path through nested maps. Any missing intermediate
// key yields nil.
func valueAt(tree map[string]any, path string) any {
	var current any = tree
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// ForSection runs every deterministic check wired to a section path, in the
// order the checklist document lists them. fullTree supplies sibling data
// for cross-section checks.
func ForSection(section string, data any, fullTree map[string]any) []model.EvaluatedItem {
	switch section {
	case "config.sample_questions":
		return []model.EvaluatedItem{CheckSampleQuestionsExist(data)}
	case "data_sources.tables":
		return []model.EvaluatedItem{
			CheckTablesExist(data),
			CheckColumnDescriptions(data),
			CheckColumnSynonyms(data),
			CheckColumnExclusions(data),
		}
	case "data_sources.metric_views":
		return []model.EvaluatedItem{CheckMetricViewsExist(data)}
	case "instructions.text_instructions":
		return []model.EvaluatedItem{CheckTextInstructionExists(data)}
	case "instructions.example_question_sqls":
		return []model.EvaluatedItem{CheckExampleSQLsExist(data)}
	case "instructions.sql_functions":
		return []model.EvaluatedItem{CheckSQLFunctionsExist(data)}
	case "instructions.join_specs":
		tableCount := len(asList(valueAt(fullTree, "data_sources.tables")))
		return []model.EvaluatedItem{CheckJoinSpecs(data, tableCount)}
	case "instructions.sql_snippets.filters":
		return []model.EvaluatedItem{CheckFilterSnippetsExist(data)}
	case "instructions.sql_snippets.expressions":
		return []model.EvaluatedItem{CheckExpressionSnippetsExist(data)}
	case "instructions.sql_snippets.measures":
		return []model.EvaluatedItem{CheckMeasureSnippetsExist(data)}
	case "benchmarks.questions":
		return []model.EvaluatedItem{CheckBenchmarkQuestionsExist(data)}
	default:
		return nil
	}
}
