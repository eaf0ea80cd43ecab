package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/genie-ai/pkg/model"
)

func metricViews(n int) []any {
	views := make([]any, n)
	for i := range views {
		views[i] = map[string]any{"identifier": "main.metrics.view"}
	}
	return views
}

func TestDetectStyleMetricViewsFocused(t *testing.T) {
	tree := map[string]any{
		"data_sources": map[string]any{
			"metric_views": metricViews(4),
			"tables":       []any{map[string]any{"identifier": "main.sales.orders"}},
		},
	}
	result := DetectStyle(tree)

	assert.Equal(t, model.StyleMetricViewsFocused, result.DetectedStyle)
	assert.Equal(t, 4, result.Indicators.MetricViewsCount)
	assert.Equal(t, 1, result.Indicators.TablesCount)
	assert.Greater(t, result.Confidence, 0.5)
	assert.NotEmpty(t, result.Description)
}

func TestDetectStyleExampleDriven(t *testing.T) {
	sqls := make([]any, 12)
	for i := range sqls {
		sqls[i] = map[string]any{"question": "q", "sql": "SELECT 1"}
	}
	tree := map[string]any{
		"instructions": map[string]any{"example_question_sqls": sqls},
	}
	result := DetectStyle(tree)

	assert.Equal(t, model.StyleExampleDriven, result.DetectedStyle)
	assert.Equal(t, 12, result.Indicators.ExampleSQLsCount)
	assert.InDelta(t, 1.0, result.Confidence, 0.001)
}

func TestDetectStyleMinimalViable(t *testing.T) {
	tree := map[string]any{
		"data_sources": map[string]any{
			"tables": []any{map[string]any{"identifier": "main.sales.orders"}},
		},
		"config": map[string]any{
			"sample_questions": []any{map[string]any{"question": "q"}},
		},
	}
	result := DetectStyle(tree)

	assert.Equal(t, model.StyleMinimalViable, result.DetectedStyle)
}

func TestDetectStyleEmptyTreeFallsBackToHybrid(t *testing.T) {
	result := DetectStyle(map[string]any{})

	assert.Equal(t, model.StyleHybrid, result.DetectedStyle)
	assert.InDelta(t, 0.3, result.Confidence, 0.001)
	assert.Equal(t, model.StyleIndicators{}, result.Indicators)
}

func TestDetectStyleNoClearWinnerFallsBackToHybrid(t *testing.T) {
	// Nine scattered items: no strong pattern, too many for minimal, not
	// enough concentration for any focused style.
	tree := map[string]any{
		"data_sources": map[string]any{
			"tables": []any{
				map[string]any{"identifier": "t1"},
				map[string]any{"identifier": "t2"},
			},
		},
		"instructions": map[string]any{
			"example_question_sqls": []any{
				map[string]any{"question": "q1"},
				map[string]any{"question": "q2"},
			},
			"text_instructions": []any{
				map[string]any{"content": "short"},
			},
			"sql_snippets": map[string]any{
				"filters": []any{
					map[string]any{"sql": "a"},
					map[string]any{"sql": "b"},
				},
				"measures": []any{
					map[string]any{"sql": "c"},
					map[string]any{"sql": "d"},
				},
			},
		},
	}
	result := DetectStyle(tree)

	// Three strong areas push hybrid to 0.5, a clear winner here.
	assert.Equal(t, model.StyleHybrid, result.DetectedStyle)
	assert.Equal(t, 4, result.Indicators.TotalSnippets)
}

func TestDetectStyleWeakSignalsDefaultToHybrid(t *testing.T) {
	// Ten items spread thin: every focused style stays under 0.3.
	items := func(n int) []any {
		out := make([]any, n)
		for i := range out {
			out[i] = map[string]any{"id": "x"}
		}
		return out
	}
	tree := map[string]any{
		"data_sources": map[string]any{
			"tables": items(2),
		},
		"instructions": map[string]any{
			"example_question_sqls": items(2),
			"text_instructions":     items(4),
			"sql_snippets": map[string]any{
				"filters": items(1),
			},
		},
	}
	result := DetectStyle(tree)

	assert.Equal(t, model.StyleHybrid, result.DetectedStyle)
	assert.InDelta(t, 0.3, result.Confidence, 0.001)
}

func TestDetectStyleRichInstructions(t *testing.T) {
	long := make([]byte, 250)
	for i := range long {
		long[i] = 'a'
	}
	tree := map[string]any{
		"data_sources": map[string]any{
			"tables": []any{
				map[string]any{"identifier": "t1"},
				map[string]any{"identifier": "t2"},
				map[string]any{"identifier": "t3"},
			},
		},
		"instructions": map[string]any{
			"text_instructions": []any{map[string]any{"content": string(long)}},
			"join_specs":        []any{map[string]any{"id": "j1"}},
		},
	}
	result := DetectStyle(tree)

	assert.True(t, result.Indicators.HasRichInstructions)
	assert.Equal(t, model.StyleTablesWithKnowledgeBase, result.DetectedStyle)
}

func TestDetectStyleRichInstructionsListContent(t *testing.T) {
	chunk := make([]byte, 120)
	for i := range chunk {
		chunk[i] = 'b'
	}
	tree := map[string]any{
		"instructions": map[string]any{
			"text_instructions": []any{
				map[string]any{"content": []any{string(chunk), string(chunk)}},
			},
		},
	}
	result := DetectStyle(tree)
	assert.True(t, result.Indicators.HasRichInstructions)
}

func TestDetectStyleIsPure(t *testing.T) {
	tree := map[string]any{
		"data_sources": map[string]any{"metric_views": metricViews(3)},
	}
	first := DetectStyle(tree)
	second := DetectStyle(tree)

	require.Equal(t, first, second)
	assert.Len(t, tree["data_sources"].(map[string]any)["metric_views"], 3)
}
