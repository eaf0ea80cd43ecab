package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTruncatesTextInstructions(t *testing.T) {
	config := map[string]any{
		"instructions": map[string]any{
			"text_instructions": []any{
				map[string]any{"id": "a", "content": []any{"first"}},
				map[string]any{"id": "b", "content": []any{"second"}},
			},
		},
	}
	normalized := Normalize(config, nil)

	texts := normalized["instructions"].(map[string]any)["text_instructions"].([]any)
	require.Len(t, texts, 1)
	assert.Equal(t, "a", texts[0].(map[string]any)["id"])

	// Original keeps both.
	assert.Len(t, config["instructions"].(map[string]any)["text_instructions"], 2)
}

func TestNormalizeDropsSnippetsWithEmptySQL(t *testing.T) {
	config := map[string]any{
		"instructions": map[string]any{
			"sql_snippets": map[string]any{
				"filters": []any{
					map[string]any{"id": "keep-string", "sql": "amount > 0"},
					map[string]any{"id": "keep-list", "sql": []any{"", "region = 'EMEA'"}},
					map[string]any{"id": "drop-blank", "sql": "   "},
					map[string]any{"id": "drop-empty-list", "sql": []any{}},
					map[string]any{"id": "drop-missing"},
				},
			},
		},
	}
	normalized := Normalize(config, nil)

	filters := normalized["instructions"].(map[string]any)["sql_snippets"].(map[string]any)["filters"].([]any)
	ids := make([]string, 0, len(filters))
	for _, f := range filters {
		ids = append(ids, f.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"keep-list", "keep-string"}, ids)
}

func TestNormalizeWrapsScalarStringFields(t *testing.T) {
	config := map[string]any{
		"instructions": map[string]any{
			"text_instructions": []any{
				map[string]any{"id": "a", "content": "bare string"},
			},
		},
	}
	normalized := Normalize(config, nil)

	first := normalized["instructions"].(map[string]any)["text_instructions"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"bare string"}, first["content"])
	assert.Equal(t, "a", first["id"], "id is not a schema array field")
}

func TestNormalizeWrapsBareObjectFields(t *testing.T) {
	config := map[string]any{
		"data_sources": map[string]any{
			"tables": map[string]any{"identifier": "main.sales.orders"},
		},
	}
	normalized := Normalize(config, nil)

	tables := normalized["data_sources"].(map[string]any)["tables"].([]any)
	require.Len(t, tables, 1)
	assert.Equal(t, "main.sales.orders", tables[0].(map[string]any)["identifier"])
}

func TestNormalizeDropsNullsFromLists(t *testing.T) {
	config := map[string]any{
		"config": map[string]any{
			"sample_questions": []any{
				nil,
				map[string]any{"id": "q1"},
				nil,
			},
		},
	}
	normalized := Normalize(config, nil)

	questions := normalized["config"].(map[string]any)["sample_questions"].([]any)
	require.Len(t, questions, 1)
	assert.Equal(t, "q1", questions[0].(map[string]any)["id"])
}

func TestNormalizeSortsByRequiredKeys(t *testing.T) {
	config := map[string]any{
		"data_sources": map[string]any{
			"tables": []any{
				map[string]any{"identifier": "main.sales.orders"},
				map[string]any{"identifier": "main.crm.accounts"},
				map[string]any{}, // missing identifier sorts first
			},
		},
		"instructions": map[string]any{
			"sql_functions": []any{
				map[string]any{"id": "b", "identifier": "f2"},
				map[string]any{"id": "b", "identifier": "f1"},
				map[string]any{"id": "a", "identifier": "f9"},
			},
		},
	}
	normalized := Normalize(config, nil)

	tables := normalized["data_sources"].(map[string]any)["tables"].([]any)
	assert.Nil(t, tables[0].(map[string]any)["identifier"])
	assert.Equal(t, "main.crm.accounts", tables[1].(map[string]any)["identifier"])
	assert.Equal(t, "main.sales.orders", tables[2].(map[string]any)["identifier"])

	funcs := normalized["instructions"].(map[string]any)["sql_functions"].([]any)
	assert.Equal(t, "f9", funcs[0].(map[string]any)["identifier"])
	assert.Equal(t, "f1", funcs[1].(map[string]any)["identifier"])
	assert.Equal(t, "f2", funcs[2].(map[string]any)["identifier"])
}

func TestNormalizeSkipsSortForMixedLists(t *testing.T) {
	config := map[string]any{
		"instructions": map[string]any{
			"join_specs": []any{
				map[string]any{"id": "z"},
				"not a mapping",
				map[string]any{"id": "a"},
			},
		},
	}
	normalized := Normalize(config, nil)

	specs := normalized["instructions"].(map[string]any)["join_specs"].([]any)
	assert.Equal(t, "z", specs[0].(map[string]any)["id"])
}

func TestNormalizeIsIdempotent(t *testing.T) {
	config := map[string]any{
		"config": map[string]any{
			"sample_questions": []any{
				map[string]any{"id": "b", "question": "second"},
				nil,
				map[string]any{"id": "a", "question": "first"},
			},
		},
		"data_sources": map[string]any{
			"tables": map[string]any{"identifier": "main.sales.orders", "description": "orders"},
		},
		"instructions": map[string]any{
			"text_instructions": []any{
				map[string]any{"id": "t1", "content": "keep"},
				map[string]any{"id": "t2", "content": "drop"},
			},
			"sql_snippets": map[string]any{
				"measures": []any{
					map[string]any{"id": "m1", "sql": "SUM(amount)"},
					map[string]any{"id": "m0", "sql": ""},
				},
			},
		},
	}
	once := Normalize(config, nil)
	twice := Normalize(once, nil)

	require.Equal(t, once, twice)

	measures := once["instructions"].(map[string]any)["sql_snippets"].(map[string]any)["measures"].([]any)
	require.Len(t, measures, 1)
	assert.Equal(t, []any{"SUM(amount)"}, measures[0].(map[string]any)["sql"])
}
