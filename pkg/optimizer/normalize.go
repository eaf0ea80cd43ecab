package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Fields the platform schema requires to be arrays of strings even when
// authored as a bare string.
var stringArrayFields = map[string]bool{
	"description":    true,
	"content":        true,
	"question":       true,
	"sql":            true,
	"instruction":    true,
	"synonyms":       true,
	"usage_guidance": true,
	"comment":        true,
}

// Fields the platform schema requires to be arrays of objects even when
// authored as a bare object.
var objectArrayFields = map[string]bool{
	"sample_questions":      true,
	"tables":                true,
	"metric_views":          true,
	"column_configs":        true,
	"text_instructions":     true,
	"example_question_sqls": true,
	"sql_functions":         true,
	"join_specs":            true,
	"filters":               true,
	"expressions":           true,
	"measures":              true,
	"questions":             true,
	"answer":                true,
	"parameters":            true,
}

// Required sort keys per field, from the serialized-space API contract.
var sortRequirements = map[string][]string{
	"sample_questions":      {"id"},
	"text_instructions":     {"id"},
	"example_question_sqls": {"id"},
	"join_specs":            {"id"},
	"filters":               {"id"},
	"expressions":           {"id"},
	"measures":              {"id"},
	"questions":             {"id"},
	"tables":                {"identifier"},
	"metric_views":          {"identifier"},
	"column_configs":        {"column_name"},
	"sql_functions":         {"id", "identifier"},
}

// Normalize enforces the platform's structural constraints on a
// configuration before it is handed to space creation: at most one text
// instruction, no snippets with blank SQL, schema-required array wrapping,
// no nulls inside sequences, and required sort orders. The input is not
// modified and the operation is idempotent.
func Normalize(config map[string]any, log *zap.Logger) map[string]any {
	if log == nil {
		log = zap.NewNop()
	}
	copied, _ := copyValue(config).(map[string]any)
	if copied == nil {
		return map[string]any{}
	}
	enforceConstraints(copied, log)
	return cleanValue(copied, "").(map[string]any)
}

func enforceConstraints(config map[string]any, log *zap.Logger) {
	instructions, _ := config["instructions"].(map[string]any)
	if instructions == nil {
		return
	}

	if texts, ok := instructions["text_instructions"].([]any); ok && len(texts) > 1 {
		log.Warn("truncating text_instructions to 1", zap.Int("configured", len(texts)))
		instructions["text_instructions"] = texts[:1]
	}

	snippets, _ := instructions["sql_snippets"].(map[string]any)
	if snippets == nil {
		return
	}
	for _, snippetType := range []string{"filters", "expressions", "measures"} {
		items, ok := snippets[snippetType].([]any)
		if !ok {
			continue
		}
		kept := make([]any, 0, len(items))
		for _, item := range items {
			m, isMap := item.(map[string]any)
			if !isMap {
				kept = append(kept, item)
				continue
			}
			if hasSQL(m["sql"]) {
				kept = append(kept, item)
				continue
			}
			log.Warn("removing snippet with empty sql",
				zap.String("snippet_type", snippetType),
				zap.Any("id", m["id"]))
		}
		snippets[snippetType] = kept
	}
}

// hasSQL reports whether a sql field carries non-blank text, in either its
// bare-string or string-array form.
func hasSQL(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				return true
			}
		}
	}
	return false
}

// cleanValue rebuilds a value applying the schema's shape rules. key is the
// field name the value was found under, empty for list elements and the root.
func cleanValue(v any, key string) any {
	switch t := v.(type) {
	case map[string]any:
		if objectArrayFields[key] {
			return []any{cleanValue(t, "")}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cleanValue(val, k)
		}
		return out
	case []any:
		cleaned := make([]any, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			cleaned = append(cleaned, cleanValue(item, ""))
		}
		if keys, ok := sortRequirements[key]; ok && len(cleaned) > 0 {
			sortByKeys(cleaned, keys)
		}
		return cleaned
	case string:
		if stringArrayFields[key] {
			return []any{t}
		}
		return t
	default:
		return t
	}
}

// sortByKeys stable-sorts a list of mappings by the given key tuple. Lists
// holding anything other than mappings are left in input order.
func sortByKeys(items []any, keys []string) {
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a := items[i].(map[string]any)
		b := items[j].(map[string]any)
		for _, k := range keys {
			av, bv := sortText(a[k]), sortText(b[k])
			if av != bv {
				return av < bv
			}
		}
		return false
	})
}

func sortText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
