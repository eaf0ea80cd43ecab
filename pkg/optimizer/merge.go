// Package optimizer generates field-level optimization suggestions from
// labeling feedback and merges them back into a space configuration.
package optimizer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/helmcode/genie-ai/pkg/model"
)

// MergeResult carries the patched tree and an accounting of what applied.
type MergeResult struct {
	Merged      map[string]any `json:"merged_config"`
	Applied     int            `json:"applied"`
	FailedPaths []string       `json:"failed_paths,omitempty"`
	Summary     string         `json:"summary"`
}

// Merge applies suggestions to a deep copy of tree. A bad suggestion (an
// unparsable path or a type mismatch along it) is isolated: its path lands
// in FailedPaths and the rest of the batch continues. The input tree is
// never modified.
func Merge(tree map[string]any, suggestions []model.OptimizationSuggestion, log *zap.Logger) MergeResult {
	if log == nil {
		log = zap.NewNop()
	}
	merged, _ := copyValue(tree).(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}

	applied := 0
	var failed []string
	for _, s := range suggestions {
		if err := applySuggestion(merged, s.FieldPath, s.SuggestedValue); err != nil {
			log.Warn("failed to apply suggestion",
				zap.String("field_path", s.FieldPath),
				zap.Error(err))
			failed = append(failed, s.FieldPath)
			continue
		}
		applied++
	}

	summary := fmt.Sprintf("Successfully applied all %d suggestions to the configuration.", applied)
	if len(failed) > 0 {
		shown := failed
		ellipsis := ""
		if len(shown) > 3 {
			shown = shown[:3]
			ellipsis = "..."
		}
		summary = fmt.Sprintf("Applied %d of %d suggestions. Failed paths: %s%s",
			applied, len(suggestions), strings.Join(shown, ", "), ellipsis)
	}

	return MergeResult{
		Merged:      merged,
		Applied:     applied,
		FailedPaths: failed,
		Summary:     summary,
	}
}

func applySuggestion(config map[string]any, fieldPath string, value any) error {
	segments, err := ParseFieldPath(fieldPath)
	if err != nil {
		return err
	}
	if segments[0].IsIndex {
		return fmt.Errorf("field path %q starts with an index", fieldPath)
	}
	if _, err := setValue(config, segments, value); err != nil {
		return err
	}
	return nil
}

// setValue walks the segments, creating missing containers on demand and
// padding sequences with nulls for out-of-range indices. It returns the
// (possibly reallocated) container so slice growth propagates upward.
func setValue(current any, segments []Segment, value any) (any, error) {
	seg := segments[0]

	if seg.IsIndex {
		list, ok := current.([]any)
		if current == nil {
			list = []any{}
		} else if !ok {
			return nil, fmt.Errorf("expected list for index %d, found %T", seg.Index, current)
		}
		for len(list) <= seg.Index {
			list = append(list, nil)
		}
		if len(segments) == 1 {
			list[seg.Index] = value
			return list, nil
		}
		child := list[seg.Index]
		if child == nil {
			child = emptyContainer(segments[1])
		}
		updated, err := setValue(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		list[seg.Index] = updated
		return list, nil
	}

	m, ok := current.(map[string]any)
	if current == nil {
		m = map[string]any{}
	} else if !ok {
		return nil, fmt.Errorf("expected object for key %q, found %T", seg.Key, current)
	}
	if len(segments) == 1 {
		m[seg.Key] = value
		return m, nil
	}
	child := m[seg.Key]
	if child == nil {
		child = emptyContainer(segments[1])
	}
	updated, err := setValue(child, segments[1:], value)
	if err != nil {
		return nil, err
	}
	m[seg.Key] = updated
	return m, nil
}

func emptyContainer(next Segment) any {
	if next.IsIndex {
		return []any{}
	}
	return map[string]any{}
}

// copyValue deep-copies the JSON-shaped subset of Go values. Scalars are
// returned as-is.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
