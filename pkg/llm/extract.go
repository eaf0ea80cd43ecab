package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyResponse is returned when the model's output contains nothing
// usable after fence stripping and JSON scanning.
var ErrEmptyResponse = errors.New("LLM returned empty response after parsing")

// ParseError is returned when a response is non-empty but not parseable as
// JSON, even after the repair pass. It preserves the original (pre-repair)
// decode error and a preview of the offending content for diagnostics.
type ParseError struct {
	Err     error
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse LLM response: %v (content preview: %q)", e.Err, e.Preview)
}

func (e *ParseError) Unwrap() error { return e.Err }

const previewLimit = 500

// ExtractJSON turns a raw LLM text response into a parsed JSON object. It
// tolerates markdown code fences (including a missing closing fence), prose
// around the JSON object, trailing commas, and missing commas between
// adjacent tokens. The model is an untrusted text generator; nothing here
// assumes well-formed output.
func ExtractJSON(raw string) (map[string]any, error) {
	content := strings.TrimSpace(raw)

	if strings.HasPrefix(content, "```") {
		content = stripFence(content)
	}

	if !strings.HasPrefix(strings.TrimSpace(content), "{") {
		if extracted, ok := balancedObject(content); ok {
			content = extracted
		}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	var result map[string]any
	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	if repairErr := json.Unmarshal([]byte(repairJSON(content)), &result); repairErr == nil {
		return result, nil
	}

	preview := content
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return nil, &ParseError{Err: err, Preview: preview}
}

// stripFence removes a leading ``` line and, if present, the trailing ```
// line. A missing closing fence keeps everything after the opening one.
func stripFence(content string) string {
	lines := strings.Split(content, "\n")
	end := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	if len(lines) <= 1 {
		return ""
	}
	return strings.Join(lines[1:end], "\n")
}

// balancedObject scans forward to the first '{' and returns the substring
// up to its matching '}' using a simple depth counter. This intentionally
// does not tokenize strings; it handles the common case of prose-wrapped
// JSON.
func balancedObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	trailingCommaRe   = regexp.MustCompile(`,\s*([}\]])`)
	strThenOpenRe     = regexp.MustCompile(`(")\s*\n?\s*([{\[])`)
	closeThenOpenRe   = regexp.MustCompile(`([}\]])\s*\n?\s*([{\[])`)
	strNewlineStrRe   = regexp.MustCompile(`(")\s*\n\s*(")`)
	strSpaceStrRe     = regexp.MustCompile(`(")[ \t]+(")`)
	closeNewlineStrRe = regexp.MustCompile(`([}\]])\s*\n\s*(")`)
	closeSpaceStrRe   = regexp.MustCompile(`([}\]])[ \t]+(")`)
	literalThenKeyRe  = regexp.MustCompile(`(true|false|null|\d+)\s*\n\s*(")`)
)

// repairJSON applies a best-effort fix for the JSON slips models commonly
// make: trailing commas before a closing brace/bracket, and missing commas
// between adjacent string/object/array/literal tokens.
func repairJSON(content string) string {
	content = trailingCommaRe.ReplaceAllString(content, "${1}")
	content = strThenOpenRe.ReplaceAllString(content, "${1},\n${2}")
	content = closeThenOpenRe.ReplaceAllString(content, "${1},\n${2}")
	content = strNewlineStrRe.ReplaceAllString(content, "${1},\n${2}")
	content = strSpaceStrRe.ReplaceAllString(content, "${1}, ${2}")
	content = closeNewlineStrRe.ReplaceAllString(content, "${1},\n${2}")
	content = closeSpaceStrRe.ReplaceAllString(content, "${1}, ${2}")
	content = literalThenKeyRe.ReplaceAllString(content, "${1},\n${2}")
	return content
}
