package prompts

import (
	"fmt"
	"strings"

	"github.com/helmcode/genie-ai/pkg/model"
)

// Synthesis builds the prompt for the cross-sectional pass run after all
// sections are evaluated.
func Synthesis(analyses []model.SectionAnalysis, style model.StyleDetectionResult, isFullAnalysis bool) string {
	var sections []string
	for _, a := range analyses {
		passed := 0
		for _, item := range a.Checklist {
			if item.Passed {
				passed++
			}
		}
		sections = append(sections, fmt.Sprintf("- %s: %d/%d checklist items passed (score %d/10). %s",
			a.SectionName, passed, len(a.Checklist), a.Score, a.Summary))
	}

	scope := "a subset of the sections"
	if isFullAnalysis {
		scope = "every configured section"
	}

	return fmt.Sprintf(`You are reviewing the complete best-practices analysis of a Databricks Genie Space. This run covered %s.

## Detected Configuration Style
%s (confidence %.2f): %s

## Section Results
%s

## Instructions:
Produce a holistic assessment of this space. Consider how sections compensate for each other: a space with rich example SQL may not need many snippets, a metric-views-first space may not need join specs. Judge the configuration as a whole, in light of its style, rather than adding up per-section failures.

Output your assessment as JSON with this exact structure:
{
  "assessment": "good_to_go" | "quick_wins" | "foundation_needed",
  "assessment_rationale": "Why this space landed in this category",
  "compensating_strengths": [
    {
      "covering_section": "section that compensates",
      "covered_section": "section whose weakness is covered",
      "explanation": "How the strength compensates"
    }
  ],
  "celebration_points": ["Things this configuration does well"],
  "top_quick_wins": ["The highest-impact, lowest-effort improvements, most impactful first"]
}

Assessment categories:
- good_to_go: solid configuration, remaining findings are polish
- quick_wins: a handful of cheap improvements would meaningfully raise quality
- foundation_needed: structural gaps that need real work before this space is reliable`,
		scope, style.DetectedStyle, style.Confidence, style.Description,
		strings.Join(sections, "\n"))
}
