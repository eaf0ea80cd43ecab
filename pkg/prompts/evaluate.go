// Package prompts renders the prompts sent to the LLM collaborator.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helmcode/genie-ai/pkg/model"
)

// ChecklistEvaluation builds the prompt for judging a section's qualitative
// checklist items in one batched call.
func ChecklistEvaluation(sectionName string, sectionData any, items []model.ChecklistItem) (string, error) {
	var lines []string
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s", item.ID, item.Description))
	}

	dataJSON := "null (section not configured)"
	if sectionData != nil {
		b, err := json.MarshalIndent(sectionData, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal section data: %w", err)
		}
		dataJSON = string(b)
	}

	return fmt.Sprintf(`You are evaluating a Databricks Genie Space configuration section against specific checklist criteria.

## Section: %s

## Data to Analyze:
`+"```json\n%s\n```"+`

## Checklist Items to Evaluate:
%s

## Instructions:
For each checklist item, determine if the configuration passes or fails the criterion.
Be fair but thorough - a check should pass if the configuration reasonably meets the criterion.
If the section data is empty/null, most quality checks should fail (except those that are N/A).

Output your evaluation as JSON with this exact structure:
{
  "evaluations": [
    {
      "id": "item_id_here",
      "passed": true | false,
      "details": "Brief explanation of why it passed or failed"
    }
  ],
  "findings": [
    {
      "category": "best_practice" | "warning" | "suggestion",
      "severity": "high" | "medium" | "low",
      "description": "Description of the issue (only for failed items)",
      "recommendation": "Specific actionable recommendation",
      "reference": "Related checklist item ID"
    }
  ],
  "summary": "Brief overall summary of the section's compliance"
}

Only include findings for checklist items that FAILED. Do not create findings for passing items.
Match finding severity to the importance of the failed check:
- high: Critical functionality or major best practice violation
- medium: Recommended practice not followed
- low: Minor improvement opportunity`, sectionName, dataJSON, strings.Join(lines, "\n")), nil
}
