package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helmcode/genie-ai/pkg/model"
)

// Optimization builds the prompt for generating field-level optimization
// suggestions from labeling feedback.
func Optimization(spaceData map[string]any, feedback []model.LabelingFeedbackItem, checklistContent string) (string, error) {
	spaceJSON, err := json.MarshalIndent(spaceData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal space data: %w", err)
	}

	correct, incorrect := 0, 0
	var feedbackLines []string
	for i, item := range feedback {
		status := "NOT LABELED"
		switch {
		case item.IsCorrect != nil && *item.IsCorrect:
			status = "CORRECT"
			correct++
		case item.IsCorrect != nil:
			status = "INCORRECT"
			incorrect++
		}
		line := fmt.Sprintf("%d. [%s] %s", i+1, status, item.QuestionText)
		if item.FeedbackText != "" {
			line += "\n   Feedback: " + item.FeedbackText
		}
		feedbackLines = append(feedbackLines, line)
	}

	return fmt.Sprintf(`You are an expert at optimizing Databricks Genie Space configurations to improve answer accuracy.

## Task
Analyze the Genie Space configuration and labeling feedback to generate specific, field-level optimization suggestions that will help Genie answer questions more accurately.

## Genie Space Configuration
`+"```json\n%s\n```"+`

## Labeling Feedback
The user labeled %d benchmark questions:
- %d answered correctly by Genie
- %d answered incorrectly by Genie

%s

## Best Practices Checklist
%s

## Instructions

Generate optimization suggestions that will improve Genie's accuracy, especially for the INCORRECT questions.

**Constraints:**
1. Only suggest modifications to EXISTING fields - do not suggest adding new tables
2. Use exact JSON paths for field_path (e.g., "instructions.text_instructions[0].content", "instructions.sql_snippets.filters[2].sql")
3. Prioritize suggestions that directly address incorrect benchmark questions
4. Limit to 10-15 most impactful suggestions

**Valid categories:**
- instruction: Text instruction modifications
- sql_example: Example question-SQL pair modifications
- filter: SQL snippet filter modifications
- expression: SQL snippet expression modifications
- measure: SQL snippet measure modifications
- synonym: Column synonym additions
- join_spec: Join specification modifications
- description: Column/table description modifications

**Priority levels:**
- high: Directly addresses an incorrect benchmark question
- medium: Improves general accuracy based on patterns
- low: Minor enhancement for clarity

Output your suggestions as JSON with this exact structure:
{
  "suggestions": [
    {
      "field_path": "exact.json.path[index].field",
      "current_value": <current value from config or null if adding>,
      "suggested_value": <new suggested value>,
      "rationale": "Explanation of why this change helps and which questions it addresses",
      "checklist_reference": "related-checklist-item-id or null",
      "priority": "high" | "medium" | "low",
      "category": "instruction" | "sql_example" | "filter" | "expression" | "measure" | "synonym" | "join_spec" | "description"
    }
  ],
  "summary": "Brief overall summary of the optimization strategy"
}

Focus on actionable changes that will measurably improve Genie's ability to answer the types of questions that were marked incorrect.`,
		string(spaceJSON), len(feedback), correct, incorrect,
		strings.Join(feedbackLines, "\n"), checklistContent), nil
}
