package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/model"
)

// fakeLLM answers evaluation prompts and synthesis prompts with canned JSON.
type fakeLLM struct {
	mu        sync.Mutex
	prompts   []string
	evalResp  string
	synthResp string
	err       error
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompt := messages[len(messages)-1].Content
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if strings.Contains(prompt, "holistic assessment") {
		return f.synthResp, nil
	}
	return f.evalResp, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

const defaultSynthResp = `{
  "assessment": "quick_wins",
  "assessment_rationale": "A few cheap improvements remain.",
  "compensating_strengths": [],
  "celebration_points": ["Benchmarks are configured"],
  "top_quick_wins": ["Add join specs"]
}`

func newTestAnalyzer(client llm.Client) *Analyzer {
	return New(client, nil, nil)
}

func TestEvaluateSectionMissingDataSkipsLLM(t *testing.T) {
	fake := &fakeLLM{}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	analysis, err := a.EvaluateSection(context.Background(), sess, "benchmarks.questions", nil, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 0, fake.callCount(), "missing sections must not reach the LLM")
	require.Len(t, analysis.Checklist, 2)
	for _, item := range analysis.Checklist {
		assert.False(t, item.Passed)
		assert.Equal(t, "Section not configured", item.Details)
	}
	require.Len(t, analysis.Findings, 1)
	assert.Equal(t, model.CategorySuggestion, analysis.Findings[0].Category)
	assert.Equal(t, model.SeverityMedium, analysis.Findings[0].Severity)
	assert.Equal(t, "benchmarks.questions", analysis.Findings[0].Reference)
	assert.Equal(t, 0, analysis.Score)
	assert.Equal(t, "Section not configured", analysis.Summary)
}

func TestEvaluateSectionMissingIDsFailClosed(t *testing.T) {
	// The response omits every requested item, so both LLM-judged items
	// must come back failed with empty details.
	fake := &fakeLLM{evalResp: `{"evaluations": [], "findings": [], "summary": ""}`}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	data := []any{map[string]any{"id": "q1", "question": "What was revenue last month?"}}
	analysis, err := a.EvaluateSection(context.Background(), sess, "config.sample_questions", data, map[string]any{})
	require.NoError(t, err)
	require.Len(t, analysis.Checklist, 3)

	byID := make(map[string]model.EvaluatedItem)
	for _, item := range analysis.Checklist {
		byID[item.ID] = item
	}
	assert.True(t, byID["at-least-1-sample-question-is-configured"].Passed)
	assert.False(t, byID["sample-questions-reflect-real-user-questions"].Passed)
	assert.Empty(t, byID["sample-questions-reflect-real-user-questions"].Details)
	assert.False(t, byID["sample-questions-cover-distinct-analysis-areas"].Passed)
	assert.Equal(t, Score(1, 3), analysis.Score)
}

func TestEvaluateSectionFiltersFindingsForPassedItems(t *testing.T) {
	fake := &fakeLLM{evalResp: `{
  "evaluations": [
    {"id": "sample-questions-reflect-real-user-questions", "passed": true, "details": "Looks realistic"},
    {"id": "sample-questions-cover-distinct-analysis-areas", "passed": false, "details": "All about revenue"}
  ],
  "findings": [
    {"category": "warning", "severity": "medium", "description": "stale finding", "recommendation": "none", "reference": "sample-questions-reflect-real-user-questions"},
    {"category": "suggestion", "severity": "low", "description": "diversify questions", "recommendation": "add areas", "reference": "sample-questions-cover-distinct-analysis-areas"},
    {"category": "suggestion", "severity": "low", "description": "unrelated note", "recommendation": "keep", "reference": "something-we-do-not-track"}
  ],
  "summary": "Mostly fine"
}`}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	data := []any{map[string]any{"question": "What was revenue last month?"}}
	analysis, err := a.EvaluateSection(context.Background(), sess, "config.sample_questions", data, map[string]any{})
	require.NoError(t, err)

	refs := make([]string, 0, len(analysis.Findings))
	for _, f := range analysis.Findings {
		refs = append(refs, f.Reference)
	}
	assert.NotContains(t, refs, "sample-questions-reflect-real-user-questions",
		"findings referencing passed items must be dropped")
	assert.Contains(t, refs, "sample-questions-cover-distinct-analysis-areas")
	assert.Contains(t, refs, "something-we-do-not-track")
	assert.Equal(t, "Mostly fine", analysis.Summary)
}

func TestEvaluateSectionDeterministicFailureProducesFinding(t *testing.T) {
	fake := &fakeLLM{evalResp: `{
  "evaluations": [
    {"id": "tables-are-focused-only-necessary-tables", "passed": true, "details": "ok"},
    {"id": "table-descriptions-explain-business-purpose", "passed": true, "details": "ok"}
  ],
  "findings": [],
  "summary": "Tables look reasonable"
}`}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	// One table with undescribed columns fails the description coverage check.
	data := []any{map[string]any{
		"identifier": "main.sales.orders",
		"column_configs": []any{
			map[string]any{"column_name": "id"},
			map[string]any{"column_name": "total"},
		},
	}}
	analysis, err := a.EvaluateSection(context.Background(), sess, "data_sources.tables", data, map[string]any{})
	require.NoError(t, err)

	var found *model.Finding
	for i, f := range analysis.Findings {
		if f.Reference == "at-least-50-of-columns-have-descriptions" {
			found = &analysis.Findings[i]
		}
	}
	require.NotNil(t, found, "deterministic failure must surface as a finding")
	assert.Equal(t, model.CategoryWarning, found.Category)
	assert.Equal(t, model.SeverityMedium, found.Severity)
}

func TestEvaluateSectionPropagatesLLMErrors(t *testing.T) {
	wantErr := errors.New("endpoint unavailable")
	fake := &fakeLLM{err: wantErr}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	data := []any{map[string]any{"question": "q"}}
	_, err := a.EvaluateSection(context.Background(), sess, "config.sample_questions", data, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(0, 0))
	assert.Equal(t, 0, Score(0, 5))
	assert.Equal(t, 10, Score(5, 5))
	assert.Equal(t, 7, Score(2, 3))
	assert.Equal(t, 3, Score(1, 3))
	assert.Equal(t, 5, Score(1, 2))
}

func TestAnalyzeSpaceCoversEverySection(t *testing.T) {
	fake := &fakeLLM{
		evalResp:  `{"evaluations": [], "findings": [], "summary": "checked"}`,
		synthResp: defaultSynthResp,
	}
	a := newTestAnalyzer(fake)

	tree := map[string]any{
		"config": map[string]any{
			"sample_questions": []any{map[string]any{"question": "What was revenue last month?"}},
		},
	}
	analysis, err := a.AnalyzeSpace(context.Background(), "space-123", tree)
	require.NoError(t, err)

	assert.Equal(t, "space-123", analysis.SpaceID)
	assert.Len(t, analysis.Analyses, 11)
	assert.NotEmpty(t, analysis.SessionID)
	require.NotNil(t, analysis.Style)
	require.NotNil(t, analysis.Synthesis)
	assert.Equal(t, model.AssessmentQuickWins, analysis.Synthesis.Assessment)

	// One evaluation call for the configured section plus the synthesis call.
	assert.Equal(t, 2, fake.callCount())
}

func TestSynthesizeDefaultsUnknownAssessment(t *testing.T) {
	fake := &fakeLLM{synthResp: `{
  "assessment": "needs_more_coffee",
  "assessment_rationale": "n/a",
  "compensating_strengths": null,
  "celebration_points": null,
  "top_quick_wins": null
}`}
	a := newTestAnalyzer(fake)
	sess := StartSession(nil, nil)
	defer sess.End()

	result, err := a.Synthesize(context.Background(), sess, nil, DetectStyle(map[string]any{}), true)
	require.NoError(t, err)
	assert.Equal(t, model.AssessmentQuickWins, result.Assessment)
	assert.NotNil(t, result.CompensatingStrengths)
	assert.NotNil(t, result.CelebrationPoints)
	assert.NotNil(t, result.TopQuickWins)
}

func TestAnalyzeStreamEmitsOrderedProgress(t *testing.T) {
	fake := &fakeLLM{
		evalResp:  `{"evaluations": [], "findings": [], "summary": "checked"}`,
		synthResp: defaultSynthResp,
	}
	a := newTestAnalyzer(fake)

	fetch := func(context.Context) (map[string]any, error) {
		return map[string]any{}, nil
	}
	events, outcome := a.AnalyzeStream(context.Background(), "space-123", fetch)

	var seen []ProgressEvent
	for ev := range events {
		seen = append(seen, ev)
	}
	result := <-outcome
	require.NoError(t, result.Err)
	require.NotNil(t, result.Analysis)

	require.Len(t, seen, 13)
	assert.Equal(t, ProgressFetching, seen[0].Kind)
	for i := 1; i <= 11; i++ {
		assert.Equal(t, ProgressAnalyzing, seen[i].Kind)
		assert.Equal(t, i, seen[i].Index)
		assert.Equal(t, 11, seen[i].Total)
	}
	assert.Equal(t, ProgressComplete, seen[12].Kind)
}

func TestAnalyzeStreamReportsFetchFailure(t *testing.T) {
	a := newTestAnalyzer(&fakeLLM{})
	wantErr := errors.New("space not found")

	events, outcome := a.AnalyzeStream(context.Background(), "missing", func(context.Context) (map[string]any, error) {
		return nil, wantErr
	})
	for range events {
	}
	result := <-outcome
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, wantErr)
	assert.Nil(t, result.Analysis)
}

func TestSectionData(t *testing.T) {
	tree := map[string]any{
		"instructions": map[string]any{
			"sql_snippets": map[string]any{
				"filters": []any{"f1"},
			},
		},
	}
	assert.Equal(t, []any{"f1"}, SectionData(tree, "instructions.sql_snippets.filters"))
	assert.Nil(t, SectionData(tree, "instructions.sql_snippets.measures"))
	assert.Nil(t, SectionData(tree, "data_sources.tables"))
	assert.Nil(t, SectionData(nil, "config.sample_questions"))
}

func TestSessionTagSurvivesRecorderPanic(t *testing.T) {
	sess := StartSession(panicRecorder{}, nil)
	assert.NotPanics(t, func() {
		sess.Tag("key", "value")
		sess.End()
	})
	assert.NotEmpty(t, sess.ID)
}

type panicRecorder struct{}

func (panicRecorder) StartSession(string) { panic("boom") }

func (panicRecorder) Tag(string, string, string) error { panic("boom") }

func (panicRecorder) EndSession(string) { panic("boom") }

