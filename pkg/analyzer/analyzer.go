// Package analyzer evaluates a Genie Space configuration against the
// best-practice checklist, section by section, and synthesizes a holistic
// verdict. Deterministic checks run locally; qualitative items are judged
// by an LLM in one batched call per section.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/helmcode/genie-ai/pkg/checklist"
	"github.com/helmcode/genie-ai/pkg/checks"
	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/model"
	"github.com/helmcode/genie-ai/pkg/prompts"
)

// Analyzer runs checklist evaluations against a space configuration. All
// collaborators are injected; the zero value is not usable.
type Analyzer struct {
	llm      llm.Client
	opts     llm.Options
	recorder Recorder
	log      *zap.Logger
}

// New creates an Analyzer. recorder and log may be nil.
func New(client llm.Client, recorder Recorder, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{llm: client, recorder: recorder, log: log}
}

// WithOptions sets the model and token limits used for LLM calls.
func (a *Analyzer) WithOptions(opts llm.Options) *Analyzer {
	a.opts = opts
	return a
}

// SectionData walks a dot path through nested maps. A missing or non-map
// intermediate yields nil, which callers treat as "section not configured".
func SectionData(tree map[string]any, path string) any {
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

// Score converts a pass count into a 0-10 section score.
func Score(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(10 * float64(passed) / float64(total)))
}

// evaluation mirrors the per-item shape of the LLM response.
type evaluation struct {
	ID      string `json:"id"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// EvaluateSection evaluates one section against its checklist items.
//
// Missing sections short-circuit: every item fails with "Section not
// configured" and a single suggestion finding is emitted, with no LLM call.
// Otherwise deterministic checks claim their items first and the remaining
// items go to the LLM in one batched call.
func (a *Analyzer) EvaluateSection(ctx context.Context, sess *Session, sectionName string, sectionData any, fullTree map[string]any) (model.SectionAnalysis, error) {
	items := checklist.ItemsForSection(sectionName)

	if sectionData == nil {
		return missingSectionAnalysis(sectionName, items), nil
	}

	if len(items) == 0 {
		return model.SectionAnalysis{
			SectionName: sectionName,
			Checklist:   []model.EvaluatedItem{},
			Findings:    []model.Finding{},
			Score:       0,
			Summary:     "No checklist items defined for this section",
		}, nil
	}

	deterministic := make(map[string]model.EvaluatedItem)
	for _, r := range checks.ForSection(sectionName, sectionData, fullTree) {
		deterministic[r.ID] = r
	}

	var llmItems []model.ChecklistItem
	for _, item := range items {
		if _, ok := deterministic[item.ID]; !ok {
			llmItems = append(llmItems, item)
		}
	}

	evaluations := make(map[string]evaluation)
	var llmFindings []model.Finding
	summary := ""

	if len(llmItems) > 0 {
		sess.Tag("section", sectionName)
		prompt, err := prompts.ChecklistEvaluation(sectionName, sectionData, llmItems)
		if err != nil {
			return model.SectionAnalysis{}, err
		}
		a.log.Debug("evaluating section",
			zap.String("section", sectionName),
			zap.Int("llm_items", len(llmItems)),
			zap.Int("deterministic_items", len(deterministic)))

		content, err := a.llm.Chat(ctx, llm.UserMessage(prompt), a.opts)
		if err != nil {
			return model.SectionAnalysis{}, fmt.Errorf("evaluate section %s: %w", sectionName, err)
		}
		parsed, err := llm.ExtractJSON(content)
		if err != nil {
			return model.SectionAnalysis{}, fmt.Errorf("evaluate section %s: %w", sectionName, err)
		}

		var resp struct {
			Evaluations []evaluation    `json:"evaluations"`
			Findings    []model.Finding `json:"findings"`
			Summary     string          `json:"summary"`
		}
		if err := decodeInto(parsed, &resp); err != nil {
			return model.SectionAnalysis{}, fmt.Errorf("evaluate section %s: %w", sectionName, err)
		}
		for _, e := range resp.Evaluations {
			evaluations[e.ID] = e
		}
		llmFindings = resp.Findings
		summary = resp.Summary
	}

	// Assemble in registry order. An item the LLM failed to return counts
	// as failed with empty details.
	evaluated := make([]model.EvaluatedItem, 0, len(items))
	for _, item := range items {
		if r, ok := deterministic[item.ID]; ok {
			evaluated = append(evaluated, r)
			continue
		}
		e := evaluations[item.ID]
		evaluated = append(evaluated, model.EvaluatedItem{
			ID:          item.ID,
			Description: item.Description,
			Passed:      e.Passed,
			Details:     e.Details,
		})
	}

	passed := 0
	passedIDs := make(map[string]bool, len(evaluated))
	for _, e := range evaluated {
		if e.Passed {
			passed++
			passedIDs[e.ID] = true
		}
	}

	findings := make([]model.Finding, 0, len(llmFindings)+len(deterministic))
	for _, item := range items {
		r, ok := deterministic[item.ID]
		if ok && !r.Passed {
			findings = append(findings, model.Finding{
				Category:       model.CategoryWarning,
				Severity:       model.SeverityMedium,
				Description:    fmt.Sprintf("%s: %s", r.Description, r.Details),
				Recommendation: fmt.Sprintf("Address the failed check: %s", r.Description),
				Reference:      r.ID,
			})
		}
	}
	// Drop LLM findings that reference an item that actually passed.
	// References to ids we do not track pass through untouched.
	for _, f := range llmFindings {
		if passedIDs[f.Reference] {
			continue
		}
		findings = append(findings, f)
	}

	if summary == "" {
		summary = fmt.Sprintf("%d of %d checks passed", passed, len(evaluated))
	}

	return model.SectionAnalysis{
		SectionName: sectionName,
		Checklist:   evaluated,
		Findings:    findings,
		Score:       Score(passed, len(evaluated)),
		Summary:     summary,
	}, nil
}

// missingSectionAnalysis fails every registered item uniformly and emits
// exactly one finding suggesting the section be configured.
func missingSectionAnalysis(sectionName string, items []model.ChecklistItem) model.SectionAnalysis {
	evaluated := make([]model.EvaluatedItem, 0, len(items))
	for _, item := range items {
		evaluated = append(evaluated, model.EvaluatedItem{
			ID:          item.ID,
			Description: item.Description,
			Passed:      false,
			Details:     "Section not configured",
		})
	}
	return model.SectionAnalysis{
		SectionName: sectionName,
		Checklist:   evaluated,
		Findings: []model.Finding{{
			Category:       model.CategorySuggestion,
			Severity:       model.SeverityMedium,
			Description:    fmt.Sprintf("Section %s is not configured", sectionName),
			Recommendation: fmt.Sprintf("Configure %s to improve Genie's accuracy", sectionName),
			Reference:      sectionName,
		}},
		Score:   Score(0, len(items)),
		Summary: "Section not configured",
	}
}

// AnalyzeSpace evaluates every recognized section of a space configuration,
// detects its style and synthesizes the holistic verdict. A fresh session is
// opened for the run and closed on all paths.
func (a *Analyzer) AnalyzeSpace(ctx context.Context, spaceID string, tree map[string]any) (*model.SpaceAnalysis, error) {
	sess := StartSession(a.recorder, a.log)
	defer sess.End()
	sess.Tag("space_id", spaceID)

	return a.analyze(ctx, sess, spaceID, tree, nil)
}

func (a *Analyzer) analyze(ctx context.Context, sess *Session, spaceID string, tree map[string]any, progress func(section string, index, total int)) (*model.SpaceAnalysis, error) {
	analyses := make([]model.SectionAnalysis, 0, len(checklist.Sections))
	analyzed := make(map[string]bool, len(checklist.Sections))

	for i, section := range checklist.Sections {
		if progress != nil {
			progress(section, i+1, len(checklist.Sections))
		}
		data := SectionData(tree, section)
		analysis, err := a.EvaluateSection(ctx, sess, section, data, tree)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
		analyzed[section] = true
	}

	style := DetectStyle(tree)
	full := isFullAnalysis(analyzed, tree)

	synthesis, err := a.Synthesize(ctx, sess, analyses, style, full)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range analyses {
		total += s.Score
	}
	overall := 0
	if len(analyses) > 0 {
		overall = total / len(analyses)
	}

	return &model.SpaceAnalysis{
		SpaceID:      spaceID,
		Analyses:     analyses,
		Style:        &style,
		Synthesis:    synthesis,
		OverallScore: overall,
		SessionID:    sess.ID,
	}, nil
}

// isFullAnalysis reports whether the analyzed sections cover every section
// that is actually configured in the tree. Sections absent from the tree do
// not count against coverage.
func isFullAnalysis(analyzed map[string]bool, tree map[string]any) bool {
	for _, section := range checklist.Sections {
		if SectionData(tree, section) != nil && !analyzed[section] {
			return false
		}
	}
	return true
}

func decodeInto(parsed map[string]any, target any) error {
	raw, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("re-encode response: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
