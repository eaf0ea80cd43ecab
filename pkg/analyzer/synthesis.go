package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/model"
	"github.com/helmcode/genie-ai/pkg/prompts"
)

// Synthesize runs the cross-sectional pass over completed section analyses
// and produces a holistic verdict. One LLM call. An unrecognized assessment
// category is soft-mapped to quick_wins rather than failing the run.
func (a *Analyzer) Synthesize(ctx context.Context, sess *Session, analyses []model.SectionAnalysis, style model.StyleDetectionResult, isFullAnalysis bool) (*model.SynthesisResult, error) {
	sess.Tag("phase", "synthesis")

	prompt := prompts.Synthesis(analyses, style, isFullAnalysis)
	content, err := a.llm.Chat(ctx, llm.UserMessage(prompt), a.opts)
	if err != nil {
		return nil, fmt.Errorf("synthesize analysis: %w", err)
	}
	parsed, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("synthesize analysis: %w", err)
	}

	var result model.SynthesisResult
	if err := decodeInto(parsed, &result); err != nil {
		return nil, fmt.Errorf("synthesize analysis: %w", err)
	}

	switch result.Assessment {
	case model.AssessmentGoodToGo, model.AssessmentQuickWins, model.AssessmentFoundationNeeded:
	default:
		a.log.Warn("unrecognized assessment category, defaulting to quick_wins",
			zap.String("assessment", string(result.Assessment)))
		result.Assessment = model.AssessmentQuickWins
	}

	if result.CompensatingStrengths == nil {
		result.CompensatingStrengths = []model.CompensatingStrength{}
	}
	if result.CelebrationPoints == nil {
		result.CelebrationPoints = []string{}
	}
	if result.TopQuickWins == nil {
		result.TopQuickWins = []string{}
	}
	return &result, nil
}
