package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helmcode/genie-ai/pkg/analyzer"
	"github.com/helmcode/genie-ai/pkg/checklist"
	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/model"
	"github.com/helmcode/genie-ai/pkg/prompts"
)

// Optimization responses are larger than section evaluations, so the token
// ceiling is raised accordingly.
const defaultMaxTokens = 8192

// Optimizer generates optimization suggestions from labeling feedback.
type Optimizer struct {
	llm      llm.Client
	opts     llm.Options
	recorder analyzer.Recorder
	log      *zap.Logger
}

// New creates an Optimizer. recorder and log may be nil.
func New(client llm.Client, recorder analyzer.Recorder, log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{llm: client, recorder: recorder, log: log}
}

// WithOptions sets the model and token limits used for LLM calls.
func (o *Optimizer) WithOptions(opts llm.Options) *Optimizer {
	o.opts = opts
	return o
}

func (o *Optimizer) options() llm.Options {
	opts := o.opts
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	return opts
}

// GenerateOptimizations asks the LLM for field-level suggestions grounded in
// the space configuration, the labeling feedback, and the best-practice
// checklist. One LLM call per invocation.
func (o *Optimizer) GenerateOptimizations(ctx context.Context, spaceData map[string]any, feedback []model.LabelingFeedbackItem) (*model.OptimizationResponse, error) {
	sess := analyzer.StartSession(o.recorder, o.log)
	defer sess.End()
	sess.Tag("phase", "optimization")

	prompt, err := prompts.Optimization(spaceData, feedback, checklist.Document())
	if err != nil {
		return nil, fmt.Errorf("generate optimizations: %w", err)
	}

	o.log.Debug("generating optimizations",
		zap.Int("feedback_items", len(feedback)),
		zap.String("session_id", sess.ID))

	content, err := o.llm.Chat(ctx, llm.UserMessage(prompt), o.options())
	if err != nil {
		return nil, fmt.Errorf("generate optimizations: %w", err)
	}
	parsed, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("generate optimizations: %w", err)
	}

	var resp struct {
		Suggestions []model.OptimizationSuggestion `json:"suggestions"`
		Summary     string                         `json:"summary"`
	}
	raw, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("generate optimizations: re-encode response: %w", err)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("generate optimizations: decode response: %w", err)
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []model.OptimizationSuggestion{}
	}

	return &model.OptimizationResponse{
		Suggestions: resp.Suggestions,
		Summary:     resp.Summary,
		SessionID:   sess.ID,
	}, nil
}

// Job is an in-flight optimization run. Callers poll it with a timeout to
// emit heartbeats while the LLM call is still running.
type Job struct {
	done   chan struct{}
	result *model.OptimizationResponse
	err    error
}

// GenerateAsync starts GenerateOptimizations in the background. The work is
// not cancelled by polling; only ctx cancels the underlying call.
func (o *Optimizer) GenerateAsync(ctx context.Context, spaceData map[string]any, feedback []model.LabelingFeedbackItem) *Job {
	j := &Job{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.result, j.err = o.GenerateOptimizations(ctx, spaceData, feedback)
	}()
	return j
}

// Poll waits up to timeout for the job to finish. ok is false while the job
// is still running; the caller may emit a progress signal and poll again.
func (j *Job) Poll(timeout time.Duration) (result *model.OptimizationResponse, ok bool, err error) {
	select {
	case <-j.done:
		return j.result, true, j.err
	case <-time.After(timeout):
		return nil, false, nil
	}
}

// Wait blocks until the job finishes.
func (j *Job) Wait() (*model.OptimizationResponse, error) {
	<-j.done
	return j.result, j.err
}
