package analyzer

import (
	"context"

	"github.com/helmcode/genie-ai/pkg/checklist"
	"github.com/helmcode/genie-ai/pkg/model"
)

// ProgressKind identifies a phase of a streaming analysis.
type ProgressKind string

const (
	ProgressFetching  ProgressKind = "fetching"
	ProgressAnalyzing ProgressKind = "analyzing"
	ProgressComplete  ProgressKind = "complete"
)

// ProgressEvent is one step of a streaming analysis. Section, Index and
// Total are set only for analyzing events.
type ProgressEvent struct {
	Kind    ProgressKind `json:"kind"`
	Section string       `json:"section,omitempty"`
	Index   int          `json:"index,omitempty"`
	Total   int          `json:"total,omitempty"`
}

// Outcome is the terminal result of a streaming analysis. Exactly one of
// Analysis or Err is set.
type Outcome struct {
	Analysis *model.SpaceAnalysis
	Err      error
}

// FetchFunc loads the serialized space configuration.
type FetchFunc func(ctx context.Context) (map[string]any, error)

// AnalyzeStream runs a full analysis in the background, reporting progress
// on the first channel and delivering exactly one Outcome on the second.
// Both channels are closed when the run finishes. The events channel is
// buffered for the whole run, so a consumer that only waits on the outcome
// never blocks the analysis.
func (a *Analyzer) AnalyzeStream(ctx context.Context, spaceID string, fetch FetchFunc) (<-chan ProgressEvent, <-chan Outcome) {
	events := make(chan ProgressEvent, len(checklist.Sections)+2)
	outcome := make(chan Outcome, 1)

	go func() {
		defer close(events)
		defer close(outcome)

		sess := StartSession(a.recorder, a.log)
		defer sess.End()
		sess.Tag("space_id", spaceID)

		events <- ProgressEvent{Kind: ProgressFetching}
		tree, err := fetch(ctx)
		if err != nil {
			outcome <- Outcome{Err: err}
			return
		}

		analysis, err := a.analyze(ctx, sess, spaceID, tree, func(section string, index, total int) {
			events <- ProgressEvent{Kind: ProgressAnalyzing, Section: section, Index: index, Total: total}
		})
		if err != nil {
			outcome <- Outcome{Err: err}
			return
		}

		events <- ProgressEvent{Kind: ProgressComplete}
		outcome <- Outcome{Analysis: analysis}
	}()

	return events, outcome
}
