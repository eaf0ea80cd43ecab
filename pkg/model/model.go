package model

// ChecklistItem is a single criterion parsed from the checklist document.
type ChecklistItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// EvaluatedItem is a checklist item after evaluation.
type EvaluatedItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Details     string `json:"details,omitempty"`
}

// Finding categories.
const (
	CategoryBestPractice = "best_practice"
	CategoryWarning      = "warning"
	CategorySuggestion   = "suggestion"
)

// Finding severities (also used as suggestion priorities).
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Finding describes an issue or opportunity attached to a failed checklist item.
type Finding struct {
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Reference      string `json:"reference"`
}

// SectionAnalysis is the evaluation result for one configuration section.
type SectionAnalysis struct {
	SectionName string          `json:"section_name"`
	Checklist   []EvaluatedItem `json:"checklist"`
	Findings    []Finding       `json:"findings"`
	Score       int             `json:"score"`
	Summary     string          `json:"summary"`
}

// ConfigStyle is a heuristically detected authoring pattern.
type ConfigStyle string

const (
	StyleMetricViewsFocused      ConfigStyle = "metric-views-focused"
	StyleTablesWithKnowledgeBase ConfigStyle = "tables-with-knowledge-base"
	StyleExampleDriven           ConfigStyle = "example-driven"
	StyleMinimalViable           ConfigStyle = "minimal-viable"
	StyleHybrid                  ConfigStyle = "hybrid"
)

// StyleIndicators holds the raw structural counts style detection is based on.
type StyleIndicators struct {
	TablesCount           int  `json:"tables_count"`
	MetricViewsCount      int  `json:"metric_views_count"`
	TextInstructionsCount int  `json:"text_instructions_count"`
	ExampleSQLsCount      int  `json:"example_sqls_count"`
	SQLFunctionsCount     int  `json:"sql_functions_count"`
	JoinSpecsCount        int  `json:"join_specs_count"`
	FiltersCount          int  `json:"filters_count"`
	ExpressionsCount      int  `json:"expressions_count"`
	MeasuresCount         int  `json:"measures_count"`
	BenchmarksCount       int  `json:"benchmarks_count"`
	TotalSnippets         int  `json:"total_snippets"`
	HasRichInstructions   bool `json:"has_rich_instructions"`
}

// StyleDetectionResult is the classification of a space's authoring style.
type StyleDetectionResult struct {
	DetectedStyle ConfigStyle     `json:"detected_style"`
	Confidence    float64         `json:"confidence"`
	Indicators    StyleIndicators `json:"indicators"`
	Description   string          `json:"description"`
}

// Assessment is the synthesis verdict category.
type Assessment string

const (
	AssessmentGoodToGo         Assessment = "good_to_go"
	AssessmentQuickWins        Assessment = "quick_wins"
	AssessmentFoundationNeeded Assessment = "foundation_needed"
)

// CompensatingStrength notes one section making up for weakness in another.
type CompensatingStrength struct {
	CoveringSection string `json:"covering_section"`
	CoveredSection  string `json:"covered_section"`
	Explanation     string `json:"explanation"`
}

// SynthesisResult is the holistic cross-section verdict.
type SynthesisResult struct {
	Assessment            Assessment             `json:"assessment"`
	AssessmentRationale   string                 `json:"assessment_rationale"`
	CompensatingStrengths []CompensatingStrength `json:"compensating_strengths"`
	CelebrationPoints     []string               `json:"celebration_points"`
	TopQuickWins          []string               `json:"top_quick_wins"`
}

// SpaceAnalysis is the full output for one analysis run.
type SpaceAnalysis struct {
	SpaceID      string                `json:"genie_space_id"`
	Analyses     []SectionAnalysis     `json:"analyses"`
	Style        *StyleDetectionResult `json:"style,omitempty"`
	Synthesis    *SynthesisResult      `json:"synthesis,omitempty"`
	OverallScore int                   `json:"overall_score"`
	SessionID    string                `json:"session_id,omitempty"`
}

// OptimizationSuggestion is a proposed field-level edit, addressable by path.
type OptimizationSuggestion struct {
	FieldPath          string `json:"field_path"`
	CurrentValue       any    `json:"current_value"`
	SuggestedValue     any    `json:"suggested_value"`
	Rationale          string `json:"rationale"`
	ChecklistReference string `json:"checklist_reference,omitempty"`
	Priority           string `json:"priority"`
	Category           string `json:"category"`
}

// OptimizationResponse is the result of a suggestion-generation run.
type OptimizationResponse struct {
	Suggestions []OptimizationSuggestion `json:"suggestions"`
	Summary     string                   `json:"summary"`
	SessionID   string                   `json:"session_id,omitempty"`
}

// LabelingFeedbackItem is one labeled benchmark question from a review
// session. IsCorrect is nil when the question was left unlabeled.
type LabelingFeedbackItem struct {
	QuestionText string `json:"question_text" yaml:"question_text"`
	IsCorrect    *bool  `json:"is_correct" yaml:"is_correct"`
	FeedbackText string `json:"feedback_text,omitempty" yaml:"feedback_text"`
}
