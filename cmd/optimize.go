package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/genie-ai/pkg/config"
	"github.com/helmcode/genie-ai/pkg/databricks"
	"github.com/helmcode/genie-ai/pkg/formatter"
	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/model"
	"github.com/helmcode/genie-ai/pkg/optimizer"
)

// heartbeatInterval is how often the spinner text refreshes while the
// optimization call is still running.
const heartbeatInterval = 5 * time.Second

var (
	feedbackFile string
	mergedOut    string
	probeGenie   bool
)

func NewOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize SPACE_ID",
		Short: "Generate optimization suggestions from labeling feedback",
		Long: `Generate field-level optimization suggestions for a Genie Space from
labeled benchmark questions, and optionally merge them into the
configuration.

The feedback file is a YAML list of labeled questions:

  - question_text: "What was revenue last month?"
    is_correct: true
  - question_text: "Which region grew fastest?"
    is_correct: false
    feedback_text: "Joined the wrong table"

Examples:
  # Generate suggestions
  genie-ai optimize 01ef9215ab4512345678901234567890 --feedback feedback.yaml

  # Generate, merge and save the patched configuration
  genie-ai optimize 01ef9215ab4512345678901234567890 --feedback feedback.yaml --merged-out merged.json

  # Ask Genie for the SQL behind unlabeled questions first
  genie-ai optimize 01ef9215ab4512345678901234567890 --feedback feedback.yaml --probe`,
		Args: cobra.ExactArgs(1),
		RunE: runOptimize,
	}

	cmd.Flags().StringVar(&feedbackFile, "feedback", "", "YAML file with labeled benchmark questions (required)")
	cmd.Flags().StringVar(&mergedOut, "merged-out", "", "Write the configuration with suggestions applied to this file")
	cmd.Flags().BoolVar(&probeGenie, "probe", false, "Query Genie for SQL on unlabeled questions before optimizing")
	cmd.MarkFlagRequired("feedback") //nolint:errcheck
	addCommonFlags(cmd)

	return cmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	spaceID := args[0]
	if err := databricks.ValidateSpaceID(spaceID); err != nil {
		return err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorkspace(); err != nil {
		return err
	}
	log := buildLogger(verbose)
	defer log.Sync() //nolint:errcheck

	feedback, err := loadFeedback(feedbackFile)
	if err != nil {
		return err
	}

	llmClient, err := llm.New(llm.Provider(cfg.LLM.Provider), cfg.LLMSettings(), log)
	if err != nil {
		return err
	}
	client := databricks.NewClient(cfg.Host, cfg.Token, log)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " Fetching space configuration..."
	s.Start()

	spaceData, err := client.FetchSpace(cmd.Context(), spaceID)
	if err != nil {
		s.Stop()
		return err
	}
	s.Stop()
	printSuccess("Fetched space configuration")

	if probeGenie {
		if err := probeUnlabeled(cmd, client, cfg, spaceID, feedback); err != nil {
			return err
		}
	}

	s.Suffix = " Generating optimization suggestions..."
	s.Start()

	o := optimizer.New(llmClient, nil, log).
		WithOptions(llm.Options{Model: cfg.LLM.Model, MaxTokens: cfg.LLM.MaxTokens})
	job := o.GenerateAsync(cmd.Context(), spaceData, feedback)

	started := time.Now()
	var resp *model.OptimizationResponse
	for {
		result, done, err := job.Poll(heartbeatInterval)
		if err != nil {
			s.Stop()
			printError("Optimization failed")
			return err
		}
		if done {
			resp = result
			break
		}
		s.Suffix = fmt.Sprintf(" Generating optimization suggestions... (%s elapsed)",
			time.Since(started).Round(time.Second))
	}
	s.Stop()
	printSuccess(fmt.Sprintf("Generated %d suggestion(s)", len(resp.Suggestions)))

	if err := formatter.DisplayOptimizations(resp, outputFormat); err != nil {
		return err
	}

	if mergedOut != "" {
		merge := optimizer.Merge(spaceData, resp.Suggestions, log)
		fmt.Println()
		printSuccess(merge.Summary)

		raw, err := json.MarshalIndent(merge.Merged, "", "  ")
		if err != nil {
			return fmt.Errorf("encode merged configuration: %w", err)
		}
		if err := os.WriteFile(mergedOut, raw, 0o644); err != nil {
			return fmt.Errorf("write merged configuration: %w", err)
		}
		printSuccess(fmt.Sprintf("Merged configuration written to %s", mergedOut))
	}
	return nil
}

// probeUnlabeled asks the Genie Space for the SQL behind each unlabeled
// question and, when a warehouse is configured, runs it read-only so the
// user can label the answers.
func probeUnlabeled(cmd *cobra.Command, client *databricks.Client, cfg *config.Config, spaceID string, feedback []model.LabelingFeedbackItem) error {
	for _, item := range feedback {
		if item.IsCorrect != nil {
			continue
		}
		fmt.Printf("\n❓ %s\n", item.QuestionText)

		result, err := client.QueryGenieSQL(cmd.Context(), spaceID, item.QuestionText,
			2*time.Minute, 2*time.Second)
		if err != nil {
			return err
		}
		if result.Status != "COMPLETED" || result.SQL == "" {
			printError(fmt.Sprintf("Genie returned no SQL (status %s)", result.Status))
			continue
		}
		fmt.Printf("   SQL: %s\n", result.SQL)

		if cfg.WarehouseID == "" {
			continue
		}
		rows, err := client.ExecuteSQL(cmd.Context(), result.SQL, cfg.WarehouseID)
		if err != nil {
			printError(fmt.Sprintf("Query failed: %v", err))
			continue
		}
		printSuccess(fmt.Sprintf("Query returned %d row(s)", rows.RowCount))
	}
	fmt.Println()
	return nil
}

func loadFeedback(path string) ([]model.LabelingFeedbackItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feedback file: %w", err)
	}
	var feedback []model.LabelingFeedbackItem
	if err := yaml.Unmarshal(raw, &feedback); err != nil {
		return nil, fmt.Errorf("parse feedback file %s: %w", path, err)
	}
	if len(feedback) == 0 {
		return nil, fmt.Errorf("feedback file %s contains no labeled questions", path)
	}
	return feedback, nil
}
