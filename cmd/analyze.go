package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helmcode/genie-ai/pkg/analyzer"
	"github.com/helmcode/genie-ai/pkg/config"
	"github.com/helmcode/genie-ai/pkg/databricks"
	"github.com/helmcode/genie-ai/pkg/formatter"
	"github.com/helmcode/genie-ai/pkg/llm"
	"github.com/helmcode/genie-ai/pkg/report"
)

// Pasted configuration files larger than this are rejected before parsing.
const maxPastedConfigBytes = 5 << 20

var (
	configFile   string
	outputFormat string
	verbose      bool

	analyzeFile string
	noReport    bool
)

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SPACE_ID]",
		Short: "Analyze a Genie Space against the best-practices checklist",
		Long: `Fetch a Genie Space configuration and evaluate every section against the
best-practices checklist, detect its configuration style and produce a
holistic assessment.

Examples:
  # Analyze a space from the workspace
  genie-ai analyze 01ef9215ab4512345678901234567890

  # Analyze a pasted configuration export
  genie-ai analyze --file exported-space.json

  # Machine-readable output
  genie-ai analyze 01ef9215ab4512345678901234567890 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVar(&analyzeFile, "file", "", "Analyze a pasted space JSON export instead of fetching by ID")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Skip writing the markdown/JSON report files")
	addCommonFlags(cmd)

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && analyzeFile == "" {
		return fmt.Errorf("either pass a SPACE_ID or use --file")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := buildLogger(verbose)
	defer log.Sync() //nolint:errcheck

	var (
		spaceID string
		fetch   analyzer.FetchFunc
	)
	if analyzeFile != "" {
		spaceID = fmt.Sprintf("pasted-%s", time.Now().Format("20060102-150405"))
		fetch = func(context.Context) (map[string]any, error) {
			return loadPastedConfig(analyzeFile)
		}
	} else {
		spaceID = args[0]
		if err := databricks.ValidateSpaceID(spaceID); err != nil {
			return err
		}
		if err := cfg.ValidateWorkspace(); err != nil {
			return err
		}
		client := databricks.NewClient(cfg.Host, cfg.Token, log)
		fetch = func(ctx context.Context) (map[string]any, error) {
			return client.FetchSpace(ctx, spaceID)
		}
	}

	llmClient, err := llm.New(llm.Provider(cfg.LLM.Provider), cfg.LLMSettings(), log)
	if err != nil {
		return err
	}

	printAnalyzeHeader(spaceID)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " Starting analysis..."
	s.Start()

	a := analyzer.New(llmClient, nil, log).
		WithOptions(llm.Options{Model: cfg.LLM.Model, MaxTokens: cfg.LLM.MaxTokens})
	events, outcome := a.AnalyzeStream(cmd.Context(), spaceID, fetch)

	for ev := range events {
		switch ev.Kind {
		case analyzer.ProgressFetching:
			s.Suffix = " Fetching space configuration..."
		case analyzer.ProgressAnalyzing:
			s.Suffix = fmt.Sprintf(" Analyzing %s (%d/%d)...", ev.Section, ev.Index, ev.Total)
		case analyzer.ProgressComplete:
			s.Suffix = " Finishing up..."
		}
	}
	result := <-outcome
	s.Stop()

	if result.Err != nil {
		printError("Analysis failed")
		return result.Err
	}
	printSuccess("Analysis complete")

	if err := formatter.DisplayAnalysis(result.Analysis, outputFormat); err != nil {
		return err
	}

	if !noReport {
		mdPath, jsonPath, err := report.Write(result.Analysis, cfg.OutputDir)
		if err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Report written to %s (raw data: %s)", mdPath, jsonPath))
	}
	return nil
}

// loadPastedConfig reads an exported space JSON file. The export carries
// serialized_space either as a JSON string or as an inlined object.
func loadPastedConfig(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPastedConfigBytes {
		return nil, fmt.Errorf("pasted config %s is too large (%d bytes, limit %d)", path, info.Size(), maxPastedConfigBytes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper map[string]any
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("parse pasted config %s: %w", path, err)
	}

	switch serialized := wrapper["serialized_space"].(type) {
	case string:
		tree := map[string]any{}
		if err := json.Unmarshal([]byte(serialized), &tree); err != nil {
			return nil, fmt.Errorf("parse serialized_space in %s: %w", path, err)
		}
		return tree, nil
	case map[string]any:
		return serialized, nil
	case nil:
		// Treat the file itself as the configuration tree.
		return wrapper, nil
	default:
		return nil, fmt.Errorf("serialized_space in %s must be a JSON string or object", path)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "Path to genie-ai.yaml (defaults to ./genie-ai.yaml if present)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

func buildLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logCfg := zap.NewDevelopmentConfig()
	log, err := logCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func printAnalyzeHeader(spaceID string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("🔍 Genie Space Analyzer")
	fmt.Printf("📝 Space: %s\n", spaceID)
	fmt.Println()
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Printf("✓ %s\n", msg)
}

func printError(msg string) {
	red := color.New(color.FgRed)
	red.Printf("✗ %s\n", msg)
}
