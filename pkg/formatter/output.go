package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/genie-ai/pkg/model"
)

// DisplayAnalysis formats and displays a space analysis
func DisplayAnalysis(analysis *model.SpaceAnalysis, format string) error {
	switch format {
	case "json":
		return displayJSON(analysis)
	case "yaml":
		return displayYAML(analysis)
	case "human":
		fallthrough
	default:
		displayHuman(analysis)
	}
	return nil
}

// DisplayOptimizations formats and displays optimization suggestions
func DisplayOptimizations(resp *model.OptimizationResponse, format string) error {
	switch format {
	case "json":
		return displayJSON(resp)
	case "yaml":
		return displayYAML(resp)
	case "human":
		fallthrough
	default:
		displayOptimizationsHuman(resp)
	}
	return nil
}

func displayJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func displayYAML(v any) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func displayHuman(analysis *model.SpaceAnalysis) {
	// Colors
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Println()

	// Overall score
	scoreColor := getScoreColor(analysis.OverallScore)
	scoreColor.Printf("📊 OVERALL SCORE: %d/10\n\n", analysis.OverallScore)

	// Style
	if analysis.Style != nil {
		cyan.Println("🎨 CONFIGURATION STYLE:")
		fmt.Printf("   %s (confidence %.2f)\n", analysis.Style.DetectedStyle, analysis.Style.Confidence)
		fmt.Printf("   %s\n\n", analysis.Style.Description)
	}

	// Assessment
	if analysis.Synthesis != nil {
		assessmentColor := getAssessmentColor(analysis.Synthesis.Assessment)
		assessmentColor.Printf("🧭 ASSESSMENT: %s\n", strings.ToUpper(string(analysis.Synthesis.Assessment)))
		fmt.Printf("   %s\n\n", analysis.Synthesis.AssessmentRationale)

		if len(analysis.Synthesis.CelebrationPoints) > 0 {
			green.Println("🎉 DOING WELL:")
			for _, point := range analysis.Synthesis.CelebrationPoints {
				fmt.Printf("   • %s\n", point)
			}
			fmt.Println()
		}

		if len(analysis.Synthesis.TopQuickWins) > 0 {
			cyan.Println("🚀 TOP QUICK WINS:")
			for i, win := range analysis.Synthesis.TopQuickWins {
				fmt.Printf("   %d. %s\n", i+1, win)
			}
			fmt.Println()
		}
	}

	// Per-section checklist
	white.Println("📋 SECTIONS:")
	for _, section := range analysis.Analyses {
		fmt.Printf("\n   %s — %d/10\n", section.SectionName, section.Score)
		for _, item := range section.Checklist {
			if item.Passed {
				fmt.Printf("      %s %s\n", color.GreenString("✓"), item.Description)
			} else {
				fmt.Printf("      %s %s\n", color.RedString("✗"), item.Description)
			}
			if item.Details != "" {
				fmt.Printf("        %s\n", color.HiBlackString(item.Details))
			}
		}
	}
	fmt.Println()

	// Findings grouped by severity
	findings := collectFindings(analysis)
	if len(findings) > 0 {
		yellow.Println("⚠️  FINDINGS:")
		for i, f := range findings {
			fmt.Printf("   %d. %s %s\n", i+1, getSeverityIcon(f.Severity), f.Description)
			if f.Recommendation != "" {
				fmt.Printf("      Fix: %s\n", color.CyanString(f.Recommendation))
			}
			if f.Reference != "" {
				fmt.Printf("      Reference: %s\n", f.Reference)
			}
			fmt.Println()
		}
	}

	// Footer
	fmt.Println(strings.Repeat("─", 80))
	fmt.Printf("💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func displayOptimizationsHuman(resp *model.OptimizationResponse) {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Println()

	white.Printf("🛠  %d OPTIMIZATION SUGGESTION(S)\n\n", len(resp.Suggestions))
	for i, s := range resp.Suggestions {
		fmt.Printf("   %d. %s %s\n", i+1, getPriorityIcon(s.Priority), s.FieldPath)
		fmt.Printf("      Category: %s\n", s.Category)
		fmt.Printf("      Why: %s\n", s.Rationale)
		if s.ChecklistReference != "" {
			fmt.Printf("      Reference: %s\n", s.ChecklistReference)
		}
		fmt.Println()
	}

	if resp.Summary != "" {
		cyan.Println("📄 STRATEGY:")
		fmt.Printf("   %s\n\n", resp.Summary)
	}

	fmt.Println(strings.Repeat("─", 80))
	fmt.Printf("💡 %s\n", color.HiBlackString("Run with -o json to save suggestions for merging"))
}

// collectFindings flattens section findings ordered high, medium, low.
func collectFindings(analysis *model.SpaceAnalysis) []model.Finding {
	var ordered []model.Finding
	for _, severity := range []string{model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		for _, section := range analysis.Analyses {
			for _, f := range section.Findings {
				if f.Severity == severity {
					ordered = append(ordered, f)
				}
			}
		}
	}
	return ordered
}

func getScoreColor(score int) *color.Color {
	switch {
	case score >= 8:
		return color.New(color.FgGreen, color.Bold)
	case score >= 5:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func getAssessmentColor(assessment model.Assessment) *color.Color {
	switch assessment {
	case model.AssessmentGoodToGo:
		return color.New(color.FgGreen, color.Bold)
	case model.AssessmentQuickWins:
		return color.New(color.FgYellow, color.Bold)
	case model.AssessmentFoundationNeeded:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite, color.Bold)
	}
}

func getSeverityIcon(severity string) string {
	switch strings.ToLower(severity) {
	case "high":
		return "🟠"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	default:
		return "⚪"
	}
}

func getPriorityIcon(priority string) string {
	switch strings.ToLower(priority) {
	case "high":
		return "⚡"
	case "medium":
		return "🔹"
	case "low":
		return "▫️"
	default:
		return "•"
	}
}
