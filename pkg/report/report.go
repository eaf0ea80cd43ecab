// Package report renders analysis results as markdown and persists them,
// alongside a raw JSON artifact, inside a designated output directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/helmcode/genie-ai/pkg/model"
)

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeFilename derives a filesystem-safe name from a space identifier.
func SafeFilename(spaceID string) string {
	return unsafeFilenameRe.ReplaceAllString(spaceID, "_")
}

// Render produces the markdown report for one analysis.
func Render(analysis *model.SpaceAnalysis) string {
	var b strings.Builder

	b.WriteString("# Genie Space Analysis Report\n\n")
	fmt.Fprintf(&b, "**Space ID:** %s\n\n", analysis.SpaceID)
	fmt.Fprintf(&b, "**Overall Score:** %d/10\n\n", analysis.OverallScore)

	passed, total := 0, 0
	counts := map[string]int{}
	for _, section := range analysis.Analyses {
		for _, item := range section.Checklist {
			total++
			if item.Passed {
				passed++
			}
		}
		for _, f := range section.Findings {
			counts[f.Severity]++
		}
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Checklist items passed: %d/%d\n", passed, total)
	fmt.Fprintf(&b, "- Findings: %d high, %d medium, %d low\n",
		counts[model.SeverityHigh], counts[model.SeverityMedium], counts[model.SeverityLow])
	fmt.Fprintf(&b, "- Sections analyzed: %d\n\n", len(analysis.Analyses))

	if analysis.Style != nil {
		b.WriteString("## Configuration Style\n\n")
		fmt.Fprintf(&b, "**%s** (confidence %.2f)\n\n%s\n\n",
			analysis.Style.DetectedStyle, analysis.Style.Confidence, analysis.Style.Description)
	}

	if analysis.Synthesis != nil {
		b.WriteString("## Assessment\n\n")
		fmt.Fprintf(&b, "**%s**: %s\n\n", analysis.Synthesis.Assessment, analysis.Synthesis.AssessmentRationale)
		if len(analysis.Synthesis.TopQuickWins) > 0 {
			b.WriteString("### Top Quick Wins\n\n")
			for _, win := range analysis.Synthesis.TopQuickWins {
				fmt.Fprintf(&b, "- %s\n", win)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Sections\n\n")
	for _, section := range analysis.Analyses {
		fmt.Fprintf(&b, "### %s (score %d/10)\n\n", section.SectionName, section.Score)
		if section.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", section.Summary)
		}
		for _, item := range section.Checklist {
			mark := "✗"
			if item.Passed {
				mark = "✓"
			}
			if item.Details != "" {
				fmt.Fprintf(&b, "- %s %s — %s\n", mark, item.Description, item.Details)
			} else {
				fmt.Fprintf(&b, "- %s %s\n", mark, item.Description)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	wrote := false
	for _, severity := range []string{model.SeverityHigh, model.SeverityMedium, model.SeverityLow} {
		var findings []model.Finding
		for _, section := range analysis.Analyses {
			for _, f := range section.Findings {
				if f.Severity == severity {
					findings = append(findings, f)
				}
			}
		}
		if len(findings) == 0 {
			continue
		}
		wrote = true
		fmt.Fprintf(&b, "### %s\n\n", strings.ToUpper(severity))
		for _, f := range findings {
			fmt.Fprintf(&b, "- **%s**\n", f.Description)
			if f.Recommendation != "" {
				fmt.Fprintf(&b, "  - %s\n", f.Recommendation)
			}
			if f.Reference != "" {
				fmt.Fprintf(&b, "  - Reference: %s\n", f.Reference)
			}
		}
		b.WriteString("\n")
	}
	if !wrote {
		b.WriteString("No findings.\n")
	}

	return b.String()
}

// resolveInside joins name onto dir and verifies the result stays inside
// dir. Traversal attempts are rejected.
func resolveInside(dir, name string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	path := filepath.Join(absDir, name)
	if path != absDir && !strings.HasPrefix(path, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("output path %q escapes output directory", name)
	}
	return path, nil
}

// Write persists the markdown report and the raw JSON analysis under
// outputDir, returning the two paths written.
func Write(analysis *model.SpaceAnalysis, outputDir string) (markdownPath, jsonPath string, err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	base := SafeFilename(analysis.SpaceID)

	markdownPath, err = resolveInside(outputDir, base+"-analysis.md")
	if err != nil {
		return "", "", err
	}
	jsonPath, err = resolveInside(outputDir, base+"-analysis.json")
	if err != nil {
		return "", "", err
	}

	if err := os.WriteFile(markdownPath, []byte(Render(analysis)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}
	raw, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode analysis: %w", err)
	}
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return "", "", fmt.Errorf("write analysis JSON: %w", err)
	}
	return markdownPath, jsonPath, nil
}
