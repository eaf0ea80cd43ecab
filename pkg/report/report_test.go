package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/genie-ai/pkg/model"
)

func sampleAnalysis() *model.SpaceAnalysis {
	style := model.StyleDetectionResult{
		DetectedStyle: model.StyleExampleDriven,
		Confidence:    0.85,
		Description:   "Teaches Genie through examples.",
	}
	synthesis := model.SynthesisResult{
		Assessment:          model.AssessmentQuickWins,
		AssessmentRationale: "Close, with a few gaps.",
		TopQuickWins:        []string{"Add join specs"},
	}
	return &model.SpaceAnalysis{
		SpaceID:      "space 123/prod",
		OverallScore: 6,
		Style:        &style,
		Synthesis:    &synthesis,
		Analyses: []model.SectionAnalysis{
			{
				SectionName: "data_sources.tables",
				Score:       5,
				Summary:     "Half the checks pass",
				Checklist: []model.EvaluatedItem{
					{ID: "a", Description: "At least 1 table is configured", Passed: true, Details: "Found 2 table(s)"},
					{ID: "b", Description: "At least 50% of columns have descriptions", Passed: false, Details: "1 of 4 columns have descriptions (25%)"},
				},
				Findings: []model.Finding{
					{Category: model.CategoryWarning, Severity: model.SeverityHigh, Description: "Most columns lack descriptions", Recommendation: "Describe key columns", Reference: "b"},
					{Category: model.CategorySuggestion, Severity: model.SeverityLow, Description: "Consider synonyms", Recommendation: "Add synonyms"},
				},
			},
		},
	}
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "space_123_prod", SafeFilename("space 123/prod"))
	assert.Equal(t, "plain-id_ok.v2", SafeFilename("plain-id_ok.v2"))
	assert.Equal(t, ".._.._etc_passwd", SafeFilename("../../etc/passwd"))
}

func TestRenderStructure(t *testing.T) {
	out := Render(sampleAnalysis())

	assert.Contains(t, out, "# Genie Space Analysis Report")
	assert.Contains(t, out, "**Space ID:** space 123/prod")
	assert.Contains(t, out, "**Overall Score:** 6/10")
	assert.Contains(t, out, "- Checklist items passed: 1/2")
	assert.Contains(t, out, "- Findings: 1 high, 0 medium, 1 low")
	assert.Contains(t, out, "**example-driven** (confidence 0.85)")
	assert.Contains(t, out, "**quick_wins**: Close, with a few gaps.")
	assert.Contains(t, out, "### data_sources.tables (score 5/10)")
	assert.Contains(t, out, "- ✓ At least 1 table is configured — Found 2 table(s)")
	assert.Contains(t, out, "- ✗ At least 50% of columns have descriptions")
	assert.Contains(t, out, "- **Most columns lack descriptions**")
	assert.Contains(t, out, "  - Describe key columns")
	assert.Contains(t, out, "  - Reference: b")

	// High severity findings come before low severity ones.
	assert.Less(t, strings.Index(out, "### HIGH"), strings.Index(out, "### LOW"))
}

func TestRenderNoFindings(t *testing.T) {
	analysis := &model.SpaceAnalysis{SpaceID: "s", Analyses: []model.SectionAnalysis{}}
	out := Render(analysis)
	assert.Contains(t, out, "No findings.")
}

func TestWritePersistsBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	mdPath, jsonPath, err := Write(sampleAnalysis(), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "space_123_prod-analysis.md"), mdPath)
	assert.Equal(t, filepath.Join(dir, "space_123_prod-analysis.json"), jsonPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Genie Space Analysis Report")

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded model.SpaceAnalysis
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "space 123/prod", decoded.SpaceID)
}

func TestWriteStaysInsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	analysis := sampleAnalysis()
	analysis.SpaceID = "../../escape"

	mdPath, _, err := Write(analysis, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mdPath, dir), "sanitized name must stay inside %s", dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestResolveInsideRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	_, err := resolveInside(dir, "../outside.md")
	assert.Error(t, err)

	path, err := resolveInside(dir, "fine.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fine.md"), path)
}
