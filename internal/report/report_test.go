package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

func titanic(t *testing.T) *profile.Summary {
	t.Helper()
	tab := table.New("titanic.csv",
		table.NewNumeric("Survived", 0, 1, 1, 0, 1),
		table.NewNumeric("Pclass", 3, 1, 3, 1, 2),
		table.NewNumeric("Age", 22, 38, math.NaN(), 35, math.NaN()),
		table.NewNumeric("Fare", 7.25, 71.28, 7.92, 53.1, 13),
		table.NewStrings("Sex", table.Categorical, "male", "female", "female", "male", "female"),
		table.NewStrings("Cabin", table.Textual, "", "C85", "", "C123", ""),
	)
	opt := profile.DefaultOptions()
	opt.GroupBy = []string{"sex"}
	s, err := profile.Profile(tab, opt)
	require.NoError(t, err)
	return s
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(titanic(t))
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: titanic.csv", "Rows: 5", "Columns: 6",
		"Missing values: 5 (columns: Age, Cabin)",
		"[SCHEMA]", "- Age: numeric (non-null 3, missing 40.0%)",
		"[MISSING VALUES]", "- Cabin: 3\n- Age: 2\n",
		"[DESCRIBE]", "| Fare | 5 |",
		"[CATEGORICAL]", "- Sex: categorical, count 5, unique 2; top: female(3), male(2)",
		"[CORRELATIONS]", "| | Survived | Pclass | Age | Fare |",
		"[TOP PAIRS]",
		"[GROUP RATES]", "- Sex = female (n=3)", "  • Survived: mean 1 (min 1, max 1)",
		"[INSIGHTS]", "✓ Age has the highest mean",
		"⚠ The dataset has 5 missing values.",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "[NOTES]")
}

func TestMarkdownNoNumericColumns(t *testing.T) {
	tab := table.New("names.csv", table.NewStrings("name", table.Textual, "a", "b"))
	s, err := profile.Profile(tab, profile.DefaultOptions())
	require.NoError(t, err)
	md := Markdown(s)
	assert.Contains(t, md, "Missing values: 0 (columns: none)")
	assert.Contains(t, md, "[MISSING VALUES]\n- none\n")
	assert.Contains(t, md, "[NOTES]\n- no numeric columns; numeric sections skipped")
	for _, absent := range []string{"[DESCRIBE]", "[CORRELATIONS]", "[TOP PAIRS]"} {
		assert.NotContains(t, md, absent)
	}
}

func TestMarkdownUndefinedCorrelation(t *testing.T) {
	tab := table.New("flat.csv",
		table.NewNumeric("A", 1, 2, 3),
		table.NewNumeric("K", 5, 5, 5),
	)
	s, err := profile.Profile(tab, profile.DefaultOptions())
	require.NoError(t, err)
	md := Markdown(s)
	assert.Contains(t, md, "| K | n/a | n/a |")
	assert.Contains(t, md, "[TOP PAIRS]\n- none\n")
}

func TestJSONNullsUndefinedStats(t *testing.T) {
	b, err := JSON(titanic(t))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, float64(5), out["rows"])
	assert.Equal(t, true, out["has_numeric_data"])
	missing := out["missing"].(map[string]any)
	assert.Equal(t, float64(3), missing["Cabin"])
	kinds := out["kinds"].([]any)
	assert.Equal(t, "categorical", kinds[4].(map[string]any)["kind"])
}

func TestHTML(t *testing.T) {
	page := string(HTML(titanic(t)))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(page), "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>titanic.csv - tabsight report</title>")
	assert.Contains(t, page, "<h2")
	assert.Contains(t, page, "DATASET SUMMARY</h2>")
	assert.Contains(t, page, "<table>")
	assert.NotContains(t, page, "[DESCRIBE]")
}

func TestTerminal(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	Terminal(&buf, titanic(t))
	out := buf.String()
	assert.Contains(t, out, "titanic.csv: 5 rows x 6 columns")
	assert.Contains(t, out, "Schema")
	assert.Contains(t, out, "Describe")
	assert.Contains(t, out, "Grouped by Sex")
	assert.Contains(t, out, "✓ Age has the highest mean")
	assert.NotContains(t, out, "\x1b[")
}

func TestParseFormatAndRender(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "MD": FormatMarkdown, "json": FormatJSON, "html": FormatHTML, "term": FormatTerminal} {
		f, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, f)
	}
	_, err := ParseFormat("pdf")
	require.Error(t, err)

	s := titanic(t)
	b, err := Render(s, FormatJSON)
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
	assert.Equal(t, "application/json", FormatJSON.ContentType())
}
