// Package report renders profile summaries as Markdown, JSON, HTML or terminal tables.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabsight-cli/internal/insight"
	"github.com/KaramelBytes/tabsight-cli/internal/profile"
)

// Markdown renders s in bracketed sections suitable for pasting into prompts or docs.
func Markdown(s *profile.Summary) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.Cols))
	b.WriteString(fmt.Sprintf("Missing values: %d (columns: %s)\n\n", s.TotalMissing(), strings.Join(s.MissingList(), ", ")))

	b.WriteString("[SCHEMA]\n")
	for _, k := range s.Kinds {
		name := safeName(k.Name)
		if k.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, k.Unit)
		}
		miss := s.Missing[k.Name]
		missPct := 0.0
		if s.Rows > 0 {
			missPct = float64(miss) * 100.0 / float64(s.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)\n", name, k.Kind, s.Rows-miss, missPct))
	}

	b.WriteString("\n[MISSING VALUES]\n")
	if sorted := s.MissingSorted(); len(sorted) > 0 {
		for _, m := range sorted {
			b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(m.Column), m.Count))
		}
	} else {
		b.WriteString("- none\n")
	}

	if s.HasNumericData {
		b.WriteString("\n[DESCRIBE]\n")
		b.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max | outliers |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, d := range s.Describe {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				safeVal(d.Name), d.Count, num(d.Mean), num(d.Std), num(d.Min), num(d.Q25), num(d.Q50), num(d.Q75), num(d.Max), outliers(d)))
		}
	}

	if len(s.Categorical) > 0 {
		b.WriteString("\n[CATEGORICAL]\n")
		for _, c := range s.Categorical {
			b.WriteString(fmt.Sprintf("- %s: %s, count %d, unique %d", safeName(c.Name), c.Kind, c.Count, c.Unique))
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
			b.WriteString("\n")
		}
	}

	if s.Corr != nil && len(s.Corr.Columns) >= 2 {
		m := s.Corr.Rounded(2)
		b.WriteString("\n[CORRELATIONS]\n")
		b.WriteString("| |")
		for _, c := range m.Columns {
			b.WriteString(" " + safeVal(c) + " |")
		}
		b.WriteString("\n|---|")
		for range m.Columns {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for i, row := range m.Values {
			b.WriteString("| " + safeVal(m.Columns[i]) + " |")
			for _, v := range row {
				if math.IsNaN(v) {
					b.WriteString(" n/a |")
					continue
				}
				b.WriteString(fmt.Sprintf(" %.2f |", v))
			}
			b.WriteString("\n")
		}
	}

	if s.HasNumericData {
		b.WriteString("\n[TOP PAIRS]\n")
		if len(s.Pairs) == 0 {
			b.WriteString("- none\n")
		}
		for _, p := range s.Pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(s.Groups) > 0 {
		b.WriteString("\n[GROUP RATES]\n")
		for _, gs := range s.Groups {
			for _, g := range gs.Groups {
				b.WriteString(fmt.Sprintf("- %s = %s (n=%d)\n", gs.Column, safeVal(g.Key), g.Size))
				keys := make([]string, 0, len(g.Metrics))
				for k := range g.Metrics {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					m := g.Metrics[k]
					b.WriteString(fmt.Sprintf("  • %s: mean %s (min %s, max %s)\n", k, num(m.Mean), num(m.Min), num(m.Max)))
				}
			}
		}
	}

	if len(s.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range s.Insights {
			b.WriteString(fmt.Sprintf("- %s %s\n", glyph(in.Severity), in.Message))
		}
	}

	if len(s.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range s.Notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func outliers(d profile.ColumnProfile) string {
	out := fmt.Sprintf("%d iqr", d.IQROutliers)
	if d.OutlierThreshold > 0 {
		out += fmt.Sprintf(", %d |z|>%.1f", d.MADOutliers, d.OutlierThreshold)
		if d.MADMaxAbsZ > 0 {
			out += fmt.Sprintf(" (max |z|≈%.2f)", d.MADMaxAbsZ)
		}
	}
	return out
}

func glyph(s insight.Severity) string {
	switch s {
	case insight.Success:
		return "✓"
	case insight.Warning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", f)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
