package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/tabsight-cli/internal/insight"
	"github.com/KaramelBytes/tabsight-cli/internal/profile"
)

// Terminal prints s as aligned tables. Colors follow fatih/color's terminal detection.
func Terminal(w io.Writer, s *profile.Summary) {
	heading := color.New(color.FgYellow, color.Bold)

	heading.Fprintf(w, "%s: %d rows x %d columns\n", safeName(s.Name), s.Rows, s.Cols)

	heading.Fprintln(w, "\nSchema")
	t := newTable(w, "Column", "Kind", "Unit", "Missing")
	for _, k := range s.Kinds {
		t.Append([]string{k.Name, k.Kind.String(), k.Unit, strconv.Itoa(s.Missing[k.Name])})
	}
	t.Render()

	if s.HasNumericData {
		heading.Fprintln(w, "\nDescribe")
		t = newTable(w, "Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max")
		for _, d := range s.Describe {
			t.Append([]string{d.Name, strconv.Itoa(d.Count), num(d.Mean), num(d.Std), num(d.Min), num(d.Q25), num(d.Q50), num(d.Q75), num(d.Max)})
		}
		t.Render()

		if len(s.Pairs) > 0 {
			heading.Fprintln(w, "\nTop correlated pairs")
			t = newTable(w, "A", "B", "r")
			for _, p := range s.Pairs {
				t.Append([]string{p.A, p.B, fmt.Sprintf("%.3f", p.R)})
			}
			t.Render()
		}
	}

	if len(s.Categorical) > 0 {
		heading.Fprintln(w, "\nCategorical")
		t = newTable(w, "Column", "Count", "Unique", "Top", "Freq")
		for _, c := range s.Categorical {
			t.Append([]string{c.Name, strconv.Itoa(c.Count), strconv.Itoa(c.Unique), c.Top, strconv.Itoa(c.Freq)})
		}
		t.Render()
	}

	for _, gs := range s.Groups {
		heading.Fprintf(w, "\nGrouped by %s\n", gs.Column)
		t = newTable(w, gs.Column, "Size", "Metric", "Mean", "Min", "Max")
		for _, g := range gs.Groups {
			for _, name := range s.Columns {
				m, ok := g.Metrics[name]
				if !ok {
					continue
				}
				t.Append([]string{g.Key, strconv.Itoa(g.Size), name, num(m.Mean), num(m.Min), num(m.Max)})
			}
		}
		t.Render()
	}

	if len(s.Insights) > 0 {
		heading.Fprintln(w, "\nInsights")
		for _, in := range s.Insights {
			severityColor(in.Severity).Fprintf(w, "%s %s\n", glyph(in.Severity), in.Message)
		}
	}
	for _, n := range s.Notes {
		fmt.Fprintf(w, "note: %s\n", n)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

func severityColor(s insight.Severity) *color.Color {
	switch s {
	case insight.Success:
		return color.New(color.FgGreen)
	case insight.Warning:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}
