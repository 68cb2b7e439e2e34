package insight

import (
	"fmt"
	"math"
)

// Severity tags an insight for presentation.
type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Warning Severity = "warning"
)

// Insight is one templated sentence produced by a rule.
type Insight struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Mean is a numeric column's mean, in table order.
type Mean struct {
	Column string
	Value  float64
}

// Pair is a correlated column pair, strongest first.
type Pair struct {
	A, B string
	R    float64
}

// Facts are the already-computed statistics the rules read. Rules never see the table.
type Facts struct {
	Means        []Mean
	TopPairs     []Pair
	TotalMissing int
}

// Rule pairs a condition with a message template.
type Rule struct {
	Name     string
	Severity Severity
	When     func(f Facts) bool
	Render   func(f Facts) string
}

// DefaultRules is the fixed, ordered rule set.
var DefaultRules = []Rule{
	{
		Name:     "highest-mean",
		Severity: Success,
		When:     func(f Facts) bool { _, ok := highestMean(f.Means); return ok },
		Render: func(f Facts) string {
			m, _ := highestMean(f.Means)
			return fmt.Sprintf("%s has the highest mean (%.4g). It may be a useful reference column.", m.Column, m.Value)
		},
	},
	{
		Name:     "top-correlation",
		Severity: Info,
		When:     func(f Facts) bool { return len(f.TopPairs) > 0 },
		Render: func(f Facts) string {
			p := f.TopPairs[0]
			return fmt.Sprintf("%s and %s have the strongest correlation (r=%.2f). Analyze them together.", p.A, p.B, p.R)
		},
	},
	{
		Name:     "missing-data",
		Severity: Warning,
		When:     func(f Facts) bool { return f.TotalMissing > 0 },
		Render: func(f Facts) string {
			return fmt.Sprintf("The dataset has %d missing values. Handle them before analysis.", f.TotalMissing)
		},
	},
}

// Evaluate runs rules in order and collects the messages of those that fire.
func Evaluate(rules []Rule, f Facts) []Insight {
	out := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if !r.When(f) {
			continue
		}
		out = append(out, Insight{Rule: r.Name, Severity: r.Severity, Message: r.Render(f)})
	}
	return out
}

// highestMean picks the maximum mean; the earliest column wins ties and NaN means are skipped.
func highestMean(ms []Mean) (Mean, bool) {
	var best Mean
	found := false
	for _, m := range ms {
		if math.IsNaN(m.Value) {
			continue
		}
		if !found || m.Value > best.Value {
			best = m
			found = true
		}
	}
	return best, found
}
