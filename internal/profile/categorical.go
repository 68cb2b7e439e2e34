package profile

import (
	"sort"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// CategoryCount is one frequent value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryProfile summarizes a non-numeric column: count, unique, top, freq.
type CategoryProfile struct {
	Name      string          `json:"name"`
	Kind      table.Kind      `json:"kind"`
	Count     int             `json:"count"`
	Unique    int             `json:"unique"`
	Top       string          `json:"top,omitempty"`
	Freq      int             `json:"freq,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

func categorical(c *table.Column, limit int) CategoryProfile {
	p := CategoryProfile{Name: c.Name, Kind: c.Kind}
	counts := map[string]int{}
	for i, v := range c.Strs {
		if c.IsMissing(i) {
			continue
		}
		p.Count++
		counts[v]++
	}
	p.Unique = len(counts)
	if p.Unique == 0 {
		return p
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	p.Top, p.Freq = tops[0].Value, tops[0].Count
	if len(tops) > limit {
		tops = tops[:limit]
	}
	p.TopValues = tops
	return p
}
