package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// NumSummary aggregates one numeric column within a group.
type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// MarshalJSON writes undefined statistics as null.
func (n NumSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count int      `json:"count"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
		Mean  *float64 `json:"mean"`
	}{n.Count, jsonFloat(n.Min), jsonFloat(n.Max), jsonFloat(n.Mean)})
}

// Group is one distinct value of a group-by column.
type Group struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]NumSummary `json:"metrics"`
}

// GroupSummary holds the groups of one group-by column, largest first.
type GroupSummary struct {
	Column string  `json:"column"`
	Groups []Group `json:"groups"`
}

// groupRates summarizes every numeric column per distinct value of each
// requested column, e.g. the survival rate per passenger class. Rows whose
// group value is missing are skipped.
func groupRates(t *table.Table, by []string) ([]GroupSummary, error) {
	out := make([]GroupSummary, 0, len(by))
	nums := t.NumericColumns()
	for _, name := range by {
		gc := lookupFold(t, name)
		if gc == nil {
			return nil, fmt.Errorf("group by %q: %w", name, ErrUnknownColumn)
		}
		type acc struct {
			size int
			sum  map[string]float64
			n    map[string]int
			min  map[string]float64
			max  map[string]float64
		}
		groups := map[string]*acc{}
		for i := 0; i < gc.Len(); i++ {
			if gc.IsMissing(i) {
				continue
			}
			key := cellKey(gc, i)
			g := groups[key]
			if g == nil {
				g = &acc{sum: map[string]float64{}, n: map[string]int{}, min: map[string]float64{}, max: map[string]float64{}}
				groups[key] = g
			}
			g.size++
			for _, c := range nums {
				if c == gc || c.IsMissing(i) {
					continue
				}
				x := c.Nums[i]
				g.sum[c.Name] += x
				g.n[c.Name]++
				if cur, ok := g.min[c.Name]; !ok || x < cur {
					g.min[c.Name] = x
				}
				if cur, ok := g.max[c.Name]; !ok || x > cur {
					g.max[c.Name] = x
				}
			}
		}
		gs := GroupSummary{Column: gc.Name, Groups: make([]Group, 0, len(groups))}
		for key, g := range groups {
			res := Group{Key: key, Size: g.size, Metrics: map[string]NumSummary{}}
			for _, c := range nums {
				if c == gc {
					continue
				}
				if g.n[c.Name] == 0 {
					res.Metrics[c.Name] = NumSummary{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
					continue
				}
				res.Metrics[c.Name] = NumSummary{
					Count: g.n[c.Name],
					Min:   g.min[c.Name],
					Max:   g.max[c.Name],
					Mean:  g.sum[c.Name] / float64(g.n[c.Name]),
				}
			}
			gs.Groups = append(gs.Groups, res)
		}
		sort.Slice(gs.Groups, func(i, j int) bool {
			a, b := gs.Groups[i], gs.Groups[j]
			if a.Size == b.Size {
				return a.Key < b.Key
			}
			return a.Size > b.Size
		})
		out = append(out, gs)
	}
	return out, nil
}

func lookupFold(t *table.Table, name string) *table.Column {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.Columns {
		if strings.ToLower(c.Name) == want {
			return c
		}
	}
	return nil
}

func cellKey(c *table.Column, i int) string {
	if c.Kind == table.Numeric {
		return strconv.FormatFloat(c.Nums[i], 'f', -1, 64)
	}
	return c.Strs[i]
}
