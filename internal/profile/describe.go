package profile

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ColumnProfile is one describe row for a numeric column.
type ColumnProfile struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
	// Box-plot fences: values outside [Q25-1.5*IQR, Q75+1.5*IQR].
	IQROutliers int
	// Robust Z via MAD; zero threshold means it was not computed.
	MADOutliers      int
	MADMaxAbsZ       float64
	OutlierThreshold float64
}

// MarshalJSON writes undefined statistics as null.
func (c ColumnProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name             string   `json:"name"`
		Count            int      `json:"count"`
		Mean             *float64 `json:"mean"`
		Std              *float64 `json:"std"`
		Min              *float64 `json:"min"`
		Q25              *float64 `json:"25%"`
		Q50              *float64 `json:"50%"`
		Q75              *float64 `json:"75%"`
		Max              *float64 `json:"max"`
		IQROutliers      int      `json:"iqr_outliers"`
		MADOutliers      int      `json:"mad_outliers,omitempty"`
		MADMaxAbsZ       *float64 `json:"mad_max_abs_z,omitempty"`
		OutlierThreshold float64  `json:"outlier_threshold,omitempty"`
	}{
		Name: c.Name, Count: c.Count,
		Mean: jsonFloat(c.Mean), Std: jsonFloat(c.Std), Min: jsonFloat(c.Min),
		Q25: jsonFloat(c.Q25), Q50: jsonFloat(c.Q50), Q75: jsonFloat(c.Q75), Max: jsonFloat(c.Max),
		IQROutliers: c.IQROutliers, MADOutliers: c.MADOutliers,
		MADMaxAbsZ: jsonFloatNonZero(c.MADMaxAbsZ), OutlierThreshold: c.OutlierThreshold,
	})
}

func jsonFloat(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func jsonFloatNonZero(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return jsonFloat(f)
}

// describe computes count, mean, sample std, min, quartiles, and max over the
// present values of one column.
func describe(name string, vals []float64, opt Options) ColumnProfile {
	nan := math.NaN()
	p := ColumnProfile{Name: name, Count: len(vals), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(vals) == 0 {
		return p
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	p.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		p.Std = stat.StdDev(vals, nil)
	}
	p.Min = sorted[0]
	p.Max = sorted[len(sorted)-1]
	p.Q25 = quantile(sorted, 0.25)
	p.Q50 = quantile(sorted, 0.50)
	p.Q75 = quantile(sorted, 0.75)

	iqr := p.Q75 - p.Q25
	lo, hi := p.Q25-1.5*iqr, p.Q75+1.5*iqr
	for _, v := range sorted {
		if v < lo || v > hi {
			p.IQROutliers++
		}
	}

	if opt.Outliers && len(vals) >= 8 {
		p.OutlierThreshold = opt.OutlierThreshold
		p.MADOutliers, p.MADMaxAbsZ = madOutliers(sorted, opt.OutlierThreshold)
	}
	return p
}

// madOutliers counts values whose robust z-score exceeds thr.
func madOutliers(vals []float64, thr float64) (int, float64) {
	median, err := stats.Median(vals)
	if err != nil {
		return 0, 0
	}
	mad, err := stats.MedianAbsoluteDeviation(vals)
	if err != nil || mad == 0 {
		return 0, 0
	}
	var cnt int
	maxAbsZ := 0.0
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Bin is one equal-width histogram bucket; Hi is inclusive only for the last bin.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram holds the distribution of one numeric column.
type Histogram struct {
	Column string `json:"column"`
	Bins   []Bin  `json:"bins"`
}

func histogram(name string, vals []float64, bins int) Histogram {
	h := Histogram{Column: name}
	if len(vals) == 0 {
		return h
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		h.Bins = []Bin{{Lo: lo, Hi: hi, Count: len(vals)}}
		return h
	}
	width := (hi - lo) / float64(bins)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i].Lo = lo + float64(i)*width
		h.Bins[i].Hi = lo + float64(i+1)*width
	}
	h.Bins[bins-1].Hi = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Bins[i].Count++
	}
	return h
}
