package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabsight-cli/internal/config"
	"github.com/KaramelBytes/tabsight-cli/internal/cache"
	"github.com/KaramelBytes/tabsight-cli/internal/loader"
	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/report"
)

// profileFlags are shared by profile, profile-batch and serve.
type profileFlags struct {
	format      string
	project     string
	description string
	chartsDir   string

	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
	noUnits    bool

	topK       int
	minCorr    float64
	groupBy    []string
	outliers   bool
	outlierThr float64
	bins       int
	noCache    bool
}

// register adds the parsing and profiling flags; withOutputs adds the
// project and chart destinations used by the file-based commands.
func (pf *profileFlags) register(cmd *cobra.Command, withOutputs bool) {
	f := cmd.Flags()
	f.StringVarP(&pf.format, "format", "f", "", "output format: md|json|html|term (default from config)")
	if withOutputs {
		f.StringVarP(&pf.project, "project", "p", "", "project name to attach the report")
		f.StringVar(&pf.description, "desc", "", "description when attaching to project")
		f.StringVar(&pf.chartsDir, "charts", "", "directory to write PNG histograms and scatter plots")
	}
	f.StringVar(&pf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	f.StringVar(&pf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&pf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&pf.maxRows, "max-rows", 0, "maximum rows to process (0 = config default)")
	f.StringVar(&pf.sheetName, "sheet-name", "", "XLSX: sheet name to profile")
	f.IntVar(&pf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.BoolVar(&pf.noUnits, "no-unit-normalize", false, "keep values in the units found in headers")
	f.IntVar(&pf.topK, "top-k", 0, "number of top correlated pairs (0 = all; default from config)")
	f.Float64Var(&pf.minCorr, "min-corr", 0, "drop pairs with |r| below this value")
	f.StringSliceVar(&pf.groupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	f.BoolVar(&pf.outliers, "outliers", true, "compute robust outlier counts (MAD)")
	f.Float64Var(&pf.outlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	f.IntVar(&pf.bins, "bins", 0, "histogram bins per numeric column (default from config)")
	f.BoolVar(&pf.noCache, "no-cache", false, "bypass the source cache for URLs")
}

func (pf *profileFlags) reportFormat() (report.Format, error) {
	if pf.format != "" {
		return report.ParseFormat(pf.format)
	}
	return report.ParseFormat(settings().Format)
}

func (pf *profileFlags) loaderOptions() (loader.Options, error) {
	opt := loader.DefaultOptions()
	opt.MaxRows = settings().MaxRows
	if pf.maxRows > 0 {
		opt.MaxRows = pf.maxRows
	}
	if pf.delimiter != "" {
		switch pf.delimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		case "|", "pipe":
			opt.Delimiter = '|'
		default:
			return opt, fmt.Errorf("unsupported --delimiter: %s", pf.delimiter)
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(pf.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", pf.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(pf.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", pf.thousands)
	}
	opt.UnitNormalize = !pf.noUnits
	opt.SheetName = pf.sheetName
	opt.SheetIndex = pf.sheetIndex
	return opt, nil
}

func (pf *profileFlags) profileOptions(cmd *cobra.Command) (profile.Options, error) {
	c := settings()
	opt := profile.DefaultOptions()
	opt.TopK = c.TopK
	opt.MinAbsCorr = c.MinCorr
	if c.Bins > 0 {
		opt.Bins = c.Bins
	}
	f := cmd.Flags()
	if f.Changed("top-k") {
		if pf.topK < 0 {
			return opt, fmt.Errorf("--top-k must be >= 0")
		}
		opt.TopK = pf.topK
	}
	if f.Changed("min-corr") {
		if pf.minCorr < 0 || pf.minCorr > 1 {
			return opt, fmt.Errorf("--min-corr must be between 0 and 1")
		}
		opt.MinAbsCorr = pf.minCorr
	}
	if f.Changed("bins") {
		if pf.bins < 1 {
			return opt, fmt.Errorf("--bins must be >= 1")
		}
		opt.Bins = pf.bins
	}
	opt.GroupBy = pf.groupBy
	opt.Outliers = pf.outliers
	if pf.outlierThr > 0 {
		opt.OutlierThreshold = pf.outlierThr
	}
	return opt, nil
}

// newFetcher returns a fetcher backed by the on-disk cache unless noCache is set.
// Remote bodies share the max_upload_mb limit with server uploads.
func newFetcher(noCache bool) (*loader.Fetcher, error) {
	c := settings()
	timeout := time.Duration(c.HTTPTimeoutSec) * time.Second
	var sc *cache.Cache
	if !noCache {
		var err error
		if sc, err = openCache(); err != nil {
			return nil, err
		}
	}
	f := loader.NewFetcher(timeout, sc, logger)
	f.MaxBytes = int64(c.MaxUploadMB) << 20
	return f, nil
}

func openCache() (*cache.Cache, error) {
	c := settings()
	dir := c.CacheDir
	if dir == "" {
		root, err := cfgpkg.Dir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(root, "cache")
	}
	return cache.New(expandHome(dir), time.Duration(c.CacheTTLMin)*time.Minute)
}
