package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/project"
	"github.com/KaramelBytes/tabsight-cli/internal/report"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

var (
	pbFlags  profileFlags
	pbJobs   int
	pbOutDir string
	pbQuiet  bool
)

type batchResult struct {
	source  string
	table   *table.Table
	summary *profile.Summary
}

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files concurrently with optional project attachment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		format, err := pbFlags.reportFormat()
		if err != nil {
			return err
		}
		lopt, err := pbFlags.loaderOptions()
		if err != nil {
			return err
		}
		popt, err := pbFlags.profileOptions(cmd)
		if err != nil {
			return err
		}

		var p *project.Project
		if pbFlags.project != "" {
			if p, err = openProject(pbFlags.project); err != nil {
				return err
			}
		}

		jobs := pbJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		results := make([]batchResult, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				t, err := loadSource(ctx, path, lopt, pbFlags.noCache)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				s, err := profile.Profile(t, popt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				logger.Debug("profiled", zap.String("source", path), zap.Int("rows", s.Rows))
				results[i] = batchResult{source: path, table: t, summary: s}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		total := len(results)
		for i, r := range results {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, total, r.source)
			}
			if pbFlags.chartsDir != "" {
				dir := filepath.Join(pbFlags.chartsDir, outputBase(r.source, i))
				if err := writeCharts(out, dir, r.summary, r.table); err != nil {
					return err
				}
			}
			written := false
			if pbOutDir != "" {
				path := filepath.Join(pbOutDir, outputBase(r.source, i)+"."+extFor(format))
				if err := writeReport(path, r.summary, format); err != nil {
					return err
				}
				if !pbQuiet {
					printOK(out, "Wrote profile to %s", path)
				}
				written = true
			}
			if p != nil {
				d, err := p.AddDataset(r.source, pbFlags.description, r.summary)
				if err != nil {
					return err
				}
				if !pbQuiet {
					printOK(out, "Added profile to project '%s' as %s", p.Name, d.ID)
				}
				written = true
			}
			if !written && !pbQuiet {
				if err := printReport(out, r.summary, format); err != nil {
					return err
				}
			}
		}
		if p != nil {
			return p.Save()
		}
		return nil
	},
}

// expandInputs resolves globs, keeping argument order and dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files
}

// outputBase names per-file outputs; the index keeps same-named files from different directories apart.
func outputBase(path string, i int) string {
	base := filepath.Base(path)
	return fmt.Sprintf("%02d_%s", i+1, strings.TrimSuffix(base, filepath.Ext(base)))
}

func extFor(format report.Format) string {
	switch format {
	case report.FormatJSON, report.FormatHTML:
		return string(format)
	default:
		return "md"
	}
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	pbFlags.register(profileBatchCmd, true)
	profileBatchCmd.Flags().IntVarP(&pbJobs, "jobs", "j", 0, "files profiled in parallel (default: number of CPUs)")
	profileBatchCmd.Flags().StringVar(&pbOutDir, "out-dir", "", "directory to write one report per input")
	profileBatchCmd.Flags().BoolVarP(&pbQuiet, "quiet", "q", false, "suppress progress and report output")
}
