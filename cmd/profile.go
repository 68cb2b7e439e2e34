package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsight-cli/internal/charts"
	"github.com/KaramelBytes/tabsight-cli/internal/loader"
	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/project"
	"github.com/KaramelBytes/tabsight-cli/internal/report"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
	"github.com/KaramelBytes/tabsight-cli/internal/utils"
)

var (
	pfFlags    profileFlags
	pfOutput   string
	pfDSN      string
	pfQuery    string
	pfSQLLabel string
)

var profileCmd = &cobra.Command{
	Use:   "profile [file|url]",
	Short: "Profile a CSV/TSV/XLSX file, URL or SQL query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := pfFlags.reportFormat()
		if err != nil {
			return err
		}
		lopt, err := pfFlags.loaderOptions()
		if err != nil {
			return err
		}
		popt, err := pfFlags.profileOptions(cmd)
		if err != nil {
			return err
		}

		var (
			t      *table.Table
			source string
		)
		switch {
		case pfDSN != "":
			if pfQuery == "" {
				return fmt.Errorf("--query is required with --dsn")
			}
			if len(args) > 0 {
				return fmt.Errorf("pass either a file/url or --dsn, not both")
			}
			source = pfSQLLabel
			t, err = loadQuery(cmd.Context(), pfDSN, pfQuery, source, lopt)
		case len(args) == 1:
			source = args[0]
			t, err = loadSource(cmd.Context(), source, lopt, pfFlags.noCache)
		default:
			return fmt.Errorf("a file, url or --dsn/--query is required")
		}
		if err != nil {
			return err
		}

		s, err := profile.Profile(t, popt)
		if err != nil {
			return err
		}
		logger.Debug("profiled", zap.String("source", source), zap.Int("rows", s.Rows), zap.Int("cols", s.Cols))
		out := cmd.OutOrStdout()

		if pfFlags.chartsDir != "" {
			if err := writeCharts(out, pfFlags.chartsDir, s, t); err != nil {
				return err
			}
		}

		written := false
		if pfOutput != "" {
			if err := writeReport(pfOutput, s, format); err != nil {
				return err
			}
			printOK(out, "Wrote profile to %s", pfOutput)
			written = true
		}
		if pfFlags.project != "" {
			p, err := openProject(pfFlags.project)
			if err != nil {
				return err
			}
			d, err := p.AddDataset(source, pfFlags.description, s)
			if err != nil {
				return err
			}
			if err := p.Save(); err != nil {
				return err
			}
			printOK(out, "Added profile to project '%s' as %s", p.Name, d.ID)
			written = true
		}
		if !written {
			return printReport(out, s, format)
		}
		return nil
	},
}

// loadSource reads a local file or, for http(s) sources, fetches it through the cache.
func loadSource(ctx context.Context, src string, opt loader.Options, noCache bool) (*table.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if loader.IsURL(src) {
		f, err := newFetcher(noCache)
		if err != nil {
			return nil, err
		}
		return f.Load(ctx, src, opt)
	}
	t, err := loader.LoadFile(src, opt)
	if errors.Is(err, loader.ErrUnsupported) {
		return nil, fmt.Errorf("%w (supported: .csv, .tsv, .txt, .xlsx)", err)
	}
	return t, err
}

func loadQuery(ctx context.Context, dsn, query, name string, opt loader.Options) (*table.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := loader.OpenSQL(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return loader.LoadSQL(ctx, db, name, query, opt)
}

func printReport(w io.Writer, s *profile.Summary, format report.Format) error {
	if format == report.FormatTerminal {
		report.Terminal(w, s)
		return nil
	}
	b, err := report.Render(s, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeReport(path string, s *profile.Summary, format report.Format) error {
	var b []byte
	if format == report.FormatTerminal {
		// Files get plain Markdown instead of terminal tables.
		b = []byte(report.Markdown(s))
	} else {
		rb, err := report.Render(s, format)
		if err != nil {
			return err
		}
		b = rb
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeCharts(w io.Writer, dir string, s *profile.Summary, t *table.Table) error {
	if !s.HasNumericData {
		fmt.Fprintln(w, "ℹ No numeric columns; charts skipped")
		return nil
	}
	paths, err := charts.WriteAll(dir, s, t)
	if err != nil {
		return fmt.Errorf("write charts: %w", err)
	}
	printOK(w, "Wrote %d charts to %s", len(paths), dir)
	return nil
}

func openProject(name string) (*project.Project, error) {
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}

func init() {
	rootCmd.AddCommand(profileCmd)
	pfFlags.register(profileCmd, true)
	profileCmd.Flags().StringVarP(&pfOutput, "output", "o", "", "optional path to write the report")
	profileCmd.Flags().StringVar(&pfDSN, "dsn", "", "Postgres DSN to profile a query result instead of a file")
	profileCmd.Flags().StringVar(&pfQuery, "query", "", "SQL query to run with --dsn")
	profileCmd.Flags().StringVar(&pfSQLLabel, "name", "query", "dataset name for --dsn results")
}
