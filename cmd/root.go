package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/tabsight-cli/internal/config"
	"github.com/KaramelBytes/tabsight-cli/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
	// HTTP flag (overrides config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Process logger; replaced in loadConfig.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tabsight",
	Short: "tabsight CLI: profile tabular datasets into summaries, insights and charts",
	Long: `tabsight profiles CSV, TSV, XLSX, remote and SQL datasets: schema and missing values,
descriptive statistics, correlations, group rates and rule-based insights, rendered as
Markdown, JSON, HTML or terminal tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabsight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	} else {
		cfg = c
	}

	f := rootCmd.PersistentFlags()
	if cfg != nil && f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}

	level := ""
	if cfg != nil {
		level = cfg.LogLevel
	}
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	l, err := logging.New(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		return
	}
	logger = l
}

// settings returns the loaded configuration or the built-in defaults.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{
		CacheTTLMin:    60,
		TopK:           2,
		Bins:           30,
		MaxRows:        100000,
		Format:         "md",
		HTTPTimeoutSec: 60,
		LogLevel:       "warn",
		ServeAddr:      ":8080",
		MaxUploadMB:    32,
	}
}

var okColor = color.New(color.FgGreen)

// printOK writes a ✓ status line, green on terminals.
func printOK(w io.Writer, format string, a ...any) {
	_, _ = okColor.Fprintf(w, "✓ "+format+"\n", a...)
}
