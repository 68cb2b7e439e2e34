package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsight-cli/internal/report"
	"github.com/KaramelBytes/tabsight-cli/internal/server"
)

var (
	srvFlags profileFlags
	srvAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve profiling over HTTP (POST /profile, GET /profile?url=)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := c.ServeAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		lopt, err := srvFlags.loaderOptions()
		if err != nil {
			return err
		}
		popt, err := srvFlags.profileOptions(cmd)
		if err != nil {
			return err
		}
		fetcher, err := newFetcher(srvFlags.noCache)
		if err != nil {
			return err
		}
		format, err := srvFlags.reportFormat()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("format") {
			format = report.FormatJSON
		}
		s := server.New(fetcher, server.Options{
			Load:           lopt,
			Profile:        popt,
			Format:         format,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		printOK(cmd.OutOrStdout(), "Listening on %s", addr)
		return s.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvFlags.register(serveCmd, false)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config serve_addr)")
}
