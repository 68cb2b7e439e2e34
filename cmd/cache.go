package cmd

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the remote source cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached sources, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		entries, err := c.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "(cache is empty)")
			return nil
		}
		tw := tablewriter.NewWriter(out)
		tw.SetHeader([]string{"Source", "Bytes", "Fetched", "SHA-1"})
		tw.SetAutoWrapText(false)
		for _, e := range entries {
			tw.Append([]string{e.Key, fmt.Sprint(e.Size), e.FetchedAt.Local().Format(time.DateTime), e.Hash[:min(12, len(e.Hash))]})
		}
		tw.Render()
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "Remove one cached source, or everything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if err := c.Invalidate(args[0]); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Removed %s from cache", args[0])
			return nil
		}
		if err := c.Clear(); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Cleared cache at %s", c.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
