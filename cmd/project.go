package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	pmProject string
	pmOutput  string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage datasets stored in a project",
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <dataset-id>",
	Short: "Remove a dataset and its reports from a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := openProject(pmProject)
		if err != nil {
			return err
		}
		if err := p.RemoveDataset(args[0]); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "Removed dataset %s from %s", args[0], p.Name)
		return nil
	},
}

var projectBundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Concatenate every dataset report of a project into one Markdown document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := openProject(pmProject)
		if err != nil {
			return err
		}
		doc, err := p.Bundle()
		if err != nil {
			return err
		}
		if pmOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), doc)
			return nil
		}
		if err := os.WriteFile(pmOutput, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		printOK(cmd.OutOrStdout(), "Wrote bundle to %s", pmOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectRemoveCmd)
	projectCmd.AddCommand(projectBundleCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectBundleCmd.Flags().StringVarP(&pmOutput, "output", "o", "", "optional path to write the bundle")
}
