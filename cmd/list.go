package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	listProjects bool
	listDatasets bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --datasets")
		}
		out := cmd.OutOrStdout()
		if listProjects {
			return listAllProjects(out)
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --datasets")
		}
		p, err := openProject(listProjName)
		if err != nil {
			return err
		}
		if len(p.Datasets) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		for _, d := range p.SortedDatasets() {
			desc := ""
			if d.Description != "" {
				desc = " - " + d.Description
			}
			fmt.Fprintf(out, "- %s: %s (%d rows x %d cols)%s\n", d.ID, d.Name, d.Rows, d.Cols, desc)
		}
		return nil
	},
}

func listAllProjects(out io.Writer) error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		pj := filepath.Join(root, e.Name(), "project.json")
		if _, err := os.Stat(pj); err == nil {
			fmt.Fprintf(out, "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(out, "(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --datasets")
}
