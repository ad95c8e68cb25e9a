package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gettsimarchive/internal/fixture"
)

var (
	fixturesRoot   string
	fixturesDryRun bool
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Rewrite the YAML fixture tree",
}

var fixturesTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Convert flat qualified names into nested trees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewriteFixtures(cmd, fixture.ToTree)
	},
}

var fixturesRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a variable in every fixture",
	Long: `Renames a qualified variable in the provided, assumed and output sections
of every fixture. Names may use "__" separators, e.g.

  ttarchive fixtures rename einkommensteuer__betrag_y_sn einkommensteuer__betrag_m_sn`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewriteFixtures(cmd, fixture.RenameVariable(args[0], args[1]))
	},
}

func init() {
	fixturesCmd.PersistentFlags().StringVar(&fixturesRoot, "root", "", "Fixture root (default: convert.test_data_dir)")
	fixturesCmd.PersistentFlags().BoolVar(&fixturesDryRun, "dry-run", false, "Print diffs instead of writing files")

	fixturesCmd.AddCommand(fixturesTreeCmd)
	fixturesCmd.AddCommand(fixturesRenameCmd)
}

func rewriteFixtures(cmd *cobra.Command, op fixture.Operation) error {
	root := fixturesRoot
	if root == "" {
		root = currentConfig().Convert.TestDataDir
	}
	out := cmd.OutOrStdout()
	changed, err := fixture.RewriteAll(root, op, fixture.RewriteOptions{DryRun: fixturesDryRun, Out: out})
	if err != nil {
		return err
	}
	if fixturesDryRun {
		fmt.Fprintf(out, "%d fixtures would change (dry run)\n", changed)
		return nil
	}
	fmt.Fprintf(out, "%d fixtures changed\n", changed)
	return nil
}
