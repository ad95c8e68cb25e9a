package main

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/blob"
	"gettsimarchive/internal/compare"
	"gettsimarchive/internal/history"
	"gettsimarchive/internal/report"
)

var (
	compareSave   bool
	compareStrict bool
	historyLimit  int
	fetchOut      string
)

var compareCmd = &cobra.Command{
	Use:   "compare <main.json> <pr.json>",
	Short: "Compare the results of two branches",
	Long: `Compares two result files stage by stage: speedups of the PR over main
and whether the stage hashes match. With --strict a hash mismatch makes
the command fail.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recorded benchmark runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var archiveCmd = &cobra.Command{
	Use:   "archive [file]",
	Short: "Archive a result file, or list archived ones",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runArchive,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <key>",
	Short: "Download an archived result file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	compareCmd.Flags().BoolVar(&compareSave, "save-comparison", false, "Save the report as benchmark_comparison_<timestamp>.txt")
	compareCmd.Flags().BoolVar(&compareStrict, "strict", false, "Fail when any stage hash differs")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "Output path (default: the key's file name)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	mainRF, err := bench.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load main results: %w", err)
	}
	pr, err := bench.Load(args[1])
	if err != nil {
		return fmt.Errorf("failed to load PR results: %w", err)
	}
	rep, err := compare.Compare(mainRF, pr)
	if err != nil {
		return err
	}
	rep.Write(out, report.ForWriter(out))

	if compareSave {
		saved, err := rep.Save(currentConfig().Bench.OutputDir, time.Now(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nComparison saved to: %s\n", saved)
	}
	if n := rep.Mismatches(); compareStrict && n > 0 {
		return fmt.Errorf("%d stage hash mismatches between main and PR", n)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := history.Open(currentConfig().Results.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()
	entries, err := db.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No benchmark runs recorded yet")
		return nil
	}
	fmt.Fprintln(out, history.Table(entries).Render(report.ForWriter(out)))
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		key, err := archiveFile(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Archived %s as %s\n", args[0], key)
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	infos, err := store.List(ctx, blob.ResultsPrefix)
	if err != nil {
		return err
	}
	t := report.NewTable("ARCHIVED RESULTS ("+string(store.Driver())+")", "Key", "Size (bytes)", "Modified")
	for _, info := range infos {
		t.AddRow(info.Key, report.Thousands(int(info.Size)), info.LastModified.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out, t.Render(report.ForWriter(out)))
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	rc, _, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	defer rc.Close()

	dst := fetchOut
	if dst == "" {
		dst = path.Base(args[0])
	}
	n, err := copyTo(dst, rc)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %s to %s (%d bytes)\n", args[0], dst, n)
	return nil
}
