package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gettsimarchive/internal/bench"
	"gettsimarchive/internal/blob"
	"gettsimarchive/internal/gitinfo"
	"gettsimarchive/internal/history"
	"gettsimarchive/internal/household"
	"gettsimarchive/internal/logging"
	"gettsimarchive/internal/metrics"
	"gettsimarchive/internal/report"
)

var (
	benchScramble bool
	benchWorkers  int

	// bench make-data
	makeDataCSV string

	// bench run
	runSizes       []int
	runBackends    []string
	runOutDir      string
	runMetricsFile string
	runNoArchive   bool

	// bench profile
	profileHouseholds int
	profileBackend    string
	profileCPU        string
	profileMem        string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the policy engine",
}

var makeDataCmd = &cobra.Command{
	Use:   "make-data",
	Short: "Generate the synthetic benchmark datasets and report their cost",
	Args:  cobra.NoArgs,
	RunE:  runMakeData,
}

var benchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark sweep over backends and household sizes",
	Long: `Runs the three benchmark stages (preprocessing, computation, formatting)
for every backend and household size, prints comparison tables and saves
benchmark_results_<timestamp>_<sorted|scrambled>.json.

The result file is then archived to the blob store and recorded in the
history database unless --no-archive is given.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile a single benchmark configuration",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

func init() {
	benchCmd.PersistentFlags().BoolVar(&benchScramble, "scramble", false, "Permute the rows so p_id is unsorted")
	benchCmd.PersistentFlags().IntVar(&benchWorkers, "workers", 0, "Parallel backend workers (default: bench.workers, 0 = GOMAXPROCS)")

	makeDataCmd.Flags().StringVar(&makeDataCSV, "csv", "", "Also write each dataset as CSV into this directory")

	benchRunCmd.Flags().IntSliceVar(&runSizes, "sizes", nil, "Household sizes (default: bench.household_sizes)")
	benchRunCmd.Flags().StringSliceVar(&runBackends, "backends", nil, "Backends (default: bench.backends)")
	benchRunCmd.Flags().StringVar(&runOutDir, "out", "", "Directory for the result file (default: bench.output_dir)")
	benchRunCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Also write Prometheus textfile metrics here")
	benchRunCmd.Flags().BoolVar(&runNoArchive, "no-archive", false, "Skip the blob archive and history database")

	profileCmd.Flags().IntVarP(&profileHouseholds, "households", "N", bench.DefaultProfileSize, "Number of households")
	profileCmd.Flags().StringVarP(&profileBackend, "backend", "b", "serial", "Backend: serial or parallel")
	profileCmd.Flags().StringVar(&profileCPU, "cpuprofile", "", "Write a CPU profile to this file")
	profileCmd.Flags().StringVar(&profileMem, "memprofile", "", "Write a heap profile to this file")

	benchCmd.AddCommand(makeDataCmd)
	benchCmd.AddCommand(benchRunCmd)
	benchCmd.AddCommand(profileCmd)
	benchCmd.AddCommand(compareCmd)
	benchCmd.AddCommand(historyCmd)
	benchCmd.AddCommand(archiveCmd)
	benchCmd.AddCommand(fetchCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func workers() int {
	if benchWorkers > 0 {
		return benchWorkers
	}
	return currentConfig().Bench.Workers
}

func runMakeData(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	sizes := currentConfig().Bench.HouseholdSizes
	if makeDataCSV != "" {
		if err := os.MkdirAll(makeDataCSV, 0755); err != nil {
			return fmt.Errorf("failed to create csv directory: %w", err)
		}
	}

	t := report.NewTable("DATASET CREATION SUMMARY", "Households", "People", "Time (s)", "Memory (MB)", "Households/s")
	for _, n := range sizes {
		fmt.Fprintf(out, "Creating dataset with %s households...\n", report.Thousands(n))
		start := time.Now()
		data := household.Make(n, benchScramble)
		elapsed := time.Since(start).Seconds()
		mb := float64(data.SizeBytes()) / (1024 * 1024)

		rate := "N/A"
		if elapsed > 0 {
			rate = report.Thousands(int(float64(n) / elapsed))
		}
		t.AddRow(report.Thousands(n), report.Thousands(data.Len()), report.Seconds(&elapsed), report.MB(&mb), rate)

		if makeDataCSV != "" {
			path := filepath.Join(makeDataCSV, fmt.Sprintf("households_%d.csv", n))
			if err := writeFrame(path, data); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, t.Render(report.ForWriter(out)))
	return nil
}

func writeFrame(path string, data *household.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	if err := data.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return f.Close()
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c := currentConfig()
	out := cmd.OutOrStdout()
	suite := &bench.Suite{
		Sizes:          runSizes,
		Backends:       runBackends,
		Workers:        workers(),
		Scramble:       benchScramble,
		PolicyDate:     c.GetPolicyDate(),
		SampleInterval: c.GetSampleInterval(),
		Git:            gitinfo.Current(ctx, "."),
		Out:            out,
	}
	if len(suite.Sizes) == 0 {
		suite.Sizes = c.Bench.HouseholdSizes
	}
	if len(suite.Backends) == 0 {
		suite.Backends = c.Bench.Backends
	}

	rf, runErr := suite.Run(ctx)
	if rf == nil {
		return runErr
	}

	dir := runOutDir
	if dir == "" {
		dir = c.Bench.OutputDir
	}
	path, err := bench.Save(dir, rf)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	bench.WriteSummary(out, rf, report.ForWriter(out))

	if runMetricsFile != "" {
		if err := metrics.WriteTextfile(runMetricsFile, rf); err != nil {
			return err
		}
		fmt.Fprintf(out, "Metrics written to: %s\n", runMetricsFile)
	}
	if !runNoArchive {
		// The result file is already on disk; archive problems are not fatal.
		log := logging.Get(logging.CategoryStore)
		if key, err := archiveFile(ctx, path); err != nil {
			log.Warnw("failed to archive results", "path", path, "error", err)
		} else {
			fmt.Fprintf(out, "Archived as: %s\n", key)
		}
		if runID, err := recordHistory(ctx, rf); err != nil {
			log.Warnw("failed to record history", "path", path, "error", err)
		} else {
			fmt.Fprintf(out, "Recorded run: %s\n", runID)
		}
	}
	return runErr
}

func openStore(ctx context.Context) (blob.Store, error) {
	return blob.Open(ctx, currentConfig().BlobOptions())
}

func archiveFile(ctx context.Context, path string) (string, error) {
	store, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := store.Put(ctx, blob.Key(path), f)
	if err != nil {
		return "", err
	}
	logging.Get(logging.CategoryStore).Infow("archived result file", "key", info.Key, "size", info.Size, "driver", store.Driver())
	return info.Key, nil
}

func recordHistory(ctx context.Context, rf *bench.ResultFile) (string, error) {
	db, err := history.Open(currentConfig().Results.HistoryDB)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.Record(ctx, rf)
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c := currentConfig()
	_, err := bench.Profile(ctx, bench.ProfileConfig{
		RunConfig: bench.RunConfig{
			Households:     profileHouseholds,
			Backend:        profileBackend,
			Workers:        workers(),
			Scramble:       benchScramble,
			PolicyDate:     c.GetPolicyDate(),
			SampleInterval: c.GetSampleInterval(),
		},
		CPUProfile: profileCPU,
		MemProfile: profileMem,
	}, cmd.OutOrStdout())
	return err
}

// copyTo writes r to path, creating parent directories.
func copyTo(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
