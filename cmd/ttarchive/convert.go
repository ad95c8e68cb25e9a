package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"gettsimarchive/internal/csvconv"
	"gettsimarchive/internal/spreadsheet"
)

var (
	xlsxYear int
	xlsxName string
	xlsxOut  string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert test tables into fixtures",
}

var convertXLSXCmd = &cobra.Command{
	Use:   "xlsx <file.xlsx>",
	Short: "Convert a tax-authority workbook into a test CSV",
	Long: `Reads the test vectors of one workbook sheet, maps the authority's
column headers to test columns and writes <out>/<name>.csv, ready for
"convert csv".`,
	Args: cobra.ExactArgs(1),
	RunE: runConvertXLSX,
}

var convertCSVCmd = &cobra.Command{
	Use:   "csv [files...]",
	Short: "Convert CSV test tables into YAML fixtures",
	Long: `Converts each CSV into one fixture per tax year and household:

  <test_data_dir>/<name>/<year>/hh_id_<id>.yaml

Without arguments, every CSV in the test data directory and its
original_testfaelle subdirectory is converted.`,
	RunE: runConvertCSV,
}

func init() {
	convertXLSXCmd.Flags().IntVar(&xlsxYear, "year", 0, "Tax year of the test vectors (default: convert.year)")
	convertXLSXCmd.Flags().StringVar(&xlsxName, "name", "lohnst", "Test name, used as the CSV file stem")
	convertXLSXCmd.Flags().StringVar(&xlsxOut, "out", "", "Output directory (default: convert.test_data_dir)")

	convertCmd.AddCommand(convertXLSXCmd)
	convertCmd.AddCommand(convertCSVCmd)
}

func runConvertXLSX(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	opts := spreadsheet.Options{
		Year:   xlsxYear,
		Name:   xlsxName,
		OutDir: xlsxOut,
		Layout: c.Convert.Sheet,
	}
	if opts.Year == 0 {
		opts.Year = c.Convert.Year
	}
	if opts.OutDir == "" {
		opts.OutDir = c.Convert.TestDataDir
	}
	path, err := spreadsheet.Convert(args[0], opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConvertCSV(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = csvconv.ListCSV(c.Convert.TestDataDir, filepath.Join(c.Convert.TestDataDir, "original_testfaelle"))
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No CSV files found in %s\n", c.Convert.TestDataDir)
		return nil
	}

	out := cmd.OutOrStdout()
	conv := c.Converter()
	conv.Progress = out
	written, err := conv.ConvertAll(paths)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Converted %d CSV files into %d fixtures\n", len(paths), len(written))
	return nil
}
