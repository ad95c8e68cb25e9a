package spreadsheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gettsimarchive/internal/csvconv"
	"gettsimarchive/internal/fixture"
)

func writeWorkbook(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(dir, "lohnsteuer.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

var bmfRows = [][]interface{}{
	{"STKL", "RE4", "ZKF", "KVZ", "PVZ", "LSTLZZ", "SOLZLZZ"},
	{4, 6000000, 1, 2.5, 0, 1057800, 0},
	{},
	{1, 4000000, 0, 1.7, 1, 600000, 0},
}

func TestTransform(t *testing.T) {
	rows := [][]string{
		{"STKL", "RE4", "EXTRA"},
		{"3", "1200000", "x"},
	}
	opts := Options{Year: 2025, Name: "lohnst", Layout: DefaultLayout()}
	out, err := Transform(rows, opts)
	require.NoError(t, err)
	require.Len(t, out, 2)

	header := out[0]
	assert.Equal(t, []string{"", "hh_id", "tu_id", "p_id", "jahr", "steuerklasse", "bruttolohn_m", "EXTRA"}, header[:8])
	assert.Equal(t, "hat_kinder", header[len(header)-1])

	rec := out[1]
	assert.Equal(t, "2025", rec[4])
	assert.Equal(t, "3", rec[5])
	assert.Equal(t, "1000", rec[6], "cents per year become euros per month")
	assert.Equal(t, "x", rec[7])
	assert.Equal(t, "False", rec[len(rec)-1])
}

func TestTransformDecimalCommaAndIDColumns(t *testing.T) {
	rows := [][]string{
		{"hh_id", "STKL", "ZKF", "KVZ", "jahr", "BEMERKUNG"},
		{"7", "1", "0,5", "1,7", "2020", "a,b"},
	}
	opts := Options{Year: 2025, Name: "lohnst", Layout: DefaultLayout()}
	out, err := Transform(rows, opts)
	require.NoError(t, err)
	require.Len(t, out, 2)

	header, rec := out[0], out[1]
	require.Len(t, rec, len(header))
	assert.Equal(t, []string{"", "hh_id", "tu_id", "p_id", "jahr", "steuerklasse", "kinderfreibeträge", "ges_krankenv_zusatzbeitr_satz", "BEMERKUNG"}, header[:9])
	for _, id := range []string{"hh_id", "jahr"} {
		n := 0
		for _, h := range header {
			if h == id {
				n++
			}
		}
		assert.Equal(t, 1, n, id)
	}

	assert.Equal(t, "0", rec[1])
	assert.Equal(t, "2025", rec[4])
	assert.Equal(t, "0.5", rec[6])
	assert.Equal(t, "1.7", rec[7])
	assert.Equal(t, "a,b", rec[8], "text keeps its commas")
	assert.Equal(t, "hat_kinder", header[len(header)-1])
	assert.Equal(t, "True", rec[len(rec)-1], "half a child allowance counts")
}

func TestTransformErrors(t *testing.T) {
	opts := Options{Year: 2025, Name: "lohnst", Layout: DefaultLayout()}

	_, err := Transform([][]string{{"", ""}}, opts)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Transform([][]string{{"RE4"}, {"viel"}}, opts)
	assert.ErrorContains(t, err, "not a number")

	opts.Year = 1999
	assert.Error(t, opts.Validate())
}

func TestConvertMissingSheet(t *testing.T) {
	path := writeWorkbook(t, t.TempDir(), bmfRows)
	layout := DefaultLayout()
	layout.Sheet = "Tabelle9"
	_, err := Convert(path, Options{Year: 2025, Name: "lohnst", OutDir: t.TempDir(), Layout: layout})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

// A workbook converted to CSV and then to fixtures keeps every test value.
func TestWorkbookToFixtures(t *testing.T) {
	dir := t.TempDir()
	book := writeWorkbook(t, dir, bmfRows)
	csvDir := filepath.Join(dir, "csv")

	csvPath, err := Convert(book, Options{Year: 2025, Name: "lohnst", OutDir: csvDir, Layout: DefaultLayout()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(csvDir, "lohnst.csv"), csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"), "blank sheet rows are dropped")

	fixtures := filepath.Join(dir, "test_data")
	paths, err := csvconv.NewConverter(fixtures).ConvertFile(csvPath)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	f, err := fixture.Load(filepath.Join(fixtures, "lohnst", "2025", "hh_id_0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []any{4}, f.Provided["steuerklasse"])
	assert.Equal(t, []any{5000.0}, f.Provided["bruttolohn_m"])
	assert.Equal(t, []any{true}, f.Provided["hat_kinder"])
	assert.Equal(t, []any{false}, f.Provided["ges_pflegev_zusatz_kinderlos"])
	assert.Equal(t, []any{881.5}, f.Outputs["lohnst_m"])

	f, err = fixture.Load(filepath.Join(fixtures, "lohnst", "2025", "hh_id_1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []any{500.0}, f.Outputs["lohnst_m"])
	assert.Equal(t, []any{true}, f.Provided["ges_pflegev_zusatz_kinderlos"])
	assert.Equal(t, []any{false}, f.Provided["hat_kinder"])
}
