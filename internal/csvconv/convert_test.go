package csvconv

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gettsimarchive/internal/fixture"
)

const lohnstCSV = `,hh_id,tu_id,p_id,jahr,wohnort_ost,steuerklasse,bruttolohn_m,alter,hat_kinder,arbeitsstunden_w,in_ausbildung,ges_krankenv_zusatzbeitr_satz,ges_pflegev_zusatz_kinderlos,regulär_beschäftigt,lohnst_m,soli_st_lohnst_m,note,Source
0,2,2,2,2025,False,1,4000,30,False,40,False,2.5,True,True,591.08,0,Ledig,BMF
1,1,1,1,2025,False,4,5000,30,True,40,False,2.5,False,True,881.5,,Zweiverdiener,BMF
2,1,1,3,2025,False,4,4000,30,True,40,False,2.5,False,True,591.08,,,
3,1,1,1,2024,True,3,5000.5,31,True,38,False,1.7,False,True,702,12.5,,Quelle
`

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadTableTypesColumns(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(lohnstCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, "index", tbl.Header[0])
	assert.Equal(t, []any{2, 1, 1, 1}, tbl.Columns["hh_id"])
	assert.Equal(t, []any{false, false, false, true}, tbl.Columns["wohnort_ost"])
	assert.Equal(t, []any{4000.0, 5000.0, 4000.0, 5000.5}, tbl.Columns["bruttolohn_m"], "ints promote to float")
	assert.Equal(t, []any{0.0, nil, nil, 12.5}, tbl.Columns["soli_st_lohnst_m"])
	assert.Equal(t, []any{"Ledig", "Zweiverdiener", nil, nil}, tbl.Columns["note"])
}

func TestReadTableMissingValues(t *testing.T) {
	csv := "p_id,betrag_m,note\n1,NaN,None\n2,NA,null\n3,N/A,x\n4,12.5,\n5,null,NULL\n"
	tbl, err := ReadTable(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil, nil, 12.5, nil}, tbl.Columns["betrag_m"])
	assert.Equal(t, []any{nil, nil, "x", nil, nil}, tbl.Columns["note"])
}

func TestReadTableDuplicateHeader(t *testing.T) {
	_, err := ReadTable(strings.NewReader("p_id,lohnst_m,lohnst_m\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrDuplicateHeader)
	assert.ErrorContains(t, err, `"lohnst_m"`)
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestBuildGroupsByYearAndHousehold(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(lohnstCSV))
	require.NoError(t, err)

	cases, err := NewConverter("out").Build("lohnst", tbl)
	require.NoError(t, err)
	require.Len(t, cases, 3)

	assert.Equal(t, "2024", cases[0].Year)
	assert.Equal(t, "hh_id_1", cases[0].Key)
	assert.Equal(t, "2025", cases[1].Year)
	assert.Equal(t, "hh_id_1", cases[1].Key)
	assert.Equal(t, "hh_id_2", cases[2].Key)

	hh1 := cases[1].Fixture
	assert.Equal(t, []any{1, 3}, hh1.Provided["p_id"])
	assert.Equal(t, []any{881.5, 591.08}, hh1.Outputs["lohnst_m"])
	assert.Equal(t, "Zweiverdiener", hh1.Info.Note)
	assert.Equal(t, "BMF", hh1.Info.Source)
	assert.Equal(t, DefaultRoles()["lohnst"].Provided, hh1.Order[fixture.SectionProvided])
	assert.Empty(t, hh1.Assumed)

	assert.Equal(t, filepath.Join("out", "lohnst", "2024", "hh_id_1.yaml"), cases[0].Path("out", "lohnst"))
}

func TestBuildWithoutYearOrHousehold(t *testing.T) {
	csv := ",x,y\n0,1,2\n1,3,4\n"
	tbl, err := ReadTable(strings.NewReader(csv))
	require.NoError(t, err)

	c := NewConverter("out")
	c.Roles["pair"] = Roles{Provided: []string{"x"}, Outputs: []string{"y"}}
	cases, err := c.Build("pair", tbl)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, unknownHousehold, cases[0].Key)
	assert.Equal(t, filepath.Join("out", "pair", "hh_id_unknown.yaml"), cases[0].Path("out", "pair"))
	assert.Equal(t, []any{1, 3}, cases[0].Fixture.Provided["x"])
}

func TestBuildMissingRoleColumn(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(",hh_id,p_id\n0,1,1\n"))
	require.NoError(t, err)
	_, err = NewConverter("out").Build("lohnst", tbl)
	assert.ErrorContains(t, err, "missing column")
}

func TestConvertFileWritesLoadableFixtures(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "lohnst.csv", lohnstCSV)
	out := filepath.Join(dir, "test_data")

	var progress bytes.Buffer
	c := NewConverter(out)
	c.Progress = &progress
	paths, err := c.ConvertFile(src)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Contains(t, progress.String(), "Writing to "+filepath.Join(out, "lohnst", "2025", "hh_id_2.yaml"))

	f, err := fixture.Load(filepath.Join(out, "lohnst", "2025", "hh_id_1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []any{5000.0, 4000.0}, f.Provided["bruttolohn_m"])
	assert.Equal(t, []any{nil, nil}, f.Outputs["soli_st_lohnst_m"])
	assert.Equal(t, "regulär_beschäftigt", f.Order[fixture.SectionProvided][12])
}

func TestListCSV(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeCSV(t, a, "z.csv", "x\n")
	writeCSV(t, a, "a.csv", "x\n")
	writeCSV(t, b, "orig.csv", "x\n")
	writeCSV(t, b, "notes.txt", "x\n")

	files, err := ListCSV(a, "", b, filepath.Join(a, "missing"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(a, "a.csv"),
		filepath.Join(a, "z.csv"),
		filepath.Join(b, "orig.csv"),
	}, files)
}
