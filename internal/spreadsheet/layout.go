package spreadsheet

// Column maps one spreadsheet header to a CSV column.
type Column struct {
	Header string `yaml:"header"`
	Name   string `yaml:"name"`
	// Scale divides the cell value, e.g. 100 for cents.
	Scale float64 `yaml:"scale,omitempty"`
	// Period "year" converts an annual amount to a monthly one.
	Period string `yaml:"period,omitempty"`
	// Type "bool" turns 0/1 cells into False/True.
	Type string `yaml:"type,omitempty"`
}

// Layout describes where the test vectors sit in the workbook.
type Layout struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet string `yaml:"sheet"`
	// HeaderRow is 1-based.
	HeaderRow int      `yaml:"header_row"`
	Columns   []Column `yaml:"columns"`
	// Defaults fills CSV columns that the sheet does not provide.
	Defaults map[string]string `yaml:"defaults"`
}

// DefaultLayout matches the tax authority's wage tax test tables, which
// state amounts in cents per year.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow: 1,
		Columns: []Column{
			{Header: "STKL", Name: "steuerklasse"},
			{Header: "RE4", Name: "bruttolohn_m", Scale: 100, Period: "year"},
			{Header: "ZKF", Name: "kinderfreibeträge"},
			{Header: "KVZ", Name: "ges_krankenv_zusatzbeitr_satz"},
			{Header: "PVZ", Name: "ges_pflegev_zusatz_kinderlos", Type: "bool"},
			{Header: "LSTLZZ", Name: "lohnst_m", Scale: 100, Period: "year"},
			{Header: "SOLZLZZ", Name: "soli_st_lohnst_m", Scale: 100, Period: "year"},
		},
		Defaults: map[string]string{
			"alter":                         "30",
			"wohnort_ost":                   "False",
			"arbeitsstunden_w":              "40",
			"in_ausbildung":                 "False",
			"regulär_beschäftigt":           "True",
			"ges_krankenv_zusatzbeitr_satz": "2.5",
			"ges_pflegev_zusatz_kinderlos":  "False",
		},
	}
}
