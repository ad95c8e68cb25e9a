package csvconv

// Roles assigns the columns of a CSV test table to fixture sections.
type Roles struct {
	Provided []string `yaml:"in_provided"`
	Assumed  []string `yaml:"in_assumed"`
	Outputs  []string `yaml:"out"`
}

// DefaultRoles returns the role table for the known test names.
func DefaultRoles() map[string]Roles {
	return map[string]Roles{
		"lohnst": {
			Provided: []string{
				"hh_id",
				"tu_id",
				"p_id",
				"wohnort_ost",
				"steuerklasse",
				"bruttolohn_m",
				"alter",
				"hat_kinder",
				"arbeitsstunden_w",
				"in_ausbildung",
				"ges_krankenv_zusatzbeitr_satz",
				"ges_pflegev_zusatz_kinderlos",
				"regulär_beschäftigt",
			},
			Assumed: []string{},
			Outputs: []string{
				"lohnst_m",
				"soli_st_lohnst_m",
			},
		},
	}
}

// DefaultNoteColumns lists the column headers whose text goes into info.note.
func DefaultNoteColumns() []string {
	return []string{
		"note",
		"Note",
		"notes",
		"comment",
		"Comment",
		"Notes on Entgeltpunkte",
		"Notes on Regelaltersgrenze",
	}
}

// DefaultSourceColumns lists the column headers whose text goes into info.source.
func DefaultSourceColumns() []string {
	return []string{"source", "Source", "Quelle Arbeitgeber"}
}
