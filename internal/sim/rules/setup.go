package rules

import (
	"time"

	"gettsimarchive/internal/sim"
)

// DefaultDate is the policy date benchmarks run on.
var DefaultDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultMapper maps the synthetic household columns onto policy inputs.
func DefaultMapper() sim.Mapper {
	return sim.Mapper{
		PID:                 sim.Col("p_id"),
		HHID:                sim.Col("hh_id"),
		Alter:               sim.Col("age"),
		Kind:                sim.Col("is_child"),
		Ehepartner:          sim.Col("spouse_id"),
		Alleinerziehend:     sim.Col("single_parent"),
		Bruttolohn:          sim.Col("income_from_employment"),
		Kapitalerträge:      sim.Col("income_from_capital"),
		Renten:              sim.Col("pension_income"),
		GemeinsamVeranlagt:  sim.Col("joint_taxation"),
		KindergeldEmpfänger: sim.Col("id_recipient_child_allowance"),
		Zusatzbeitrag:       sim.Const(2.5),
		"wohnort_ost":       sim.Col("east_germany"),
		"in_ausbildung":     sim.Col("in_training"),
	}
}

// DefaultTargetTree is the nested tree of targets computed by a benchmark
// run. Leaves are output labels.
func DefaultTargetTree() map[string]any {
	beitrag := func(label string) map[string]any {
		return map[string]any{"beitrag": map[string]any{"betrag_versicherter_m": label}}
	}
	return map[string]any{
		"einkommensteuer": map[string]any{
			"betrag_m_sn":                     "income_tax_m",
			"zu_versteuerndes_einkommen_y_sn": "taxable_income_y_sn",
		},
		"solidaritätszuschlag": map[string]any{
			"betrag_m_sn": "soli_m_sn",
		},
		"sozialversicherung": map[string]any{
			"pflege":            beitrag("long_term_care_insurance_contribution_m"),
			"kranken":           beitrag("health_insurance_contribution_m"),
			"rente":             beitrag("pension_insurance_contribution_m"),
			"arbeitslosen":      beitrag("unemployment_insurance_contribution_m"),
			"beiträge_gesamt_m": "social_insurance_contributions_total_m",
		},
		"kindergeld": map[string]any{
			"betrag_m": "KG_betrag_m",
		},
		"einkommen": map[string]any{
			"netto_m_hh": "net_income_m_hh",
		},
		"familie": map[string]any{
			"alleinerziehend_hh": "single_parent_hh",
		},
	}
}

// DefaultTargets is DefaultTargetTree flattened.
func DefaultTargets() sim.Targets {
	t, err := sim.TargetsFromTree(DefaultTargetTree())
	if err != nil {
		panic(err)
	}
	return t
}
