// Package household generates the synthetic benchmark population: N
// identical households of two working parents and two children.
package household

import (
	"math/rand"
)

// PersonsPerHousehold is the size of every generated household.
const PersonsPerHousehold = 4

// ScrambleSeed makes scrambled datasets reproducible.
const ScrambleSeed = 42

// Columns lists the generated columns in output order.
var Columns = []string{
	"age", "working_hours", "disability_grade", "birth_year", "hh_id", "p_id",
	"east_germany", "self_employed", "income_from_self_employment", "income_from_rent",
	"income_from_employment", "income_from_forest_and_agriculture", "income_from_capital",
	"income_from_other_sources", "pension_income", "contribution_to_private_pension_insurance",
	"childcare_expenses", "person_that_pays_childcare_expenses", "joint_taxation",
	"amount_private_pension_income", "contribution_private_health_insurance", "has_children",
	"single_parent", "is_child", "spouse_id", "parent_id_1", "parent_id_2", "in_training",
	"id_recipient_child_allowance", "bürgergeld__p_id_einstandspartner", "lohnsteuer__steuerklasse",
	"alter_monate", "jahr_renteneintritt",
}

var kinds = func() map[string]Kind {
	m := map[string]Kind{}
	for _, c := range []string{"east_germany", "self_employed", "joint_taxation", "has_children",
		"single_parent", "is_child", "in_training"} {
		m[c] = KindBool
	}
	for _, c := range []string{"age", "working_hours", "disability_grade", "birth_year", "hh_id", "p_id",
		"spouse_id", "parent_id_1", "parent_id_2", "person_that_pays_childcare_expenses",
		"id_recipient_child_allowance", "bürgergeld__p_id_einstandspartner", "lohnsteuer__steuerklasse",
		"alter_monate", "jahr_renteneintritt"} {
		m[c] = KindInt
	}
	return m
}()

// template holds one household; -1 marks "no person" in id columns and
// the unset tax class of children.
var template = [PersonsPerHousehold][]float64{
	// parent 1
	{30, 35, 0, 1995, 0, 0, 0, 0, 0, 0, 5000, 0, 500, 0, 0, 0, 0, -1, 1, 0, 0, 1, 0, 0, 1, -1, -1, 0, -1, 1, 4, 360, 2062},
	// parent 2
	{30, 35, 0, 1995, 0, 1, 0, 0, 0, 0, 4000, 0, 0, 0, 0, 0, 0, -1, 1, 0, 0, 1, 0, 0, 0, -1, -1, 0, -1, 0, 4, 360, 2062},
	// child 1
	{10, 0, 0, 2015, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, -1, 0, 1, 0, 0, -1, -1, 120, 2082},
	// child 2
	{10, 0, 0, 2015, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, -1, 0, 1, 0, 0, -1, -1, 120, 2082},
}

// Make builds n households. With scramble the rows are shuffled by a fixed
// permutation so p_id is no longer sorted.
func Make(n int, scramble bool) *Frame {
	total := n * PersonsPerHousehold
	f := NewFrame(total, Columns, kinds)

	for j, c := range Columns {
		col := f.Data[c]
		for i := 0; i < total; i++ {
			col[i] = template[i%PersonsPerHousehold][j]
		}
	}

	hh := f.Data["hh_id"]
	pid := f.Data["p_id"]
	spouse := f.Data["spouse_id"]
	partner := f.Data["bürgergeld__p_id_einstandspartner"]
	parent1 := f.Data["parent_id_1"]
	parent2 := f.Data["parent_id_2"]
	payer := f.Data["person_that_pays_childcare_expenses"]
	recipient := f.Data["id_recipient_child_allowance"]

	for i := 0; i < total; i++ {
		p := float64(i)
		hh[i] = float64(i / PersonsPerHousehold)
		pid[i] = p
		switch i % PersonsPerHousehold {
		case 0:
			spouse[i], partner[i] = p+1, p+1
		case 1:
			spouse[i], partner[i] = p-1, p-1
		default:
			first := float64(i - i%PersonsPerHousehold)
			parent1[i], parent2[i] = first, first+1
			payer[i], recipient[i] = first, first
		}
	}

	if scramble {
		f.Permute(rand.New(rand.NewSource(ScrambleSeed)).Perm(total))
	}
	return f
}
