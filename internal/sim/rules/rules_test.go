package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gettsimarchive/internal/household"
	"gettsimarchive/internal/sim"
)

func params2025(t *testing.T) Params {
	t.Helper()
	p, err := ParamsFor(DefaultDate)
	require.NoError(t, err)
	return p
}

func TestTarif(t *testing.T) {
	p := params2025(t)
	cases := map[float64]float64{
		0:      0,
		12096:  0,
		17443:  1015,
		20000:  1639,
		43957:  8612,
		68480:  17849,
		100000: 31088,
		300000: 115753,
	}
	for income, want := range cases {
		assert.Equal(t, want, p.Tarif(income), "income %.0f", income)
	}
}

func TestTarifMonotonic(t *testing.T) {
	p := params2025(t)
	prev := 0.0
	for x := 0.0; x < 400000; x += 250 {
		tax := p.Tarif(x)
		require.GreaterOrEqual(t, tax, prev, "income %.0f", x)
		prev = tax
	}
}

func TestSoli(t *testing.T) {
	p := params2025(t)
	assert.Zero(t, p.Soli(19950, 1))
	assert.Zero(t, p.Soli(39900, 2))
	assert.InDelta(t, 0.119*50, p.Soli(20000, 1), 1e-9)
	assert.InDelta(t, 0.055*100000, p.Soli(100000, 1), 1e-9)
}

func TestFunctionsUnknownYear(t *testing.T) {
	_, err := Functions(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorContains(t, err, "1999")
}

func TestFunctionsFormValidGraph(t *testing.T) {
	for _, year := range Years() {
		funcs, err := Functions(time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		g, err := sim.NewGraph(funcs)
		require.NoError(t, err, "year %d", year)
		assert.Len(t, g.TopologicalOrder(), len(funcs))
	}
}

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()
	assert.Len(t, targets, 10)
	assert.Equal(t, "income_tax_m", targets[ESTmSN])
	assert.Equal(t, "health_insurance_contribution_m", targets[KrankenBeitrag])
	assert.Equal(t, "net_income_m_hh", targets[NettoMHH])
}

func TestOneHousehold(t *testing.T) {
	ctx := context.Background()
	data := household.Make(1, false)
	p, err := sim.Prepare(ctx, data, DefaultMapper(), DefaultTargets(), Functions, DefaultDate)
	require.NoError(t, err)
	raw, err := sim.Compute(ctx, p, sim.Serial{})
	require.NoError(t, err)
	table, err := sim.Format(p, raw)
	require.NoError(t, err)
	require.Equal(t, [2]int{4, 10}, table.Shape())
	assert.Equal(t, []float64{0, 1, 2, 3}, table.PID)

	col := func(label string) []float64 {
		v, ok := table.Column(label)
		require.True(t, ok, label)
		return v
	}
	assert.InDeltaSlice(t, []float64{90, 72, 0, 0}, col("long_term_care_insurance_contribution_m"), 1e-9)
	assert.InDeltaSlice(t, []float64{1047.5, 838, 0, 0}, col("social_insurance_contributions_total_m"), 1e-9)
	assert.InDeltaSlice(t, []float64{87914, 87914, 0, 0}, col("taxable_income_y_sn"), 1e-9)
	assert.InDeltaSlice(t, []float64{17224.0 / 12, 17224.0 / 12, 0, 0}, col("income_tax_m"), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, col("soli_m_sn"), 1e-9)
	assert.InDeltaSlice(t, []float64{510, 0, 0, 0}, col("KG_betrag_m"), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, col("single_parent_hh"), 1e-9)
	for _, v := range col("net_income_m_hh") {
		assert.InDelta(t, 6689.166666666667, v, 1e-6)
	}
}
