package rules

import (
	"fmt"
	"time"
)

// tariffZone is one zone of the income tax schedule. For taxable income x
// above Lower, tax is (A*y + B)*y + C with y = (x - Base)/10000, or
// Linear*x - C when Linear is set.
type tariffZone struct {
	Lower  float64
	Base   float64
	A, B   float64
	Linear float64
	C      float64
}

// Params holds the policy parameters of one year.
type Params struct {
	Year int

	Grundfreibetrag float64
	Zones           []tariffZone

	ArbeitnehmerPauschbetrag float64
	SparerPauschbetrag       float64

	SoliRate       float64
	SoliFreigrenze float64
	SoliMilderung  float64

	RentenSatz           float64
	ArbeitslosenSatz     float64
	KrankenAllgemein     float64
	PflegeSatz           float64
	PflegeKinderlos      float64
	PflegeKinderlosAlter float64
	BBGRente             float64
	BBGKranken           float64
	Minijobgrenze        float64

	KindergeldProKind float64
}

var params = map[int]Params{
	2024: {
		Year:            2024,
		Grundfreibetrag: 11784,
		Zones: []tariffZone{
			{Lower: 11784, Base: 11784, A: 954.80, B: 1400},
			{Lower: 17005, Base: 17005, A: 181.19, B: 2397, C: 991.21},
			{Lower: 66760, Linear: 0.42, C: 10636.31},
			{Lower: 277825, Linear: 0.45, C: 18971.06},
		},
		ArbeitnehmerPauschbetrag: 1230,
		SparerPauschbetrag:       1000,
		SoliRate:                 0.055,
		SoliFreigrenze:           18130,
		SoliMilderung:            0.119,
		RentenSatz:               0.093,
		ArbeitslosenSatz:         0.013,
		KrankenAllgemein:         0.073,
		PflegeSatz:               0.017,
		PflegeKinderlos:          0.006,
		PflegeKinderlosAlter:     23,
		BBGRente:                 7550,
		BBGKranken:               5175,
		Minijobgrenze:            538,
		KindergeldProKind:        250,
	},
	2025: {
		Year:            2025,
		Grundfreibetrag: 12096,
		Zones: []tariffZone{
			{Lower: 12096, Base: 12096, A: 932.30, B: 1400},
			{Lower: 17443, Base: 17443, A: 176.64, B: 2397, C: 1015.13},
			{Lower: 68480, Linear: 0.42, C: 10911.92},
			{Lower: 277825, Linear: 0.45, C: 19246.67},
		},
		ArbeitnehmerPauschbetrag: 1230,
		SparerPauschbetrag:       1000,
		SoliRate:                 0.055,
		SoliFreigrenze:           19950,
		SoliMilderung:            0.119,
		RentenSatz:               0.093,
		ArbeitslosenSatz:         0.013,
		KrankenAllgemein:         0.073,
		PflegeSatz:               0.018,
		PflegeKinderlos:          0.006,
		PflegeKinderlosAlter:     23,
		BBGRente:                 8050,
		BBGKranken:               5512.50,
		Minijobgrenze:            556,
		KindergeldProKind:        255,
	},
}

// ParamsFor returns the parameters in force on date.
func ParamsFor(date time.Time) (Params, error) {
	p, ok := params[date.Year()]
	if !ok {
		return Params{}, fmt.Errorf("no policy parameters for %d", date.Year())
	}
	return p, nil
}

// Years lists the years with parameters.
func Years() []int { return []int{2024, 2025} }
