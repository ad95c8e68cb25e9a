// Package rules holds a compact German tax and transfer system for the
// benchmark pipeline: income tax with splitting, solidarity surcharge,
// employee social insurance contributions, child benefit and household net
// income.
package rules

import (
	"math"
	"time"

	"gettsimarchive/internal/sim"
)

// Input names read from data.
const (
	PID                 = "p_id"
	HHID                = "hh_id"
	Alter               = "alter"
	Kind                = "familie__kind"
	Ehepartner          = "familie__p_id_ehepartner"
	Alleinerziehend     = "familie__alleinerziehend"
	Bruttolohn          = "einnahmen__bruttolohn_m"
	Kapitalerträge      = "einnahmen__kapitalerträge_m"
	Renten              = "einnahmen__renten__gesetzliche_m"
	GemeinsamVeranlagt  = "einkommensteuer__gemeinsam_veranlagt"
	KindergeldEmpfänger = "kindergeld__p_id_empfänger"
	Zusatzbeitrag       = "sozialversicherung__kranken__beitrag__zusatzbeitragssatz"
)

// Derived names.
const (
	RenteBeitrag        = "sozialversicherung__rente__beitrag__betrag_versicherter_m"
	ArbeitslosenBeitrag = "sozialversicherung__arbeitslosen__beitrag__betrag_versicherter_m"
	KrankenBeitrag      = "sozialversicherung__kranken__beitrag__betrag_versicherter_m"
	PflegeBeitrag       = "sozialversicherung__pflege__beitrag__betrag_versicherter_m"
	BeiträgeGesamt      = "sozialversicherung__beiträge_gesamt_m"
	AnzahlKinderHH      = "familie__anzahl_kinder_hh"
	AnzahlAlleinerzHH   = "familie__anzahl_alleinerziehende_hh"
	AlleinerziehendHH   = "familie__alleinerziehend_hh"
	SNID                = "einkommensteuer__sn_id"
	AnzahlPersonenSN    = "einkommensteuer__anzahl_personen_sn"
	Einkünfte           = "einkommensteuer__einkünfte_y"
	ZvE                 = "einkommensteuer__zu_versteuerndes_einkommen_y"
	ZvESN               = "einkommensteuer__zu_versteuerndes_einkommen_y_sn"
	ESTySN              = "einkommensteuer__betrag_y_sn"
	ESTmSN              = "einkommensteuer__betrag_m_sn"
	SoliySN             = "solidaritätszuschlag__betrag_y_sn"
	SolimSN             = "solidaritätszuschlag__betrag_m_sn"
	KindergeldAnsprüche = "kindergeld__anzahl_ansprüche"
	KindergeldBetrag    = "kindergeld__betrag_m"
	NettoM              = "einkommen__netto_m"
	NettoMHH            = "einkommen__netto_m_hh"
)

// Functions returns the policy in force on date.
func Functions(date time.Time) ([]sim.Function, error) {
	p, err := ParamsFor(date)
	if err != nil {
		return nil, err
	}
	return p.Functions(), nil
}

// Tarif applies the income tax schedule to annual taxable income of one
// person. Income and tax are rounded down to full euros.
func (p Params) Tarif(x float64) float64 {
	x = math.Floor(x)
	if x <= p.Grundfreibetrag {
		return 0
	}
	zone := p.Zones[0]
	for _, z := range p.Zones {
		if x > z.Lower {
			zone = z
		}
	}
	var tax float64
	if zone.Linear != 0 {
		tax = zone.Linear*x - zone.C
	} else {
		y := (x - zone.Base) / 10000
		tax = (zone.A*y+zone.B)*y + zone.C
	}
	return math.Floor(math.Max(tax, 0))
}

// Soli returns the solidarity surcharge on annual income tax for a unit
// of n assessed persons.
func (p Params) Soli(tax, n float64) float64 {
	limit := p.SoliFreigrenze * math.Max(n, 1)
	if tax <= limit {
		return 0
	}
	return math.Min(p.SoliRate*tax, p.SoliMilderung*(tax-limit))
}

func (p Params) capped(brutto, bbg float64) float64 {
	if brutto <= p.Minijobgrenze {
		return 0
	}
	return math.Min(brutto, bbg)
}

func row(name string, inputs []string, eval func(a []float64) float64) sim.Function {
	return sim.Function{Name: name, Kind: sim.Row, Inputs: inputs, Eval: eval}
}

func groupSum(name, input, group string) sim.Function {
	return sim.Function{Name: name, Kind: sim.GroupSum, Inputs: []string{input}, Group: group}
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Functions returns the policy functions built on these parameters.
func (p Params) Functions() []sim.Function {
	return []sim.Function{
		row(RenteBeitrag, []string{Bruttolohn}, func(a []float64) float64 {
			return p.capped(a[0], p.BBGRente) * p.RentenSatz
		}),
		row(ArbeitslosenBeitrag, []string{Bruttolohn}, func(a []float64) float64 {
			return p.capped(a[0], p.BBGRente) * p.ArbeitslosenSatz
		}),
		row(KrankenBeitrag, []string{Bruttolohn, Zusatzbeitrag}, func(a []float64) float64 {
			return p.capped(a[0], p.BBGKranken) * (p.KrankenAllgemein + a[1]/200)
		}),
		groupSum(AnzahlKinderHH, Kind, HHID),
		row(PflegeBeitrag, []string{Bruttolohn, Alter, AnzahlKinderHH}, func(a []float64) float64 {
			rate := p.PflegeSatz
			if a[2] == 0 && a[1] >= p.PflegeKinderlosAlter {
				rate += p.PflegeKinderlos
			}
			return p.capped(a[0], p.BBGKranken) * rate
		}),
		row(BeiträgeGesamt, []string{RenteBeitrag, ArbeitslosenBeitrag, KrankenBeitrag, PflegeBeitrag}, func(a []float64) float64 {
			return a[0] + a[1] + a[2] + a[3]
		}),

		groupSum(AnzahlAlleinerzHH, Alleinerziehend, HHID),
		row(AlleinerziehendHH, []string{AnzahlAlleinerzHH}, func(a []float64) float64 {
			return truth(a[0] > 0)
		}),

		row(SNID, []string{PID, Ehepartner, GemeinsamVeranlagt}, func(a []float64) float64 {
			if a[2] != 0 && a[1] >= 0 {
				return math.Min(a[0], a[1])
			}
			return a[0]
		}),
		{Name: AnzahlPersonenSN, Kind: sim.GroupCount, Group: SNID},
		row(Einkünfte, []string{Bruttolohn, Kapitalerträge, Renten}, func(a []float64) float64 {
			lohn := math.Max(12*a[0]-p.ArbeitnehmerPauschbetrag, 0)
			kapital := math.Max(12*a[1]-p.SparerPauschbetrag, 0)
			return lohn + kapital + 12*a[2]
		}),
		row(ZvE, []string{Einkünfte, BeiträgeGesamt}, func(a []float64) float64 {
			return math.Max(a[0]-12*a[1], 0)
		}),
		groupSum(ZvESN, ZvE, SNID),
		row(ESTySN, []string{ZvESN, AnzahlPersonenSN}, func(a []float64) float64 {
			if a[1] == 2 {
				return 2 * p.Tarif(a[0]/2)
			}
			return p.Tarif(a[0])
		}),
		row(ESTmSN, []string{ESTySN}, func(a []float64) float64 { return a[0] / 12 }),
		row(SoliySN, []string{ESTySN, AnzahlPersonenSN}, func(a []float64) float64 {
			return p.Soli(a[0], a[1])
		}),
		row(SolimSN, []string{SoliySN}, func(a []float64) float64 { return a[0] / 12 }),

		{Name: KindergeldAnsprüche, Kind: sim.PointerSum, Inputs: []string{Kind}, Group: KindergeldEmpfänger},
		row(KindergeldBetrag, []string{KindergeldAnsprüche}, func(a []float64) float64 {
			return a[0] * p.KindergeldProKind
		}),

		row(NettoM, []string{Bruttolohn, Kapitalerträge, Renten, BeiträgeGesamt, ESTmSN, SolimSN, AnzahlPersonenSN, KindergeldBetrag},
			func(a []float64) float64 {
				steuern := (a[4] + a[5]) / math.Max(a[6], 1)
				return a[0] + a[1] + a[2] - a[3] - steuern + a[7]
			}),
		groupSum(NettoMHH, NettoM, HHID),
	}
}
