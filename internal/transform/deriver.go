package transform

import (
	"woonstat/internal/extract"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

// iqrToStdev converts an interquartile range to a standard deviation
// proxy; 1.349 is the IQR width of a standard normal distribution.
const iqrToStdev = 1.349

// LeadTimeDims bundles the normalized dimensions the doorlooptijden
// cube joins against.
type LeadTimeDims struct {
	Regiokenmerken  *Table
	Gebruiksfunctie *Table
	Woningtype      *Table
	Perioden        *PeriodTable
}

// PipelineDims bundles the normalized dimensions the pijplijn cube
// joins against.
type PipelineDims struct {
	Regios          *Table
	Gebruiksfunctie *Table
	Perioden        *PeriodTable
}

// Deriver joins raw fact rows to dimension codes and computes the
// derived spread and bottleneck measures. Zero denominators and missing
// percentiles degrade to nulls and are tallied in the summary; a
// missing dimension code is fatal.
type Deriver struct {
	thresholds models.Thresholds
	window     models.Window
	summary    *Summary
}

// NewDeriver creates a deriver with the configured thresholds and window.
func NewDeriver(thresholds models.Thresholds, window models.Window) *Deriver {
	return &Deriver{thresholds: thresholds, window: window, summary: NewSummary()}
}

// Summary returns the per-run counts of nulled metrics.
func (d *Deriver) Summary() *Summary { return d.summary }

// DeriveLeadTimes derives fact_doorlooptijden rows. Rows whose period
// falls outside the window are excluded; every remaining row must join
// to all four dimensions.
func (d *Deriver) DeriveLeadTimes(rows []extract.LeadTimeRow, dims LeadTimeDims) ([]LeadTimeFact, error) {
	facts := make([]LeadTimeFact, 0, len(rows))
	for _, row := range rows {
		p, err := ParsePeriod(row.Perioden, "")
		if err != nil {
			return nil, err
		}
		if !d.window.Contains(p.Jaar) {
			continue
		}

		if !dims.Regiokenmerken.Has(row.Regiokenmerken) {
			return nil, errors.ReferentialIntegrityError("fact_doorlooptijden", "regiokenmerken", row.Regiokenmerken, row.ID)
		}
		if !dims.Gebruiksfunctie.Has(row.Gebruiksfunctie) {
			return nil, errors.ReferentialIntegrityError("fact_doorlooptijden", "gebruiksfunctie", row.Gebruiksfunctie, row.ID)
		}
		if !dims.Woningtype.Has(row.Woningtype) {
			return nil, errors.ReferentialIntegrityError("fact_doorlooptijden", "woningtype", row.Woningtype, row.ID)
		}
		period, ok := dims.Perioden.Get(row.Perioden)
		if !ok {
			return nil, errors.ReferentialIntegrityError("fact_doorlooptijden", "perioden", row.Perioden, row.ID)
		}
		if period.Kwartaal == nil {
			return nil, errors.New(errors.ErrCodeInvariantViolation,
				"doorlooptijden period is not quarterly: "+period.Code).
				WithContext("row_id", row.ID)
		}

		fact := LeadTimeFact{
			ID:                  row.ID,
			RegiokenmerkCode:    row.Regiokenmerken,
			GebruiksfunctieCode: row.Gebruiksfunctie,
			WoningtypeCode:      row.Woningtype,
			PeriodeCode:         row.Perioden,
			Jaar:                period.Jaar,
			Kwartaal:            *period.Kwartaal,
			NieuwbouwAantal:     row.NieuwbouwTotaal,
			P10:                 row.P10,
			P25:                 row.P25,
			Mediaan:             row.Mediaan,
			P75:                 row.P75,
			P90:                 row.P90,
			Gemiddelde:          row.Gemiddelde,
		}

		fact.IQR = d.difference(row.P75, row.P25, "doorlooptijd_iqr")
		fact.P10P90Range = d.difference(row.P90, row.P10, "doorlooptijd_p10_p90_range")
		fact.CV = d.coefficientOfVariation(fact.IQR, row.Gemiddelde)
		fact.HogeVariabiliteit = fact.CV != nil && *fact.CV > d.thresholds.HighVariabilityCV

		facts = append(facts, fact)
	}
	return facts, nil
}

// DerivePipeline derives fact_woningen_pijplijn rows.
func (d *Deriver) DerivePipeline(rows []extract.PipelineRow, dims PipelineDims) ([]PipelineFact, error) {
	facts := make([]PipelineFact, 0, len(rows))
	for _, row := range rows {
		p, err := ParsePeriod(row.Perioden, "")
		if err != nil {
			return nil, err
		}
		if !d.window.Contains(p.Jaar) {
			continue
		}

		if !dims.Regios.Has(row.RegioS) {
			return nil, errors.ReferentialIntegrityError("fact_woningen_pijplijn", "regios", row.RegioS, row.ID)
		}
		if !dims.Gebruiksfunctie.Has(row.Gebruiksfunctie) {
			return nil, errors.ReferentialIntegrityError("fact_woningen_pijplijn", "gebruiksfunctie", row.Gebruiksfunctie, row.ID)
		}
		period, ok := dims.Perioden.Get(row.Perioden)
		if !ok {
			return nil, errors.ReferentialIntegrityError("fact_woningen_pijplijn", "perioden", row.Perioden, row.ID)
		}
		if period.Maand == nil {
			return nil, errors.New(errors.ErrCodeInvariantViolation,
				"pijplijn period is not monthly: "+period.Code).
				WithContext("row_id", row.ID)
		}

		fact := PipelineFact{
			ID:                  row.ID,
			RegioCode:           row.RegioS,
			GebruiksfunctieCode: row.Gebruiksfunctie,
			PeriodeCode:         row.Perioden,
			Jaar:                period.Jaar,
			Maand:               *period.Maand,
			Totaal:              row.Totaal,
			BouwGestart:         row.BouwGestart,
			Vergunning:          row.Vergunning,
			Vast2Jaar:           row.Vast2Jaar,
			BouwGestart2Jaar:    row.BouwGestart2Jaar,
			Vergunning2Jaar:     row.Vergunning2Jaar,
			Vast5Jaar:           row.Vast5Jaar,
			BouwGestart5Jaar:    row.BouwGestart5Jaar,
			Vergunning5Jaar:     row.Vergunning5Jaar,
		}

		fact.Bottleneck2JaarPct = d.ratioPct(row.Vast2Jaar, row.Totaal, "bottleneck_2jaar_pct")
		fact.Bottleneck5JaarPct = d.ratioPct(row.Vast5Jaar, row.Totaal, "bottleneck_5jaar_pct")
		fact.VergunningBottleneckPct = d.ratioPct(row.Vergunning2Jaar, row.Vergunning, "vergunning_bottleneck_pct")
		fact.BouwBottleneckPct = d.ratioPct(row.BouwGestart2Jaar, row.BouwGestart, "bouw_bottleneck_pct")
		fact.VergunningFasePct = d.ratioPct(row.Vergunning, row.Totaal, "vergunning_fase_pct")
		fact.BouwFasePct = d.ratioPct(row.BouwGestart, row.Totaal, "bouw_fase_pct")
		fact.CrisisRegio = d.crisisRegio(fact)

		facts = append(facts, fact)
	}
	return facts, nil
}

// difference computes a-b, null if either side is null.
func (d *Deriver) difference(a, b *float64, metric string) *float64 {
	if a == nil || b == nil {
		d.summary.record(metric)
		return nil
	}
	v := *a - *b
	return &v
}

// coefficientOfVariation derives relative spread from the IQR stdev
// proxy, null when the mean is null or zero.
func (d *Deriver) coefficientOfVariation(iqr, mean *float64) *float64 {
	if iqr == nil || mean == nil || *mean == 0 {
		d.summary.record("doorlooptijd_cv")
		return nil
	}
	v := (*iqr / iqrToStdev) / *mean
	return &v
}

// ratioPct computes part/total*100, null when the total is null or zero.
func (d *Deriver) ratioPct(part, total *int64, metric string) *float64 {
	if part == nil || total == nil || *total == 0 {
		d.summary.record(metric)
		return nil
	}
	v := float64(*part) / float64(*total) * 100
	return &v
}

// crisisRegio flags a region when at least two bottleneck ratios exceed
// their cutoffs at once. A null in any required ratio keeps the flag
// false rather than escalating.
func (d *Deriver) crisisRegio(f PipelineFact) bool {
	if f.Bottleneck2JaarPct == nil || f.Bottleneck5JaarPct == nil || f.VergunningFasePct == nil {
		return false
	}
	exceeded := 0
	if *f.Bottleneck2JaarPct > d.thresholds.Bottleneck2YearPct {
		exceeded++
	}
	if *f.Bottleneck5JaarPct > d.thresholds.Bottleneck5YearPct {
		exceeded++
	}
	if *f.VergunningFasePct > d.thresholds.PermitPhasePct {
		exceeded++
	}
	return exceeded >= 2
}
