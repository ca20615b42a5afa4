// Package transform normalizes raw cube extracts into canonical
// dimension tables and derives the statistical measures carried on the
// fact tables.
package transform

import (
	"fmt"
	"strconv"

	"woonstat/pkg/errors"
)

// Descriptor is the uniform dimension shape: an opaque stable code, a
// human-readable label, and an optional parent code (province for
// municipalities). The normalizer works against this shape only, so new
// cube dimensions need no per-dataset handling.
type Descriptor struct {
	Code   string
	Label  string
	Parent string
}

// Table is a normalized dimension: codes unique, insertion order kept.
type Table struct {
	Name  string
	Rows  []Descriptor
	index map[string]int
}

// Has reports whether code exists in the table.
func (t *Table) Has(code string) bool {
	_, ok := t.index[code]
	return ok
}

// Get returns the descriptor for code.
func (t *Table) Get(code string) (Descriptor, bool) {
	i, ok := t.index[code]
	if !ok {
		return Descriptor{}, false
	}
	return t.Rows[i], true
}

// Len returns the number of unique codes.
func (t *Table) Len() int { return len(t.Rows) }

// Period is one calendar bucket. Exactly one of Kwartaal/Maand is set,
// depending on the cube's granularity; Jaar always derives from the code.
type Period struct {
	Code     string
	Naam     string
	Jaar     int
	Kwartaal *int
	Maand    *int
}

// PeriodTable is the normalized period dimension, combined across cubes.
type PeriodTable struct {
	Rows  []Period
	index map[string]int
}

// Has reports whether the period code exists.
func (t *PeriodTable) Has(code string) bool {
	_, ok := t.index[code]
	return ok
}

// Get returns the period for code.
func (t *PeriodTable) Get(code string) (Period, bool) {
	i, ok := t.index[code]
	if !ok {
		return Period{}, false
	}
	return t.Rows[i], true
}

// Len returns the number of unique period codes.
func (t *PeriodTable) Len() int { return len(t.Rows) }

// ParsePeriod decodes a CBS period code. Quarterly codes look like
// "2023KW01", monthly codes like "2023MM07".
func ParsePeriod(code, naam string) (Period, error) {
	if len(code) != 8 {
		return Period{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("period code %q is not of the form YYYYKWnn or YYYYMMnn", code))
	}
	jaar, err := strconv.Atoi(code[:4])
	if err != nil {
		return Period{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("period code %q has a non-numeric year", code))
	}
	seq, err := strconv.Atoi(code[6:])
	if err != nil {
		return Period{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("period code %q has a non-numeric bucket", code))
	}

	p := Period{Code: code, Naam: naam, Jaar: jaar}
	switch code[4:6] {
	case "KW":
		if seq < 1 || seq > 4 {
			return Period{}, errors.New(errors.ErrCodeExtractMalformed,
				fmt.Sprintf("period code %q has quarter %d outside 1-4", code, seq))
		}
		p.Kwartaal = &seq
	case "MM":
		if seq < 1 || seq > 12 {
			return Period{}, errors.New(errors.ErrCodeExtractMalformed,
				fmt.Sprintf("period code %q has month %d outside 1-12", code, seq))
		}
		p.Maand = &seq
	default:
		return Period{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("period code %q has unknown granularity marker %q", code, code[4:6]))
	}
	return p, nil
}

// LeadTimeFact is one derived row of fact_doorlooptijden.
type LeadTimeFact struct {
	ID                  string
	RegiokenmerkCode    string
	GebruiksfunctieCode string
	WoningtypeCode      string
	PeriodeCode         string
	Jaar                int
	Kwartaal            int
	NieuwbouwAantal     *int64
	P10                 *float64
	P25                 *float64
	Mediaan             *float64
	P75                 *float64
	P90                 *float64
	Gemiddelde          *float64
	IQR                 *float64
	P10P90Range         *float64
	CV                  *float64
	HogeVariabiliteit   bool
}

// PipelineFact is one derived row of fact_woningen_pijplijn.
type PipelineFact struct {
	ID                      string
	RegioCode               string
	GebruiksfunctieCode     string
	PeriodeCode             string
	Jaar                    int
	Maand                   int
	Totaal                  *int64
	BouwGestart             *int64
	Vergunning              *int64
	Vast2Jaar               *int64
	BouwGestart2Jaar        *int64
	Vergunning2Jaar         *int64
	Vast5Jaar               *int64
	BouwGestart5Jaar        *int64
	Vergunning5Jaar         *int64
	Bottleneck2JaarPct      *float64
	Bottleneck5JaarPct      *float64
	VergunningBottleneckPct *float64
	BouwBottleneckPct       *float64
	VergunningFasePct       *float64
	BouwFasePct             *float64
	CrisisRegio             bool
}

// Summary counts the metrics degraded to null during a run. Operators
// see these counts in the run report.
type Summary struct {
	Nulled map[string]int
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{Nulled: make(map[string]int)}
}

func (s *Summary) record(metric string) {
	s.Nulled[metric]++
}

// Total returns the count of all nulled metric cells.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.Nulled {
		n += c
	}
	return n
}
