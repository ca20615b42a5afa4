// Package extract parses the raw CBS cube extracts that the extraction
// collaborator writes as timestamped CSV files. It produces typed row
// sets; all normalization and derivation happens downstream.
package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"woonstat/pkg/errors"
)

// DimensionRow is one raw (code, label) pair from a dimension extract.
// The uniform shape lets the normalizer handle every dimension the same
// way regardless of the cube it came from.
type DimensionRow struct {
	Code   string
	Title  string
	Parent string // province for municipality rows, empty elsewhere
}

// LeadTimeRow is one raw row of the doorlooptijden cube (86260NED).
// Measures are nil when the cell is empty in the extract.
type LeadTimeRow struct {
	ID              string
	Regiokenmerken  string
	Gebruiksfunctie string
	Woningtype      string
	Perioden        string
	NieuwbouwTotaal *int64
	P10             *float64
	P25             *float64
	Mediaan         *float64
	P75             *float64
	P90             *float64
	Gemiddelde      *float64
}

// PipelineRow is one raw row of the pijplijn cube (82211NED).
type PipelineRow struct {
	ID               string
	RegioS           string
	Gebruiksfunctie  string
	Perioden         string
	Totaal           *int64
	BouwGestart      *int64
	Vergunning       *int64
	Vast2Jaar        *int64
	BouwGestart2Jaar *int64
	Vergunning2Jaar  *int64
	Vast5Jaar        *int64
	BouwGestart5Jaar *int64
	Vergunning5Jaar  *int64
}

// Raw CBS TypedDataSet column names, as written by the extraction step.
const (
	colKey   = "Key"
	colTitle = "Title"

	colNieuwbouwTotaal = "NieuwbouwTotaal_1"
	colP10             = "k_10KwantielDoorlooptijdMaanden_2"
	colP25             = "k_25KwantielDoorlooptijdMaanden_3"
	colMediaan         = "MediaanDoorlooptijdMaanden_4"
	colP75             = "k_75KwantielDoorlooptijdMaanden_5"
	colP90             = "k_90KwantielDoorlooptijdMaanden_6"
	colGemiddelde      = "GemiddeldeDoorlooptijdMaanden_7"

	colPijplijnTotaal   = "VerblijfsobjectenInDePijplijnTotaal_1"
	colBouwGestart      = "BouwGestartPijplijn_2"
	colVergunning       = "Vergunningspijplijn_3"
	colTotaal2Jaar      = "TotaalInDePijplijn2Jaar_4"
	colBouwGestart2Jaar = "BouwGestartPijplijn2Jaar_5"
	colVergunning2Jaar  = "Vergunningspijplijn2Jaar_6"
	colTotaal5Jaar      = "TotaalInDePijplijn5Jaar_7"
	colBouwGestart5Jaar = "BouwGestartPijplijn5Jaar_8"
	colVergunning5Jaar  = "Vergunningspijplijn5Jaar_9"
)

// header maps column names to their positions, tolerating column order
// changes between extraction runs.
type header map[string]int

func readHeader(r *csv.Reader, file string) (header, error) {
	record, err := r.Read()
	if err != nil {
		return nil, errors.ExtractError("failed to read header row", file, 1, err)
	}
	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(name)] = i
	}
	return h, nil
}

func (h header) require(file string, names ...string) error {
	for _, name := range names {
		if _, ok := h[name]; !ok {
			return errors.New(errors.ErrCodeExtractMalformed,
				fmt.Sprintf("extract is missing required column %q", name)).
				WithContext("file", file)
		}
	}
	return nil
}

func (h header) field(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// CBS writes missing cells as empty strings or a single period.
func isNull(s string) bool {
	return s == "" || s == "."
}

func (h header) floatField(record []string, name, file string, line int) (*float64, error) {
	raw := h.field(record, name)
	if isNull(raw) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.ExtractError(
			fmt.Sprintf("column %q holds non-numeric value %q", name, raw), file, line, err)
	}
	return &v, nil
}

func (h header) intField(record []string, name, file string, line int) (*int64, error) {
	raw := h.field(record, name)
	if isNull(raw) {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Some CBS exports render counts as floats; accept whole floats.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil, errors.ExtractError(
				fmt.Sprintf("column %q holds non-integer value %q", name, raw), file, line, err)
		}
		v = int64(f)
	}
	return &v, nil
}

func openCSV(path string) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from validated config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.New(errors.ErrCodeExtractNotFound,
				fmt.Sprintf("extract file not found: %s", path))
		}
		return nil, nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to open extract")
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return f, r, nil
}

// ReadDimension parses a dimension extract (Key/Title pairs). The
// optional parent column carries the province for municipality rows.
func ReadDimension(path string, parentColumn string) ([]DimensionRow, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}
	if err := h.require(path, colKey, colTitle); err != nil {
		return nil, err
	}

	var rows []DimensionRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ExtractError("failed to read dimension row", path, line, err)
		}
		row := DimensionRow{
			Code:  h.field(record, colKey),
			Title: h.field(record, colTitle),
		}
		if parentColumn != "" {
			row.Parent = h.field(record, parentColumn)
		}
		if row.Code == "" {
			return nil, errors.ExtractError("dimension row has empty code", path, line, nil)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadLeadTimeFacts parses a doorlooptijden fact extract.
func ReadLeadTimeFacts(path string) ([]LeadTimeRow, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}
	if err := h.require(path, "Regiokenmerken", "Gebruiksfunctie", "Woningtype", "Perioden"); err != nil {
		return nil, err
	}

	var rows []LeadTimeRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ExtractError("failed to read fact row", path, line, err)
		}

		row := LeadTimeRow{
			ID:              h.field(record, "ID"),
			Regiokenmerken:  h.field(record, "Regiokenmerken"),
			Gebruiksfunctie: h.field(record, "Gebruiksfunctie"),
			Woningtype:      h.field(record, "Woningtype"),
			Perioden:        h.field(record, "Perioden"),
		}
		if row.ID == "" {
			row.ID = strconv.Itoa(line - 1)
		}

		if row.NieuwbouwTotaal, err = h.intField(record, colNieuwbouwTotaal, path, line); err != nil {
			return nil, err
		}
		if row.P10, err = h.floatField(record, colP10, path, line); err != nil {
			return nil, err
		}
		if row.P25, err = h.floatField(record, colP25, path, line); err != nil {
			return nil, err
		}
		if row.Mediaan, err = h.floatField(record, colMediaan, path, line); err != nil {
			return nil, err
		}
		if row.P75, err = h.floatField(record, colP75, path, line); err != nil {
			return nil, err
		}
		if row.P90, err = h.floatField(record, colP90, path, line); err != nil {
			return nil, err
		}
		if row.Gemiddelde, err = h.floatField(record, colGemiddelde, path, line); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// ReadPipelineFacts parses a pijplijn fact extract.
func ReadPipelineFacts(path string) ([]PipelineRow, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}
	if err := h.require(path, "RegioS", "Gebruiksfunctie", "Perioden"); err != nil {
		return nil, err
	}

	var rows []PipelineRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ExtractError("failed to read fact row", path, line, err)
		}

		row := PipelineRow{
			ID:              h.field(record, "ID"),
			RegioS:          h.field(record, "RegioS"),
			Gebruiksfunctie: h.field(record, "Gebruiksfunctie"),
			Perioden:        h.field(record, "Perioden"),
		}
		if row.ID == "" {
			row.ID = strconv.Itoa(line - 1)
		}

		if row.Totaal, err = h.intField(record, colPijplijnTotaal, path, line); err != nil {
			return nil, err
		}
		if row.BouwGestart, err = h.intField(record, colBouwGestart, path, line); err != nil {
			return nil, err
		}
		if row.Vergunning, err = h.intField(record, colVergunning, path, line); err != nil {
			return nil, err
		}
		if row.Vast2Jaar, err = h.intField(record, colTotaal2Jaar, path, line); err != nil {
			return nil, err
		}
		if row.BouwGestart2Jaar, err = h.intField(record, colBouwGestart2Jaar, path, line); err != nil {
			return nil, err
		}
		if row.Vergunning2Jaar, err = h.intField(record, colVergunning2Jaar, path, line); err != nil {
			return nil, err
		}
		if row.Vast5Jaar, err = h.intField(record, colTotaal5Jaar, path, line); err != nil {
			return nil, err
		}
		if row.BouwGestart5Jaar, err = h.intField(record, colBouwGestart5Jaar, path, line); err != nil {
			return nil, err
		}
		if row.Vergunning5Jaar, err = h.intField(record, colVergunning5Jaar, path, line); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// FindLatest returns the most recently modified file matching pattern
// in dir. Extraction writes timestamped files and never rewrites them,
// so modification time tracks the embedded timestamp.
func FindLatest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeFileOperation, "failed to list extracts")
	}
	if len(matches) == 0 {
		return "", errors.New(errors.ErrCodeExtractNotFound,
			fmt.Sprintf("no extract matches %s in %s", pattern, dir)).
			WithSuggestions("Run the extraction step before the transform")
	}

	latest := matches[0]
	latestInfo, err := os.Stat(latest)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeFileOperation, "failed to stat extract")
	}
	for _, m := range matches[1:] {
		info, err := os.Stat(m)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeFileOperation, "failed to stat extract")
		}
		if info.ModTime().After(latestInfo.ModTime()) {
			latest, latestInfo = m, info
		}
	}
	return latest, nil
}
