// Package pipeline runs the transform-and-load in a single forward
// pass: resolve the newest extracts, normalize, derive, load, publish.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"woonstat/internal/artifact"
	"woonstat/internal/extract"
	"woonstat/internal/store"
	"woonstat/internal/transform"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

// Options controls one run.
type Options struct {
	// DryRun derives everything but stops before the store transaction
	// and does not publish an artifact.
	DryRun bool
}

// Runner orchestrates one transform-and-load run.
type Runner struct {
	cfg  *models.Config
	opts Options
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg *models.Config, opts Options) *Runner {
	return &Runner{cfg: cfg, opts: opts}
}

// inputs holds the resolved extract files for one run.
type inputs struct {
	regiokenmerken string
	regios         string
	functieLead    string
	functiePijp    string
	woningtype     string
	periodenLead   string
	periodenPijp   string
	leadFacts      string
	pipeFacts      string
}

func (r *Runner) resolveInputs() (*inputs, error) {
	dir := r.cfg.Datasets.RawDir
	lead := r.cfg.Datasets.Doorlooptijden.TableID
	pijp := r.cfg.Datasets.Pijplijn.TableID

	in := &inputs{}
	var err error
	resolve := func(dst *string, pattern string) {
		if err != nil {
			return
		}
		*dst, err = extract.FindLatest(dir, pattern)
	}

	resolve(&in.regiokenmerken, fmt.Sprintf("dim_regiokenmerken_%s_*.csv", lead))
	resolve(&in.functieLead, fmt.Sprintf("dim_gebruiksfunctie_%s_*.csv", lead))
	resolve(&in.woningtype, fmt.Sprintf("dim_woningtype_%s_*.csv", lead))
	resolve(&in.periodenLead, fmt.Sprintf("dim_perioden_%s_*.csv", lead))
	resolve(&in.leadFacts, fmt.Sprintf("fact_doorlooptijden_*_%s_*.csv", lead))

	resolve(&in.regios, fmt.Sprintf("dim_regios_%s_*.csv", pijp))
	resolve(&in.functiePijp, fmt.Sprintf("dim_gebruiksfunctie_%s_*.csv", pijp))
	resolve(&in.periodenPijp, fmt.Sprintf("dim_perioden_%s_*.csv", pijp))
	resolve(&in.pipeFacts, fmt.Sprintf("fact_woningen_pijplijn_*_%s_*.csv", pijp))

	if err != nil {
		return nil, err
	}

	// Fact extracts embed the window they were extracted for. The run
	// must use an identical window end to end; a disagreement aborts
	// before anything is read or written.
	if err := r.checkExtractionWindow(in.leadFacts, "fact_doorlooptijden_"); err != nil {
		return nil, err
	}
	if err := r.checkExtractionWindow(in.pipeFacts, "fact_woningen_pijplijn_"); err != nil {
		return nil, err
	}
	return in, nil
}

// extractionWindow parses the [start, end] years out of a fact extract
// name, fact_<dataset>_<start>_<end>_<tableID>_<timestamp>.csv.
func extractionWindow(path, prefix string) (models.Window, error) {
	name := filepath.Base(path)
	parts := strings.SplitN(strings.TrimPrefix(name, prefix), "_", 3)
	if len(parts) < 3 {
		return models.Window{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("extract name %q does not embed an extraction window", name))
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.Window{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("extract name %q has a non-numeric start year", name))
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.Window{}, errors.New(errors.ErrCodeExtractMalformed,
			fmt.Sprintf("extract name %q has a non-numeric end year", name))
	}
	return models.Window{StartYear: start, EndYear: end}, nil
}

func (r *Runner) checkExtractionWindow(path, prefix string) error {
	recorded, err := extractionWindow(path, prefix)
	if err != nil {
		return err
	}
	if !recorded.Equal(r.cfg.Window) {
		return errors.ConfigMismatchError(
			"Extraction window does not match the configured window",
			r.cfg.Window.String(), recorded.String()).
			WithContext("file", filepath.Base(path))
	}
	return nil
}

// Run executes the full pass and returns the run artifact. On dry runs
// the artifact describes what would have been loaded but nothing is
// written and latest.yaml keeps pointing at the previous run.
func (r *Runner) Run(ctx context.Context) (*artifact.RunArtifact, error) {
	start := time.Now()

	in, err := r.resolveInputs()
	if err != nil {
		return nil, err
	}

	regiokenmerkRows, err := extract.ReadDimension(in.regiokenmerken, "Type")
	if err != nil {
		return nil, err
	}
	regioRows, err := extract.ReadDimension(in.regios, "Provincie")
	if err != nil {
		return nil, err
	}
	functieLeadRows, err := extract.ReadDimension(in.functieLead, "")
	if err != nil {
		return nil, err
	}
	functiePijpRows, err := extract.ReadDimension(in.functiePijp, "")
	if err != nil {
		return nil, err
	}
	woningtypeRows, err := extract.ReadDimension(in.woningtype, "")
	if err != nil {
		return nil, err
	}
	periodenLeadRows, err := extract.ReadDimension(in.periodenLead, "")
	if err != nil {
		return nil, err
	}
	periodenPijpRows, err := extract.ReadDimension(in.periodenPijp, "")
	if err != nil {
		return nil, err
	}
	leadRows, err := extract.ReadLeadTimeFacts(in.leadFacts)
	if err != nil {
		return nil, err
	}
	pipeRows, err := extract.ReadPipelineFacts(in.pipeFacts)
	if err != nil {
		return nil, err
	}

	regiokenmerken, err := transform.Normalize("regiokenmerken", regiokenmerkRows)
	if err != nil {
		return nil, err
	}
	regios, err := transform.Normalize("regios", regioRows)
	if err != nil {
		return nil, err
	}
	// Both cubes carry the same usage-function dimension; the combined
	// normalization keeps one row per code.
	functie, err := transform.Normalize("gebruiksfunctie", append(functieLeadRows, functiePijpRows...))
	if err != nil {
		return nil, err
	}
	woningtype, err := transform.Normalize("woningtype", woningtypeRows)
	if err != nil {
		return nil, err
	}
	perioden, err := transform.NormalizePeriods(r.cfg.Window, periodenLeadRows, periodenPijpRows)
	if err != nil {
		return nil, err
	}

	deriver := transform.NewDeriver(r.cfg.Thresholds, r.cfg.Window)
	leadFacts, err := deriver.DeriveLeadTimes(leadRows, transform.LeadTimeDims{
		Regiokenmerken:  regiokenmerken,
		Gebruiksfunctie: functie,
		Woningtype:      woningtype,
		Perioden:        perioden,
	})
	if err != nil {
		return nil, err
	}
	pipeFacts, err := deriver.DerivePipeline(pipeRows, transform.PipelineDims{
		Regios:          regios,
		Gebruiksfunctie: functie,
		Perioden:        perioden,
	})
	if err != nil {
		return nil, err
	}

	set := store.LoadSet{
		Regiokenmerken:  regiokenmerken,
		Regios:          regios,
		Gebruiksfunctie: functie,
		Woningtype:      woningtype,
		Perioden:        perioden,
		Doorlooptijden:  leadFacts,
		Pijplijn:        pipeFacts,
	}

	a := &artifact.RunArtifact{
		ID:         artifact.NewID(start),
		CreatedAt:  start.UTC(),
		Window:     r.cfg.Window,
		Thresholds: r.cfg.Thresholds,
		StorePath:  r.cfg.Store.Path,
		Tables: map[string]int{
			"dim_regiokenmerken":     regiokenmerken.Len(),
			"dim_regios":             regios.Len(),
			"dim_gebruiksfunctie":    functie.Len(),
			"dim_woningtype":         woningtype.Len(),
			"dim_perioden":           perioden.Len(),
			"fact_doorlooptijden":    len(leadFacts),
			"fact_woningen_pijplijn": len(pipeFacts),
		},
		Nulled: deriver.Summary().Nulled,
	}

	if r.opts.DryRun {
		a.DurationMS = time.Since(start).Milliseconds()
		return a, nil
	}

	svc := store.NewService(r.cfg.Store.Path)
	if err := svc.Connect(); err != nil {
		return nil, err
	}
	defer svc.Close()

	counts, err := store.NewLoader(svc.DB()).Load(ctx, set)
	if err != nil {
		return nil, err
	}
	for table, n := range counts {
		a.Tables[table] = n
	}

	a.DurationMS = time.Since(start).Milliseconds()
	if err := artifact.NewManager(r.cfg.Artifacts.Dir).Publish(a); err != nil {
		return nil, err
	}
	return a, nil
}
