package models

import "fmt"

type Config struct {
	Window     Window     `yaml:"window"`
	Datasets   Datasets   `yaml:"datasets"`
	Thresholds Thresholds `yaml:"thresholds"`
	Store      Store      `yaml:"store"`
	Artifacts  Artifacts  `yaml:"artifacts"`
}

// Window is the [start_year, end_year] range a run covers. It must be
// identical across extraction and transform invocations for a run.
type Window struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`
}

// String renders the window the way it appears in extract file names.
func (w Window) String() string {
	return fmt.Sprintf("%d-%d", w.StartYear, w.EndYear)
}

// Contains reports whether a year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.StartYear && year <= w.EndYear
}

// Equal reports whether two windows cover exactly the same range.
func (w Window) Equal(other Window) bool {
	return w.StartYear == other.StartYear && w.EndYear == other.EndYear
}

type Datasets struct {
	RawDir         string  `yaml:"raw_dir"` // directory holding timestamped extracts
	Doorlooptijden Dataset `yaml:"doorlooptijden"`
	Pijplijn       Dataset `yaml:"pijplijn"`
}

// Dataset identifies one CBS cube extract set.
type Dataset struct {
	TableID string `yaml:"table_id"` // e.g. "86260NED"
}

// Thresholds holds the configured cutoffs for derived flags. They are
// stamped into the run artifact for reproducibility.
type Thresholds struct {
	HighVariabilityCV  float64 `yaml:"high_variability_cv"`  // cv above this flags hoge_variabiliteit
	Bottleneck2YearPct float64 `yaml:"bottleneck_2yr_pct"`   // crisis component: share stuck >2 years
	Bottleneck5YearPct float64 `yaml:"bottleneck_5yr_pct"`   // crisis component: share stuck >5 years
	PermitPhasePct     float64 `yaml:"permit_phase_pct"`     // crisis component: share still in permit phase
}

type Store struct {
	Path string `yaml:"path"` // embedded database file
}

type Artifacts struct {
	Dir string `yaml:"dir"` // run artifact directory, holds latest.yaml plus history
}

// DefaultThresholds returns the cutoffs validated against the reference
// extracts. All of them are configuration, never hard-coded downstream.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighVariabilityCV:  0.40,
		Bottleneck2YearPct: 30.0,
		Bottleneck5YearPct: 10.0,
		PermitPhasePct:     60.0,
	}
}

// Validate checks the parts of the config every run depends on.
func (c *Config) Validate() error {
	if c.Window.StartYear == 0 || c.Window.EndYear == 0 {
		return fmt.Errorf("window start_year and end_year are required")
	}
	if c.Window.EndYear < c.Window.StartYear {
		return fmt.Errorf("window end_year (%d) precedes start_year (%d)", c.Window.EndYear, c.Window.StartYear)
	}
	if c.Datasets.RawDir == "" {
		return fmt.Errorf("datasets raw_dir is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts dir is required")
	}
	return nil
}
