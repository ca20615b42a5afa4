// Package artifact persists run manifests and the latest-run pointer
// that downstream consumers resolve before reading the store.
package artifact

import (
	"time"

	"woonstat/pkg/models"
)

// RunArtifact records what one load run wrote and under which settings.
// Consumers use it to verify the store matches their expectations before
// querying it.
type RunArtifact struct {
	ID         string            `yaml:"id"`
	CreatedAt  time.Time         `yaml:"created_at"`
	Window     models.Window     `yaml:"window"`
	Thresholds models.Thresholds `yaml:"thresholds"`
	StorePath  string            `yaml:"store_path"`
	Tables     map[string]int    `yaml:"tables"`
	Nulled     map[string]int    `yaml:"nulled_metrics,omitempty"`
	DurationMS int64             `yaml:"duration_ms"`
}

// NewID derives the run identifier from its start time.
func NewID(t time.Time) string {
	return "run_" + t.UTC().Format("20060102T150405Z")
}

// TotalRows sums the rows written across all tables.
func (a *RunArtifact) TotalRows() int {
	n := 0
	for _, c := range a.Tables {
		n += c
	}
	return n
}
