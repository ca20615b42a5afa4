package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

func testArtifact(id string, window models.Window) *RunArtifact {
	return &RunArtifact{
		ID:         id,
		CreatedAt:  time.Date(2026, 8, 26, 10, 15, 0, 0, time.UTC),
		Window:     window,
		Thresholds: models.DefaultThresholds(),
		StorePath:  "data/housing_analytics.db",
		Tables: map[string]int{
			"dim_regios":          415,
			"fact_doorlooptijden": 1200,
		},
		Nulled:     map[string]int{"doorlooptijd_cv": 3},
		DurationMS: 840,
	}
}

func TestNewID(t *testing.T) {
	ts := time.Date(2026, 8, 26, 10, 15, 30, 0, time.UTC)
	assert.Equal(t, "run_20260826T101530Z", NewID(ts))
}

func TestPublishAndLatest(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	window := models.Window{StartYear: 2015, EndYear: 2024}

	require.NoError(t, m.Publish(testArtifact("run_20260826T101500Z", window)))

	// Both the run file and the pointer exist
	_, err := os.Stat(filepath.Join(dir, "run_20260826T101500Z.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "latest.yaml"))
	require.NoError(t, err)

	a, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, "run_20260826T101500Z", a.ID)
	assert.Equal(t, window, a.Window)
	assert.Equal(t, models.DefaultThresholds(), a.Thresholds)
	assert.Equal(t, 415, a.Tables["dim_regios"])
	assert.Equal(t, 3, a.Nulled["doorlooptijd_cv"])
	assert.Equal(t, 1615, a.TotalRows())

	// No stray temp files after the pointer swap
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestLatestPointerTracksNewestRun(t *testing.T) {
	m := NewManager(t.TempDir())
	window := models.Window{StartYear: 2015, EndYear: 2024}

	require.NoError(t, m.Publish(testArtifact("run_20260825T090000Z", window)))
	require.NoError(t, m.Publish(testArtifact("run_20260826T101500Z", window)))

	a, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, "run_20260826T101500Z", a.ID)
}

func TestLatestMissing(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.Latest()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactNotFound))
}

func TestLatestCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest.yaml"), []byte("{not yaml:"), 0o644))

	_, err := NewManager(dir).Latest()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactCorrupt))
}

func TestResolveWindowMismatch(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Publish(testArtifact("run_20260826T101500Z", models.Window{StartYear: 2015, EndYear: 2023})))

	_, err := m.Resolve(models.Window{StartYear: 2015, EndYear: 2024})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigMismatch))
	assert.Contains(t, err.Error(), "window")
}

func TestResolveMatch(t *testing.T) {
	m := NewManager(t.TempDir())
	window := models.Window{StartYear: 2015, EndYear: 2024}
	require.NoError(t, m.Publish(testArtifact("run_20260826T101500Z", window)))

	a, err := m.Resolve(window)
	require.NoError(t, err)
	assert.Equal(t, "run_20260826T101500Z", a.ID)
}

func TestListOrdersRuns(t *testing.T) {
	m := NewManager(t.TempDir())
	window := models.Window{StartYear: 2015, EndYear: 2024}

	require.NoError(t, m.Publish(testArtifact("run_20260826T101500Z", window)))
	require.NoError(t, m.Publish(testArtifact("run_20260825T090000Z", window)))

	runs, err := m.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_20260825T090000Z", runs[0].ID)
	assert.Equal(t, "run_20260826T101500Z", runs[1].ID)
}

func TestListEmptyDir(t *testing.T) {
	runs, err := NewManager(filepath.Join(t.TempDir(), "missing")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
