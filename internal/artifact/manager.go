package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"woonstat/internal/common"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

const latestFile = "latest.yaml"

// Manager reads and writes run artifacts in a single directory. Each
// run gets its own timestamped file; latest.yaml always points at the
// run the store currently reflects.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) root() (string, error) {
	dir, err := common.CleanPath(m.dir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArtifactPublish, "Invalid artifact directory").
			WithContext("dir", m.dir)
	}
	return dir, nil
}

// Publish writes the run file and then swaps the latest pointer. The
// swap goes through a temp file and a rename so a reader never sees a
// half-written latest.yaml.
func (m *Manager) Publish(a *RunArtifact) error {
	dir, err := m.root()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, common.DirPermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to create artifact directory").
			WithContext("dir", dir)
	}

	data, err := yaml.Marshal(a)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to encode run artifact").
			WithContext("run_id", a.ID)
	}

	runPath := filepath.Join(dir, a.ID+".yaml")
	if err := os.WriteFile(runPath, data, common.FilePermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to write run artifact").
			WithContext("path", runPath)
	}

	tmp, err := os.CreateTemp(dir, "latest-*.yaml.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to stage latest pointer")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to stage latest pointer")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to stage latest pointer")
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, latestFile)); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCodeArtifactPublish, "Failed to publish latest pointer")
	}
	return nil
}

// Latest returns the artifact the latest pointer names.
func (m *Manager) Latest() (*RunArtifact, error) {
	dir, err := m.root()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, latestFile)
	data, err := os.ReadFile(path) // #nosec G304 - path is rooted at the artifact directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "No published run found").
				WithContext("dir", m.dir).
				WithSuggestions("Run 'woonstat run' to load the store and publish a run artifact")
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactNotFound, "Failed to read latest pointer").
			WithContext("path", path)
	}

	var a RunArtifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactCorrupt, "Latest pointer is not a valid run artifact").
			WithContext("path", path)
	}
	return &a, nil
}

// Resolve returns the latest artifact after verifying it was produced
// with the given window. A mismatch means the store holds a different
// slice of history than the caller expects.
func (m *Manager) Resolve(window models.Window) (*RunArtifact, error) {
	a, err := m.Latest()
	if err != nil {
		return nil, err
	}
	if !a.Window.Equal(window) {
		return nil, errors.ConfigMismatchError(
			"Published run does not cover the configured window",
			window.String(),
			a.Window.String(),
		).WithContext("run_id", a.ID).
			WithSuggestions("Rerun the load with the current configuration")
	}
	return a, nil
}

// List returns all published runs, oldest first.
func (m *Manager) List() ([]*RunArtifact, error) {
	dir, err := m.root()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactNotFound, "Failed to list artifacts").
			WithContext("dir", dir)
	}

	var runs []*RunArtifact
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "run_") || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeArtifactNotFound, "Failed to read run artifact").
				WithContext("file", name)
		}
		var a RunArtifact
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeArtifactCorrupt, "Run artifact is not valid").
				WithContext("file", name)
		}
		runs = append(runs, &a)
	}

	// Timestamped IDs sort chronologically
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}
