package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"woonstat/internal/common"
	"woonstat/pkg/models"
)

func GetConfigPath() string {
	// Check for environment variable first
	if configPath := os.Getenv("WOONSTAT_CONFIG"); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".woonstat")
}

func GetConfigFile() string {
	// Check for environment variable first
	if configFile := os.Getenv("WOONSTAT_CONFIG"); configFile != "" {
		// Validate the path to prevent directory traversal
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			// Fall back to default if invalid
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

func Load() (*models.Config, error) {
	configFile := GetConfigFile()

	cleanedPath, err := common.CleanPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	// A missing config file yields defaults; Validate catches what setup
	// has not filled in yet.
	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

func Save(config *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := GetConfigFile()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// Default returns a config with the reference cube IDs, thresholds and
// paths filled in; the analysis window still comes from the user.
func Default() *models.Config {
	return &models.Config{
		Datasets: models.Datasets{
			RawDir:         "data/raw",
			Doorlooptijden: models.Dataset{TableID: "86260NED"},
			Pijplijn:       models.Dataset{TableID: "82211NED"},
		},
		Thresholds: models.DefaultThresholds(),
		Store:      models.Store{Path: "data/housing_analytics.db"},
		Artifacts:  models.Artifacts{Dir: "data/processed"},
	}
}
