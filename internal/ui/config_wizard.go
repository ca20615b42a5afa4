package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"woonstat/pkg/models"
)

// ConfigWizard provides an interactive configuration setup
type ConfigWizard struct {
	currentStep int
	totalSteps  int
}

// NewConfigWizard creates a new configuration wizard
func NewConfigWizard() *ConfigWizard {
	return &ConfigWizard{
		currentStep: 1,
		totalSteps:  4,
	}
}

// Run executes the configuration wizard and returns the resulting config.
func (w *ConfigWizard) Run(base *models.Config) (*models.Config, error) {
	ShowHeader("Woonstat - Configuration Setup")

	config := *base

	if err := w.configureWindowStep(&config); err != nil {
		if err == terminal.InterruptErr {
			return nil, fmt.Errorf("configuration cancelled")
		}
		return nil, err
	}

	if err := w.configurePathsStep(&config); err != nil {
		if err == terminal.InterruptErr {
			return nil, fmt.Errorf("configuration cancelled")
		}
		return nil, err
	}

	if err := w.configureThresholdsStep(&config); err != nil {
		if err == terminal.InterruptErr {
			return nil, fmt.Errorf("configuration cancelled")
		}
		return nil, err
	}

	if err := w.reviewConfiguration(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (w *ConfigWizard) configureWindowStep(config *models.Config) error {
	w.showProgress("Analysis Window")

	questions := []*survey.Question{
		{
			Name: "startYear",
			Prompt: &survey.Input{
				Message: "Start year:",
				Default: strconv.Itoa(config.Window.StartYear),
				Help:    "First calendar year loaded into the store",
			},
			Validate: validateYear,
		},
		{
			Name: "endYear",
			Prompt: &survey.Input{
				Message: "End year:",
				Default: strconv.Itoa(config.Window.EndYear),
				Help:    "Last calendar year loaded into the store (inclusive)",
			},
			Validate: validateYear,
		},
	}

	answers := struct {
		StartYear string
		EndYear   string
	}{}

	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	config.Window.StartYear, _ = strconv.Atoi(answers.StartYear)
	config.Window.EndYear, _ = strconv.Atoi(answers.EndYear)
	if config.Window.EndYear < config.Window.StartYear {
		return fmt.Errorf("end year %d precedes start year %d", config.Window.EndYear, config.Window.StartYear)
	}

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configurePathsStep(config *models.Config) error {
	w.showProgress("Data Locations")

	questions := []*survey.Question{
		{
			Name: "rawDir",
			Prompt: &survey.Input{
				Message: "Raw extract directory:",
				Default: config.Datasets.RawDir,
				Help:    "Directory holding the CBS extract CSV files",
			},
			Validate: survey.Required,
		},
		{
			Name: "storePath",
			Prompt: &survey.Input{
				Message: "Store path:",
				Default: config.Store.Path,
				Help:    "Location of the SQLite analytics store",
			},
			Validate: survey.Required,
		},
		{
			Name: "artifactsDir",
			Prompt: &survey.Input{
				Message: "Artifacts directory:",
				Default: config.Artifacts.Dir,
				Help:    "Directory where run manifests are published",
			},
			Validate: survey.Required,
		},
	}

	answers := struct {
		RawDir       string
		StorePath    string
		ArtifactsDir string
	}{}

	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	config.Datasets.RawDir = answers.RawDir
	config.Store.Path = answers.StorePath
	config.Artifacts.Dir = answers.ArtifactsDir

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureThresholdsStep(config *models.Config) error {
	w.showProgress("Risk Thresholds")

	useDefaults := true
	prompt := &survey.Confirm{
		Message: "Use the default risk thresholds?",
		Default: true,
		Help:    "CV 0.40, two year backlog 30%, five year backlog 10%, permit phase 60%",
	}
	if err := survey.AskOne(prompt, &useDefaults); err != nil {
		return err
	}
	if useDefaults {
		config.Thresholds = models.DefaultThresholds()
		w.currentStep++
		return nil
	}

	questions := []*survey.Question{
		{
			Name: "cv",
			Prompt: &survey.Input{
				Message: "High variability CV threshold:",
				Default: formatFloat(config.Thresholds.HighVariabilityCV),
				Help:    "Lead time spread above this flags hoge_variabiliteit",
			},
			Validate: validateFloat,
		},
		{
			Name: "twoYear",
			Prompt: &survey.Input{
				Message: "Two year backlog threshold (%):",
				Default: formatFloat(config.Thresholds.Bottleneck2YearPct),
			},
			Validate: validateFloat,
		},
		{
			Name: "fiveYear",
			Prompt: &survey.Input{
				Message: "Five year backlog threshold (%):",
				Default: formatFloat(config.Thresholds.Bottleneck5YearPct),
			},
			Validate: validateFloat,
		},
		{
			Name: "permitPhase",
			Prompt: &survey.Input{
				Message: "Permit phase threshold (%):",
				Default: formatFloat(config.Thresholds.PermitPhasePct),
			},
			Validate: validateFloat,
		},
	}

	answers := struct {
		CV          string
		TwoYear     string
		FiveYear    string
		PermitPhase string
	}{}

	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	config.Thresholds.HighVariabilityCV, _ = strconv.ParseFloat(answers.CV, 64)
	config.Thresholds.Bottleneck2YearPct, _ = strconv.ParseFloat(answers.TwoYear, 64)
	config.Thresholds.Bottleneck5YearPct, _ = strconv.ParseFloat(answers.FiveYear, 64)
	config.Thresholds.PermitPhasePct, _ = strconv.ParseFloat(answers.PermitPhase, 64)

	w.currentStep++
	return nil
}

func (w *ConfigWizard) reviewConfiguration(config *models.Config) error {
	w.showProgress("Review Configuration")

	fmt.Println("\n" + ColorInfo("Configuration Summary:"))
	fmt.Println(strings.Repeat("-", 50))

	fmt.Println(ColorBold("\nWindow:"))
	fmt.Printf("  Years:     %s\n", config.Window.String())

	fmt.Println(ColorBold("\nData:"))
	fmt.Printf("  Raw dir:   %s\n", config.Datasets.RawDir)
	fmt.Printf("  Store:     %s\n", config.Store.Path)
	fmt.Printf("  Artifacts: %s\n", config.Artifacts.Dir)

	fmt.Println(ColorBold("\nThresholds:"))
	fmt.Printf("  CV:            %s\n", formatFloat(config.Thresholds.HighVariabilityCV))
	fmt.Printf("  2yr backlog:   %s%%\n", formatFloat(config.Thresholds.Bottleneck2YearPct))
	fmt.Printf("  5yr backlog:   %s%%\n", formatFloat(config.Thresholds.Bottleneck5YearPct))
	fmt.Printf("  Permit phase:  %s%%\n", formatFloat(config.Thresholds.PermitPhasePct))

	fmt.Println(strings.Repeat("-", 50))

	confirm := false
	prompt := &survey.Confirm{
		Message: "Save this configuration?",
		Default: true,
	}

	if err := survey.AskOne(prompt, &confirm); err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("configuration cancelled")
	}

	return nil
}

func (w *ConfigWizard) showProgress(step string) {
	fmt.Printf("\n%s [Step %d/%d] %s\n\n",
		ColorProgress(">"),
		w.currentStep,
		w.totalSteps,
		ColorBold(step),
	)
}

func validateYear(val interface{}) error {
	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected a year")
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 2999 {
		return fmt.Errorf("%q is not a valid year", s)
	}
	return nil
}

func validateFloat(val interface{}) error {
	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected a number")
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
