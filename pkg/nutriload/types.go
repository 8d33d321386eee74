package nutriload

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string
}

// SourceFiles names the input CSV files inside the data directory.
type SourceFiles struct {
	Categories string
	Nutrients  string
	Foods      string
	Facts      string
}

// DefaultSourceFiles returns the SR Legacy file names.
func DefaultSourceFiles() SourceFiles {
	return SourceFiles{
		Categories: DefaultCategoryFile,
		Nutrients:  DefaultNutrientFile,
		Foods:      DefaultFoodFile,
		Facts:      DefaultFactFile,
	}
}

// LoadConfig contains all parameters needed for one pipeline run.
// It is built once by the CLI and passed to the pipeline at construction;
// nothing in the pipeline reads globals.
type LoadConfig struct {
	// DataDir is the directory holding the input CSV files
	DataDir string

	// Files are the input file names relative to DataDir
	Files SourceFiles

	// NutrientAllowList is the set of nutrient ids retained by the nutrient stage
	NutrientAllowList []int64

	// UnitMap maps upper-cased source unit codes to display units
	UnitMap map[string]string

	// FactBatchSize is the number of fact rows per write-and-commit chunk
	FactBatchSize int

	// MinFactRecords is the fact count a run must reach to pass
	MinFactRecords int64

	// SeedFacts is the editorial content written by the seed stage
	SeedFacts []DailyFact

	// Strict turns a missed threshold into an error
	Strict bool

	// DryRun runs every stage against an in-memory store
	DryRun bool

	// Verbose enables detailed logging
	Verbose bool
}

// DefaultLoadConfig returns a LoadConfig populated with the built-in defaults.
func DefaultLoadConfig() LoadConfig {
	allow := make([]int64, len(DefaultNutrientAllowList))
	copy(allow, DefaultNutrientAllowList)

	units := make(map[string]string, len(DefaultUnitMap))
	for k, v := range DefaultUnitMap {
		units[k] = v
	}

	seed := make([]DailyFact, len(DefaultDailyFacts))
	copy(seed, DefaultDailyFacts)

	return LoadConfig{
		DataDir:           ".",
		Files:             DefaultSourceFiles(),
		NutrientAllowList: allow,
		UnitMap:           units,
		FactBatchSize:     DefaultFactBatchSize,
		MinFactRecords:    DefaultMinFactRecords,
		SeedFacts:         seed,
	}
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("DataDir is required: %w", ErrInvalidConfig))
	}

	if c.Files.Categories == "" || c.Files.Nutrients == "" || c.Files.Foods == "" || c.Files.Facts == "" {
		errs = append(errs, fmt.Errorf("all four input file names are required: %w", ErrInvalidConfig))
	}

	if len(c.NutrientAllowList) == 0 {
		errs = append(errs, fmt.Errorf("nutrient allow-list cannot be empty: %w", ErrInvalidConfig))
	}

	if c.FactBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("fact batch size must be positive, got %d: %w", c.FactBatchSize, ErrInvalidConfig))
	}

	if c.MinFactRecords < 0 {
		errs = append(errs, fmt.Errorf("minimum record count cannot be negative: %w", ErrInvalidConfig))
	}

	for i, f := range c.SeedFacts {
		if f.Text == "" {
			errs = append(errs, fmt.Errorf("seed fact %d has no text: %w", i, ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}
