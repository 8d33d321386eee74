package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "nutriload.yaml"

// Environment variables that override the pipeline section.
const (
	EnvDataDir    = "NUTRILOAD_DATA_DIR"
	EnvBatchSize  = "NUTRILOAD_BATCH_SIZE"
	EnvMinRecords = "NUTRILOAD_MIN_RECORDS"
	EnvAllowList  = "NUTRILOAD_ALLOW_LIST"
	EnvSeedFile   = "NUTRILOAD_SEED_FILE"
)

type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
}

type FilesConfig struct {
	Categories    string `yaml:"categories"`
	Nutrients     string `yaml:"nutrients"`
	Foods         string `yaml:"foods"`
	FoodNutrients string `yaml:"food_nutrients"`
}

type PipelineConfig struct {
	DataDir           string            `yaml:"data_dir"`
	Files             FilesConfig       `yaml:"files"`
	NutrientAllowList []int64           `yaml:"nutrient_allow_list"`
	UnitMap           map[string]string `yaml:"unit_map"`
	FactBatchSize     int               `yaml:"fact_batch_size"`
	MinFactRecords    *int64            `yaml:"min_fact_records"`
	SeedFile          string            `yaml:"seed_file"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Timeout    string           `yaml:"timeout"`
}

// Load reads nutriload.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path. A relative seed
// file is resolved against the config file's directory.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if seed := cfg.Pipeline.SeedFile; seed != "" && !filepath.IsAbs(seed) {
		cfg.Pipeline.SeedFile = filepath.Join(filepath.Dir(path), seed)
	}
	return &cfg, nil
}

// ApplyTo overlays the non-empty pipeline settings onto cfg. Lists and maps
// replace the defaults wholesale rather than merging.
func (p *PipelineConfig) ApplyTo(cfg *nutriload.LoadConfig) error {
	if p.DataDir != "" {
		cfg.DataDir = p.DataDir
	}
	if p.Files.Categories != "" {
		cfg.Files.Categories = p.Files.Categories
	}
	if p.Files.Nutrients != "" {
		cfg.Files.Nutrients = p.Files.Nutrients
	}
	if p.Files.Foods != "" {
		cfg.Files.Foods = p.Files.Foods
	}
	if p.Files.FoodNutrients != "" {
		cfg.Files.Facts = p.Files.FoodNutrients
	}
	if len(p.NutrientAllowList) > 0 {
		cfg.NutrientAllowList = append([]int64(nil), p.NutrientAllowList...)
	}
	if len(p.UnitMap) > 0 {
		cfg.UnitMap = normalizeUnitMap(p.UnitMap)
	}
	if p.FactBatchSize != 0 {
		cfg.FactBatchSize = p.FactBatchSize
	}
	if p.MinFactRecords != nil {
		cfg.MinFactRecords = *p.MinFactRecords
	}
	if p.SeedFile != "" {
		facts, err := ReadSeedFile(p.SeedFile)
		if err != nil {
			return err
		}
		cfg.SeedFacts = facts
	}
	return nil
}

// ApplyEnv overlays NUTRILOAD_* variables onto cfg. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *nutriload.LoadConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.DataDir = v
	}

	if v, ok := lookup(EnvBatchSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid $%s value %q: %w", EnvBatchSize, v, nutriload.ErrInvalidConfig)
		}
		cfg.FactBatchSize = n
	}

	if v, ok := lookup(EnvMinRecords); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid $%s value %q: %w", EnvMinRecords, v, nutriload.ErrInvalidConfig)
		}
		cfg.MinFactRecords = n
	}

	if v, ok := lookup(EnvAllowList); ok && v != "" {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("invalid $%s: %w", EnvAllowList, err)
		}
		cfg.NutrientAllowList = ids
	}

	if v, ok := lookup(EnvSeedFile); ok && v != "" {
		facts, err := ReadSeedFile(v)
		if err != nil {
			return err
		}
		cfg.SeedFacts = facts
	}
	return nil
}

// ParseIDList parses a comma separated list of integer ids.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id %q is not an integer: %w", part, nutriload.ErrInvalidConfig)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReadSeedFile reads daily facts from a JSON array, or from YAML when the
// file has a .yaml/.yml extension.
func ReadSeedFile(path string) ([]nutriload.DailyFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", errors.Join(err, nutriload.ErrInvalidConfig))
	}

	var facts []nutriload.DailyFact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &facts)
	default:
		err = json.Unmarshal(data, &facts)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, errors.Join(err, nutriload.ErrInvalidConfig))
	}
	return facts, nil
}

func normalizeUnitMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}
