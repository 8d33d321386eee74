package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nutriguide/nutriload/internal/config"
	"github.com/nutriguide/nutriload/internal/db"
	"github.com/nutriguide/nutriload/internal/etl"
	"github.com/nutriguide/nutriload/internal/files/filesystem"
	"github.com/nutriguide/nutriload/internal/report"
	"github.com/nutriguide/nutriload/internal/source"
	"github.com/nutriguide/nutriload/internal/store"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

var loadCmd = &cobra.Command{
	Use:   "load [data_dir]",
	Short: "Load the SR Legacy CSV files into PostgreSQL",
	Long: `Load reads the four SR Legacy CSV files from data_dir (default: the
current directory, $NUTRILOAD_DATA_DIR or pipeline.data_dir) and writes them
in five stages:

1. food categories
2. nutrients on the allow-list, with normalized units
3. foods whose category was loaded
4. nutrient facts whose food and nutrient were loaded, committed in chunks
5. daily facts (replaced on every run)

Rows that fail a filter are counted and reported, never fatal. A run that
stays below --min-records facts is reported as failed; with --strict it
also exits with code 15.

Examples:
  # Load from ./data into the nutrition database
  nutriload load ./data -d nutrition

  # First run against a fresh server
  nutriload load ./data -d nutrition --create-db --init-schema

  # Check the input without touching the database
  nutriload load ./data --dry-run`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeDirectories,
	RunE:              runLoad,
}

type loadFlagValues struct {
	batchSize  int
	minRecords int64
	seedFile   string
	initSchema bool
	createDB   bool
	dryRun     bool
	strict     bool
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)
	registerLoadFlags(loadCmd)
}

func registerLoadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&loadFlags.batchSize, "batch-size", nutriload.DefaultFactBatchSize,
		"Fact rows written and committed per chunk")
	f.Int64Var(&loadFlags.minRecords, "min-records", nutriload.DefaultMinFactRecords,
		"Fact count a run must reach to pass")
	f.StringVar(&loadFlags.seedFile, "seed-file", "",
		"JSON or YAML file of daily facts ([{\"fact_text\": ..., \"category\": ...}])\n"+
			"replacing the built-in set")
	f.BoolVar(&loadFlags.initSchema, "init-schema", false,
		"Create missing tables before loading")
	f.BoolVar(&loadFlags.createDB, "create-db", false,
		"Create the target database when it does not exist")
	f.BoolVar(&loadFlags.dryRun, "dry-run", false,
		"Read, filter and transform into memory; write nothing")
	f.BoolVar(&loadFlags.strict, "strict", false,
		"Exit with an error when fewer than --min-records facts are loaded")
}

// buildLoadConfig layers defaults, nutriload.yaml, NUTRILOAD_* variables and
// flags, in increasing precedence.
func buildLoadConfig(
	cmd *cobra.Command,
	args []string,
	projectCfg *config.ProjectConfig,
	lookupEnv func(string) (string, bool),
) (nutriload.LoadConfig, error) {
	cfg := nutriload.DefaultLoadConfig()

	if projectCfg != nil {
		if err := projectCfg.Pipeline.ApplyTo(&cfg); err != nil {
			return cfg, err
		}
	}

	if err := config.ApplyEnv(&cfg, lookupEnv); err != nil {
		return cfg, err
	}

	if len(args) > 0 {
		cfg.DataDir = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		cfg.FactBatchSize = loadFlags.batchSize
	}
	if flags.Changed("min-records") {
		cfg.MinFactRecords = loadFlags.minRecords
	}
	if loadFlags.seedFile != "" {
		facts, err := config.ReadSeedFile(loadFlags.seedFile)
		if err != nil {
			return cfg, err
		}
		cfg.SeedFacts = facts
	}
	cfg.Strict = loadFlags.strict
	cfg.DryRun = loadFlags.dryRun
	cfg.Verbose = commonFlags.verbose

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	info, err := os.Stat(cfg.DataDir)
	if err != nil || !info.IsDir() {
		return cfg, fmt.Errorf("data directory %s does not exist or is not a directory: %w",
			cfg.DataDir, nutriload.ErrSourceUnreadable)
	}
	return cfg, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	projectCfg, err := loadProjectConfig(commonFlags.configPath)
	if err != nil {
		return err
	}

	cfg, err := buildLoadConfig(cmd, args, projectCfg, os.LookupEnv)
	if err != nil {
		return err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, commonFlags.timeout)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, err := newLogger(commonFlags.logFormat, commonFlags.verbose, runID)
	if err != nil {
		return err
	}
	defer logger.sync()

	ctx, cancel := signalContext(timeout)
	defer cancel()

	var st nutriload.Store
	if cfg.DryRun {
		logger.Info("Dry run: nothing will be written to the database")
		st = store.NewMemoryStore()
	} else {
		conn, err := resolveConnectionFromFlags(commonFlags, db.LoadFromEnvironment(), projectCfg, "load")
		if err != nil {
			return err
		}
		logConnectionVerbose(logger, conn)

		if loadFlags.createDB {
			if err := ensureDatabase(ctx, conn, logger); err != nil {
				return err
			}
		}

		pool, err := connect(ctx, conn, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if loadFlags.initSchema {
			if err := pg.ApplySchema(ctx); err != nil {
				return fmt.Errorf("%w: %w", nutriload.ErrLoadFailed, err)
			}
			logger.Verbose("Schema applied")
		}
		st = pg
	}

	src := source.NewCSVSource(filesystem.NewOSFileSystem(), cfg.DataDir, cfg.Files, logger)
	pipeline := etl.NewPipeline(cfg, src, st, logger, etl.WithRunID(runID))

	summary, runErr := pipeline.Run(ctx)
	if summary != nil {
		if err := report.NewRenderer(os.Stdout).Summary(summary); err != nil {
			logger.Error("Failed to write summary: %v", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("load aborted: %w", runErr)
	}
	return nil
}
