package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nutriguide/nutriload/internal/db"
	"github.com/nutriguide/nutriload/internal/report"
	"github.com/nutriguide/nutriload/internal/store"
	"github.com/nutriguide/nutriload/internal/ui"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the nutrition tables if they do not exist",
	Long: `Schema applies the embedded DDL to the target database. Every statement
is idempotent, so running it against an initialized database is a no-op.

Example:
  nutriload schema -d nutrition --create-db`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty every nutrition table",
	Long: `Reset truncates food_categories, nutrients, foods, food_nutrients and
daily_facts so that the next load starts from scratch.

On a terminal it asks you to type the database name. Elsewhere it requires
--force, which replaces the prompt with a short countdown.

Example:
  nutriload reset -d nutrition --force`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the row count of every nutrition table",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	schemaCreateDB bool
	resetForce     bool
)

func init() {
	rootCmd.AddCommand(schemaCmd, resetCmd, statusCmd)

	schemaCmd.Flags().BoolVar(&schemaCreateDB, "create-db", false,
		"Create the target database when it does not exist")
	resetCmd.Flags().BoolVar(&resetForce, "force", false,
		"Confirm that all loaded data may be deleted")
}

// withStore resolves the connection, opens a pool and runs fn against a
// PostgresStore. The pool is closed on every path.
func withStore(
	cmd *cobra.Command,
	commandName string,
	createDB bool,
	fn func(ctx context.Context, st *store.PostgresStore, conn *resolvedConnection, logger nutriload.Logger) error,
) error {
	projectCfg, err := loadProjectConfig(commonFlags.configPath)
	if err != nil {
		return err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, commonFlags.timeout)
	if err != nil {
		return err
	}

	logger, err := newLogger(commonFlags.logFormat, commonFlags.verbose, uuid.NewString())
	if err != nil {
		return err
	}
	defer logger.sync()

	conn, err := resolveConnectionFromFlags(commonFlags, db.LoadFromEnvironment(), projectCfg, commandName)
	if err != nil {
		return err
	}
	logConnectionVerbose(logger, conn)

	ctx, cancel := signalContext(timeout)
	defer cancel()

	if createDB {
		if err := ensureDatabase(ctx, conn, logger); err != nil {
			return err
		}
	}

	pool, err := connect(ctx, conn, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, store.NewPostgresStore(pool), conn, logger)
}

func runSchema(cmd *cobra.Command, args []string) error {
	return withStore(cmd, "schema", schemaCreateDB, func(ctx context.Context, st *store.PostgresStore, conn *resolvedConnection, logger nutriload.Logger) error {
		if err := st.ApplySchema(ctx); err != nil {
			return fmt.Errorf("%w: %w", nutriload.ErrLoadFailed, err)
		}
		logger.Info("Schema applied to %s", conn.ConnConfig.Database)
		return nil
	})
}

// errResetNotForced starts with "required flag" so that it maps to the usage exit code.
var errResetNotForced = errors.New(`required flag "--force" not set: reset deletes every loaded row and stdin is not a terminal`)

var errResetDenied = errors.New("reset cancelled")

var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newResetApprover prompts on a terminal and counts down with --force.
func newResetApprover(force, verbose bool) nutriload.Approver {
	if force {
		return ui.NewForcedApprover(verbose)
	}
	return ui.NewInteractiveApprover(verbose)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce && !stdinIsTerminal() {
		return errResetNotForced
	}
	return withStore(cmd, "reset", false, func(ctx context.Context, st *store.PostgresStore, conn *resolvedConnection, logger nutriload.Logger) error {
		approved, err := newResetApprover(resetForce, commonFlags.verbose).RequestApproval(ctx, conn.ConnConfig.Database)
		if err != nil {
			return err
		}
		if !approved {
			return errResetDenied
		}
		if err := st.Truncate(ctx); err != nil {
			return fmt.Errorf("%w: %w", nutriload.ErrLoadFailed, err)
		}
		logger.Info("Truncated %d tables in %s", len(store.Tables), conn.ConnConfig.Database)
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withStore(cmd, "status", false, func(ctx context.Context, st *store.PostgresStore, conn *resolvedConnection, logger nutriload.Logger) error {
		counts, err := st.Counts(ctx)
		if err != nil {
			return fmt.Errorf("failed to count rows (run 'nutriload schema' first?): %w", err)
		}
		return report.NewRenderer(os.Stdout).Status(conn.ConnConfig.Database, counts)
	})
}
