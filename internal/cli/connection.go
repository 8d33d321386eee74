package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriguide/nutriload/internal/config"
	"github.com/nutriguide/nutriload/internal/db"
	"github.com/nutriguide/nutriload/internal/db/manager"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// resolvedConnection holds the resolved connection configuration.
type resolvedConnection struct {
	ConnConfig    *nutriload.ConnectionConfig
	MaintenanceDB string
}

// resolveConnectionFromFlags resolves the connection from flags, the
// environment and the project config, and requires a target database.
func resolveConnectionFromFlags(
	flags commonFlagValues,
	env *db.EnvVars,
	projectCfg *config.ProjectConfig,
	commandName string,
) (*resolvedConnection, error) {
	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	connConfig, maintenanceDB, err := db.ResolveConnectionParams(flags.connection, granularFlags, env, projectCfg)
	if err != nil {
		return nil, err
	}

	if connConfig.Database == "" {
		return nil, fmt.Errorf("database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: nutriload %s -d nutrition\n"+
			"  2. Connection string: nutriload %s --connection \"postgresql://etl@localhost/nutrition\"\n"+
			"  3. Environment variable: export PGDATABASE=nutrition\n"+
			"  4. connection.database in nutriload.yaml: %w",
			commandName, commandName, nutriload.ErrInvalidConfig)
	}

	return &resolvedConnection{ConnConfig: connConfig, MaintenanceDB: maintenanceDB}, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger nutriload.Logger, conn *resolvedConnection) {
	cfg := conn.ConnConfig
	logger.Verbose("Connection resolved: host=%s port=%d user=%s database=%s maintenance=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Database, conn.MaintenanceDB, cfg.SSLMode)
}

// newConnector builds the connector used by every command.
var newConnector = func(cfg *nutriload.ConnectionConfig, logger nutriload.Logger) nutriload.Connector {
	return db.NewStandardConnector(cfg, logger)
}

// connect opens a pool to the target database. The caller closes it.
func connect(ctx context.Context, conn *resolvedConnection, logger nutriload.Logger) (*pgxpool.Pool, error) {
	return newConnector(conn.ConnConfig, logger).Connect(ctx)
}

// ensureDatabase creates the target database through the maintenance
// database when it is missing.
func ensureDatabase(ctx context.Context, conn *resolvedConnection, logger nutriload.Logger) error {
	target := conn.ConnConfig.Database
	maintenance := db.WithDatabase(conn.ConnConfig, conn.MaintenanceDB)

	pool, err := newConnector(maintenance, logger).Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	created, err := manager.EnsureDatabase(ctx, manager.New(), db.NewPoolAdapter(pool), target)
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", target, err)
	}
	if created {
		logger.Info("Created database %s", target)
	} else {
		logger.Verbose("Database %s already exists", target)
	}
	return nil
}
